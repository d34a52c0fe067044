package segment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Allegre7tto/SearchEngineDemo/internal/posting"
	"github.com/Allegre7tto/SearchEngineDemo/pkg/kafka"
	"github.com/Allegre7tto/SearchEngineDemo/pkg/metrics"
)

// EventPublisher is the slice of the Kafka producer the emitter needs.
type EventPublisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Emitter fans a document's term positions out as individual posting events
// on the message channel. Emission order across terms and positions is
// unspecified; downstream consumers only rely on the position values.
type Emitter struct {
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewEmitter creates an Emitter publishing through the given producer.
// metrics may be nil.
func NewEmitter(publisher EventPublisher, m *metrics.Metrics) *Emitter {
	return &Emitter{
		publisher: publisher,
		metrics:   m,
		logger:    slog.Default().With("component", "emitter"),
	}
}

// Emit publishes one posting event per (term, position) pair of the document.
func (e *Emitter) Emit(ctx context.Context, docID int, termPositions map[string][]int) error {
	if len(termPositions) == 0 {
		return nil
	}
	events := make([]kafka.Event, 0, len(termPositions))
	for term, positions := range termPositions {
		for _, pos := range positions {
			ev := posting.Event{Term: term, DocumentID: docID, Position: pos}
			events = append(events, kafka.Event{Key: ev.Key(), Value: ev})
		}
	}
	if err := e.publisher.PublishBatch(ctx, events); err != nil {
		return fmt.Errorf("emitting %d posting events for document %d: %w", len(events), docID, err)
	}
	if e.metrics != nil {
		e.metrics.PostingEventsTotal.Add(float64(len(events)))
	}
	e.logger.Debug("posting events emitted", "doc_id", docID, "events", len(events))
	return nil
}
