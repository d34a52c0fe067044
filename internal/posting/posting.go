// Package posting defines the posting event that flows from the segmentation
// workers to the batch consumer, and the string codec used to persist posting
// lists in the dict table.
//
// A persisted posting list is a comma-joined sequence of "docID:position"
// entries, e.g. "1:3,2:5,3:2". Appending batches to an existing list can
// leave a leading separator; the decoder tolerates and strips it.
package posting

import (
	"strconv"
	"strings"
)

// Event is a single observation of a term at a position within a document.
type Event struct {
	Term       string `json:"term"`
	DocumentID int    `json:"document_id"`
	Position   int    `json:"position"`
}

// Key returns the partition key for the event. Keying by term keeps all
// postings of one term on a single partition.
func (e Event) Key() string {
	return e.Term
}

// Entry renders the event's document/position pair in storage form.
func (e Event) Entry() string {
	return strconv.Itoa(e.DocumentID) + ":" + strconv.Itoa(e.Position)
}

// EncodeEntries joins document/position pairs into storage form. The result
// carries no leading separator; the store adds one when appending to an
// existing list.
func EncodeEntries(events []Event) string {
	var sb strings.Builder
	for i, ev := range events {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(ev.Entry())
	}
	return sb.String()
}

// DecodePositions parses a stored posting list into a map from document id to
// its ordered positions. Malformed entries (wrong field count, non-numeric
// parts) are skipped rather than failing the whole list.
func DecodePositions(s string) map[int][]int {
	result := make(map[int][]int)
	if s == "" {
		return result
	}
	s = strings.TrimPrefix(s, ",")

	for _, entry := range strings.Split(s, ",") {
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 2 {
			continue
		}
		docID, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			continue
		}
		pos, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			continue
		}
		result[docID] = append(result[docID], pos)
	}
	return result
}

// TermFrequencies returns the per-document occurrence count for a decoded
// posting list.
func TermFrequencies(positions map[int][]int) map[int]int {
	result := make(map[int]int, len(positions))
	for docID, pos := range positions {
		result[docID] = len(pos)
	}
	return result
}

// DocumentFrequency returns the number of distinct documents in a decoded
// posting list.
func DocumentFrequency(positions map[int][]int) int {
	return len(positions)
}
