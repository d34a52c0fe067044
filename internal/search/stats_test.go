package search

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
)

type countingStatsReader struct {
	totalCalls atomic.Int64
	avgCalls   atomic.Int64
	total      int
	avg        float64
}

func (c *countingStatsReader) TotalDocumentCount(ctx context.Context) (int, error) {
	c.totalCalls.Add(1)
	return c.total, nil
}

func (c *countingStatsReader) AverageDocumentLength(ctx context.Context) (float64, error) {
	c.avgCalls.Add(1)
	return c.avg, nil
}

func TestStatsCacheLazyPopulation(t *testing.T) {
	reader := &countingStatsReader{total: 42, avg: 7.5}
	cache := NewStatsCache(reader, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		n, err := cache.TotalDocuments(ctx)
		if err != nil {
			t.Fatalf("TotalDocuments: %v", err)
		}
		if n != 42 {
			t.Fatalf("TotalDocuments = %d, want 42", n)
		}
	}
	if calls := reader.totalCalls.Load(); calls != 1 {
		t.Errorf("store called %d times for total, want 1", calls)
	}

	for i := 0; i < 5; i++ {
		avg, err := cache.AverageDocumentLength(ctx)
		if err != nil {
			t.Fatalf("AverageDocumentLength: %v", err)
		}
		if avg != 7.5 {
			t.Fatalf("AverageDocumentLength = %v, want 7.5", avg)
		}
	}
	if calls := reader.avgCalls.Load(); calls != 1 {
		t.Errorf("store called %d times for average, want 1", calls)
	}
}

func TestStatsCacheInvalidate(t *testing.T) {
	reader := &countingStatsReader{total: 10, avg: 3}
	cache := NewStatsCache(reader, nil)
	ctx := context.Background()

	if _, err := cache.TotalDocuments(ctx); err != nil {
		t.Fatalf("TotalDocuments: %v", err)
	}
	if _, err := cache.AverageDocumentLength(ctx); err != nil {
		t.Fatalf("AverageDocumentLength: %v", err)
	}

	cache.Invalidate()
	reader.total = 11

	n, err := cache.TotalDocuments(ctx)
	if err != nil {
		t.Fatalf("TotalDocuments: %v", err)
	}
	if n != 11 {
		t.Errorf("TotalDocuments after invalidate = %d, want 11", n)
	}
	if calls := reader.totalCalls.Load(); calls != 2 {
		t.Errorf("store called %d times for total, want 2 (one per population)", calls)
	}

	// Reads after repopulation stay cached.
	if _, err := cache.TotalDocuments(ctx); err != nil {
		t.Fatalf("TotalDocuments: %v", err)
	}
	if calls := reader.totalCalls.Load(); calls != 2 {
		t.Errorf("store called %d times for total after cached read, want 2", calls)
	}
}

func TestStatsCacheConcurrentFirstRead(t *testing.T) {
	reader := &countingStatsReader{total: 5, avg: 2}
	cache := NewStatsCache(reader, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.TotalDocuments(ctx); err != nil {
				t.Errorf("TotalDocuments: %v", err)
			}
		}()
	}
	wg.Wait()

	if calls := reader.totalCalls.Load(); calls != 1 {
		t.Errorf("concurrent misses issued %d store calls, want 1", calls)
	}
}

func TestStatsCacheWarm(t *testing.T) {
	reader := &countingStatsReader{total: 3, avg: 1.5}
	cache := NewStatsCache(reader, nil)
	if err := cache.Warm(context.Background()); err != nil {
		t.Fatalf("Warm: %v", err)
	}
	if reader.totalCalls.Load() != 1 || reader.avgCalls.Load() != 1 {
		t.Errorf("Warm issued %d/%d store calls, want 1/1",
			reader.totalCalls.Load(), reader.avgCalls.Load())
	}
}
