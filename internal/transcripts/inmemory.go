package transcripts

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a simple in-process transcript store for local/dev use.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Insert(_ context.Context, record Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	s.records = append(s.records, record)
	return record.ID, nil
}

func (s *InMemoryStore) LatestBySeries(_ context.Context, seriesID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *Record
	for i := range s.records {
		r := s.records[i]
		if r.InterviewSeriesID != seriesID {
			continue
		}
		if latest == nil || !r.CreatedAt.Before(latest.CreatedAt) {
			latest = &r
		}
	}
	if latest == nil {
		return nil, nil
	}
	out := *latest
	return &out, nil
}

// All returns a snapshot of every stored record in insertion order.
func (s *InMemoryStore) All() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

func (s *InMemoryStore) Close() error { return nil }
