package transcripts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Record stores the analysis of one completed call. Records are append-only:
// a conversation series accumulates them over time and only the most recent
// one is ever read back.
type Record struct {
	ID                string          `json:"id"`
	VapiCallID        string          `json:"vapi_call_id"`
	InterviewSeriesID string          `json:"interview_series_id"`
	Transcript        json.RawMessage `json:"transcript,omitempty"`
	Summary           string          `json:"summary"`
	KeyInsights       []string        `json:"key_insights"`
	ActionItems       []string        `json:"action_items"`
	ContextSummary    string          `json:"context_summary"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ContextText returns the text injected into the next call of the series:
// the synthesized context summary when present, otherwise the plain summary.
func (r Record) ContextText() string {
	if r.ContextSummary != "" {
		return r.ContextSummary
	}
	return r.Summary
}

// Store persists and retrieves call transcript records.
type Store interface {
	Insert(ctx context.Context, record Record) (string, error)
	LatestBySeries(ctx context.Context, seriesID string) (*Record, error)
	Close() error
}

// StoreError reports an unreachable or misbehaving transcript store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("transcript store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
