// Package webhook ingests provider callbacks and persists call transcripts.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/umbrosa/umbrosa/internal/transcripts"
)

// EventEndOfCallReport is the terminal event type carrying the call analysis.
// Vapi sends many intermediate event types per call; everything else is a
// no-op here.
const EventEndOfCallReport = "end-of-call-report"

const (
	StatusIgnored = "ignored"
	StatusStored  = "stored"
)

// Payload is the provider callback body.
type Payload struct {
	Message Message `json:"message"`
}

type Message struct {
	Type string   `json:"type"`
	Call CallData `json:"call"`
}

type CallData struct {
	ID         string            `json:"id"`
	Transcript json.RawMessage   `json:"transcript,omitempty"`
	Analysis   Analysis          `json:"analysis"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type Analysis struct {
	Summary     string   `json:"summary"`
	ActionItems []string `json:"actionItems"`
}

// Result is the structured outcome of one ingest.
type Result struct {
	Status    string `json:"status"`
	StorageID string `json:"storage_id,omitempty"`
}

// PayloadError reports a callback body that could not be understood.
type PayloadError struct {
	Err error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("webhook payload: %v", e.Err)
}

func (e *PayloadError) Unwrap() error { return e.Err }

// Ingestor writes end-of-call reports into the transcript store.
type Ingestor struct {
	store transcripts.Store
}

func NewIngestor(store transcripts.Store) *Ingestor {
	return &Ingestor{store: store}
}

// Ingest processes one callback body. Non end-of-call-report events are an
// idempotent no-op. A valid report inserts exactly one record; repeated
// reports for the same call append repeated records, which the append-only
// store accepts.
func (i *Ingestor) Ingest(ctx context.Context, body []byte) (Result, error) {
	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return Result{}, &PayloadError{Err: err}
	}

	msg := payload.Message
	if msg.Type != EventEndOfCallReport {
		return Result{Status: StatusIgnored}, nil
	}

	call := msg.Call
	if call.ID == "" {
		return Result{}, &PayloadError{Err: fmt.Errorf("end-of-call-report missing call id")}
	}

	summary := call.Analysis.Summary
	actionItems := call.Analysis.ActionItems
	// Key insights are sourced from the same analysis field as action items.
	keyInsights := actionItems

	record := transcripts.Record{
		VapiCallID:        call.ID,
		InterviewSeriesID: call.Metadata["interviewSeriesId"],
		Transcript:        call.Transcript,
		Summary:           summary,
		KeyInsights:       keyInsights,
		ActionItems:       actionItems,
		ContextSummary:    buildContextSummary(summary, keyInsights),
	}

	id, err := i.store.Insert(ctx, record)
	if err != nil {
		return Result{}, err
	}
	return Result{Status: StatusStored, StorageID: id}, nil
}

func buildContextSummary(summary string, keyInsights []string) string {
	return "Summary: " + summary + "\n\nKey Insights: " + strings.Join(keyInsights, "; ")
}
