package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/umbrosa/umbrosa/internal/directory"
	"github.com/umbrosa/umbrosa/internal/observability"
	"github.com/umbrosa/umbrosa/internal/scheduler"
	"github.com/umbrosa/umbrosa/internal/transcripts"
	"github.com/umbrosa/umbrosa/internal/webhook"
)

type stubRunner struct {
	mu      sync.Mutex
	batches []string
	done    chan struct{}
}

func (r *stubRunner) RunBatch(_ context.Context, batch string) (scheduler.BatchReport, error) {
	r.mu.Lock()
	r.batches = append(r.batches, batch)
	r.mu.Unlock()
	if r.done != nil {
		close(r.done)
	}
	return scheduler.BatchReport{Batch: batch}, nil
}

func testDirectory(t *testing.T) *directory.Directory {
	t.Helper()
	dir, err := directory.New(directory.Options{
		PhoneNumberID:         "pn-1",
		MariaAssistantID:      "f024a1ed-343e-4363-8b2d-9daf6af31110",
		ViAssistantID:         "43950926-3935-4853-8475-14da102748b5",
		InterviewSeriesMarcus: "a6462580-007c-4e31-805a-acd5de1dfee3",
		InterviewSeriesSue:    "70b87980-eae2-49b0-98cc-036867a6a1fd",
	})
	if err != nil {
		t.Fatalf("directory.New error = %v", err)
	}
	return dir
}

func newTestServer(t *testing.T, store transcripts.Store, runner BatchRunner) *httptest.Server {
	t.Helper()
	metrics := observability.NewMetrics("test_" + t.Name())
	srv := New(webhook.NewIngestor(store), testDirectory(t), runner, metrics)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func TestWebhookIgnoresIntermediateEvents(t *testing.T) {
	store := transcripts.NewInMemoryStore()
	ts := newTestServer(t, store, nil)

	body := []byte(`{"message":{"type":"status-update","call":{"id":"call-1"}}}`)
	res, err := http.Post(ts.URL+"/webhook", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /webhook error = %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	var result webhook.Result
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Status != webhook.StatusIgnored {
		t.Fatalf("result status = %q, want ignored", result.Status)
	}
	if got := len(store.All()); got != 0 {
		t.Fatalf("stored records = %d, want 0", got)
	}
}

func TestWebhookStoresEndOfCallReport(t *testing.T) {
	store := transcripts.NewInMemoryStore()
	ts := newTestServer(t, store, nil)

	body := []byte(`{
		"message": {
			"type": "end-of-call-report",
			"call": {
				"id": "call-1",
				"analysis": {"summary": "ok", "actionItems": ["call back tomorrow"]},
				"metadata": {"interviewSeriesId": "series-1"}
			}
		}
	}`)
	res, err := http.Post(ts.URL+"/webhook", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /webhook error = %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	var result webhook.Result
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Status != webhook.StatusStored || result.StorageID == "" {
		t.Fatalf("result = %+v, want stored with storage id", result)
	}
	if got := len(store.All()); got != 1 {
		t.Fatalf("stored records = %d, want 1", got)
	}
}

func TestWebhookMalformedBodyReturnsStructured500(t *testing.T) {
	ts := newTestServer(t, transcripts.NewInMemoryStore(), nil)

	res, err := http.Post(ts.URL+"/webhook", "application/json", bytes.NewReader([]byte("not json")))
	if err != nil {
		t.Fatalf("POST /webhook error = %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusInternalServerError)
	}
	var errBody map[string]any
	if err := json.NewDecoder(res.Body).Decode(&errBody); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if errBody["error"] == "" || errBody["error"] == nil {
		t.Fatalf("error body = %+v, want error message", errBody)
	}
}

func TestListCallsFiltersByQuery(t *testing.T) {
	ts := newTestServer(t, transcripts.NewInMemoryStore(), nil)

	res, err := http.Get(ts.URL + "/v1/calls?batch=morning")
	if err != nil {
		t.Fatalf("GET /v1/calls error = %v", err)
	}
	defer res.Body.Close()

	var body struct {
		Calls []directory.CallDefinition `json:"calls"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Calls) != 1 {
		t.Fatalf("calls = %d, want 1 morning call", len(body.Calls))
	}
	if body.Calls[0].Batch != directory.BatchMorning {
		t.Fatalf("call batch = %q, want morning", body.Calls[0].Batch)
	}
}

func TestRunBatchEndpointAcceptsKnownLabel(t *testing.T) {
	runner := &stubRunner{done: make(chan struct{})}
	ts := newTestServer(t, transcripts.NewInMemoryStore(), runner)

	res, err := http.Post(ts.URL+"/v1/batches/morning/run", "application/json", nil)
	if err != nil {
		t.Fatalf("POST run error = %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusAccepted)
	}

	select {
	case <-runner.done:
	case <-time.After(time.Second):
		t.Fatalf("runner was not invoked")
	}
	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.batches) != 1 || runner.batches[0] != "morning" {
		t.Fatalf("runner batches = %v, want [morning]", runner.batches)
	}
}

func TestRunBatchEndpointRejectsUnknownLabel(t *testing.T) {
	runner := &stubRunner{}
	ts := newTestServer(t, transcripts.NewInMemoryStore(), runner)

	res, err := http.Post(ts.URL+"/v1/batches/evening/run", "application/json", nil)
	if err != nil {
		t.Fatalf("POST run error = %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.batches) != 0 {
		t.Fatalf("runner invoked for unknown batch: %v", runner.batches)
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t, transcripts.NewInMemoryStore(), nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		res, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("GET %s status = %d, want %d", path, res.StatusCode, http.StatusOK)
		}
	}
}
