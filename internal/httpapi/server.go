package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/umbrosa/umbrosa/internal/directory"
	"github.com/umbrosa/umbrosa/internal/observability"
	"github.com/umbrosa/umbrosa/internal/scheduler"
	"github.com/umbrosa/umbrosa/internal/webhook"
)

// maxWebhookBody caps provider callback bodies; end-of-call reports carry a
// full transcript but stay well under this.
const maxWebhookBody = 1 << 20

// BatchRunner triggers one batch orchestration on demand.
type BatchRunner interface {
	RunBatch(ctx context.Context, batch string) (scheduler.BatchReport, error)
}

type Server struct {
	ingestor *webhook.Ingestor
	dir      *directory.Directory
	runner   BatchRunner
	metrics  *observability.Metrics
}

func New(ingestor *webhook.Ingestor, dir *directory.Directory, runner BatchRunner, metrics *observability.Metrics) *Server {
	return &Server{
		ingestor: ingestor,
		dir:      dir,
		runner:   runner,
		metrics:  metrics,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/webhook", s.handleWebhook)

	r.Get("/v1/calls", s.handleListCalls)
	r.Post("/v1/batches/{batch}/run", s.handleRunBatch)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

// handleWebhook is the single provider-facing endpoint. It always answers
// with a structured JSON body: 200 for ignored or stored events, 500 for
// anything the ingestor could not process. The provider owns retries.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		s.metrics.WebhookEvents.WithLabelValues("error").Inc()
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := s.ingestor.Ingest(r.Context(), body)
	if err != nil {
		s.metrics.WebhookEvents.WithLabelValues("error").Inc()
		log.Printf("webhook: ingest failed: %v", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.metrics.WebhookEvents.WithLabelValues(result.Status).Inc()
	if result.Status == webhook.StatusStored {
		s.metrics.TranscriptsStored.Inc()
		log.Printf("webhook: transcript stored (id %s)", result.StorageID)
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleListCalls(w http.ResponseWriter, r *http.Request) {
	batch := r.URL.Query().Get("batch")
	respondJSON(w, http.StatusOK, map[string]any{
		"calls": s.dir.ListCalls(batch),
	})
}

// handleRunBatch kicks off an orchestration without waiting for it; the run
// is bounded by the scheduler's own batch timeout.
func (s *Server) handleRunBatch(w http.ResponseWriter, r *http.Request) {
	batch := chi.URLParam(r, "batch")
	if !directory.KnownBatch(batch) {
		respondError(w, http.StatusBadRequest, "unknown batch label")
		return
	}
	if s.runner == nil {
		respondError(w, http.StatusNotImplemented, "batch runner not configured")
		return
	}

	go func() {
		if _, err := s.runner.RunBatch(context.Background(), batch); err != nil {
			log.Printf("manual batch %q run failed: %v", batch, err)
		}
	}()

	respondJSON(w, http.StatusAccepted, map[string]any{
		"status": "accepted",
		"batch":  batch,
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}
