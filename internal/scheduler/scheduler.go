// Package scheduler runs the daily batch orchestration: it fans each batch's
// call definitions out into bounded per-call pipelines of context lookup
// followed by call dispatch.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/umbrosa/umbrosa/internal/directory"
	"github.com/umbrosa/umbrosa/internal/dispatch"
	"github.com/umbrosa/umbrosa/internal/observability"
	"github.com/umbrosa/umbrosa/internal/secrets"
	"github.com/umbrosa/umbrosa/internal/transcripts"
)

// CallPlacer is the slice of the dispatcher the orchestrator needs.
type CallPlacer interface {
	PlaceCall(ctx context.Context, def directory.CallDefinition, previousContext string) (dispatch.Outcome, error)
}

// CallLister is the slice of the call directory the orchestrator needs.
type CallLister interface {
	ListCalls(batch string) []directory.CallDefinition
}

// Trigger binds a daily UTC wall-clock time to a batch label.
type Trigger struct {
	Batch  string
	Hour   int
	Minute int
}

// ParseSchedule parses a "label=HH:MM,label=HH:MM" schedule spec.
func ParseSchedule(spec string) ([]Trigger, error) {
	parts := strings.Split(spec, ",")
	triggers := make([]Trigger, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		label, clock, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("schedule entry %q: expected label=HH:MM", part)
		}
		hh, mm, ok := strings.Cut(clock, ":")
		if !ok {
			return nil, fmt.Errorf("schedule entry %q: expected label=HH:MM", part)
		}
		hour, err := strconv.Atoi(hh)
		if err != nil || hour < 0 || hour > 23 {
			return nil, fmt.Errorf("schedule entry %q: bad hour", part)
		}
		minute, err := strconv.Atoi(mm)
		if err != nil || minute < 0 || minute > 59 {
			return nil, fmt.Errorf("schedule entry %q: bad minute", part)
		}
		triggers = append(triggers, Trigger{Batch: strings.TrimSpace(label), Hour: hour, Minute: minute})
	}
	if len(triggers) == 0 {
		return nil, fmt.Errorf("schedule %q has no entries", spec)
	}
	sort.SliceStable(triggers, func(i, j int) bool {
		return triggers[i].Hour*60+triggers[i].Minute < triggers[j].Hour*60+triggers[j].Minute
	})
	return triggers, nil
}

// BatchReport summarizes one orchestration run for logs and the ops surface.
// Placed counts are observational only; completion state arrives later via
// the webhook.
type BatchReport struct {
	RunID  string `json:"run_id"`
	Batch  string `json:"batch"`
	Total  int    `json:"total"`
	Placed int    `json:"placed"`
	Failed int    `json:"failed"`
}

type Options struct {
	Directory    CallLister
	Store        transcripts.Store
	Secrets      secrets.Provider
	Metrics      *observability.Metrics
	Triggers     []Trigger
	Concurrency  int
	BatchTimeout time.Duration

	// NewPlacer builds a dispatcher from freshly fetched credentials. It runs
	// once per batch so rotated API keys take effect without a restart.
	NewPlacer func(apiKey string) CallPlacer

	// MonitorCall, when set, is started for every placed call that exposes a
	// listen URL. It outlives the batch.
	MonitorCall func(callID, listenURL string)

	Now func() time.Time
}

type Scheduler struct {
	directory    CallLister
	store        transcripts.Store
	secrets      secrets.Provider
	metrics      *observability.Metrics
	triggers     []Trigger
	concurrency  int
	batchTimeout time.Duration
	newPlacer    func(apiKey string) CallPlacer
	monitorCall  func(callID, listenURL string)
	now          func() time.Time
}

func New(opts Options) *Scheduler {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 5
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = 5 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{
		directory:    opts.Directory,
		store:        opts.Store,
		secrets:      opts.Secrets,
		metrics:      opts.Metrics,
		triggers:     opts.Triggers,
		concurrency:  opts.Concurrency,
		batchTimeout: opts.BatchTimeout,
		newPlacer:    opts.NewPlacer,
		monitorCall:  opts.MonitorCall,
		now:          opts.Now,
	}
}

// NextTrigger returns the earliest upcoming trigger strictly after now, in UTC.
func (s *Scheduler) NextTrigger(now time.Time) (time.Time, string) {
	now = now.UTC()
	var (
		best      time.Time
		bestBatch string
	)
	for _, t := range s.triggers {
		at := time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, 0, 0, time.UTC)
		if !at.After(now) {
			at = at.Add(24 * time.Hour)
		}
		if best.IsZero() || at.Before(best) {
			best = at
			bestBatch = t.Batch
		}
	}
	return best, bestBatch
}

// Run blocks until ctx is cancelled, firing each batch at its daily time.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		next, batch := s.NextTrigger(s.now())
		log.Printf("scheduler: next batch %q at %s", batch, next.Format(time.RFC3339))
		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if _, err := s.RunBatch(ctx, batch); err != nil {
				log.Printf("scheduler: batch %q run failed: %v", batch, err)
			}
		}
	}
}

// RunBatch orchestrates one batch: per-invocation credential fetch, directory
// lookup, then bounded fan-out of per-call pipelines under the batch timeout.
// A failing pipeline never cancels its siblings.
func (s *Scheduler) RunBatch(ctx context.Context, batch string) (BatchReport, error) {
	report := BatchReport{RunID: uuid.NewString(), Batch: batch}
	start := s.now()

	ctx, cancel := context.WithTimeout(ctx, s.batchTimeout)
	defer cancel()

	creds, err := s.secrets.GetCredentials(ctx)
	if err != nil {
		s.metrics.BatchRuns.WithLabelValues(batch, "error").Inc()
		return report, fmt.Errorf("batch %q credentials: %w", batch, err)
	}
	placer := s.newPlacer(creds.VapiAPIKey)

	calls := s.directory.ListCalls(batch)
	report.Total = len(calls)
	log.Printf("batch %q: %d scheduled calls (run %s)", batch, len(calls), report.RunID)

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for _, def := range calls {
		def := def
		g.Go(func() error {
			if err := s.runPipeline(ctx, placer, batch, def); err != nil {
				log.Printf("batch %q: call %s failed: %v", batch, def.ID, err)
				mu.Lock()
				report.Failed++
				mu.Unlock()
				return nil
			}
			mu.Lock()
			report.Placed++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	s.metrics.BatchRuns.WithLabelValues(batch, "ok").Inc()
	s.metrics.ObserveBatchDuration(s.now().Sub(start))
	log.Printf("batch %q: placed %d/%d calls, %d failed (run %s)",
		batch, report.Placed, report.Total, report.Failed, report.RunID)
	return report, nil
}

func (s *Scheduler) runPipeline(ctx context.Context, placer CallPlacer, batch string, def directory.CallDefinition) error {
	previousContext := ""
	rec, err := s.store.LatestBySeries(ctx, def.InterviewSeriesID)
	if err != nil {
		s.metrics.PipelineFailures.WithLabelValues(batch, "context").Inc()
		return fmt.Errorf("lookup context for series %s: %w", def.InterviewSeriesID, err)
	}
	if rec != nil {
		previousContext = rec.ContextText()
	}

	outcome, err := placer.PlaceCall(ctx, def, previousContext)
	if err != nil {
		s.metrics.PipelineFailures.WithLabelValues(batch, "dispatch").Inc()
		return err
	}

	s.metrics.CallsPlaced.WithLabelValues(batch).Inc()
	log.Printf("batch %q: call %s created for %s (status %s)",
		batch, outcome.VapiCallID, outcome.CustomerNumber, outcome.Status)

	if s.monitorCall != nil && outcome.ListenURL != "" {
		go s.monitorCall(outcome.VapiCallID, outcome.ListenURL)
	}
	return nil
}
