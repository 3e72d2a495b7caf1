package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/umbrosa/umbrosa/internal/config"
	"github.com/umbrosa/umbrosa/internal/directory"
	"github.com/umbrosa/umbrosa/internal/dispatch"
	"github.com/umbrosa/umbrosa/internal/observability"
	"github.com/umbrosa/umbrosa/internal/scheduler"
	"github.com/umbrosa/umbrosa/internal/secrets"
	"github.com/umbrosa/umbrosa/internal/transcripts"
	"github.com/umbrosa/umbrosa/internal/vapi"
)

// monitorTTL caps how long a live-call monitor may stay attached after the
// batch that placed the call has finished.
const monitorTTL = 30 * time.Minute

// runtime wires the service components together for the CLI commands.
type runtime struct {
	cfg     config.Config
	metrics *observability.Metrics
	secrets secrets.Provider
	store   transcripts.Store
	dir     *directory.Directory
	sched   *scheduler.Scheduler
}

func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	var source secrets.Source
	switch cfg.SecretsProvider {
	case "http":
		source = secrets.NewHTTPSource(cfg.SecretsBaseURL, cfg.SecretsToken)
	default:
		source = secrets.NewEnvSource()
	}
	provider := secrets.NewStore(secrets.Names{
		VapiKey:     cfg.VapiSecretName,
		SupabaseKey: cfg.SupabaseSecretName,
		Config:      cfg.ConfigSecretName,
	}, source)

	deployCfg, err := provider.GetConfig(ctx)
	if err != nil {
		return nil, err
	}

	dir, err := directory.New(directory.Options{
		PhoneNumberID:         deployCfg["vapi_phone_number_id"],
		MariaAssistantID:      cfg.MariaAssistantID,
		ViAssistantID:         cfg.ViAssistantID,
		InterviewSeriesMarcus: cfg.InterviewSeriesMarcus,
		InterviewSeriesSue:    cfg.InterviewSeriesSue,
	})
	if err != nil {
		return nil, fmt.Errorf("call directory: %w", err)
	}

	store, err := transcripts.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("transcript store init failed: %w", err)
	}

	triggers, err := scheduler.ParseSchedule(cfg.BatchSchedule)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("BATCH_SCHEDULE: %w", err)
	}

	var monitorCall func(callID, listenURL string)
	if cfg.MonitorLiveCalls {
		monitorCall = func(callID, listenURL string) {
			mctx, cancel := context.WithTimeout(context.Background(), monitorTTL)
			defer cancel()
			err := vapi.ListenToCall(mctx, listenURL, func(ev vapi.MonitorEvent) {
				metrics.MonitorEvents.WithLabelValues(ev.Type).Inc()
				if ev.Transcript != "" && ev.TranscriptType == "final" {
					log.Printf("call %s [%s]: %s", callID, ev.Role, ev.Transcript)
				}
			})
			if err != nil {
				log.Printf("call %s: monitor closed: %v", callID, err)
			}
		}
	}

	sched := scheduler.New(scheduler.Options{
		Directory:    dir,
		Store:        store,
		Secrets:      provider,
		Metrics:      metrics,
		Triggers:     triggers,
		Concurrency:  cfg.BatchConcurrency,
		BatchTimeout: cfg.BatchTimeout,
		NewPlacer: func(apiKey string) scheduler.CallPlacer {
			return dispatch.New(vapi.NewClient(vapi.Config{
				APIKey:  apiKey,
				BaseURL: cfg.VapiBaseURL,
				HTTP:    &http.Client{Timeout: cfg.DispatchTimeout},
			}))
		},
		MonitorCall: monitorCall,
	})

	return &runtime{
		cfg:     cfg,
		metrics: metrics,
		secrets: provider,
		store:   store,
		dir:     dir,
		sched:   sched,
	}, nil
}

func (r *runtime) Close() {
	if err := r.store.Close(); err != nil {
		log.Printf("store close: %v", err)
	}
}
