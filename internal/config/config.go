package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the outbound call service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	DatabaseURL string

	VapiBaseURL string

	SecretsProvider    string
	SecretsBaseURL     string
	SecretsToken       string
	VapiSecretName     string
	SupabaseSecretName string
	ConfigSecretName   string

	BatchSchedule    string
	BatchConcurrency int
	BatchTimeout     time.Duration
	DispatchTimeout  time.Duration

	MonitorLiveCalls bool

	MariaAssistantID      string
	ViAssistantID         string
	InterviewSeriesMarcus string
	InterviewSeriesSue    string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "umbrosa"),
		DatabaseURL:      stringsTrimSpace("DATABASE_URL"),
		VapiBaseURL:      envOrDefault("VAPI_BASE_URL", "https://api.vapi.ai"),
		SecretsProvider:  envOrDefault("SECRETS_PROVIDER", "env"),
		SecretsBaseURL:   stringsTrimSpace("SECRETS_BASE_URL"),
		SecretsToken:     stringsTrimSpace("SECRETS_TOKEN"),
		// Secret names mirror the store layout used by the deployment.
		VapiSecretName:     envOrDefault("VAPI_SECRET_NAME", "umbrosa/vapi_api_key"),
		SupabaseSecretName: envOrDefault("SUPABASE_SECRET_NAME", "umbrosa/supabase_service_key"),
		ConfigSecretName:   envOrDefault("CONFIG_SECRET_NAME", "umbrosa/config"),
		// Wall-clock UTC trigger times: 00:30 is 9:00 AM Sydney, 05:20 is 4:20 PM.
		BatchSchedule:         envOrDefault("BATCH_SCHEDULE", "morning=00:30,afternoon=05:20"),
		BatchConcurrency:      5,
		BatchTimeout:          5 * time.Minute,
		DispatchTimeout:       30 * time.Second,
		MonitorLiveCalls:      false,
		MariaAssistantID:      envOrDefault("MARIA_ASSISTANT_ID", "f024a1ed-343e-4363-8b2d-9daf6af31110"),
		ViAssistantID:         envOrDefault("VI_ASSISTANT_ID", "43950926-3935-4853-8475-14da102748b5"),
		InterviewSeriesMarcus: envOrDefault("INTERVIEW_SERIES_MARCUS", "a6462580-007c-4e31-805a-acd5de1dfee3"),
		InterviewSeriesSue:    envOrDefault("INTERVIEW_SERIES_SUE", "70b87980-eae2-49b0-98cc-036867a6a1fd"),
		ShutdownTimeout:       15 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.BatchTimeout, err = durationFromEnv("BATCH_TIMEOUT", cfg.BatchTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.DispatchTimeout, err = durationFromEnv("DISPATCH_TIMEOUT", cfg.DispatchTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.BatchConcurrency, err = intFromEnv("BATCH_CONCURRENCY", cfg.BatchConcurrency)
	if err != nil {
		return Config{}, err
	}
	cfg.MonitorLiveCalls, err = boolFromEnv("APP_MONITOR_LIVE_CALLS", cfg.MonitorLiveCalls)
	if err != nil {
		return Config{}, err
	}

	switch cfg.SecretsProvider {
	case "env", "http":
	default:
		return Config{}, fmt.Errorf("SECRETS_PROVIDER must be env or http, got %q", cfg.SecretsProvider)
	}
	if cfg.SecretsProvider == "http" && cfg.SecretsBaseURL == "" {
		return Config{}, fmt.Errorf("SECRETS_BASE_URL is required when SECRETS_PROVIDER=http")
	}
	if cfg.BatchConcurrency <= 0 {
		return Config{}, fmt.Errorf("BATCH_CONCURRENCY must be positive")
	}
	if cfg.BatchTimeout <= 0 {
		return Config{}, fmt.Errorf("BATCH_TIMEOUT must be positive")
	}
	if cfg.DispatchTimeout <= 0 {
		return Config{}, fmt.Errorf("DISPATCH_TIMEOUT must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
