// Package secrets resolves credentials and deployment configuration from a
// secret store. Callers fetch per invocation rather than caching process-wide,
// so rotated secrets take effect on the next batch run.
package secrets

import (
	"context"
	"encoding/json"
	"fmt"
)

// Credentials bundles the third-party keys the service needs.
type Credentials struct {
	VapiAPIKey         string
	SupabaseServiceKey string
}

// Names identifies the secrets this service reads.
type Names struct {
	VapiKey     string
	SupabaseKey string
	Config      string
}

// Source fetches a single named secret value.
type Source interface {
	Secret(ctx context.Context, name string) (string, error)
}

// Provider resolves the service's credentials and configuration blob.
type Provider interface {
	GetSecret(ctx context.Context, name string) (string, error)
	GetConfig(ctx context.Context) (map[string]string, error)
	GetCredentials(ctx context.Context) (Credentials, error)
}

// RetrievalError reports a secret that could not be resolved. There is no
// fallback: a missing credential is fatal to the invoking unit.
type RetrievalError struct {
	Name string
	Err  error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieve secret %q: %v", e.Name, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// Store is a Provider over any Source.
type Store struct {
	names  Names
	source Source
}

func NewStore(names Names, source Source) *Store {
	return &Store{names: names, source: source}
}

func (s *Store) GetSecret(ctx context.Context, name string) (string, error) {
	v, err := s.source.Secret(ctx, name)
	if err != nil {
		return "", &RetrievalError{Name: name, Err: err}
	}
	return v, nil
}

// GetConfig fetches the JSON configuration blob and decodes it into a flat
// key-value map.
func (s *Store) GetConfig(ctx context.Context) (map[string]string, error) {
	raw, err := s.GetSecret(ctx, s.names.Config)
	if err != nil {
		return nil, err
	}
	var cfg map[string]string
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, &RetrievalError{Name: s.names.Config, Err: fmt.Errorf("decode config blob: %w", err)}
	}
	return cfg, nil
}

func (s *Store) GetCredentials(ctx context.Context) (Credentials, error) {
	vapiKey, err := s.GetSecret(ctx, s.names.VapiKey)
	if err != nil {
		return Credentials{}, err
	}
	supabaseKey, err := s.GetSecret(ctx, s.names.SupabaseKey)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{VapiAPIKey: vapiKey, SupabaseServiceKey: supabaseKey}, nil
}
