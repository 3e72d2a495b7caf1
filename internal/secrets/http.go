package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPSource fetches secrets from a secret-store HTTP endpoint with bearer
// auth. Values are never cached.
type HTTPSource struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewHTTPSource(baseURL, token string) *HTTPSource {
	return &HTTPSource{BaseURL: baseURL, Token: token}
}

func (s *HTTPSource) Secret(ctx context.Context, name string) (string, error) {
	if s.HTTP == nil {
		s.HTTP = &http.Client{Timeout: 10 * time.Second}
	}
	if strings.TrimSpace(s.BaseURL) == "" {
		return "", fmt.Errorf("missing secret store base URL")
	}

	endpoint := strings.TrimRight(s.BaseURL, "/") + "/v1/secret/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	res, err := s.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("secret store returned status %d", res.StatusCode)
	}

	var resp struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return "", fmt.Errorf("decode secret response: %w", err)
	}
	if resp.Value == "" {
		return "", fmt.Errorf("secret store returned empty value")
	}
	return resp.Value, nil
}
