package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvSource resolves secrets from environment variables for local/dev use.
// A secret name is mapped by uppercasing it and replacing every non
// alphanumeric rune with an underscore, so "umbrosa/vapi_api_key" reads
// UMBROSA_VAPI_API_KEY.
type EnvSource struct{}

func NewEnvSource() EnvSource { return EnvSource{} }

func (EnvSource) Secret(_ context.Context, name string) (string, error) {
	key := EnvKey(name)
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return "", fmt.Errorf("environment variable %s is not set", key)
	}
	return v, nil
}

// EnvKey converts a secret name into its environment variable form.
func EnvKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}
