package providers

import (
	"context"
	"fmt"
	"os"
	"time"

	"commuteforecast/backend/internal/common"
)

const secretCacheTTL = 1 * time.Hour

// SecretResolver resolves a named provider credential at call time rather
// than at construction, so a rotated key takes effect without a restart.
type SecretResolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// EnvSecretResolver reads provider credentials from the process
// environment.
type EnvSecretResolver struct{}

func NewEnvSecretResolver() *EnvSecretResolver { return &EnvSecretResolver{} }

func (r *EnvSecretResolver) Resolve(_ context.Context, name string) (string, error) {
	val := os.Getenv(name)
	if val == "" {
		return "", fmt.Errorf("secret %q is not set", name)
	}
	return val, nil
}

// cachedSecret fetches name through resolver, caching the result under
// cache for secretCacheTTL. Set-once: a cached value is never mutated in
// place, only replaced wholesale on expiry, allowing rotating provider
// keys to refresh lazily instead of at process start only.
func cachedSecret(ctx context.Context, cache common.CacheInterface, resolver SecretResolver, cacheKey, envName string) (string, error) {
	val, err := cache.GetOrSet(cacheKey, secretCacheTTL, func() (any, error) {
		return resolver.Resolve(ctx, envName)
	})
	if err != nil {
		return "", err
	}
	secret, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("secret %q cached as unexpected type %T", cacheKey, val)
	}
	return secret, nil
}
