package secrets

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SecretSource defines where secrets are loaded from
type SecretSource string

const (
	SourceEnvironment SecretSource = "environment"
	SourceVault       SecretSource = "vault"
	// SourceAuto uses vault outside development and environment variables otherwise
	SourceAuto SecretSource = "auto"
)

// Fetcher reads a single secret from a backing store
type Fetcher interface {
	Fetch(ctx context.Context, name string) (string, error)
}

// ProviderConfig holds configuration for the secrets provider
type ProviderConfig struct {
	Source       SecretSource
	VaultName    string
	Environment  string
	CacheEnabled bool
	CacheTTL     time.Duration
}

type cachedSecret struct {
	value     string
	expiresAt time.Time
}

// Provider resolves secrets from the environment or a vault, with an optional TTL cache
type Provider struct {
	source  SecretSource
	fetcher Fetcher
	logger  *zap.Logger

	cacheEnabled bool
	cacheTTL     time.Duration
	mu           sync.Mutex
	cache        map[string]cachedSecret
	now          func() time.Time
}

// ResolveSource turns SourceAuto into a concrete source for the environment
func ResolveSource(source SecretSource, environment string) SecretSource {
	if source != SourceAuto {
		return source
	}
	switch environment {
	case "development", "local", "test", "":
		return SourceEnvironment
	default:
		return SourceVault
	}
}

// NewProvider creates a secrets provider. Vault mode connects to Azure Key Vault.
func NewProvider(cfg *ProviderConfig, logger *zap.Logger) (*Provider, error) {
	source := ResolveSource(cfg.Source, cfg.Environment)

	var fetcher Fetcher
	if source == SourceVault {
		if cfg.VaultName == "" {
			return nil, fmt.Errorf("vault name required when using vault secret source")
		}
		kv, err := newKeyVaultFetcher(cfg.VaultName)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vault client: %w", err)
		}
		fetcher = kv
		logger.Info("Azure Key Vault client initialized",
			zap.String("vault_url", VaultURL(cfg.VaultName)),
			zap.Bool("cache_enabled", cfg.CacheEnabled),
		)
	}

	return NewProviderWithFetcher(source, fetcher, cfg.CacheEnabled, cfg.CacheTTL, logger), nil
}

// NewProviderWithFetcher builds a provider around an existing fetcher
func NewProviderWithFetcher(source SecretSource, fetcher Fetcher, cacheEnabled bool, cacheTTL time.Duration, logger *zap.Logger) *Provider {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Provider{
		source:       source,
		fetcher:      fetcher,
		logger:       logger,
		cacheEnabled: cacheEnabled,
		cacheTTL:     cacheTTL,
		cache:        make(map[string]cachedSecret),
		now:          time.Now,
	}
}

// GetSecret retrieves a secret by name. In environment mode the name is the variable name.
func (p *Provider) GetSecret(ctx context.Context, secretName string) (string, error) {
	switch p.source {
	case SourceEnvironment:
		value := os.Getenv(secretName)
		if value == "" {
			return "", fmt.Errorf("environment variable '%s' not set", secretName)
		}
		return value, nil
	case SourceVault:
		return p.fromVault(ctx, secretName)
	default:
		return "", fmt.Errorf("unknown secret source: %s", p.source)
	}
}

func (p *Provider) fromVault(ctx context.Context, name string) (string, error) {
	if p.fetcher == nil {
		return "", fmt.Errorf("vault client not initialized")
	}

	if p.cacheEnabled {
		p.mu.Lock()
		cached, ok := p.cache[name]
		p.mu.Unlock()
		if ok && p.now().Before(cached.expiresAt) {
			return cached.value, nil
		}
	}

	value, err := p.fetcher.Fetch(ctx, name)
	if err != nil {
		p.logger.Error("Failed to get secret from vault", zap.String("secret_name", name), zap.Error(err))
		return "", err
	}

	if p.cacheEnabled {
		p.mu.Lock()
		p.cache[name] = cachedSecret{value: value, expiresAt: p.now().Add(p.cacheTTL)}
		p.mu.Unlock()
	}
	return value, nil
}

// GetSecretOrEnv prefers an explicitly set environment variable, then the configured source
func (p *Provider) GetSecretOrEnv(ctx context.Context, secretName, envName string) (string, error) {
	if envValue := os.Getenv(envName); envValue != "" {
		p.logger.Debug("Using environment variable override", zap.String("env_name", envName))
		return envValue, nil
	}
	return p.GetSecret(ctx, secretName)
}

// ClearCache drops all cached secrets
func (p *Provider) ClearCache() {
	p.mu.Lock()
	p.cache = make(map[string]cachedSecret)
	p.mu.Unlock()
}

// Source returns the resolved secret source
func (p *Provider) Source() SecretSource {
	return p.source
}

// IsVaultEnabled returns true if secrets are loaded from vault
func (p *Provider) IsVaultEnabled() bool {
	return p.source == SourceVault
}
