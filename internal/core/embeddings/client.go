// Package embeddings provides batched text encoding with multi-provider support.
//
// The package supports multiple embedding providers with automatic fallback:
//   - a local sentence-transformer sidecar (paraphrase-multilingual-MiniLM-L12-v2)
//   - OpenAI text-embedding-3-small / text-embedding-3-large
//   - Cohere embed-multilingual-v3.0
//   - Google gemini-embedding-001
//
// Features include:
//   - Circuit breaker pattern for provider resilience
//   - Dimension normalization across providers
//   - Rate limiting per provider
//   - A lazily initialized process-wide handle
package embeddings

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/haimeda/statement-scorer/internal/platform/circuit"
)

// Encoder maps texts to dense vectors. Output order matches input order and every
// vector has the same length.
type Encoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
}

// Ensure Registry implements Encoder interface.
var _ Encoder = (*Registry)(nil)

// Config holds configuration for creating an encoder.
type Config struct {
	// Local sidecar settings
	LocalURL       string
	LocalModel     string
	LocalTimeout   time.Duration
	LocalRateLimit int

	// OpenAI settings
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIDimensions int
	OpenAIRateLimit  int

	// Cohere settings
	CohereAPIKey    string
	CohereModel     string
	CohereRateLimit int

	// Google settings
	GoogleAPIKey    string
	GoogleModel     string
	GoogleRateLimit int

	// Provider order (comma-separated: "local,openai,cohere,google")
	ProviderOrder string

	// Circuit breaker settings
	CircuitBreakerConfig circuit.Config

	// Target dimensions for output vectors
	TargetDimensions int
}

// NewEncoder creates a registry with the configured providers.
func NewEncoder(ctx context.Context, cfg Config, logger *zerolog.Logger) *Registry {
	if cfg.TargetDimensions == 0 {
		cfg.TargetDimensions = DefaultDimensions
	}

	registry := NewRegistry(cfg.TargetDimensions, logger)

	// Register providers in the specified order
	for _, provider := range parseProviderOrder(cfg.ProviderOrder) {
		switch provider {
		case string(ProviderLocal):
			registerLocal(registry, cfg)
		case string(ProviderOpenAI):
			registerOpenAI(registry, cfg)
		case string(ProviderCohere):
			registerCohere(registry, cfg)
		case string(ProviderGoogle):
			registerGoogle(ctx, registry, cfg, logger)
		default:
			logger.Warn().Str(logKeyProvider, provider).Msg("unknown embedding provider in order, skipping")
		}
	}

	// If no providers available, use the deterministic mock for testing/development
	if registry.ProviderCount() == 0 {
		logger.Warn().Msg("no embedding providers configured, using mock provider")

		registry.Register(NewMockProviderWithDimensions(cfg.TargetDimensions), cfg.CircuitBreakerConfig)
	}

	return registry
}

// parseProviderOrder parses the provider order string into a list.
func parseProviderOrder(order string) []string {
	if order == "" {
		return []string{string(ProviderLocal), string(ProviderOpenAI), string(ProviderCohere), string(ProviderGoogle)}
	}

	var providers []string

	for _, p := range strings.Split(order, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			providers = append(providers, strings.ToLower(p))
		}
	}

	return providers
}

func registerLocal(registry *Registry, cfg Config) {
	if cfg.LocalURL != "" {
		registry.Register(NewLocalProvider(LocalConfig{
			BaseURL:    cfg.LocalURL,
			Model:      cfg.LocalModel,
			Dimensions: cfg.TargetDimensions,
			Timeout:    cfg.LocalTimeout,
			RateLimit:  cfg.LocalRateLimit,
		}), cfg.CircuitBreakerConfig)
	}
}

func registerOpenAI(registry *Registry, cfg Config) {
	if cfg.OpenAIAPIKey != "" && cfg.OpenAIAPIKey != mockAPIKey {
		openaiProvider := NewOpenAIProvider(OpenAIConfig{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.OpenAIModel,
			Dimensions: cfg.OpenAIDimensions,
			RateLimit:  cfg.OpenAIRateLimit,
		})
		registry.Register(openaiProvider, cfg.CircuitBreakerConfig)
	}
}

func registerCohere(registry *Registry, cfg Config) {
	if cfg.CohereAPIKey != "" {
		cohereProvider := NewCohereProvider(CohereConfig{
			APIKey:    cfg.CohereAPIKey,
			Model:     cfg.CohereModel,
			RateLimit: cfg.CohereRateLimit,
		})
		registry.Register(cohereProvider, cfg.CircuitBreakerConfig)
	}
}

func registerGoogle(ctx context.Context, registry *Registry, cfg Config, logger *zerolog.Logger) {
	if cfg.GoogleAPIKey != "" {
		googleProvider, err := NewGoogleProvider(ctx, GoogleConfig{
			APIKey:    cfg.GoogleAPIKey,
			Model:     cfg.GoogleModel,
			RateLimit: cfg.GoogleRateLimit,
		})
		if err != nil {
			logger.Error().Err(err).Msg("failed to create Google embedding provider")
		} else if googleProvider.IsAvailable() {
			registry.Register(googleProvider, cfg.CircuitBreakerConfig)
		}
	}
}
