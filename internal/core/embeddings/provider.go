package embeddings

import (
	"context"
)

// ProviderName identifies an embedding provider.
type ProviderName string

// Provider name constants.
const (
	ProviderLocal  ProviderName = "local"
	ProviderOpenAI ProviderName = "openai"
	ProviderCohere ProviderName = "cohere"
	ProviderGoogle ProviderName = "google"
	ProviderMock   ProviderName = "mock"
)

// Priority constants for provider ordering.
const (
	PriorityLocal          = 150 // Local sentence-transformer sidecar
	PriorityPrimary        = 100 // Primary hosted provider (OpenAI)
	PriorityFallback       = 50  // Fallback provider (Cohere)
	PrioritySecondFallback = 25  // Second fallback (Google)
	PriorityMock           = 0   // Mock provider for testing
)

// DefaultDimensions matches paraphrase-multilingual-MiniLM-L12-v2.
const DefaultDimensions = 384

// Shared error format strings.
const errRateLimiterFmt = "rate limiter: %w"

// API key constants.
const mockAPIKey = "mock"

// BatchResult contains one vector per input text, in input order.
type BatchResult struct {
	Vectors    [][]float32
	Dimensions int
	Provider   ProviderName
}

// Provider defines the interface for embedding providers.
type Provider interface {
	// Name returns the provider identifier.
	Name() ProviderName

	// Embed generates one embedding per text, preserving order.
	Embed(ctx context.Context, texts []string) (BatchResult, error)

	// IsAvailable returns true if the provider is currently available.
	IsAvailable() bool

	// Priority returns the provider priority (higher = preferred).
	Priority() int

	// Dimensions returns the native output dimensions of this provider.
	Dimensions() int

	// Model returns the model name used for metrics labels.
	Model() string
}

// Releaser is implemented by providers holding accelerator memory that can be returned on request.
type Releaser interface {
	Release(ctx context.Context) error
}
