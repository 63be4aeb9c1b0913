package embeddings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	scorerrors "github.com/haimeda/statement-scorer/internal/core/errors"
	"github.com/haimeda/statement-scorer/internal/platform/circuit"
	"github.com/haimeda/statement-scorer/internal/platform/observability"
)

// Registry errors.
var (
	ErrNoProvidersAvailable = fmt.Errorf("no embedding providers available: %w", scorerrors.ErrEncoderUnavailable)
	ErrAllProvidersFailed   = fmt.Errorf("all embedding providers failed: %w", scorerrors.ErrEncoderUnavailable)
	ErrVectorCountMismatch  = errors.New("embedding provider returned wrong number of vectors")
)

// Log key constants.
const logKeyProvider = "provider"

// Registry manages embedding providers with fallback support.
type Registry struct {
	mu              sync.RWMutex
	providers       map[ProviderName]Provider
	order           []ProviderName // Priority order (highest first)
	circuitBreakers map[ProviderName]*circuit.Breaker
	targetDimension int
	logger          *zerolog.Logger
}

// NewRegistry creates a new provider registry.
func NewRegistry(targetDimension int, logger *zerolog.Logger) *Registry {
	return &Registry{
		providers:       make(map[ProviderName]Provider),
		order:           make([]ProviderName, 0),
		circuitBreakers: make(map[ProviderName]*circuit.Breaker),
		targetDimension: targetDimension,
		logger:          logger,
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider, cfg circuit.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.providers[name]; !exists {
		r.order = append(r.order, name)
	}

	r.providers[name] = p
	r.circuitBreakers[name] = circuit.New("embedding:"+string(name), cfg, r.logger)

	// Sort by priority (descending)
	r.sortProvidersByPriority()

	// Track provider availability metric
	setProviderAvailable(string(name), p.IsAvailable())

	r.logger.Info().
		Str(logKeyProvider, string(name)).
		Str("model", p.Model()).
		Int("priority", p.Priority()).
		Int("dimensions", p.Dimensions()).
		Msg("registered embedding provider")
}

// Encode embeds texts with the first provider that succeeds, falling back in priority order.
// Every returned vector is padded or truncated to the target dimension.
func (r *Registry) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	r.mu.RLock()
	providers := r.getActiveProviders()

	primaryProvider := ""
	if len(r.order) > 0 {
		primaryProvider = string(r.order[0])
	}

	r.mu.RUnlock()

	if len(providers) == 0 {
		return nil, ErrNoProvidersAvailable
	}

	var lastErr error

	for _, p := range providers {
		cb := r.getCircuitBreaker(p.Name())
		providerName := string(p.Name())

		if !cb.CanAttempt() {
			r.logger.Debug().
				Str(logKeyProvider, providerName).
				Msg("skipping provider - circuit breaker open")
			setProviderAvailable(providerName, false)

			continue
		}

		vectors, err := r.encodeWith(ctx, p, texts)
		if err != nil {
			cb.RecordFailure()

			lastErr = err

			r.logger.Warn().
				Err(err).
				Str(logKeyProvider, providerName).
				Int("texts", len(texts)).
				Msg("embedding provider failed, trying fallback")

			continue
		}

		cb.RecordSuccess()
		setProviderAvailable(providerName, true)

		// Log and record if we used a fallback provider
		if primaryProvider != "" && providerName != primaryProvider {
			observability.EmbeddingFallbacks.WithLabelValues(primaryProvider, providerName).Inc()
			r.logger.Info().
				Str(logKeyProvider, providerName).
				Str("from_provider", primaryProvider).
				Msg("used fallback embedding provider")
		}

		return vectors, nil
	}

	if lastErr != nil {
		return nil, errors.Join(ErrAllProvidersFailed, lastErr)
	}

	return nil, ErrNoProvidersAvailable
}

func (r *Registry) encodeWith(ctx context.Context, p Provider, texts []string) ([][]float32, error) {
	start := time.Now()
	result, err := p.Embed(ctx, texts)

	if err == nil && len(result.Vectors) != len(texts) {
		err = fmt.Errorf("%w: got %d, want %d", ErrVectorCountMismatch, len(result.Vectors), len(texts))
	}

	recordEncode(p.Name(), p.Model(), len(texts), time.Since(start), err)

	if err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(result.Vectors))
	for i, v := range result.Vectors {
		vectors[i] = PadToTargetDimensions(v, r.targetDimension)
	}

	return vectors, nil
}

// Release asks every provider holding accelerator memory to free its caches.
// Providers stay registered and usable afterwards.
func (r *Registry) Release(ctx context.Context) error {
	r.mu.RLock()
	providers := make([]Provider, 0, len(r.order))

	for _, name := range r.order {
		providers = append(providers, r.providers[name])
	}

	r.mu.RUnlock()

	var errs []error

	for _, p := range providers {
		releaser, ok := p.(Releaser)
		if !ok {
			continue
		}

		if err := releaser.Release(ctx); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", p.Name(), err))
		}
	}

	return errors.Join(errs...)
}

// ProviderCount returns the number of registered providers.
func (r *Registry) ProviderCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.providers)
}

// ProviderNames returns the names of all registered providers in priority order.
func (r *Registry) ProviderNames() []ProviderName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]ProviderName, len(r.order))
	copy(names, r.order)

	return names
}

// Dimensions returns the target dimension every vector is normalized to.
func (r *Registry) Dimensions() int {
	return r.targetDimension
}

// getActiveProviders returns providers that are available (not checking circuit breaker).
func (r *Registry) getActiveProviders() []Provider {
	active := make([]Provider, 0, len(r.providers))

	for _, name := range r.order {
		p := r.providers[name]
		if p.IsAvailable() {
			active = append(active, p)
		}
	}

	return active
}

// sortProvidersByPriority sorts providers by priority in descending order.
func (r *Registry) sortProvidersByPriority() {
	sort.SliceStable(r.order, func(i, j int) bool {
		pi := r.providers[r.order[i]].Priority()
		pj := r.providers[r.order[j]].Priority()

		return pi > pj
	})
}

// getCircuitBreaker returns the circuit breaker for a provider.
func (r *Registry) getCircuitBreaker(name ProviderName) *circuit.Breaker {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.circuitBreakers[name]
}
