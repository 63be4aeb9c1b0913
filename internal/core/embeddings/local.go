package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Local sidecar constants.
const (
	ModelMultilingualMiniLM = "paraphrase-multilingual-MiniLM-L12-v2"

	localEmbedPath      = "/embed"
	localReleasePath    = "/release"
	localDefaultTimeout = 60 * time.Second
	localRateBurst      = 10
	localMaxErrorBody   = 512
)

// Local sidecar errors.
var (
	ErrLocalEmptyResponse = errors.New("empty embedding response from local encoder")
	ErrLocalAPIFailure    = errors.New("local encoder error")
)

// LocalProvider talks to a sentence-transformer sidecar that serves
// POST /embed {"inputs": [...]} -> [[...], ...] and POST /release.
type LocalProvider struct {
	baseURL     string
	model       string
	dimensions  int
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	mu          sync.RWMutex
	available   bool
}

// LocalConfig holds configuration for the local sidecar provider.
type LocalConfig struct {
	BaseURL    string
	Model      string
	Dimensions int
	Timeout    time.Duration
	RateLimit  int // Requests per second
}

type localEmbedRequest struct {
	Inputs []string `json:"inputs"`
	Model  string   `json:"model,omitempty"`
}

// NewLocalProvider creates a provider for the local sidecar.
func NewLocalProvider(cfg LocalConfig) *LocalProvider {
	if cfg.Model == "" {
		cfg.Model = ModelMultilingualMiniLM
	}

	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = localDefaultTimeout
	}

	if cfg.RateLimit == 0 {
		cfg.RateLimit = localRateBurst
	}

	return &LocalProvider{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		dimensions:  cfg.Dimensions,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), localRateBurst),
		available:   cfg.BaseURL != "",
	}
}

// Name returns the provider identifier.
func (p *LocalProvider) Name() ProviderName {
	return ProviderLocal
}

// Priority returns the provider priority.
func (p *LocalProvider) Priority() int {
	return PriorityLocal
}

// Dimensions returns the native output dimensions.
func (p *LocalProvider) Dimensions() int {
	return p.dimensions
}

// Model returns the sentence-transformer model name.
func (p *LocalProvider) Model() string {
	return p.model
}

// IsAvailable returns true if the provider is configured.
func (p *LocalProvider) IsAvailable() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.available
}

// Embed sends all texts to the sidecar in one request.
func (p *LocalProvider) Embed(ctx context.Context, texts []string) (BatchResult, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return BatchResult{}, fmt.Errorf(errRateLimiterFmt, err)
	}

	payload, err := json.Marshal(localEmbedRequest{Inputs: texts, Model: p.model})
	if err != nil {
		return BatchResult{}, fmt.Errorf("marshal request: %w", err)
	}

	body, err := p.post(ctx, localEmbedPath, payload)
	if err != nil {
		return BatchResult{}, err
	}

	var vectors [][]float32
	if err := json.Unmarshal(body, &vectors); err != nil {
		return BatchResult{}, fmt.Errorf("decode response: %w", err)
	}

	if len(vectors) != len(texts) {
		return BatchResult{}, fmt.Errorf("%w: got %d of %d", ErrLocalEmptyResponse, len(vectors), len(texts))
	}

	return BatchResult{
		Vectors:    vectors,
		Dimensions: p.dimensions,
		Provider:   ProviderLocal,
	}, nil
}

// Release asks the sidecar to empty its accelerator cache. The model stays loaded.
func (p *LocalProvider) Release(ctx context.Context) error {
	if !p.IsAvailable() {
		return nil
	}

	_, err := p.post(ctx, localReleasePath, []byte("{}"))

	return err
}

func (p *LocalProvider) post(ctx context.Context, path string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set(headerContentType, contentTypeJSON)
	req.Header.Set("Accept", contentTypeJSON)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("local encoder request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if len(body) > localMaxErrorBody {
			body = body[:localMaxErrorBody]
		}

		return nil, fmt.Errorf("%w: status %d: %s", ErrLocalAPIFailure, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return body, nil
}
