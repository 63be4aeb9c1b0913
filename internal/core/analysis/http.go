package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	scorerrors "github.com/haimeda/statement-scorer/internal/core/errors"
	"github.com/haimeda/statement-scorer/internal/platform/circuit"
	"github.com/haimeda/statement-scorer/internal/platform/observability"
)

const (
	analyzePath       = "/analyze"
	defaultTimeout    = 30 * time.Second
	defaultRateLimit  = 20
	rateLimiterBurst  = 10
	maxErrorBodyBytes = 512

	statusSuccess = "success"
	statusError   = "error"
	statusSkipped = "circuit_open"
)

// ErrAnalyzerAPIFailure indicates the analyzer returned a non-OK status.
var ErrAnalyzerAPIFailure = errors.New("analyzer API error")

// HTTPConfig holds configuration for the HTTP analyzer client.
type HTTPConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit int // Requests per second
	Circuit   circuit.Config
}

// HTTPAnalyzer calls a spaCy-style annotation service:
// POST /analyze {"text": "...", "lang": "de"} -> Analysis JSON.
type HTTPAnalyzer struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	breaker     *circuit.Breaker
	logger      *zerolog.Logger
}

type analyzeRequest struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
}

// New returns an HTTPAnalyzer for cfg, or Unavailable when no URL is configured.
func New(cfg HTTPConfig, logger *zerolog.Logger) Analyzer {
	if cfg.BaseURL == "" {
		logger.Warn().Msg("no analyzer configured, keyword and domain extraction use the plain tokenizer")

		return Unavailable{}
	}

	return NewHTTPAnalyzer(cfg, logger)
}

// NewHTTPAnalyzer creates an analyzer client.
func NewHTTPAnalyzer(cfg HTTPConfig, logger *zerolog.Logger) *HTTPAnalyzer {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}

	return &HTTPAnalyzer{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), rateLimiterBurst),
		breaker:     circuit.New("analyzer", cfg.Circuit, logger),
		logger:      logger,
	}
}

// Analyze annotates the first MaxAnalyzeRunes runes of text.
func (a *HTTPAnalyzer) Analyze(ctx context.Context, text, lang string) (Analysis, error) {
	if err := a.breaker.Check(); err != nil {
		observability.AnalyzerRequests.WithLabelValues(statusSkipped).Inc()
		return Analysis{}, errors.Join(scorerrors.ErrAnalyzerUnavailable, err)
	}

	if err := a.rateLimiter.Wait(ctx); err != nil {
		return Analysis{}, fmt.Errorf("rate limiter: %w", err)
	}

	result, err := a.call(ctx, Truncate(text), lang)
	if err != nil {
		a.breaker.RecordFailure()
		observability.AnalyzerRequests.WithLabelValues(statusError).Inc()

		return Analysis{}, errors.Join(scorerrors.ErrAnalyzerUnavailable, err)
	}

	a.breaker.RecordSuccess()
	observability.AnalyzerRequests.WithLabelValues(statusSuccess).Inc()

	return result, nil
}

func (a *HTTPAnalyzer) call(ctx context.Context, text, lang string) (Analysis, error) {
	payload, err := json.Marshal(analyzeRequest{Text: text, Lang: lang})
	if err != nil {
		return Analysis{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+analyzePath, bytes.NewReader(payload))
	if err != nil {
		return Analysis{}, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return Analysis{}, fmt.Errorf("analyzer request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Analysis{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if len(body) > maxErrorBodyBytes {
			body = body[:maxErrorBodyBytes]
		}

		return Analysis{}, fmt.Errorf("%w: status %d: %s", ErrAnalyzerAPIFailure, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out Analysis
	if err := json.Unmarshal(body, &out); err != nil {
		return Analysis{}, fmt.Errorf("decode response: %w", err)
	}

	return out, nil
}
