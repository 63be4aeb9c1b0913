package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Dispatch modes.
const (
	DispatchAuto       = "auto"
	DispatchParallel   = "parallel"
	DispatchSequential = "sequential"
)

// Keyword overlap modes.
const (
	KeywordModeExact    = "exact"
	KeywordModeSemantic = "semantic"
)

const maxWorkers = 16

var errInvalidSetting = errors.New("invalid setting")

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"local"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPPort int    `env:"HTTP_PORT" envDefault:"8080"`

	Embedding EmbeddingConfig
	Analyzer  AnalyzerConfig
	Scoring   ScoringConfig
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	applyAliases(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	switch c.Scoring.DispatchMode {
	case DispatchAuto, DispatchParallel, DispatchSequential:
	default:
		return fmt.Errorf("%w: SCORER_DISPATCH_MODE=%q", errInvalidSetting, c.Scoring.DispatchMode)
	}

	switch c.Scoring.KeywordMode {
	case KeywordModeExact, KeywordModeSemantic:
	default:
		return fmt.Errorf("%w: SCORER_KEYWORD_OVERLAP_MODE=%q", errInvalidSetting, c.Scoring.KeywordMode)
	}

	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("%w: EMBEDDING_BATCH_SIZE must be positive", errInvalidSetting)
	}

	if c.Scoring.VRAMPerWorkerMB <= 0 {
		return fmt.Errorf("%w: SCORER_VRAM_PER_WORKER_MB must be positive", errInvalidSetting)
	}

	if c.Scoring.WorkerCount < 0 || c.Scoring.WorkerCount > maxWorkers {
		return fmt.Errorf("%w: SCORER_WORKER_COUNT must be within [0,%d]", errInvalidSetting, maxWorkers)
	}

	return nil
}

func applyAliases(cfg *Config) {
	if !hasEnv("SCORER_WORKER_COUNT") {
		setIntFromEnv("SEMANTIC_WORKER_COUNT", &cfg.Scoring.WorkerCount)
	}

	if !hasEnv("HTTP_PORT") {
		setIntFromEnv("HEALTH_PORT", &cfg.HTTPPort)
	}

	if !hasEnv("OPENAI_API_KEY") {
		setStringFromEnv("LLM_API_KEY", &cfg.Embedding.OpenAIAPIKey)
	}
}

func hasEnv(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func setStringFromEnv(key string, target *string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	val = strings.TrimSpace(val)
	if val == "" {
		return
	}

	*target = val
}

func setIntFromEnv(key string, target *int) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	parsed, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return
	}

	*target = parsed
}
