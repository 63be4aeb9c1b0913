package config

import "time"

// EmbeddingConfig holds text encoder provider settings.
type EmbeddingConfig struct {
	ProviderOrder    string `env:"EMBEDDING_PROVIDER_ORDER" envDefault:"local,openai,cohere,google"`
	TargetDimensions int    `env:"EMBEDDING_TARGET_DIMENSIONS" envDefault:"384"`
	BatchSize        int    `env:"EMBEDDING_BATCH_SIZE" envDefault:"32"`

	// Local sentence-transformer sidecar
	LocalURL       string        `env:"EMBEDDING_LOCAL_URL" envDefault:""`
	LocalModel     string        `env:"EMBEDDING_LOCAL_MODEL" envDefault:"paraphrase-multilingual-MiniLM-L12-v2"`
	LocalTimeout   time.Duration `env:"EMBEDDING_LOCAL_TIMEOUT" envDefault:"60s"`
	LocalRateLimit int           `env:"EMBEDDING_LOCAL_RPS" envDefault:"50"`

	// Hosted providers
	OpenAIAPIKey     string `env:"OPENAI_API_KEY" envDefault:""`
	OpenAIModel      string `env:"OPENAI_EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	OpenAIDimensions int    `env:"OPENAI_EMBEDDING_DIMENSIONS" envDefault:"384"`
	OpenAIRateLimit  int    `env:"OPENAI_EMBEDDING_RPS" envDefault:"1"`
	CohereAPIKey     string `env:"COHERE_API_KEY" envDefault:""`
	CohereModel      string `env:"COHERE_EMBEDDING_MODEL" envDefault:"embed-multilingual-v3.0"`
	CohereRateLimit  int    `env:"COHERE_EMBEDDING_RPS" envDefault:"1"`
	GoogleAPIKey     string `env:"GOOGLE_API_KEY" envDefault:""`
	GoogleModel      string `env:"GOOGLE_EMBEDDING_MODEL" envDefault:"gemini-embedding-001"`
	GoogleRateLimit  int    `env:"GOOGLE_EMBEDDING_RPS" envDefault:"1"`

	CircuitThreshold  int           `env:"EMBEDDING_CIRCUIT_THRESHOLD" envDefault:"5"`
	CircuitResetAfter time.Duration `env:"EMBEDDING_CIRCUIT_RESET" envDefault:"1m"`
}

// AnalyzerConfig holds linguistic analyzer settings.
type AnalyzerConfig struct {
	URL       string        `env:"ANALYZER_URL" envDefault:""`
	Timeout   time.Duration `env:"ANALYZER_TIMEOUT" envDefault:"30s"`
	RateLimit int           `env:"ANALYZER_RPS" envDefault:"20"`
}

// ScoringConfig holds batch engine settings.
type ScoringConfig struct {
	WorkerCount       int           `env:"SCORER_WORKER_COUNT" envDefault:"0"`
	DispatchMode      string        `env:"SCORER_DISPATCH_MODE" envDefault:"auto"`
	VRAMPerWorkerMB   int           `env:"SCORER_VRAM_PER_WORKER_MB" envDefault:"1024"`
	GPUQueryTimeout   time.Duration `env:"SCORER_GPU_QUERY_TIMEOUT" envDefault:"5s"`
	ReclaimEvery      int           `env:"SCORER_RECLAIM_EVERY" envDefault:"20"`
	KeywordMode       string        `env:"SCORER_KEYWORD_OVERLAP_MODE" envDefault:"exact"`
	VocabularyFile    string        `env:"SCORER_VOCABULARY_FILE" envDefault:""`
	ProgressLogEvery  int           `env:"SCORER_PROGRESS_LOG_EVERY" envDefault:"5"`
	SequentialLogEach int           `env:"SCORER_SEQUENTIAL_LOG_EVERY" envDefault:"10"`
}
