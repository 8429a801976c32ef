package config

import (
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is built once at process start and handed to every component.
type Config struct {
	App      AppConfig
	OpenAI   OpenAIConfig
	Booking  BookingConfig
	Qdrant   QdrantConfig
	Database DatabaseConfig
}

type AppConfig struct {
	RuntimePath string `env:"SVIM_RUNTIME_PATH" envDefault:".svim"`
	Debug       bool   `env:"SVIM_DEBUG" envDefault:"false"`
	JSONLogs    bool   `env:"SVIM_JSON_LOGS" envDefault:"false"`
	HTTPAddr    string `env:"SVIM_HTTP_ADDR" envDefault:":8080"`

	// Salon profile rendered into the instruction block.
	SalonName      string `env:"SVIM" envDefault:"Svim"`
	ClientName     string `env:"CLIENT_NOME"`
	ClientWhatsApp string `env:"CLIENT_WHATSAPP"`

	// Memory: qdrant, sqlite, memory (process-local), none or auto (qdrant when QDRANT_URL is set, otherwise none).
	MemoryBackend   string `env:"SVIM_MEMORY_BACKEND" envDefault:"auto"`
	RecentK         int    `env:"SVIM_RECENT_K" envDefault:"6"`
	SemanticK       int    `env:"SVIM_SEMANTIC_K" envDefault:"4"`
	ContextMaxChars int    `env:"SVIM_CONTEXT_MAX_CHARS" envDefault:"4000"`
	StoreMaxChars   int    `env:"SVIM_STORE_MAX_CHARS" envDefault:"1500"`
	// Embedder: openai (remote embeddings model) or hashing (offline, 256 dims).
	Embedder string `env:"SVIM_EMBEDDER" envDefault:"openai"`

	// Tool governance
	ToolMaxCalls int `env:"SVIM_TOOL_MAX_CALLS" envDefault:"5"`
	MaxSteps     int `env:"SVIM_MAX_STEPS" envDefault:"8"`
}

type OpenAIConfig struct {
	APIKey         string `env:"OPENAI_API_KEY"`
	BaseURL        string `env:"OPENAI_BASE_URL"`
	Model          string `env:"OPENAI_MODEL" envDefault:"gpt-4.1"`
	EmbeddingModel string `env:"EMBEDDINGS_MODEL" envDefault:"text-embedding-3-small"`
}

type BookingConfig struct {
	BaseURL         string  `env:"URL_BASE"`
	APIKey          string  `env:"X_API_TOKEN"`
	EstablishmentID string  `env:"ESTABELECIMENTO_ID"`
	TimeoutSeconds  float64 `env:"HTTP_TIMEOUT" envDefault:"10"`
}

func (c BookingConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds * float64(time.Second))
}

type QdrantConfig struct {
	URL        string `env:"QDRANT_URL"`
	APIKey     string `env:"QDRANT_API_KEY"`
	Collection string `env:"QDRANT_COLLECTION" envDefault:"svim_conversations"`
	VectorSize int    `env:"QDRANT_VECTOR_SIZE" envDefault:"1536"`
}

type DatabaseConfig struct {
	// URL enables the Postgres interaction log when set.
	URL string `env:"DATABASE_URL"`
	// SQLiteLog stores interaction logs in the local runtime database instead.
	SQLiteLog bool `env:"SVIM_SQLITE_LOG" envDefault:"false"`
}

// Load parses the process environment. Call LoadEnvFiles first to honour .env files.
func Load() (*Config, error) {
	c := &Config{}
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (c AppConfig) GetRuntimePath() string {
	return ResolveRuntimePath(c.RuntimePath)
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.GetRuntimePath(), "svim.db")
}

// GetPromptPath points at an optional instruction override file.
func (c AppConfig) GetPromptPath() string {
	return filepath.Join(c.GetRuntimePath(), "SYSTEM.md")
}

// ResolvedMemoryBackend collapses "auto" into a concrete backend name.
func (c *Config) ResolvedMemoryBackend() string {
	switch c.App.MemoryBackend {
	case "qdrant", "sqlite", "memory", "none":
		return c.App.MemoryBackend
	}
	if c.Qdrant.URL != "" {
		return "qdrant"
	}
	return "none"
}

const (
	EmbedderOpenAI  = "openai"
	EmbedderHashing = "hashing"
)

// ResolvedEmbedder falls back to the remote embedder for unknown names.
func (c *Config) ResolvedEmbedder() string {
	if c.App.Embedder == EmbedderHashing {
		return EmbedderHashing
	}
	return EmbedderOpenAI
}
