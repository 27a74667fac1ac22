package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	SMTP      SMTPConfig
	Ai        AIConfig
	Chunking  ChunkingConfig
	Retrieval RetrievalConfig
	Pipeline  PipelineConfig
	Otel      OtelConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	AdminJWTSecret     string
	NotifyEmails       []string
	ShutdownTimeout    time.Duration
}

type DatabaseConfig struct {
	// Empty means the in-memory store is used.
	Connection      string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogSQL          bool
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type AIConfig struct {
	EmbeddingProvider    string // "ollama" or "openai"
	EmbeddingModel       string
	EmbeddingBatchSize   int
	MaxEmbedChars        int
	OllamaBaseURL        string
	LLMProvider          string // "ollama" or "openai"
	LLMModel             string
	ValidationModel      string
	OpenAIKey            string
	OpenAIBaseURL        string
	FetchTimeout         time.Duration
	FetchMaxBytes        int64
	ValidationExcerptLen int
	AnalysisExcerptLen   int
}

type ChunkingConfig struct {
	Size    int
	Overlap int
}

type RetrievalConfig struct {
	SemanticCeiling  int
	DefaultThreshold float64
}

type PipelineConfig struct {
	Concurrency       int
	CallTimeout       time.Duration
	MaxRetries        uint
	InitialBackoff    time.Duration
	RequestsPerSecond float64
	Burst             int
	JobTopic          string
	JobCacheTTL       time.Duration
}

type OtelConfig struct {
	Enabled     bool
	Endpoint    string
	SampleRatio float64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
			NotifyEmails:       getEnvAsList("NOTIFY_EMAILS"),
			ShutdownTimeout:    getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Connection:      getEnv("DB_CONNECTION_STRING", ""),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 50),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			LogSQL:          getEnvAsBool("DB_LOG_SQL", false),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Legal Indexer"),
		},
		Ai: AIConfig{
			EmbeddingProvider:    getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:       getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			EmbeddingBatchSize:   getEnvAsInt("EMBEDDING_BATCH_SIZE", 100),
			MaxEmbedChars:        getEnvAsInt("MAX_EMBED_CHARS", 8000),
			OllamaBaseURL:        getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			LLMProvider:          getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:             getEnv("LLM_MODEL", "llama3.1"),
			ValidationModel:      getEnv("VALIDATION_MODEL", ""),
			OpenAIKey:            getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:        getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			FetchTimeout:         getEnvAsDuration("FETCH_TIMEOUT", 30*time.Second),
			FetchMaxBytes:        int64(getEnvAsInt("FETCH_MAX_BYTES", 25*1024*1024)),
			ValidationExcerptLen: getEnvAsInt("VALIDATION_EXCERPT_CHARS", 3000),
			AnalysisExcerptLen:   getEnvAsInt("ANALYSIS_EXCERPT_CHARS", 15000),
		},
		Chunking: ChunkingConfig{
			Size:    getEnvAsInt("CHUNK_SIZE", 1000),
			Overlap: getEnvAsInt("CHUNK_OVERLAP", 300),
		},
		Retrieval: RetrievalConfig{
			SemanticCeiling:  getEnvAsInt("SEMANTIC_SEARCH_CEILING", 1000),
			DefaultThreshold: getEnvAsFloat("DEFAULT_SIMILARITY_THRESHOLD", 0.3),
		},
		Pipeline: PipelineConfig{
			Concurrency:       getEnvAsInt("PIPELINE_CONCURRENCY", 1),
			CallTimeout:       getEnvAsDuration("COLLABORATOR_CALL_TIMEOUT", 60*time.Second),
			MaxRetries:        uint(getEnvAsInt("COLLABORATOR_MAX_RETRIES", 3)),
			InitialBackoff:    getEnvAsDuration("COLLABORATOR_INITIAL_BACKOFF", time.Second),
			RequestsPerSecond: getEnvAsFloat("INFERENCE_RATE_LIMIT_RPS", 0),
			Burst:             getEnvAsInt("INFERENCE_RATE_LIMIT_BURST", 1),
			JobTopic:          getEnv("JOB_TOPIC_NAME", "LEGAL_INDEXER_JOBS"),
			JobCacheTTL:       getEnvAsDuration("JOB_CACHE_TTL", time.Hour),
		},
		Otel: OtelConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 1.0),
		},
	}
}

// Validate rejects configurations the chunker and pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d with size %d", c.Chunking.Overlap, c.Chunking.Size)
	}
	if c.Pipeline.Concurrency < 1 {
		return fmt.Errorf("PIPELINE_CONCURRENCY must be at least 1, got %d", c.Pipeline.Concurrency)
	}
	if c.Pipeline.MaxRetries < 1 {
		return fmt.Errorf("COLLABORATOR_MAX_RETRIES must be at least 1, got %d", c.Pipeline.MaxRetries)
	}
	if c.Retrieval.SemanticCeiling <= 0 {
		return fmt.Errorf("SEMANTIC_SEARCH_CEILING must be positive, got %d", c.Retrieval.SemanticCeiling)
	}
	if t := c.Retrieval.DefaultThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("DEFAULT_SIMILARITY_THRESHOLD must be in (0, 1], got %v", t)
	}
	if c.Ai.EmbeddingBatchSize <= 0 {
		return fmt.Errorf("EMBEDDING_BATCH_SIZE must be positive, got %d", c.Ai.EmbeddingBatchSize)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
