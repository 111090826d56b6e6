package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Vector store backends.
const (
	BackendQdrant = "qdrant"
	BackendMilvus = "milvus"
)

// Config holds all configuration for the application.
type Config struct {
	// OpenAI-compatible API access.
	OpenAIBaseURL   string
	OpenAIAPIKey    string
	EmbeddingModel  string
	CompletionModel string

	// Chunking.
	TokenEncoding  string
	MaxChunkTokens int

	// VectorSize must match the output dimension of the embedding model. If
	// the size changes, the vector collection must be recreated.
	VectorSize        int
	NormalizeCombined bool

	// Ingestion.
	CorpusDir   string
	Categories  []string
	WorkerCount int

	// Upstream request behavior.
	RequestTimeout   time.Duration
	RateLimitRPS     float64
	RetryMaxAttempts int

	// Storage.
	DBPath           string
	VectorBackend    string
	QdrantURL        string
	MilvusAddr       string
	VectorCollection string

	// Server.
	APIPort   string
	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	// Check current directory first, then walk up to find project root (where go.mod is)
	_ = godotenv.Load() // Try current directory

	// Try to find project root by looking for go.mod
	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		CompletionModel:  getEnv("COMPLETION_MODEL", "gpt-4o-mini"),
		TokenEncoding:    getEnv("TOKEN_ENCODING", "cl100k_base"),
		CorpusDir:        getEnv("CORPUS_DIR", ""),
		DBPath:           getEnv("DB_PATH", "./data/embedpipe.db"),
		VectorBackend:    strings.ToLower(getEnv("VECTOR_BACKEND", BackendQdrant)),
		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		MilvusAddr:       getEnv("MILVUS_ADDR", "localhost:19530"),
		VectorCollection: getEnv("VECTOR_COLLECTION", "documents"),
		APIPort:          getEnv("API_PORT", "8080"),
		LogFormat:        strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	cfg.MaxChunkTokens, err = getEnvInt("MAX_CHUNK_TOKENS", 512)
	if err != nil {
		return nil, err
	}
	if cfg.MaxChunkTokens <= 0 {
		return nil, fmt.Errorf("MAX_CHUNK_TOKENS must be greater than 0")
	}

	// Parse VECTOR_SIZE
	// Note: This must match the output vector size of the embedding model.
	// For text-embedding-3-small this is 1536 dimensions. If the vector size
	// changes, the vector collection must be recreated.
	vectorSizeStr := getEnv("VECTOR_SIZE", "")
	if vectorSizeStr == "" {
		return nil, fmt.Errorf("VECTOR_SIZE is required")
	}
	cfg.VectorSize, err = strconv.Atoi(vectorSizeStr)
	if err != nil {
		return nil, fmt.Errorf("VECTOR_SIZE must be a valid integer: %w", err)
	}
	if cfg.VectorSize <= 0 {
		return nil, fmt.Errorf("VECTOR_SIZE must be greater than 0")
	}

	cfg.NormalizeCombined, err = getEnvBool("NORMALIZE_COMBINED", false)
	if err != nil {
		return nil, err
	}

	cfg.WorkerCount, err = getEnvInt("WORKER_COUNT", 4)
	if err != nil {
		return nil, err
	}
	if cfg.WorkerCount <= 0 {
		return nil, fmt.Errorf("WORKER_COUNT must be greater than 0")
	}

	timeoutSeconds, err := getEnvInt("REQUEST_TIMEOUT_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	if timeoutSeconds <= 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be greater than 0")
	}
	cfg.RequestTimeout = time.Duration(timeoutSeconds) * time.Second

	cfg.RateLimitRPS, err = getEnvFloat("RATE_LIMIT_RPS", 0)
	if err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS < 0 {
		return nil, fmt.Errorf("RATE_LIMIT_RPS must not be negative")
	}

	cfg.RetryMaxAttempts, err = getEnvInt("RETRY_MAX_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}
	if cfg.RetryMaxAttempts <= 0 {
		return nil, fmt.Errorf("RETRY_MAX_ATTEMPTS must be greater than 0")
	}

	cfg.Categories = splitCategories(getEnv("CATEGORIES", ""))

	cfg.LogLevel, err = parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if cfg.CorpusDir == "" {
		return nil, fmt.Errorf("CORPUS_DIR is required")
	}
	if len(cfg.Categories) == 0 {
		return nil, fmt.Errorf("CATEGORIES is required")
	}
	if cfg.VectorBackend != BackendQdrant && cfg.VectorBackend != BackendMilvus {
		return nil, fmt.Errorf("VECTOR_BACKEND must be %q or %q", BackendQdrant, BackendMilvus)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be \"text\" or \"json\"")
	}

	// Create the data directory if it doesn't exist (for the DB file)
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return parsed, nil
}

// getEnvFloat gets a float environment variable or returns a default value.
func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return parsed, nil
}

// getEnvBool gets a boolean environment variable or returns a default value.
func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a valid boolean: %w", key, err)
	}
	return parsed, nil
}

// splitCategories parses a comma-separated category list, dropping empty
// entries and surrounding whitespace.
func splitCategories(raw string) []string {
	var categories []string
	for _, part := range strings.Split(raw, ",") {
		if category := strings.TrimSpace(part); category != "" {
			categories = append(categories, category)
		}
	}
	return categories
}

// parseLogLevel maps a level name to its slog level.
func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}
}
