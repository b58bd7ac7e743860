// Package config loads and validates application configuration from
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Server settings.
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Warehouse settings.
	WarehouseURL string        // Postgres URL of the university data warehouse.
	QueryTimeout time.Duration // Upper bound for one generated-query execution.

	// Vector index settings.
	QdrantURL  string
	Collection string
	Dimensions int // Must match the embedding model's output.

	// Provider settings.
	LLMProvider       string // "gemini", "openai", or "static"
	EmbeddingProvider string // "gemini", "openai", "mock", or "noop"
	GeminiAPIKey      string
	OpenAIAPIKey      string
	LLMModel          string
	EmbeddingModel    string

	// Feedback settings.
	FeedbackStore string // "file" or "sqlite"
	FeedbackPath  string

	// OTEL settings.
	OTELEndpoint string
	ServiceName  string

	// Operational settings.
	LogLevel  string
	LogFormat string // "json" or "text"
}

// Load reads configuration from environment variables with sensible
// defaults. Invalid values are collected and reported together.
func Load() (Config, error) {
	var errs []error
	cfg := Config{
		Port:              envInt("CENDEKIA_PORT", 8080, &errs),
		ReadTimeout:       envDuration("CENDEKIA_READ_TIMEOUT", 30*time.Second, &errs),
		WriteTimeout:      envDuration("CENDEKIA_WRITE_TIMEOUT", 120*time.Second, &errs),
		WarehouseURL:      envStr("CENDEKIA_WAREHOUSE_URL", ""),
		QueryTimeout:      envDuration("CENDEKIA_QUERY_TIMEOUT", 30*time.Second, &errs),
		QdrantURL:         envStr("CENDEKIA_QDRANT_URL", "http://localhost:6333"),
		Collection:        envStr("CENDEKIA_COLLECTION", "cendekia_knowledge"),
		Dimensions:        envInt("CENDEKIA_DIMENSIONS", 768, &errs),
		LLMProvider:       envStr("CENDEKIA_LLM_PROVIDER", "gemini"),
		EmbeddingProvider: envStr("CENDEKIA_EMBEDDING_PROVIDER", "gemini"),
		GeminiAPIKey:      envStr("GEMINI_API_KEY", ""),
		OpenAIAPIKey:      envStr("OPENAI_API_KEY", ""),
		LLMModel:          envStr("CENDEKIA_LLM_MODEL", ""),
		EmbeddingModel:    envStr("CENDEKIA_EMBEDDING_MODEL", ""),
		FeedbackStore:     envStr("CENDEKIA_FEEDBACK_STORE", "file"),
		FeedbackPath:      envStr("CENDEKIA_FEEDBACK_PATH", "feedback_log.json"),
		OTELEndpoint:      envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:       envStr("OTEL_SERVICE_NAME", "cendekia"),
		LogLevel:          envStr("CENDEKIA_LOG_LEVEL", "info"),
		LogFormat:         envStr("CENDEKIA_LOG_FORMAT", "json"),
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if c.Dimensions <= 0 {
		return fmt.Errorf("config: CENDEKIA_DIMENSIONS must be positive")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: CENDEKIA_PORT %d out of range", c.Port)
	}
	switch c.FeedbackStore {
	case "file", "sqlite":
	default:
		return fmt.Errorf("config: CENDEKIA_FEEDBACK_STORE must be \"file\" or \"sqlite\", got %q", c.FeedbackStore)
	}
	switch c.LLMProvider {
	case "gemini", "openai", "static":
	default:
		return fmt.Errorf("config: unknown CENDEKIA_LLM_PROVIDER %q", c.LLMProvider)
	}
	switch c.EmbeddingProvider {
	case "gemini", "openai", "mock", "noop":
	default:
		return fmt.Errorf("config: unknown CENDEKIA_EMBEDDING_PROVIDER %q", c.EmbeddingProvider)
	}
	return nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s=%q is not a valid integer", key, v))
		return defaultVal
	}
	return n
}

func envDuration(key string, defaultVal time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s=%q is not a valid duration", key, v))
		return defaultVal
	}
	return d
}
