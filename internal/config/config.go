// Package config provides configuration loading for outlined.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds every setting of the outlined tools.
type Config struct {
	Generation GenerationConfig `koanf:"generation"`
	Embeddings EmbeddingsConfig `koanf:"embeddings"`
	Library    LibraryConfig    `koanf:"library"`
	Index      IndexConfig      `koanf:"index"`
	Prompt     PromptConfig     `koanf:"prompt"`
	Logging    LoggingConfig    `koanf:"logging"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
}

// GenerationConfig configures the text generation service.
type GenerationConfig struct {
	BaseURL          string   `koanf:"base_url"`
	Model            string   `koanf:"model"`
	APIKey           Secret   `koanf:"api_key"`
	Temperature      float64  `koanf:"temperature"`
	MaxTokens        int      `koanf:"max_tokens"`
	SegmentMaxTokens int      `koanf:"segment_max_tokens"`
	Timeout          Duration `koanf:"timeout"`
	MaxRetries       int      `koanf:"max_retries"`
	RateLimit        float64  `koanf:"rate_limit"` // requests per minute
	Burst            int      `koanf:"burst"`
}

// EmbeddingsConfig configures the embedding service.
type EmbeddingsConfig struct {
	BaseURL   string `koanf:"base_url"`
	Model     string `koanf:"model"`
	APIKey    Secret `koanf:"api_key"`
	Dimension int    `koanf:"dimension"`
}

// LibraryConfig configures the reference and outline store.
type LibraryConfig struct {
	Path string `koanf:"path"`
}

// IndexConfig configures the chunk index. An empty Path keeps the index in
// memory.
type IndexConfig struct {
	Path       string `koanf:"path"`
	Collection string `koanf:"collection"`
	Compress   bool   `koanf:"compress"`
	ChunkSize  int    `koanf:"chunk_size"`
}

// PromptConfig holds generation request defaults.
type PromptConfig struct {
	StyleAdherence float64 `koanf:"style_adherence"`
	TotalDuration  int     `koanf:"total_duration"`
	ReferenceLimit int     `koanf:"reference_limit"`
	ExcerptChars   int     `koanf:"excerpt_chars"`
}

// LoggingConfig selects log level and encoding.
type LoggingConfig struct {
	Level    string `koanf:"level"`
	Format   string `koanf:"format"`
	Sampling bool   `koanf:"sampling"`
}

// TelemetryConfig configures OTLP export of traces and metrics.
type TelemetryConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Endpoint string `koanf:"endpoint"`
	// Protocol is "grpc" or "http/protobuf".
	Protocol        string   `koanf:"protocol"`
	Insecure        bool     `koanf:"insecure"`
	SampleRate      float64  `koanf:"sample_rate"`
	ExportInterval  Duration `koanf:"export_interval"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Generation: GenerationConfig{
			Model:            "gpt-4-turbo-preview",
			Temperature:      0.4,
			MaxTokens:        2000,
			SegmentMaxTokens: 500,
			Timeout:          Duration(60 * time.Second),
			MaxRetries:       3,
			RateLimit:        50,
			Burst:            5,
		},
		Embeddings: EmbeddingsConfig{
			Model:     "text-embedding-ada-002",
			Dimension: 1536,
		},
		Library: LibraryConfig{
			Path: "~/.config/outlined/library.db",
		},
		Index: IndexConfig{
			Path:       "~/.config/outlined/index",
			Collection: "outline_chunks",
			ChunkSize:  1000,
		},
		Prompt: PromptConfig{
			StyleAdherence: 0.8,
			TotalDuration:  120,
			ReferenceLimit: 3,
			ExcerptChars:   1500,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Sampling: true,
		},
		Telemetry: TelemetryConfig{
			Endpoint:        "localhost:4317",
			Protocol:        "grpc",
			Insecure:        true,
			SampleRate:      1.0,
			ExportInterval:  Duration(15 * time.Second),
			ShutdownTimeout: Duration(5 * time.Second),
		},
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	if c.Generation.Model == "" {
		errs = append(errs, errors.New("generation.model is required"))
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		errs = append(errs, fmt.Errorf("generation.temperature must be within [0, 2], got %v", c.Generation.Temperature))
	}
	if c.Generation.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("generation.max_tokens must be positive, got %d", c.Generation.MaxTokens))
	}
	if c.Generation.SegmentMaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("generation.segment_max_tokens must be positive, got %d", c.Generation.SegmentMaxTokens))
	}
	if c.Generation.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("generation.max_retries cannot be negative, got %d", c.Generation.MaxRetries))
	}
	if c.Generation.RateLimit <= 0 {
		errs = append(errs, fmt.Errorf("generation.rate_limit must be positive, got %v", c.Generation.RateLimit))
	}
	if c.Embeddings.Dimension <= 0 {
		errs = append(errs, fmt.Errorf("embeddings.dimension must be positive, got %d", c.Embeddings.Dimension))
	}
	if c.Library.Path == "" {
		errs = append(errs, errors.New("library.path is required"))
	}
	if c.Index.Collection == "" {
		errs = append(errs, errors.New("index.collection is required"))
	}
	if c.Index.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("index.chunk_size must be positive, got %d", c.Index.ChunkSize))
	}
	if c.Prompt.StyleAdherence < 0 || c.Prompt.StyleAdherence > 1 {
		errs = append(errs, fmt.Errorf("prompt.style_adherence must be within [0, 1], got %v", c.Prompt.StyleAdherence))
	}
	if c.Prompt.ReferenceLimit <= 0 {
		errs = append(errs, fmt.Errorf("prompt.reference_limit must be positive, got %d", c.Prompt.ReferenceLimit))
	}
	if c.Prompt.ExcerptChars <= 0 {
		errs = append(errs, fmt.Errorf("prompt.excerpt_chars must be positive, got %d", c.Prompt.ExcerptChars))
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("telemetry.sample_rate must be within [0, 1], got %v", c.Telemetry.SampleRate))
	}

	return errors.Join(errs...)
}

// ExpandPath replaces a leading "~" with the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
