package embeddings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

var (
	// ErrEmptyInput indicates empty or nil input texts
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmbeddingFailed indicates embedding generation failure
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)

// Config holds configuration for the embedding service.
type Config struct {
	// BaseURL is the base URL for the embedding API. Empty uses OpenAI.
	BaseURL string

	// Model is the embedding model to use, e.g. text-embedding-ada-002.
	Model string

	// APIKey is the API key (optional for self-hosted servers)
	APIKey string `json:"-"`

	// Dimension is the vector size of Model; zero vectors use it.
	Dimension int
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("%w: model required", ErrInvalidConfig)
	}
	if c.Dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive", ErrInvalidConfig)
	}
	return nil
}

// Service provides embedding generation functionality.
type Service struct {
	embedder embeddings.Embedder
	config   Config
	metrics  *Metrics
	logger   *zap.Logger
}

// NewService creates a new embedding service with the given configuration.
// A nil logger disables logging.
func NewService(config Config, logger *zap.Logger) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	apiKey := config.APIKey
	if apiKey == "" {
		// langchaingo requires a token, use placeholder for local servers
		apiKey = "placeholder"
	}

	opts := []openai.Option{
		openai.WithEmbeddingModel(config.Model),
		openai.WithToken(apiKey),
	}
	if config.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	return newServiceWithEmbedder(config, embedder, logger), nil
}

func newServiceWithEmbedder(config Config, embedder embeddings.Embedder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		embedder: embedder,
		config:   config,
		metrics:  NewMetrics(logger),
		logger:   logger,
	}
}

// Embedder returns the underlying langchaingo Embedder.
func (s *Service) Embedder() embeddings.Embedder {
	return s.embedder
}

// Dimension returns the configured vector size.
func (s *Service) Dimension() int {
	return s.config.Dimension
}

// Embed generates an embedding for a single text.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	var genErr error
	defer func() {
		s.metrics.RecordGeneration(ctx, s.config.Model, "embed_query", time.Since(start), 1, genErr)
	}()

	if strings.TrimSpace(text) == "" {
		genErr = fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
		return nil, genErr
	}

	vector, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		genErr = fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
		return nil, genErr
	}
	if len(vector) == 0 {
		genErr = fmt.Errorf("%w: empty response", ErrEmbeddingFailed)
		return nil, genErr
	}

	return vector, nil
}

// EmbedDocuments generates embeddings for multiple texts, one vector per
// text in order.
func (s *Service) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	var genErr error
	defer func() {
		s.metrics.RecordGeneration(ctx, s.config.Model, "embed_documents", time.Since(start), len(texts), genErr)
	}()

	if len(texts) == 0 {
		genErr = fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
		return nil, genErr
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		genErr = fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
		return nil, genErr
	}
	if len(vectors) != len(texts) {
		genErr = fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbeddingFailed, len(vectors), len(texts))
		return nil, genErr
	}

	return vectors, nil
}

// EmbedOrZero embeds text, substituting a zero vector of the configured
// dimension when the service fails. ok reports whether the vector is real.
func (s *Service) EmbedOrZero(ctx context.Context, text string) ([]float32, bool) {
	vector, err := s.Embed(ctx, text)
	if err == nil {
		return vector, true
	}

	s.logger.Warn("embedding failed, using zero vector",
		zap.String("model", s.config.Model),
		zap.Int("dimension", s.config.Dimension),
		zap.Error(err))
	s.metrics.RecordFallback(ctx, s.config.Model)
	return make([]float32, s.config.Dimension), false
}

// EmbedQuery is Embed under langchaingo's Embedder name, so the service can
// back the chunk index embedding function.
func (s *Service) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return s.Embed(ctx, text)
}

var _ embeddings.Embedder = (*Service)(nil)
