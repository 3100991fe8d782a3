// Package completion calls the text generation service that writes outlines
// and regenerated segments.
//
// The client speaks the OpenAI chat API through langchaingo, waits on a
// client-side rate limiter before each request, and retries transient
// failures (transport errors, 429, 5xx) with exponential backoff.
//
//	client, err := completion.NewClient(completion.Config{
//	    Model:  "gpt-4-turbo-preview",
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	}, logger)
//	text, err := client.Generate(ctx, completion.Request{
//	    System: prompt.OutlineSystemPrompt,
//	    Prompt: body,
//	})
package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	// ErrGenerationFailed indicates the generation service did not produce text.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrEmptyPrompt indicates a request without prompt text.
	ErrEmptyPrompt = errors.New("empty prompt")

	// ErrInvalidConfig indicates invalid client configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Default configuration values.
const (
	defaultTimeout     = 60 * time.Second
	defaultBaseBackoff = 1 * time.Second
	defaultOperation   = "generate"
)

// Request is a single generation call.
type Request struct {
	// Operation labels metrics, e.g. "outline" or "segment".
	Operation   string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Config holds configuration for the generation client.
type Config struct {
	// BaseURL overrides the OpenAI endpoint (any OpenAI-compatible server).
	BaseURL string

	Model  string
	APIKey string `json:"-"`

	// Timeout bounds one HTTP request. Zero means 60s.
	Timeout time.Duration

	MaxRetries int

	// RateLimit is in requests per minute.
	RateLimit float64
	Burst     int
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("%w: model required", ErrInvalidConfig)
	}
	if c.APIKey == "" {
		return fmt.Errorf("%w: API key required", ErrInvalidConfig)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max retries cannot be negative", ErrInvalidConfig)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("%w: rate limit must be positive", ErrInvalidConfig)
	}
	if c.Burst <= 0 {
		return fmt.Errorf("%w: burst must be positive", ErrInvalidConfig)
	}
	return nil
}

// chatModel is the part of llms.Model the client needs.
type chatModel interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Client implements Generator against an OpenAI-compatible chat API.
type Client struct {
	model       chatModel
	modelName   string
	limiter     *rate.Limiter
	maxRetries  int
	baseBackoff time.Duration
	metrics     *Metrics
	logger      *zap.Logger
}

// NewClient creates a generation client. A nil logger disables logging.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	timeout := defaultTimeout
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
		openai.WithHTTPClient(&statusDoer{client: &http.Client{Timeout: timeout}}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}

	return newClientWithModel(cfg, llm, logger), nil
}

func newClientWithModel(cfg Config, model chatModel, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		model:       model,
		modelName:   cfg.Model,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RateLimit/60.0), cfg.Burst),
		maxRetries:  cfg.MaxRetries,
		baseBackoff: defaultBaseBackoff,
		metrics:     NewMetrics(logger),
		logger:      logger,
	}
}

// Generate sends the request and returns the first choice's text.
//
// Transient failures are retried up to MaxRetries times with backoff of 1s,
// 2s, 4s and so on. Every failure wraps ErrGenerationFailed.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", ErrEmptyPrompt
	}

	op := req.Operation
	if op == "" {
		op = defaultOperation
	}

	start := time.Now()
	text, retries, err := c.generate(ctx, req)
	c.metrics.RecordGeneration(ctx, c.modelName, op, time.Since(start), retries, err)
	if err != nil {
		c.logger.Error("generation failed",
			zap.String("model", c.modelName),
			zap.String("operation", op),
			zap.Int("retries", retries),
			zap.Error(err))
		return "", err
	}
	return text, nil
}

func (c *Client) generate(ctx context.Context, req Request) (string, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", 0, fmt.Errorf("%w: rate limiter: %w", ErrGenerationFailed, err)
	}

	messages := make([]llms.MessageContent, 0, 2)
	if req.System != "" {
		messages = append(messages, llms.TextParts(schema.ChatMessageTypeSystem, req.System))
	}
	messages = append(messages, llms.TextParts(schema.ChatMessageTypeHuman, req.Prompt))

	opts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.baseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", attempt - 1, fmt.Errorf("%w: %w", ErrGenerationFailed, ctx.Err())
			}
		}

		text, err := c.call(ctx, messages, opts)
		if err == nil {
			return text, attempt, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			return "", attempt, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
		}
		c.logger.Warn("transient generation error",
			zap.String("model", c.modelName),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}

	return "", c.maxRetries, fmt.Errorf("%w: max retries exceeded: %w", ErrGenerationFailed, lastErr)
}

func (c *Client) call(ctx context.Context, messages []llms.MessageContent, opts []llms.CallOption) (string, error) {
	resp, err := c.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("empty response from API")
	}
	return resp.Choices[0].Content, nil
}

var _ Generator = (*Client)(nil)
