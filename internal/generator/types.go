package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/outlined/internal/chunkindex"
	"github.com/fyrsmithlabs/outlined/internal/ingest"
	"github.com/fyrsmithlabs/outlined/internal/library"
	"github.com/fyrsmithlabs/outlined/internal/outline"
	"github.com/fyrsmithlabs/outlined/internal/prompt"
)

var (
	// ErrNoContent is returned when an upload decodes to blank text or the
	// generation service returns blank output.
	ErrNoContent = errors.New("no content")

	// ErrInvalidRequest indicates a request that fails validation.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrIndexDisabled is returned by Search when no chunk index is wired.
	ErrIndexDisabled = errors.New("chunk index disabled")
)

// Defaults applied to generation requests.
const (
	DefaultWorkshopTitle  = "New Workshop"
	DefaultTotalDuration  = 120
	DefaultReferenceLimit = 3
	DefaultTemperature    = 0.4
	DefaultMaxTokens      = 2000
	DefaultSegmentTokens  = 500
)

// ReferenceStore persists reference and generated outlines.
type ReferenceStore interface {
	AddReference(ctx context.Context, ref library.Reference) (library.Reference, error)
	GetReference(ctx context.Context, id string) (library.Reference, error)
	ListReferences(ctx context.Context) ([]library.Reference, error)
	GetReferences(ctx context.Context, ids []string) ([]library.Reference, error)
	DeleteReference(ctx context.Context, id string) error

	SaveOutline(ctx context.Context, o library.Outline) (library.Outline, error)
	GetOutline(ctx context.Context, id string) (library.Outline, error)
	ListOutlines(ctx context.Context) ([]library.Outline, error)
	UpdateOutlineContent(ctx context.Context, id, content string) (library.Outline, error)
	DeleteOutline(ctx context.Context, id string) error
}

// Embedder produces vectors, falling back to a zero vector on failure. The
// boolean reports whether the vector is a real embedding.
type Embedder interface {
	EmbedOrZero(ctx context.Context, text string) ([]float32, bool)
}

// ChunkIndexer stores and searches segment chunks of reference outlines.
type ChunkIndexer interface {
	AddChunks(ctx context.Context, referenceID, referenceTitle string, chunks []outline.Chunk) (int, error)
	Search(ctx context.Context, query string, k int) ([]chunkindex.Hit, error)
	DeleteReference(ctx context.Context, referenceID string) error
}

// Config holds generation settings.
type Config struct {
	Temperature      float64
	MaxTokens        int
	SegmentMaxTokens int

	// StyleAdherence is the default weight given to reference style, in [0, 1].
	StyleAdherence float64
	// TotalDuration is the default outline length in minutes.
	TotalDuration int
	// ReferenceLimit is how many references retrieval returns.
	ReferenceLimit int
	// ExcerptChars caps each reference example in the request.
	ExcerptChars int
	// ChunkSize is the maximum chunk length for the chunk index.
	ChunkSize int
}

// DefaultConfig returns the default generation settings.
func DefaultConfig() Config {
	return Config{
		Temperature:      DefaultTemperature,
		MaxTokens:        DefaultMaxTokens,
		SegmentMaxTokens: DefaultSegmentTokens,
		StyleAdherence:   prompt.DefaultStyleAdherence,
		TotalDuration:    DefaultTotalDuration,
		ReferenceLimit:   DefaultReferenceLimit,
		ExcerptChars:     prompt.DefaultExcerptChars,
		ChunkSize:        outline.DefaultChunkSize,
	}
}

// applyDefaults fills unset numeric fields. Temperature and StyleAdherence
// are left alone since zero is meaningful for both.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.MaxTokens <= 0 {
		c.MaxTokens = d.MaxTokens
	}
	if c.SegmentMaxTokens <= 0 {
		c.SegmentMaxTokens = d.SegmentMaxTokens
	}
	if c.TotalDuration <= 0 {
		c.TotalDuration = d.TotalDuration
	}
	if c.ReferenceLimit <= 0 {
		c.ReferenceLimit = d.ReferenceLimit
	}
	if c.ExcerptChars <= 0 {
		c.ExcerptChars = d.ExcerptChars
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = d.ChunkSize
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validateAdherence(c.StyleAdherence); err != nil {
		return err
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: temperature must be between 0 and 2, got %v", ErrInvalidRequest, c.Temperature)
	}
	return nil
}

func validateAdherence(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%w: style adherence must be between 0 and 1, got %v", ErrInvalidRequest, v)
	}
	return nil
}

// ReferenceInput is an uploaded reference outline.
type ReferenceInput struct {
	// Title overrides the detected title.
	Title       string
	Description string
	Filename    string
	Data        []byte
	// Format overrides detection from the filename extension.
	Format ingest.Format
}

// ReferenceResult is the outcome of AddReference.
type ReferenceResult struct {
	Reference library.Reference `json:"reference"`
	Structure outline.Structure `json:"structure"`
	// Embedded is false when the zero-vector fallback was stored.
	Embedded bool `json:"embedded"`
	// Chunks is the number of chunks added to the chunk index.
	Chunks int `json:"chunks"`
}

// GenerateRequest asks for a complete outline.
type GenerateRequest struct {
	Spec prompt.Specification
	// ReferenceIDs selects references explicitly. Empty means retrieval.
	ReferenceIDs []string
	// StyleAdherence overrides Config.StyleAdherence when set.
	StyleAdherence *float64
}

// GenerateResult is the outcome of Generate.
type GenerateResult struct {
	Outline      library.Outline `json:"outline"`
	ReferenceIDs []string        `json:"reference_ids"`
}

// RegenerateRequest asks for one segment of a stored outline to be replaced.
type RegenerateRequest struct {
	OutlineID    string
	SegmentIndex int
	Segment      prompt.SegmentRequirement
	// ReferenceIDs selects references explicitly. Empty means the outline's
	// own reference, then retrieval.
	ReferenceIDs []string
}

// RegenerateResult is the outcome of RegenerateSegment.
type RegenerateResult struct {
	Outline library.Outline `json:"outline"`
	// Changed is false when the segment index was out of range.
	Changed bool `json:"changed"`
}
