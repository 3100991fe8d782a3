// Package chunkindex provides semantic search over segment-aligned chunks of
// reference outlines, backed by chromem-go.
//
// chromem-go is an embeddable vector database: the index runs in memory and
// optionally persists to gob files under Config.Path.
package chunkindex

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/outlined/internal/config"
	"github.com/fyrsmithlabs/outlined/internal/outline"
)

var (
	// ErrEmptyQuery is returned for a blank search query.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrInvalidConfig indicates invalid index configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// DefaultCollection is the collection used when none is configured.
const DefaultCollection = "outline_chunks"

// DefaultSearchLimit is used when Search is called with k <= 0.
const DefaultSearchLimit = 5

// Metadata keys stored on every chunk.
const (
	metaReferenceID    = "reference_id"
	metaReferenceTitle = "reference_title"
	metaChunkIndex     = "chunk_index"
	metaSegmentIndex   = "segment_index"
	metaSegmentTitle   = "segment_title"
)

var tracer = otel.Tracer("outlined.chunkindex")

// Embedder generates vectors for chunk text and queries.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Config holds configuration for the chunk index.
type Config struct {
	// Path is the directory for persistent storage. Empty keeps the index
	// in memory.
	Path string

	// Collection is the chromem collection name.
	Collection string

	// Compress enables gzip compression of persisted files.
	Compress bool
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Collection == "" {
		c.Collection = DefaultCollection
	}
}

// Hit is one search result.
type Hit struct {
	ReferenceID    string  `json:"reference_id"`
	ReferenceTitle string  `json:"reference_title"`
	ChunkIndex     int     `json:"chunk_index"`
	SegmentIndex   int     `json:"segment_index"`
	SegmentTitle   string  `json:"segment_title"`
	Content        string  `json:"content"`
	Score          float32 `json:"score"`
}

// Index stores outline chunks with their embeddings.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   Embedder
	config     Config
	logger     *zap.Logger
}

// New opens or creates the index. A nil logger disables logging.
func New(cfg Config, embedder Embedder, logger *zap.Logger) (*Index, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ApplyDefaults()

	var db *chromem.DB
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		path, err := config.ExpandPath(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("expanding path: %w", err)
		}
		if err := os.MkdirAll(path, 0700); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", path, err)
		}
		db, err = chromem.NewPersistentDB(path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("creating chromem DB: %w", err)
		}
		cfg.Path = path
	}

	idx := &Index{db: db, embedder: embedder, config: cfg, logger: logger}

	collection, err := db.GetOrCreateCollection(cfg.Collection, nil, idx.embeddingFunc())
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", cfg.Collection, err)
	}
	idx.collection = collection

	logger.Debug("chunk index opened",
		zap.String("path", cfg.Path),
		zap.String("collection", cfg.Collection),
		zap.Int("documents", collection.Count()),
	)
	return idx, nil
}

func (i *Index) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return i.embedder.EmbedQuery(ctx, text)
	}
}

// Count returns the number of indexed chunks.
func (i *Index) Count() int {
	return i.collection.Count()
}

// AddChunks embeds and stores the chunks of one reference and returns how
// many were indexed. Chunks whose embedding is all zeros are skipped, since
// they cannot be compared by cosine similarity.
func (i *Index) AddChunks(ctx context.Context, referenceID, referenceTitle string, chunks []outline.Chunk) (int, error) {
	ctx, span := tracer.Start(ctx, "Index.AddChunks")
	defer span.End()

	span.SetAttributes(
		attribute.String("reference_id", referenceID),
		attribute.Int("chunk_count", len(chunks)),
	)

	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for n, c := range chunks {
		texts[n] = c.Content
	}

	vectors, err := i.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		err := fmt.Errorf("embedding chunks: got %d vectors for %d chunks", len(vectors), len(chunks))
		span.RecordError(err)
		return 0, err
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for n, c := range chunks {
		if isZero(vectors[n]) {
			i.logger.Debug("skipping chunk with zero embedding",
				zap.String("reference_id", referenceID),
				zap.Int("chunk_index", c.Index))
			continue
		}
		docs = append(docs, chromem.Document{
			ID:      documentID(referenceID, c.Index),
			Content: c.Content,
			Metadata: map[string]string{
				metaReferenceID:    referenceID,
				metaReferenceTitle: referenceTitle,
				metaChunkIndex:     strconv.Itoa(c.Index),
				metaSegmentIndex:   strconv.Itoa(c.SegmentIndex),
				metaSegmentTitle:   c.SegmentTitle,
			},
			Embedding: vectors[n],
		})
	}

	if len(docs) == 0 {
		span.SetStatus(codes.Ok, "nothing to index")
		return 0, nil
	}

	// Concurrency of 1 since embeddings are already present.
	if err := i.collection.AddDocuments(ctx, docs, 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("adding documents: %w", err)
	}

	span.SetAttributes(attribute.Int("documents_added", len(docs)))
	span.SetStatus(codes.Ok, "success")

	i.logger.Debug("indexed reference chunks",
		zap.String("reference_id", referenceID),
		zap.Int("count", len(docs)),
	)
	return len(docs), nil
}

// Search returns up to k chunks most similar to query, best first.
func (i *Index) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	ctx, span := tracer.Start(ctx, "Index.Search")
	defer span.End()

	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		k = DefaultSearchLimit
	}
	span.SetAttributes(attribute.Int("k", k))

	// chromem requires nResults <= document count
	count := i.collection.Count()
	if count == 0 {
		return []Hit{}, nil
	}
	if k > count {
		k = count
	}

	vector, err := i.embedder.EmbedQuery(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if isZero(vector) {
		return []Hit{}, nil
	}

	results, err := i.collection.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying collection %s: %w", i.config.Collection, err)
	}

	hits := make([]Hit, len(results))
	for n, r := range results {
		hits[n] = Hit{
			ReferenceID:    r.Metadata[metaReferenceID],
			ReferenceTitle: r.Metadata[metaReferenceTitle],
			ChunkIndex:     atoi(r.Metadata[metaChunkIndex]),
			SegmentIndex:   atoi(r.Metadata[metaSegmentIndex]),
			SegmentTitle:   r.Metadata[metaSegmentTitle],
			Content:        r.Content,
			Score:          r.Similarity,
		}
	}

	span.SetAttributes(attribute.Int("results_count", len(hits)))
	span.SetStatus(codes.Ok, "success")
	return hits, nil
}

// DeleteReference removes every chunk of a reference.
func (i *Index) DeleteReference(ctx context.Context, referenceID string) error {
	ctx, span := tracer.Start(ctx, "Index.DeleteReference")
	defer span.End()

	span.SetAttributes(attribute.String("reference_id", referenceID))

	if err := i.collection.Delete(ctx, map[string]string{metaReferenceID: referenceID}, nil); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("deleting chunks of %s: %w", referenceID, err)
	}
	return nil
}

func documentID(referenceID string, chunkIndex int) string {
	return referenceID + "#" + strconv.Itoa(chunkIndex)
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
