package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/outlined/internal/chunkindex"
	"github.com/fyrsmithlabs/outlined/internal/completion"
	"github.com/fyrsmithlabs/outlined/internal/ingest"
	"github.com/fyrsmithlabs/outlined/internal/library"
	"github.com/fyrsmithlabs/outlined/internal/logging"
	"github.com/fyrsmithlabs/outlined/internal/outline"
	"github.com/fyrsmithlabs/outlined/internal/prompt"
	"github.com/fyrsmithlabs/outlined/internal/ranker"
)

var tracer = otel.Tracer("outlined.generator")

// Deps are the collaborators of the service. Index may be nil.
type Deps struct {
	Store     ReferenceStore
	Embedder  Embedder
	Generator completion.Generator
	Index     ChunkIndexer
}

// Service runs the library and generation workflows.
type Service struct {
	store    ReferenceStore
	embedder Embedder
	llm      completion.Generator
	index    ChunkIndexer
	config   Config
	logger   *logging.Logger
}

// NewService creates a generator service. A nil logger disables logging.
func NewService(cfg Config, deps Deps, logger *logging.Logger) (*Service, error) {
	if deps.Store == nil {
		return nil, errors.New("reference store is required")
	}
	if deps.Embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if deps.Generator == nil {
		return nil, errors.New("generator is required")
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Service{
		store:    deps.Store,
		embedder: deps.Embedder,
		llm:      deps.Generator,
		index:    deps.Index,
		config:   cfg,
		logger:   logger.Named("generator"),
	}, nil
}

// AddReference decodes, parses, embeds, stores and indexes an uploaded
// reference outline. Chunk indexing failures are logged and do not fail the
// upload.
func (s *Service) AddReference(ctx context.Context, in ReferenceInput) (*ReferenceResult, error) {
	ctx, span := tracer.Start(ctx, "Service.AddReference")
	defer span.End()

	res, err := s.addReference(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		RequestsTotal.WithLabelValues(kindAddReference, resultError).Inc()
		return nil, err
	}
	RequestsTotal.WithLabelValues(kindAddReference, resultSuccess).Inc()
	return res, nil
}

func (s *Service) addReference(ctx context.Context, in ReferenceInput) (*ReferenceResult, error) {
	doc, err := ingest.Decode(in.Filename, in.Data, in.Format)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.Text) == "" {
		return nil, fmt.Errorf("%w: %s decoded to blank text", ErrNoContent, in.Filename)
	}

	structure := outline.Parse(doc.Text)
	title := referenceTitle(in.Title, structure.Title, in.Filename)

	vector, embedded := s.embed(ctx, outline.EmbeddingText(structure))

	ref, err := s.store.AddReference(ctx, library.Reference{
		Title:       title,
		Description: in.Description,
		Filename:    in.Filename,
		Source:      string(doc.Format),
		Content:     doc.Text,
		Embedding:   vector,
	})
	if err != nil {
		return nil, fmt.Errorf("storing reference: %w", err)
	}

	ctx = withReferenceID(ctx, ref.ID)
	res := &ReferenceResult{Reference: ref, Structure: structure, Embedded: embedded}

	if s.index != nil {
		n, err := s.index.AddChunks(ctx, ref.ID, ref.Title, outline.ChunkText(doc.Text, s.config.ChunkSize))
		if err != nil {
			s.logger.Warn(ctx, "chunk indexing failed", zap.Error(err))
		}
		res.Chunks = n
	}

	s.logger.Info(ctx, "reference added",
		zap.String("title", ref.Title),
		zap.String("source", ref.Source),
		zap.Int("segments", structure.SegmentCount()),
		zap.Int("chunks", res.Chunks),
		zap.Bool("embedded", embedded),
	)
	return res, nil
}

// referenceTitle picks the explicit title, then the detected title, then
// the filename.
func referenceTitle(explicit, detected, filename string) string {
	if t := strings.TrimSpace(explicit); t != "" {
		return t
	}
	if detected != "" && detected != outline.DefaultTitle {
		return detected
	}
	if filename != "" {
		return filename
	}
	return detected
}

func (s *Service) embed(ctx context.Context, text string) ([]float32, bool) {
	vector, ok := s.embedder.EmbedOrZero(ctx, text)
	if !ok {
		EmbeddingFallbacksTotal.Inc()
	}
	return vector, ok
}

// Retrieve returns up to k stored references most similar to spec, best
// first. A non-positive k uses the configured reference limit.
func (s *Service) Retrieve(ctx context.Context, spec prompt.Specification, k int) ([]library.Reference, error) {
	if k <= 0 {
		k = s.config.ReferenceLimit
	}

	refs, err := s.store.ListReferences(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing references: %w", err)
	}
	if len(refs) == 0 {
		return []library.Reference{}, nil
	}

	query, _ := s.embed(ctx, outline.SpecificationText(
		spec.Title, spec.Objectives, spec.SegmentTitles(), spec.TotalDurationMinutes))

	byID := make(map[string]library.Reference, len(refs))
	candidates := make([]ranker.Candidate, len(refs))
	for i, ref := range refs {
		byID[ref.ID] = ref
		candidates[i] = ranker.Candidate{ID: ref.ID, Vector: ref.Embedding}
	}

	ids := ranker.TopIDs(query, candidates, k)
	out := make([]library.Reference, 0, len(ids))
	for _, id := range ids {
		out = append(out, byID[id])
	}

	s.logger.Debug(ctx, "references retrieved", zap.Strings("reference_ids", ids))
	return out, nil
}

// Generate produces, stores and returns a complete outline for req.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	ctx, span := tracer.Start(ctx, "Service.Generate")
	defer span.End()

	res, err := s.generate(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		RequestsTotal.WithLabelValues(kindGenerate, resultError).Inc()
		return nil, err
	}
	span.SetAttributes(attribute.Int("references", len(res.ReferenceIDs)))
	RequestsTotal.WithLabelValues(kindGenerate, resultSuccess).Inc()
	return res, nil
}

func (s *Service) generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	spec := req.Spec
	if strings.TrimSpace(spec.Title) == "" {
		spec.Title = DefaultWorkshopTitle
	}
	if spec.TotalDurationMinutes <= 0 {
		spec.TotalDurationMinutes = s.config.TotalDuration
	}

	adherence := s.config.StyleAdherence
	if req.StyleAdherence != nil {
		adherence = *req.StyleAdherence
	}
	if err := validateAdherence(adherence); err != nil {
		return nil, err
	}

	refs, err := s.references(ctx, req.ReferenceIDs, spec)
	if err != nil {
		return nil, err
	}
	ReferencesUsed.Observe(float64(len(refs)))

	request := prompt.Assemble(prompt.Request{
		Spec:           spec,
		References:     prompt.BuildReferenceData(promptReferences(refs)),
		StyleAdherence: adherence,
		ExcerptChars:   s.config.ExcerptChars,
	})

	out, err := s.llm.Generate(ctx, completion.Request{
		Operation:   "outline",
		System:      prompt.OutlineSystemPrompt,
		Prompt:      request,
		Temperature: s.config.Temperature,
		MaxTokens:   s.config.MaxTokens,
	})
	if err != nil {
		s.logger.Error(ctx, "outline generation failed", zap.Error(err))
		return nil, err
	}
	content := strings.TrimSpace(out)
	if content == "" {
		return nil, fmt.Errorf("%w: generation returned blank output", ErrNoContent)
	}

	specJSON, err := json.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("encoding specification: %w", err)
	}

	ids := referenceIDs(refs)
	first := ""
	if len(ids) > 0 {
		first = ids[0]
	}

	saved, err := s.store.SaveOutline(ctx, library.Outline{
		Title:         spec.Title,
		Objectives:    spec.Objectives,
		TotalDuration: spec.TotalDurationMinutes,
		Specification: specJSON,
		Content:       content,
		ReferenceID:   first,
	})
	if err != nil {
		return nil, fmt.Errorf("storing outline: %w", err)
	}

	s.logger.Info(withOutlineID(ctx, saved.ID), "outline generated",
		zap.String("title", saved.Title),
		zap.Int("total_duration", saved.TotalDuration),
		zap.Strings("reference_ids", ids),
	)
	return &GenerateResult{Outline: saved, ReferenceIDs: ids}, nil
}

// references resolves explicit IDs, or retrieves by similarity to spec.
func (s *Service) references(ctx context.Context, ids []string, spec prompt.Specification) ([]library.Reference, error) {
	if len(ids) > 0 {
		refs, err := s.store.GetReferences(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("loading references: %w", err)
		}
		return refs, nil
	}
	return s.Retrieve(ctx, spec, s.config.ReferenceLimit)
}

// RegenerateSegment replaces one segment of a stored outline with newly
// generated text. An out-of-range index returns the outline unchanged
// without calling the generation service.
func (s *Service) RegenerateSegment(ctx context.Context, req RegenerateRequest) (*RegenerateResult, error) {
	ctx, span := tracer.Start(ctx, "Service.RegenerateSegment")
	defer span.End()

	ctx = withOutlineID(ctx, req.OutlineID)
	span.SetAttributes(attribute.Int("segment_index", req.SegmentIndex))

	res, err := s.regenerate(ctx, req)
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		RequestsTotal.WithLabelValues(kindRegenerate, resultError).Inc()
		return nil, err
	case !res.Changed:
		RequestsTotal.WithLabelValues(kindRegenerate, resultUnchanged).Inc()
	default:
		RequestsTotal.WithLabelValues(kindRegenerate, resultSuccess).Inc()
	}
	return res, nil
}

func (s *Service) regenerate(ctx context.Context, req RegenerateRequest) (*RegenerateResult, error) {
	stored, err := s.store.GetOutline(ctx, req.OutlineID)
	if err != nil {
		return nil, fmt.Errorf("loading outline: %w", err)
	}

	current, ok := outline.SegmentText(stored.Content, req.SegmentIndex)
	if !ok {
		s.logger.Debug(ctx, "segment index out of range",
			zap.Int("segment_index", req.SegmentIndex))
		return &RegenerateResult{Outline: stored, Changed: false}, nil
	}

	refs, err := s.regenerationReferences(ctx, req.ReferenceIDs, stored)
	if err != nil {
		return nil, err
	}
	data := prompt.BuildReferenceData(promptReferences(refs))

	request := prompt.AssembleSegment(prompt.SegmentRequest{
		Index:       req.SegmentIndex,
		CurrentText: current,
		Replacement: req.Segment,
		Style:       data.Style,
	})

	out, err := s.llm.Generate(ctx, completion.Request{
		Operation:   "segment",
		System:      prompt.SegmentSystemPrompt,
		Prompt:      request,
		Temperature: s.config.Temperature,
		MaxTokens:   s.config.SegmentMaxTokens,
	})
	if err != nil {
		s.logger.Error(ctx, "segment generation failed", zap.Error(err))
		return nil, err
	}
	replacement := strings.TrimSpace(out)
	if replacement == "" {
		return nil, fmt.Errorf("%w: generation returned blank output", ErrNoContent)
	}

	content := outline.SpliceSegment(stored.Content, req.SegmentIndex, replacement)
	updated, err := s.store.UpdateOutlineContent(ctx, stored.ID, content)
	if err != nil {
		return nil, fmt.Errorf("storing outline: %w", err)
	}

	s.logger.Info(ctx, "segment regenerated",
		zap.Int("segment_index", req.SegmentIndex),
		zap.Int("references", len(refs)),
	)
	return &RegenerateResult{Outline: updated, Changed: true}, nil
}

// regenerationReferences resolves explicit IDs, then the outline's own
// reference, then retrieval against the outline's stored specification.
func (s *Service) regenerationReferences(ctx context.Context, ids []string, o library.Outline) ([]library.Reference, error) {
	if len(ids) == 0 && o.ReferenceID != "" {
		ids = []string{o.ReferenceID}
		refs, err := s.store.GetReferences(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("loading references: %w", err)
		}
		if len(refs) > 0 {
			return refs, nil
		}
		ids = nil
	}
	return s.references(ctx, ids, outlineSpecification(o))
}

// outlineSpecification recovers the request an outline was generated from.
func outlineSpecification(o library.Outline) prompt.Specification {
	var spec prompt.Specification
	if len(o.Specification) > 0 {
		_ = json.Unmarshal(o.Specification, &spec)
	}
	if spec.Title == "" {
		spec.Title = o.Title
	}
	if spec.Objectives == "" {
		spec.Objectives = o.Objectives
	}
	if spec.TotalDurationMinutes <= 0 {
		spec.TotalDurationMinutes = o.TotalDuration
	}
	return spec
}

// Search runs a semantic search over reference chunks.
func (s *Service) Search(ctx context.Context, query string, k int) ([]chunkindex.Hit, error) {
	if s.index == nil {
		RequestsTotal.WithLabelValues(kindSearch, resultError).Inc()
		return nil, ErrIndexDisabled
	}
	hits, err := s.index.Search(ctx, query, k)
	if err != nil {
		RequestsTotal.WithLabelValues(kindSearch, resultError).Inc()
		return nil, err
	}
	RequestsTotal.WithLabelValues(kindSearch, resultSuccess).Inc()
	return hits, nil
}

// ListReferences returns every stored reference in insertion order.
func (s *Service) ListReferences(ctx context.Context) ([]library.Reference, error) {
	return s.store.ListReferences(ctx)
}

// GetReference returns one stored reference.
func (s *Service) GetReference(ctx context.Context, id string) (library.Reference, error) {
	return s.store.GetReference(ctx, id)
}

// DeleteReference removes a reference and its indexed chunks.
func (s *Service) DeleteReference(ctx context.Context, id string) error {
	if err := s.store.DeleteReference(ctx, id); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.DeleteReference(ctx, id); err != nil {
			return fmt.Errorf("removing indexed chunks: %w", err)
		}
	}
	s.logger.Info(withReferenceID(ctx, id), "reference deleted")
	return nil
}

// ListOutlines returns every generated outline, newest first.
func (s *Service) ListOutlines(ctx context.Context) ([]library.Outline, error) {
	return s.store.ListOutlines(ctx)
}

// GetOutline returns one generated outline.
func (s *Service) GetOutline(ctx context.Context, id string) (library.Outline, error) {
	return s.store.GetOutline(ctx, id)
}

// DeleteOutline removes a generated outline.
func (s *Service) DeleteOutline(ctx context.Context, id string) error {
	if err := s.store.DeleteOutline(ctx, id); err != nil {
		return err
	}
	s.logger.Info(withOutlineID(ctx, id), "outline deleted")
	return nil
}

// withOutlineID tags ctx for log correlation. IDs that are not valid
// correlation identifiers are left off.
func withOutlineID(ctx context.Context, id string) context.Context {
	if !logging.ValidID(id) {
		return ctx
	}
	return logging.WithOutlineID(ctx, id)
}

func withReferenceID(ctx context.Context, id string) context.Context {
	if !logging.ValidID(id) {
		return ctx
	}
	return logging.WithReferenceID(ctx, id)
}

func promptReferences(refs []library.Reference) []prompt.Reference {
	out := make([]prompt.Reference, len(refs))
	for i, ref := range refs {
		out[i] = prompt.Reference{
			ID:      ref.ID,
			Title:   ref.Title,
			Content: ref.Content,
			FromPDF: ref.Source == string(ingest.FormatPDF),
		}
	}
	return out
}

func referenceIDs(refs []library.Reference) []string {
	ids := make([]string, len(refs))
	for i, ref := range refs {
		ids[i] = ref.ID
	}
	return ids
}
