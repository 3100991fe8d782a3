package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/outlined/internal/chunkindex"
	"github.com/fyrsmithlabs/outlined/internal/completion"
	"github.com/fyrsmithlabs/outlined/internal/ingest"
	"github.com/fyrsmithlabs/outlined/internal/library"
	"github.com/fyrsmithlabs/outlined/internal/logging"
	"github.com/fyrsmithlabs/outlined/internal/prompt"
)

// fakeEmbedder maps text onto one dimension per keyword.
type fakeEmbedder struct {
	fail bool
}

var keywords = []string{"leadership", "painting", "welcome", "closing"}

func (f *fakeEmbedder) vector(text string) []float32 {
	lower := strings.ToLower(text)
	v := make([]float32, len(keywords))
	for i, kw := range keywords {
		v[i] = float32(strings.Count(lower, kw))
	}
	return v
}

func (f *fakeEmbedder) EmbedOrZero(_ context.Context, text string) ([]float32, bool) {
	if f.fail {
		return make([]float32, len(keywords)), false
	}
	return f.vector(text), true
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vector(t)
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return f.vector(text), nil
}

// fakeLLM replays outputs in order and records requests.
type fakeLLM struct {
	mu       sync.Mutex
	outputs  []string
	err      error
	requests []completion.Request
}

func (f *fakeLLM) Generate(_ context.Context, req completion.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.outputs) == 0 {
		return "", nil
	}
	out := f.outputs[0]
	f.outputs = f.outputs[1:]
	return out, nil
}

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

const (
	leadershipRef = "Leadership Basics\n1. Welcome (10 min)\n• Introductions\n2. Leadership Styles (40 min)\n• Leadership models\n3. Closing (10 min)\n"
	paintingRef   = "Painting Day\n1. Painting Warmup (20 min)\n• Brushes\n2. Painting Practice (60 min)\n"

	generatedOutline = "Leadership Workshop\n1. Welcome (10 min)\n• Hi\n2. Leadership Styles (40 min)\n• Models\n3. Closing (10 min)"
)

type harness struct {
	svc    *Service
	store  *library.Store
	index  *chunkindex.Index
	llm    *fakeLLM
	logger *logging.TestLogger
}

func newHarness(t *testing.T, cfg Config, emb *fakeEmbedder, llm *fakeLLM) *harness {
	t.Helper()
	ctx := context.Background()

	store, err := library.Open(ctx, filepath.Join(t.TempDir(), "library.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	index, err := chunkindex.New(chunkindex.Config{}, emb, nil)
	require.NoError(t, err)

	logger := logging.NewTestLogger()
	svc, err := NewService(cfg, Deps{Store: store, Embedder: emb, Generator: llm, Index: index}, logger.Logger)
	require.NoError(t, err)

	return &harness{svc: svc, store: store, index: index, llm: llm, logger: logger}
}

func (h *harness) addReference(t *testing.T, filename, content string) library.Reference {
	t.Helper()
	res, err := h.svc.AddReference(context.Background(), ReferenceInput{Filename: filename, Data: []byte(content)})
	require.NoError(t, err)
	return res.Reference
}

func TestNewService(t *testing.T) {
	store, err := library.Open(context.Background(), library.MemoryPath, nil)
	require.NoError(t, err)
	defer store.Close()

	emb := &fakeEmbedder{}
	llm := &fakeLLM{}

	tests := []struct {
		name    string
		cfg     Config
		deps    Deps
		wantErr bool
	}{
		{"valid without index", DefaultConfig(), Deps{Store: store, Embedder: emb, Generator: llm}, false},
		{"missing store", DefaultConfig(), Deps{Embedder: emb, Generator: llm}, true},
		{"missing embedder", DefaultConfig(), Deps{Store: store, Generator: llm}, true},
		{"missing generator", DefaultConfig(), Deps{Store: store, Embedder: emb}, true},
		{"adherence out of range", Config{StyleAdherence: 1.5}, Deps{Store: store, Embedder: emb, Generator: llm}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(tt.cfg, tt.deps, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, DefaultMaxTokens, svc.config.MaxTokens)
			assert.Equal(t, DefaultReferenceLimit, svc.config.ReferenceLimit)
		})
	}
}

func TestReferenceTitle(t *testing.T) {
	tests := []struct {
		explicit, detected, filename, want string
	}{
		{"  Custom ", "Detected", "a.txt", "Custom"},
		{"", "Detected", "a.txt", "Detected"},
		{"", "Untitled Workshop", "a.txt", "a.txt"},
		{"", "Untitled Workshop", "", "Untitled Workshop"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, referenceTitle(tt.explicit, tt.detected, tt.filename))
	}
}

func TestService_AddReference(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, DefaultConfig(), &fakeEmbedder{}, &fakeLLM{})
	before := testutil.ToFloat64(RequestsTotal.WithLabelValues(kindAddReference, resultSuccess))

	res, err := h.svc.AddReference(ctx, ReferenceInput{
		Filename:    "leadership.txt",
		Description: "Half-day leadership intro",
		Data:        []byte(leadershipRef),
	})
	require.NoError(t, err)

	assert.Equal(t, "Leadership Basics", res.Reference.Title)
	assert.Equal(t, "text", res.Reference.Source)
	assert.True(t, res.Embedded)
	assert.Equal(t, 3, res.Structure.SegmentCount())
	assert.Equal(t, 3, res.Chunks)
	assert.Equal(t, 3, h.index.Count())

	stored, err := h.store.GetReference(ctx, res.Reference.ID)
	require.NoError(t, err)
	assert.Equal(t, "Half-day leadership intro", stored.Description)
	assert.Equal(t, leadershipRef, stored.Content)
	assert.Equal(t, []float32{2, 0, 1, 1}, stored.Embedding)

	assert.Equal(t, before+1, testutil.ToFloat64(RequestsTotal.WithLabelValues(kindAddReference, resultSuccess)))
	h.logger.AssertLogged(t, zapcore.InfoLevel, "reference added")
	h.logger.AssertField(t, "reference added", "chunks", int64(3))
}

func TestService_AddReference_TitleFallbacks(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, DefaultConfig(), &fakeEmbedder{}, &fakeLLM{})

	res, err := h.svc.AddReference(ctx, ReferenceInput{
		Filename: "untitled.txt",
		Data:     []byte("• Welcome everyone\n• Closing remarks\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, "untitled.txt", res.Reference.Title)

	res, err = h.svc.AddReference(ctx, ReferenceInput{
		Title:    "Given Title",
		Filename: "notes.txt",
		Data:     []byte(paintingRef),
	})
	require.NoError(t, err)
	assert.Equal(t, "Given Title", res.Reference.Title)
}

func TestService_AddReference_PDFSource(t *testing.T) {
	h := newHarness(t, DefaultConfig(), &fakeEmbedder{}, &fakeLLM{})

	res, err := h.svc.AddReference(context.Background(), ReferenceInput{
		Filename: "painting.pdf",
		Data:     []byte("Painting Day 1. Painting Warmup (20 Minutes)• Brushes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "pdf", res.Reference.Source)
	assert.Equal(t, "Painting Day \n1. Painting Warmup (20 min)\n• Brushes", res.Reference.Content)
	assert.Equal(t, 1, res.Structure.SegmentCount())
}

func TestService_AddReference_Errors(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, DefaultConfig(), &fakeEmbedder{}, &fakeLLM{})
	before := testutil.ToFloat64(RequestsTotal.WithLabelValues(kindAddReference, resultError))

	_, err := h.svc.AddReference(ctx, ReferenceInput{Filename: "blank.txt", Data: []byte(" \n\t\n")})
	assert.ErrorIs(t, err, ErrNoContent)

	_, err = h.svc.AddReference(ctx, ReferenceInput{Filename: "broken.docx", Data: []byte("not a zip")})
	assert.ErrorIs(t, err, ingest.ErrUnsupportedFormat)

	refs, err := h.store.ListReferences(ctx)
	require.NoError(t, err)
	assert.Empty(t, refs)
	assert.Equal(t, before+2, testutil.ToFloat64(RequestsTotal.WithLabelValues(kindAddReference, resultError)))
}

func TestService_AddReference_EmbeddingFallback(t *testing.T) {
	h := newHarness(t, DefaultConfig(), &fakeEmbedder{fail: true}, &fakeLLM{})
	before := testutil.ToFloat64(EmbeddingFallbacksTotal)

	res, err := h.svc.AddReference(context.Background(), ReferenceInput{Filename: "l.txt", Data: []byte(leadershipRef)})
	require.NoError(t, err)
	assert.False(t, res.Embedded)
	assert.Equal(t, []float32{0, 0, 0, 0}, res.Reference.Embedding)
	assert.Equal(t, before+1, testutil.ToFloat64(EmbeddingFallbacksTotal))
}

func TestService_Retrieve(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, DefaultConfig(), &fakeEmbedder{}, &fakeLLM{})

	empty, err := h.svc.Retrieve(ctx, prompt.Specification{Title: "Anything"}, 3)
	require.NoError(t, err)
	assert.Empty(t, empty)

	leadership := h.addReference(t, "leadership.txt", leadershipRef)
	painting := h.addReference(t, "painting.txt", paintingRef)

	refs, err := h.svc.Retrieve(ctx, prompt.Specification{
		Title:    "Painting for beginners",
		Segments: []prompt.SegmentRequirement{{Title: "Painting warmup"}},
	}, 0)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, painting.ID, refs[0].ID)
	assert.Equal(t, leadership.ID, refs[1].ID)

	refs, err = h.svc.Retrieve(ctx, prompt.Specification{Title: "Leadership for managers"}, 1)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, leadership.ID, refs[0].ID)
}

func TestService_Retrieve_ZeroQueryKeepsInsertionOrder(t *testing.T) {
	h := newHarness(t, DefaultConfig(), &fakeEmbedder{}, &fakeLLM{})
	first := h.addReference(t, "leadership.txt", leadershipRef)
	second := h.addReference(t, "painting.txt", paintingRef)

	refs, err := h.svc.Retrieve(context.Background(), prompt.Specification{Title: "Cooking"}, 3)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, first.ID, refs[0].ID)
	assert.Equal(t, second.ID, refs[1].ID)
}

func TestService_Generate_ExplicitReferences(t *testing.T) {
	ctx := context.Background()
	llm := &fakeLLM{outputs: []string{"\n\n" + generatedOutline + "\n\n"}}
	h := newHarness(t, DefaultConfig(), &fakeEmbedder{}, llm)

	painting := h.addReference(t, "painting.txt", paintingRef)
	leadership := h.addReference(t, "leadership.txt", leadershipRef)

	res, err := h.svc.Generate(ctx, GenerateRequest{
		Spec: prompt.Specification{
			Title:                "Leadership Workshop",
			Objectives:           "Build confident leaders",
			TotalDurationMinutes: 60,
			Segments:             []prompt.SegmentRequirement{{Title: "Welcome", DurationMinutes: 10}},
		},
		ReferenceIDs: []string{leadership.ID, "missing", painting.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{leadership.ID, painting.ID}, res.ReferenceIDs)
	assert.Equal(t, generatedOutline, res.Outline.Content)
	assert.Equal(t, leadership.ID, res.Outline.ReferenceID)
	assert.Equal(t, "Leadership Workshop", res.Outline.Title)
	assert.Equal(t, "Build confident leaders", res.Outline.Objectives)
	assert.Equal(t, 60, res.Outline.TotalDuration)

	var spec prompt.Specification
	require.NoError(t, json.Unmarshal(res.Outline.Specification, &spec))
	assert.Equal(t, "Leadership Workshop", spec.Title)
	require.Len(t, spec.Segments, 1)

	require.Len(t, llm.requests, 1)
	req := llm.requests[0]
	assert.Equal(t, "outline", req.Operation)
	assert.Equal(t, prompt.OutlineSystemPrompt, req.System)
	assert.Equal(t, DefaultTemperature, req.Temperature)
	assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
	assert.Contains(t, req.Prompt, "TITLE: Leadership Workshop")
	assert.Contains(t, req.Prompt, "TOTAL DURATION: 60 minutes")
	assert.Contains(t, req.Prompt, "Leadership Basics")

	stored, err := h.store.GetOutline(ctx, res.Outline.ID)
	require.NoError(t, err)
	assert.Equal(t, generatedOutline, stored.Content)
	h.logger.AssertLogged(t, zapcore.InfoLevel, "outline generated")
}

func TestService_Generate_RetrievalAndDefaults(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.ReferenceLimit = 1
	llm := &fakeLLM{outputs: []string{"Painting Day\n1. Painting Warmup (20 min)", "New Workshop\n1. Welcome (10 min)"}}
	h := newHarness(t, cfg, &fakeEmbedder{}, llm)

	h.addReference(t, "leadership.txt", leadershipRef)
	painting := h.addReference(t, "painting.txt", paintingRef)

	res, err := h.svc.Generate(ctx, GenerateRequest{Spec: prompt.Specification{Title: "Painting for beginners"}})
	require.NoError(t, err)
	assert.Equal(t, []string{painting.ID}, res.ReferenceIDs)
	assert.Equal(t, painting.ID, res.Outline.ReferenceID)
	assert.Equal(t, DefaultTotalDuration, res.Outline.TotalDuration)

	res, err = h.svc.Generate(ctx, GenerateRequest{})
	require.NoError(t, err)
	assert.Equal(t, DefaultWorkshopTitle, res.Outline.Title)
	assert.Contains(t, llm.requests[1].Prompt, "TITLE: New Workshop")
	assert.Contains(t, llm.requests[1].Prompt, "TOTAL DURATION: 120 minutes")
}

func TestService_Generate_NoReferences(t *testing.T) {
	llm := &fakeLLM{outputs: []string{generatedOutline}}
	h := newHarness(t, DefaultConfig(), &fakeEmbedder{}, llm)
	res, err := h.svc.Generate(context.Background(), GenerateRequest{Spec: prompt.Specification{Title: "Solo"}})
	require.NoError(t, err)
	assert.Empty(t, res.ReferenceIDs)
	assert.Empty(t, res.Outline.ReferenceID)
	assert.Contains(t, llm.requests[0].Prompt, "Use numbered sections")
}

func TestService_Generate_Failures(t *testing.T) {
	adherence := 1.2
	zero := 0.0

	tests := []struct {
		name      string
		llm       *fakeLLM
		req       GenerateRequest
		wantErr   error
		wantCalls int
	}{
		{
			name:      "adherence out of range",
			llm:       &fakeLLM{outputs: []string{generatedOutline}},
			req:       GenerateRequest{StyleAdherence: &adherence},
			wantErr:   ErrInvalidRequest,
			wantCalls: 0,
		},
		{
			name:      "generation failure",
			llm:       &fakeLLM{err: fmt.Errorf("%w: service unavailable", completion.ErrGenerationFailed)},
			req:       GenerateRequest{StyleAdherence: &zero},
			wantErr:   completion.ErrGenerationFailed,
			wantCalls: 1,
		},
		{
			name:      "blank output",
			llm:       &fakeLLM{outputs: []string{"  \n "}},
			req:       GenerateRequest{},
			wantErr:   ErrNoContent,
			wantCalls: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(t, DefaultConfig(), &fakeEmbedder{}, tt.llm)
			before := testutil.ToFloat64(RequestsTotal.WithLabelValues(kindGenerate, resultError))

			_, err := h.svc.Generate(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantCalls, tt.llm.calls())

			outlines, err := h.store.ListOutlines(ctx)
			require.NoError(t, err)
			assert.Empty(t, outlines)
			assert.Equal(t, before+1, testutil.ToFloat64(RequestsTotal.WithLabelValues(kindGenerate, resultError)))
		})
	}
}

func saveOutline(t *testing.T, h *harness, referenceID string) library.Outline {
	t.Helper()
	o, err := h.store.SaveOutline(context.Background(), library.Outline{
		Title:         "Leadership Workshop",
		TotalDuration: 60,
		Specification: json.RawMessage(`{"title":"Leadership Workshop","objectives":"","total_duration":60,"segments":null}`),
		Content:       generatedOutline,
		ReferenceID:   referenceID,
	})
	require.NoError(t, err)
	return o
}

func TestService_RegenerateSegment(t *testing.T) {
	ctx := context.Background()
	llm := &fakeLLM{outputs: []string{"  2. Leadership in Practice (45 min)\n• Role play\n  "}}
	h := newHarness(t, DefaultConfig(), &fakeEmbedder{}, llm)
	ref := h.addReference(t, "leadership.txt", leadershipRef)
	o := saveOutline(t, h, ref.ID)

	res, err := h.svc.RegenerateSegment(ctx, RegenerateRequest{
		OutlineID:    o.ID,
		SegmentIndex: 1,
		Segment:      prompt.SegmentRequirement{Title: "Leadership in Practice", DurationMinutes: 45},
	})
	require.NoError(t, err)
	assert.True(t, res.Changed)

	want := "Leadership Workshop\n1. Welcome (10 min)\n• Hi\n2. Leadership in Practice (45 min)\n• Role play\n3. Closing (10 min)"
	assert.Equal(t, want, res.Outline.Content)

	stored, err := h.store.GetOutline(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, want, stored.Content)

	require.Len(t, llm.requests, 1)
	req := llm.requests[0]
	assert.Equal(t, "segment", req.Operation)
	assert.Equal(t, prompt.SegmentSystemPrompt, req.System)
	assert.Equal(t, DefaultSegmentTokens, req.MaxTokens)
	assert.Contains(t, req.Prompt, "CURRENT SEGMENT:\n2. Leadership Styles (40 min)\n• Models")
	assert.Contains(t, req.Prompt, "- Title: Leadership in Practice")
	assert.Contains(t, req.Prompt, "- Duration: 45 minutes")
}

func TestService_RegenerateSegment_OutOfRange(t *testing.T) {
	ctx := context.Background()
	llm := &fakeLLM{outputs: []string{"unused"}}
	h := newHarness(t, DefaultConfig(), &fakeEmbedder{}, llm)
	o := saveOutline(t, h, "")
	before := testutil.ToFloat64(RequestsTotal.WithLabelValues(kindRegenerate, resultUnchanged))

	for _, idx := range []int{-1, 3, 99} {
		res, err := h.svc.RegenerateSegment(ctx, RegenerateRequest{OutlineID: o.ID, SegmentIndex: idx})
		require.NoError(t, err)
		assert.False(t, res.Changed)
		assert.Equal(t, generatedOutline, res.Outline.Content)
	}

	assert.Zero(t, llm.calls())
	assert.Equal(t, before+3, testutil.ToFloat64(RequestsTotal.WithLabelValues(kindRegenerate, resultUnchanged)))
}

func TestService_RegenerateSegment_Failures(t *testing.T) {
	ctx := context.Background()
	llm := &fakeLLM{err: fmt.Errorf("%w: timeout", completion.ErrGenerationFailed)}
	h := newHarness(t, DefaultConfig(), &fakeEmbedder{}, llm)
	o := saveOutline(t, h, "")

	_, err := h.svc.RegenerateSegment(ctx, RegenerateRequest{OutlineID: o.ID, SegmentIndex: 0})
	assert.ErrorIs(t, err, completion.ErrGenerationFailed)

	stored, err := h.store.GetOutline(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, generatedOutline, stored.Content)

	_, err = h.svc.RegenerateSegment(ctx, RegenerateRequest{OutlineID: "missing", SegmentIndex: 0})
	assert.ErrorIs(t, err, library.ErrNotFound)

	_, err = h.svc.RegenerateSegment(ctx, RegenerateRequest{OutlineID: "not a valid id!", SegmentIndex: 0})
	assert.ErrorIs(t, err, library.ErrNotFound)
}

func TestService_RegenerationReferences(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, DefaultConfig(), &fakeEmbedder{}, &fakeLLM{})
	leadership := h.addReference(t, "leadership.txt", leadershipRef)
	painting := h.addReference(t, "painting.txt", paintingRef)

	o := saveOutline(t, h, painting.ID)

	refs, err := h.svc.regenerationReferences(ctx, []string{leadership.ID}, o)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, leadership.ID, refs[0].ID)

	refs, err = h.svc.regenerationReferences(ctx, nil, o)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, painting.ID, refs[0].ID)

	require.NoError(t, h.svc.DeleteReference(ctx, painting.ID))
	refs, err = h.svc.regenerationReferences(ctx, nil, o)
	require.NoError(t, err)
	require.NotEmpty(t, refs)
	assert.Equal(t, leadership.ID, refs[0].ID)
}

func TestOutlineSpecification(t *testing.T) {
	spec := outlineSpecification(library.Outline{
		Title:         "Stored",
		Objectives:    "Goals",
		TotalDuration: 90,
		Specification: json.RawMessage(`not json`),
	})
	assert.Equal(t, prompt.Specification{Title: "Stored", Objectives: "Goals", TotalDurationMinutes: 90}, spec)

	spec = outlineSpecification(library.Outline{
		Title:         "Stored",
		Specification: json.RawMessage(`{"title":"Original","total_duration":45,"segments":[{"title":"Intro"}]}`),
	})
	assert.Equal(t, "Original", spec.Title)
	assert.Equal(t, 45, spec.TotalDurationMinutes)
	assert.Equal(t, []string{"Intro"}, spec.SegmentTitles())
}

func TestService_SearchAndDelete(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, DefaultConfig(), &fakeEmbedder{}, &fakeLLM{})
	ref := h.addReference(t, "leadership.txt", leadershipRef)

	hits, err := h.svc.Search(ctx, "closing words", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, ref.ID, hits[0].ReferenceID)
	assert.Equal(t, "Closing", hits[0].SegmentTitle)

	require.NoError(t, h.svc.DeleteReference(ctx, ref.ID))
	assert.Zero(t, h.index.Count())
	_, err = h.svc.GetReference(ctx, ref.ID)
	assert.ErrorIs(t, err, library.ErrNotFound)
	assert.ErrorIs(t, h.svc.DeleteReference(ctx, ref.ID), library.ErrNotFound)

	hits, err = h.svc.Search(ctx, "closing", 3)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestService_SearchWithoutIndex(t *testing.T) {
	store, err := library.Open(context.Background(), library.MemoryPath, nil)
	require.NoError(t, err)
	defer store.Close()

	svc, err := NewService(DefaultConfig(), Deps{Store: store, Embedder: &fakeEmbedder{}, Generator: &fakeLLM{}}, nil)
	require.NoError(t, err)

	_, err = svc.Search(context.Background(), "closing", 3)
	assert.True(t, errors.Is(err, ErrIndexDisabled))

	res, err := svc.AddReference(context.Background(), ReferenceInput{Filename: "l.txt", Data: []byte(leadershipRef)})
	require.NoError(t, err)
	assert.Zero(t, res.Chunks)
}

func TestService_OutlineAccessors(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, DefaultConfig(), &fakeEmbedder{}, &fakeLLM{})
	o := saveOutline(t, h, "")

	list, err := h.svc.ListOutlines(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	got, err := h.svc.GetOutline(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Title, got.Title)

	require.NoError(t, h.svc.DeleteOutline(ctx, o.ID))
	assert.ErrorIs(t, h.svc.DeleteOutline(ctx, o.ID), library.ErrNotFound)

	refs, err := h.svc.ListReferences(ctx)
	require.NoError(t, err)
	assert.Empty(t, refs)
}
