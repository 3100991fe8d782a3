package ranker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"scaled", []float32{1, 2, 3}, []float32{2, 4, 6}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 1}, []float32{-1, -1}, -1},
		{"zero query", []float32{0, 0, 0}, []float32{1, 2, 3}, 0},
		{"zero candidate", []float32{1, 2, 3}, []float32{0, 0, 0}, 0},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Cosine(tt.a, tt.b), 1e-6)
		})
	}
}

func TestRank(t *testing.T) {
	candidates := []Candidate{
		{ID: "far", Vector: []float32{0, 1}},
		{ID: "near", Vector: []float32{1, 0.1}},
		{ID: "exact", Vector: []float32{2, 0}},
		{ID: "middle", Vector: []float32{1, 1}},
	}
	query := []float32{1, 0}

	tests := []struct {
		name    string
		k       int
		wantIDs []string
	}{
		{"default k", 0, []string{"exact", "near", "middle"}},
		{"k of one", 1, []string{"exact"}},
		{"k larger than collection", 10, []string{"exact", "near", "middle", "far"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantIDs, TopIDs(query, candidates, tt.k))
		})
	}
}

func TestRank_StableTies(t *testing.T) {
	candidates := []Candidate{
		{ID: "a", Vector: []float32{1, 0}},
		{ID: "b", Vector: []float32{3, 0}},
		{ID: "c", Vector: []float32{0, 0}},
		{ID: "d", Vector: []float32{2, 0}},
	}

	first := Rank([]float32{1, 0}, candidates, 4)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Rank([]float32{1, 0}, candidates, 4))
	}
	assert.Equal(t, []string{"a", "b", "d", "c"}, TopIDs([]float32{1, 0}, candidates, 4))
	assert.Equal(t, 1, first[1].OriginalRank)
}

func TestRank_ZeroQueryKeepsInputOrder(t *testing.T) {
	candidates := []Candidate{
		{ID: "first", Vector: []float32{0.3, 0.1}},
		{ID: "second", Vector: []float32{0.9, 0.9}},
		{ID: "third", Vector: []float32{0.1, 0.5}},
		{ID: "fourth", Vector: []float32{1, 0}},
	}
	assert.Equal(t, []string{"first", "second", "third"}, TopIDs(make([]float32, 2), candidates, 3))
}

func TestRank_Empty(t *testing.T) {
	got := Rank([]float32{1, 2}, nil, 3)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
