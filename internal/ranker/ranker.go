// Package ranker orders reference vectors by cosine similarity to a query.
package ranker

import (
	"math"
	"sort"
)

// DefaultTopK is the number of results returned when k is not positive.
const DefaultTopK = 3

// Candidate is an identified vector to rank.
type Candidate struct {
	ID     string
	Vector []float32
}

// Result is a ranked candidate.
type Result struct {
	ID           string
	Score        float64 // Cosine similarity to the query
	OriginalRank int     // Position in the input (0-indexed)
}

// Cosine returns the cosine similarity of a and b. It is 0 when either vector
// is all zeros, when lengths differ, or when the result is not finite.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(sim) || math.IsInf(sim, 0) {
		return 0
	}
	return sim
}

// Rank scores every candidate against query and returns the best k in
// descending order of similarity. Ties keep input order. k <= 0 uses
// DefaultTopK. An empty candidate set yields an empty slice.
func Rank(query []float32, candidates []Candidate, k int) []Result {
	if k <= 0 {
		k = DefaultTopK
	}
	if len(candidates) == 0 {
		return []Result{}
	}

	results := make([]Result, len(candidates))
	for i, c := range candidates {
		results[i] = Result{
			ID:           c.ID,
			Score:        Cosine(query, c.Vector),
			OriginalRank: i,
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k]
}

// TopIDs returns the identifiers of Rank's results.
func TopIDs(query []float32, candidates []Candidate, k int) []string {
	ranked := Rank(query, candidates, k)
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.ID
	}
	return ids
}
