package outline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateSegment(t *testing.T) {
	tests := []struct {
		index  int
		want   LineRange
		wantOK bool
	}{
		{0, LineRange{Start: 1, End: 2}, true},
		{1, LineRange{Start: 3, End: 4}, true},
		{2, LineRange{Start: 5, End: 6}, true},
		{3, LineRange{}, false},
		{-1, LineRange{}, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("index %d", tt.index), func(t *testing.T) {
			got, ok := LocateSegment(introWorkshop, tt.index)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSpliceSegment_ReplacesMiddleSegment(t *testing.T) {
	out := SpliceSegment(introWorkshop, 1, "2. Main Activity (45 min)\n• New exercise\n")

	for _, i := range []int{0, 2} {
		before, ok := SegmentText(introWorkshop, i)
		require.True(t, ok)
		after, ok := SegmentText(out, i)
		require.True(t, ok)
		assert.Equal(t, before, after, "segment %d changed", i)
	}

	s := Parse(out)
	require.Equal(t, 3, s.SegmentCount())
	assert.Equal(t, 45, s.Segments[1].DurationMinutes)
	assert.Equal(t, []string{"New exercise"}, s.Segments[1].Subsections)
	assert.Equal(t, "Intro Workshop", s.Title)
}

func TestSpliceSegment_Idempotent(t *testing.T) {
	docs := []string{
		introWorkshop,
		"Title\r\n1. A (5 min)\r\nnotes\r\n\r\n2. B\r\n",
		"Preamble\n\n  1. Only Segment\n   • deep\n\n\n",
	}

	for _, doc := range docs {
		for i := 0; i < Parse(doc).SegmentCount(); i++ {
			current, ok := SegmentText(doc, i)
			require.True(t, ok)
			assert.Equal(t, doc, SpliceSegment(doc, i, current), "segment %d of %q", i, doc)
		}
	}
}

func TestSpliceSegment_OutOfRangeIsNoop(t *testing.T) {
	for _, index := range []int{-1, 3, 100} {
		assert.Equal(t, introWorkshop, SpliceSegment(introWorkshop, index, "1. Replaced"))
	}
	assert.Equal(t, "no headers here\n", SpliceSegment("no headers here\n", 0, "1. X"))
}

func TestSpliceSegment_LastSegmentRunsToEnd(t *testing.T) {
	doc := "W\n1. A\n2. B (5 min)\ntrailing notes\n\nmore"
	out := SpliceSegment(doc, 1, "2. C (7 min)")
	assert.Equal(t, "W\n1. A\n2. C (7 min)", out)
}
