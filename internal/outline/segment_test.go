package outline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const introWorkshop = "Intro Workshop\n1. Welcome (10 min)\n• Say hello\n2. Main Activity (30 min)\n• Group exercise\n3. Closing Summary (5 min)\n"

func TestParse_IntroWorkshop(t *testing.T) {
	s := Parse(introWorkshop)

	assert.Equal(t, "Intro Workshop", s.Title)
	require.Equal(t, 3, s.SegmentCount())

	durations := make([]int, 0, len(s.Segments))
	for _, seg := range s.Segments {
		durations = append(durations, seg.DurationMinutes)
	}
	assert.Equal(t, []int{10, 30, 5}, durations)
	assert.Equal(t, 45, s.TotalDurationMinutes())
	assert.False(t, s.HasBreaks())

	assert.Equal(t, []string{"Welcome", "Main Activity", "Closing Summary"}, s.SegmentTitles())
	assert.Equal(t, []string{"Say hello"}, s.Segments[0].Subsections)
	assert.Equal(t, []string{"1. Welcome (10 min)", "• Say hello"}, s.Segments[0].RawLines)
	assert.Empty(t, s.Segments[2].Subsections)
	assert.Equal(t, []string{"3. Closing Summary (5 min)"}, s.Segments[2].RawLines)
}

func TestParse_NoHeaders(t *testing.T) {
	texts := []string{
		"",
		"Just some notes\nwithout any structure",
		"• a bullet\n- a dash\n2.5 hours",
	}
	for _, text := range texts {
		s := Parse(text)
		assert.Equal(t, 0, s.SegmentCount(), "text %q", text)
		assert.Equal(t, 0, s.TotalDurationMinutes(), "text %q", text)
		assert.False(t, s.HasBreaks())
	}
}

func TestSegmenter_Segments(t *testing.T) {
	lines := []string{
		"Preamble that belongs to no segment",
		"• orphan bullet",
		"1. Opening (15 min)",
		"",
		"Facilitator notes",
		"  • Round of names",
		"   ",
		"2. Coffee Break (10 min)",
		"3. Wrap Up",
	}

	segs := Segmenter{}.Segments(lines)
	require.Len(t, segs, 3)

	assert.Equal(t, "Opening", segs[0].Title)
	assert.Equal(t, []string{"1. Opening (15 min)", "Facilitator notes", "  • Round of names"}, segs[0].RawLines)
	assert.Equal(t, []string{"Round of names"}, segs[0].Subsections)
	assert.False(t, segs[0].IsBreak)

	assert.True(t, segs[1].IsBreak)
	assert.Equal(t, 10, segs[1].DurationMinutes)

	assert.Equal(t, "Wrap Up", segs[2].Title)
	assert.Equal(t, 0, segs[2].DurationMinutes)

	for _, seg := range segs {
		require.NotEmpty(t, seg.RawLines)
		assert.True(t, IsHeader(seg.RawLines[0]))
	}
}

func TestStructure_TotalIsSumOfSegments(t *testing.T) {
	s := Parse("Day\n1. A (5 min)\n2. B\n3. Pause (7 min)\n4. C (20 minutes)")

	sum := 0
	for _, seg := range s.Segments {
		sum += seg.DurationMinutes
	}
	assert.Equal(t, sum, s.TotalDurationMinutes())
	assert.Equal(t, 32, s.TotalDurationMinutes())
	assert.True(t, s.HasBreaks())
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"first line", "Team Offsite\n1. Start", "Team Offsite"},
		{"skips markers", "# Heading\n- item\n* star\n• bullet\nReal Title", "Real Title"},
		{"skips blank lines", "\n   \n  Spaced Title  \n", "Spaced Title"},
		{"only first five lines", "#a\n#b\n#c\n#d\n#e\nLate Title", DefaultTitle},
		{"empty", "", DefaultTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTitle(SplitLines(tt.text)))
		})
	}
}

func TestStructure_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Parse(introWorkshop))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, "Intro Workshop", got["title"])
	assert.EqualValues(t, 45, got["total_duration_minutes"])
	assert.EqualValues(t, 3, got["segment_count"])
	assert.Equal(t, false, got["has_breaks"])
	assert.Contains(t, got, "format_style")
	assert.Len(t, got["segments"], 3)
}
