package outline

import (
	"encoding/json"
	"strings"
)

// DefaultTitle is used when no document title can be detected.
const DefaultTitle = "Untitled Workshop"

// titleScanLines is how many leading lines are considered for the title.
const titleScanLines = 5

// Segment is one timed unit of a workshop outline.
type Segment struct {
	Title           string   `json:"title"`
	DurationMinutes int      `json:"duration_minutes"`
	IsBreak         bool     `json:"is_break"`
	Subsections     []string `json:"subsections"`
	// RawLines holds every non-blank source line of the segment, header first.
	RawLines []string `json:"raw_lines"`
}

// Structure is the parsed form of an outline document.
//
// Total duration, break presence and segment count are always derived from
// Segments and are never stored.
type Structure struct {
	Title       string      `json:"title"`
	Segments    []Segment   `json:"segments"`
	FormatStyle FormatStyle `json:"format_style"`
}

// TotalDurationMinutes sums the durations of all segments.
func (s Structure) TotalDurationMinutes() int {
	total := 0
	for _, seg := range s.Segments {
		total += seg.DurationMinutes
	}
	return total
}

// HasBreaks reports whether any segment is a break.
func (s Structure) HasBreaks() bool {
	for _, seg := range s.Segments {
		if seg.IsBreak {
			return true
		}
	}
	return false
}

// SegmentCount returns the number of segments.
func (s Structure) SegmentCount() int {
	return len(s.Segments)
}

// SegmentTitles returns segment titles in document order.
func (s Structure) SegmentTitles() []string {
	titles := make([]string, len(s.Segments))
	for i, seg := range s.Segments {
		titles[i] = seg.Title
	}
	return titles
}

// MarshalJSON includes the derived fields.
func (s Structure) MarshalJSON() ([]byte, error) {
	type plain Structure
	return json.Marshal(struct {
		plain
		TotalDurationMinutes int  `json:"total_duration_minutes"`
		HasBreaks            bool `json:"has_breaks"`
		SegmentCount         int  `json:"segment_count"`
	}{
		plain:                plain(s),
		TotalDurationMinutes: s.TotalDurationMinutes(),
		HasBreaks:            s.HasBreaks(),
		SegmentCount:         s.SegmentCount(),
	})
}

// Parse builds the Structure of an outline document.
func Parse(text string) Structure {
	lines := SplitLines(text)
	segments := Segmenter{}.Segments(lines)
	return Structure{
		Title:       ExtractTitle(lines),
		Segments:    segments,
		FormatStyle: DetectStyle(text),
	}
}

// SplitLines splits text on "\n". Carriage returns are left in place so that
// splicing preserves the original bytes.
func SplitLines(text string) []string {
	return strings.Split(text, "\n")
}

// ExtractTitle returns the first of the leading lines that is not blank and
// does not start with a list or heading marker.
func ExtractTitle(lines []string) string {
	limit := len(lines)
	if limit > titleScanLines {
		limit = titleScanLines
	}
	for _, line := range lines[:limit] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if hasMarkerPrefix(trimmed) {
			continue
		}
		return trimmed
	}
	return DefaultTitle
}

func hasMarkerPrefix(s string) bool {
	for _, marker := range []string{"#", Bullet, "-", "*"} {
		if strings.HasPrefix(s, marker) {
			return true
		}
	}
	return false
}

// Segmenter groups classified lines into segments.
//
// The zero value is ready to use.
type Segmenter struct{}

// Segments runs the segmentation state machine over lines. Lines before the
// first header belong to no segment and are ignored.
func (Segmenter) Segments(lines []string) []Segment {
	segments := make([]Segment, 0)
	var current *Segment

	emit := func() {
		if current != nil {
			segments = append(segments, *current)
			current = nil
		}
	}

	for _, raw := range lines {
		line := ClassifyLine(raw)
		switch line.Kind {
		case LineBlank:
			continue
		case LineHeader:
			emit()
			current = &Segment{
				Title:           line.Title,
				DurationMinutes: line.DurationMinutes,
				IsBreak:         IsBreakTitle(line.Title),
				Subsections:     make([]string, 0),
				RawLines:        []string{raw},
			}
		case LineSubsection:
			if current == nil {
				continue
			}
			current.Subsections = append(current.Subsections, line.Text)
			current.RawLines = append(current.RawLines, raw)
		default:
			if current == nil {
				continue
			}
			current.RawLines = append(current.RawLines, raw)
		}
	}
	emit()

	return segments
}
