package outline

import (
	"sort"
	"strings"
)

// SegmentType is a recognised kind of segment.
type SegmentType string

const (
	TypeIntroduction SegmentType = "introduction"
	TypeBreak        SegmentType = "break"
	TypeConclusion   SegmentType = "conclusion"
	TypeActivity     SegmentType = "activity"
	TypeDiscussion   SegmentType = "discussion"
	TypePresentation SegmentType = "presentation"
)

// segmentTypeRules are checked in order; the first match wins.
var segmentTypeRules = []struct {
	kind     SegmentType
	keywords []string
}{
	{TypeIntroduction, []string{"introduction", "welcome"}},
	{TypeBreak, []string{"break", "pause"}},
	{TypeConclusion, []string{"conclusion", "closing", "summary"}},
	{TypeActivity, []string{"activity", "exercise", "workshop"}},
	{TypeDiscussion, []string{"discussion"}},
	{TypePresentation, []string{"presentation", "lecture"}},
}

// ClassifySegmentTitle maps a segment title to its type.
func ClassifySegmentTitle(title string) (SegmentType, bool) {
	lower := strings.ToLower(title)
	for _, rule := range segmentTypeRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.kind, true
			}
		}
	}
	return "", false
}

// ReferenceSegments is the segment list of one reference document.
type ReferenceSegments struct {
	ID       string
	Segments []Segment
}

// SegmentPatterns are statistics aggregated across reference documents.
type SegmentPatterns struct {
	CommonDurations []int         `json:"common_durations"`
	SegmentTypes    []SegmentType `json:"segment_types"`
	TypicalSequence []string      `json:"typical_sequence"`
}

// Empty reports whether there are neither durations nor segment types.
func (p SegmentPatterns) Empty() bool {
	return len(p.CommonDurations) == 0 && len(p.SegmentTypes) == 0
}

// ExtractPatterns aggregates durations and segment types across refs.
// The typical sequence comes from the first entry of refs only. Segment types
// are listed in first-seen order.
func ExtractPatterns(refs []ReferenceSegments) SegmentPatterns {
	patterns := SegmentPatterns{
		CommonDurations: make([]int, 0),
		SegmentTypes:    make([]SegmentType, 0),
		TypicalSequence: make([]string, 0),
	}

	durations := make(map[int]struct{})
	types := make(map[SegmentType]struct{})

	for _, ref := range refs {
		for _, seg := range ref.Segments {
			if seg.DurationMinutes > 0 {
				if _, ok := durations[seg.DurationMinutes]; !ok {
					durations[seg.DurationMinutes] = struct{}{}
					patterns.CommonDurations = append(patterns.CommonDurations, seg.DurationMinutes)
				}
			}
			if kind, ok := ClassifySegmentTitle(seg.Title); ok {
				if _, seen := types[kind]; !seen {
					types[kind] = struct{}{}
					patterns.SegmentTypes = append(patterns.SegmentTypes, kind)
				}
			}
		}
	}
	sort.Ints(patterns.CommonDurations)

	if len(refs) > 0 {
		for _, seg := range refs[0].Segments {
			patterns.TypicalSequence = append(patterns.TypicalSequence, strings.ToLower(seg.Title))
		}
	}

	return patterns
}
