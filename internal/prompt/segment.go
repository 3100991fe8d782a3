package prompt

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/outlined/internal/outline"
)

// SegmentRequest is the input of AssembleSegment.
type SegmentRequest struct {
	// Index is the zero-based position of the segment in the outline.
	Index int
	// CurrentText is the verbatim text of the segment being replaced.
	CurrentText string
	// Replacement holds the new title, duration and description. Empty
	// title or zero duration keep the current values.
	Replacement SegmentRequirement
	Style       *outline.FormatStyle
}

// AssembleSegment renders the request to regenerate one segment.
func AssembleSegment(req SegmentRequest) string {
	current := currentSegment(req.CurrentText)

	title := req.Replacement.Title
	if title == "" {
		title = current.Title
	}
	if title == "" {
		title = fmt.Sprintf("Segment %d", req.Index+1)
	}
	duration := req.Replacement.DurationMinutes
	if duration <= 0 {
		duration = current.DurationMinutes
	}

	var b strings.Builder
	b.WriteString("I have a workshop outline and need to regenerate the following segment:\n\n")
	fmt.Fprintf(&b, "CURRENT SEGMENT:\n%s\n\n", req.CurrentText)
	b.WriteString("NEW SPECIFICATIONS:\n")
	fmt.Fprintf(&b, "- Title: %s\n", title)
	fmt.Fprintf(&b, "- Duration: %d minutes\n", duration)
	fmt.Fprintf(&b, "- Description: %s\n\n", req.Replacement.Description)

	b.WriteString("STYLE GUIDELINES:\n")
	for _, line := range StyleGuidelines(req.Style) {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString("Please regenerate this segment while maintaining the style and structure consistency with the rest of the outline. ")
	b.WriteString("The output should only include the regenerated segment, not the entire outline.\n")

	return b.String()
}

func currentSegment(text string) outline.Segment {
	segs := outline.Segmenter{}.Segments(outline.SplitLines(text))
	if len(segs) == 0 {
		return outline.Segment{}
	}
	return segs[0]
}
