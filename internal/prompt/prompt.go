package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fyrsmithlabs/outlined/internal/outline"
)

// System instructions sent alongside assembled requests.
const (
	OutlineSystemPrompt = "You are a specialized assistant that creates workshop programme outlines. " +
		"You strictly adhere to the style and structure of reference outlines. " +
		"Pay close attention to the formatting, segment structure, and language style of the references."

	SegmentSystemPrompt = "You are a specialized assistant that creates workshop programme outlines. " +
		"You strictly adhere to the style and structure of reference outlines."
)

const (
	// DefaultExcerptChars caps the length of each reference example.
	DefaultExcerptChars = 1500
	// DefaultStyleAdherence is used when callers do not choose a weight.
	DefaultStyleAdherence = 0.8

	maxExamples = 3

	examplesThreshold      = 0.5
	patternsThreshold      = 0.6
	multiExampleThreshold  = 0.7
	noSegmentRequirements  = "No specific segment requirements."
	formattingInstructions = `IMPORTANT FORMATTING INSTRUCTIONS:
1. Pay careful attention to the numbering and indentation patterns in the reference examples
2. Maintain the exact same format for specifying durations (e.g., "(15 min)" or "(15 minutes)")
3. Use consistent capitalization and punctuation as shown in the references
4. Follow the bullet point style exactly as shown in the references
5. Preserve any special sections like introductions, breaks, or closing segments in the same style

Generate ONLY the outline itself without additional explanations or comments.
`
)

// SegmentRequirement is one segment the caller wants in the outline.
type SegmentRequirement struct {
	Title           string `json:"title"`
	DurationMinutes int    `json:"duration,omitempty"`
	Description     string `json:"description,omitempty"`
}

// Specification describes the outline to generate.
type Specification struct {
	Title                string               `json:"title"`
	Objectives           string               `json:"objectives"`
	TotalDurationMinutes int                  `json:"total_duration"`
	Segments             []SegmentRequirement `json:"segments"`
}

// SegmentTitles returns the non-empty requirement titles.
func (s Specification) SegmentTitles() []string {
	titles := make([]string, 0, len(s.Segments))
	for _, seg := range s.Segments {
		if seg.Title != "" {
			titles = append(titles, seg.Title)
		}
	}
	return titles
}

// Request is the input of Assemble.
type Request struct {
	Spec           Specification
	References     ReferenceData
	StyleAdherence float64
	// ExcerptChars overrides DefaultExcerptChars when positive.
	ExcerptChars int
}

// Assemble renders the outline generation request.
func Assemble(req Request) string {
	spec := req.Spec
	var b strings.Builder

	b.WriteString("Create a workshop programme outline with the following specifications:\n\n")
	fmt.Fprintf(&b, "TITLE: %s\n\n", spec.Title)
	fmt.Fprintf(&b, "WORKSHOP OBJECTIVES:\n%s\n\n", spec.Objectives)
	fmt.Fprintf(&b, "TOTAL DURATION: %d minutes\n\n", spec.TotalDurationMinutes)
	fmt.Fprintf(&b, "REQUIRED SEGMENTS:\n%s\n\n", RenderSegments(spec.Segments))

	b.WriteString("STYLE GUIDELINES:\n")
	for _, line := range StyleGuidelines(req.References.Style) {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Your task is to create a complete workshop outline that follows the style and structure of the reference examples with a style adherence level of %s%%.\n",
		formatPercent(req.StyleAdherence))
	fmt.Fprintf(&b, "The outline should incorporate all the specified objectives and segment requirements while maintaining the total duration of %d minutes.\n",
		spec.TotalDurationMinutes)

	b.WriteString(renderExamples(req.References.Examples, req.StyleAdherence, excerptLimit(req.ExcerptChars)))
	b.WriteString(renderPatterns(req.References.Patterns, req.StyleAdherence))

	if pdf := req.References.PDFContext; pdf != "" {
		fmt.Fprintf(&b, "\nADDITIONAL PDF REFERENCE CONTEXT:\n%s\n", pdf)
	}

	b.WriteString("\n")
	b.WriteString(formattingInstructions)

	return b.String()
}

// RenderSegments renders segment requirements one per line. Requirements
// without a title are skipped.
func RenderSegments(segs []SegmentRequirement) string {
	lines := make([]string, 0, len(segs))
	for _, seg := range segs {
		switch {
		case seg.Title == "":
			continue
		case seg.DurationMinutes > 0:
			lines = append(lines, fmt.Sprintf("- %s (%d min): %s", seg.Title, seg.DurationMinutes, seg.Description))
		default:
			lines = append(lines, fmt.Sprintf("- %s: %s", seg.Title, seg.Description))
		}
	}
	if len(lines) == 0 {
		return noSegmentRequirements
	}
	return strings.Join(lines, "\n")
}

// StyleGuidelines renders directive lines for style. A nil style means no
// references were available and the default style applies.
func StyleGuidelines(style *outline.FormatStyle) []string {
	s := outline.DefaultStyle()
	if style != nil {
		s = *style
	}
	directives := s.Directives()
	lines := make([]string, len(directives))
	for i, d := range directives {
		lines[i] = "- " + d
	}
	return lines
}

// Excerpt cuts content to limit characters, marking the cut with "...".
func Excerpt(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit]) + "..."
}

func renderExamples(examples []string, adherence float64, limit int) string {
	if len(examples) == 0 || adherence <= examplesThreshold {
		return ""
	}

	if len(examples) > 1 && adherence > multiExampleThreshold {
		n := len(examples)
		if n > maxExamples {
			n = maxExamples
		}
		blocks := make([]string, n)
		for i := 0; i < n; i++ {
			blocks[i] = fmt.Sprintf("EXAMPLE %d:\n%s\n", i+1, Excerpt(examples[i], limit))
		}
		return "\nREFERENCE EXAMPLES:\n\n" + strings.Join(blocks, "\n") + "\n"
	}

	return "\nREFERENCE EXAMPLE:\n\n" + Excerpt(examples[0], limit) + "\n\n"
}

func renderPatterns(p outline.SegmentPatterns, adherence float64) string {
	if adherence <= patternsThreshold || p.Empty() {
		return ""
	}

	var b strings.Builder
	b.WriteString("\nCOMMON PATTERNS:\n")
	if len(p.CommonDurations) > 0 {
		durations := make([]string, len(p.CommonDurations))
		for i, d := range p.CommonDurations {
			durations[i] = strconv.Itoa(d)
		}
		fmt.Fprintf(&b, "- Typical durations: %s minutes\n", strings.Join(durations, ", "))
	}
	if len(p.SegmentTypes) > 0 {
		types := make([]string, len(p.SegmentTypes))
		for i, t := range p.SegmentTypes {
			types[i] = string(t)
		}
		fmt.Fprintf(&b, "- Typical segment types: %s\n", strings.Join(types, ", "))
	}
	return b.String()
}

func excerptLimit(n int) int {
	if n > 0 {
		return n
	}
	return DefaultExcerptChars
}

func formatPercent(adherence float64) string {
	return strconv.FormatFloat(adherence*100, 'f', 0, 64)
}
