package prompt

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/outlined/internal/outline"
)

// pdfContextSegments limits how many segments of a PDF reference are listed.
const pdfContextSegments = 5

// Reference is a reference outline as seen by the assembler.
type Reference struct {
	ID      string
	Title   string
	Content string
	// FromPDF marks content that was extracted from a PDF file.
	FromPDF bool
}

// ReferenceData is everything the assembler takes from reference outlines.
type ReferenceData struct {
	// Style is the dominant style, nil when there were no references.
	Style      *outline.FormatStyle
	Examples   []string
	Patterns   outline.SegmentPatterns
	PDFContext string
}

// BuildReferenceData parses refs in order and aggregates their style,
// examples, segment patterns and PDF notes.
func BuildReferenceData(refs []Reference) ReferenceData {
	data := ReferenceData{
		Examples: make([]string, 0, len(refs)),
		Patterns: outline.ExtractPatterns(nil),
	}
	if len(refs) == 0 {
		return data
	}

	styles := make([]outline.FormatStyle, 0, len(refs))
	segments := make([]outline.ReferenceSegments, 0, len(refs))
	parsed := make([]parsedReference, 0, len(refs))

	for _, ref := range refs {
		s := outline.Parse(ref.Content)
		styles = append(styles, s.FormatStyle)
		segments = append(segments, outline.ReferenceSegments{ID: ref.ID, Segments: s.Segments})
		data.Examples = append(data.Examples, ref.Content)
		parsed = append(parsed, parsedReference{Reference: ref, structure: s})
	}

	merged := outline.MergeStyles(styles)
	data.Style = &merged
	data.Patterns = outline.ExtractPatterns(segments)
	data.PDFContext = pdfContext(parsed)

	return data
}

type parsedReference struct {
	Reference
	structure outline.Structure
}

// PDFContext describes the style and opening segments of every PDF-sourced
// reference. It returns "" when none of refs came from a PDF.
func PDFContext(refs []Reference) string {
	parsed := make([]parsedReference, 0, len(refs))
	for _, ref := range refs {
		if ref.FromPDF {
			parsed = append(parsed, parsedReference{Reference: ref, structure: outline.Parse(ref.Content)})
		}
	}
	return pdfContext(parsed)
}

func pdfContext(refs []parsedReference) string {
	var parts []string
	for _, ref := range refs {
		if !ref.FromPDF {
			continue
		}

		if notes := pdfStyleNotes(ref.structure.FormatStyle); len(notes) > 0 {
			parts = append(parts, fmt.Sprintf("PDF Reference '%s' Style: %s", ref.Title, strings.Join(notes, "; ")))
		}

		segs := ref.structure.Segments
		if len(segs) > pdfContextSegments {
			segs = segs[:pdfContextSegments]
		}
		if len(segs) == 0 {
			continue
		}
		descs := make([]string, len(segs))
		for i, seg := range segs {
			title := seg.Title
			if title == "" {
				title = fmt.Sprintf("Segment %d", i+1)
			}
			if seg.DurationMinutes > 0 {
				descs[i] = fmt.Sprintf("%s (%d min)", title, seg.DurationMinutes)
			} else {
				descs[i] = title
			}
		}
		parts = append(parts, fmt.Sprintf("PDF Reference '%s' Segments: %s", ref.Title, strings.Join(descs, "; ")))
	}
	return strings.Join(parts, "\n")
}

func pdfStyleNotes(style outline.FormatStyle) []string {
	var notes []string
	if style.UsesBullets {
		notes = append(notes, "Uses bullet points for subsections")
	}
	if style.UsesNumberedSections {
		notes = append(notes, "Uses numbered sections for main segments")
	}
	if style.UsesTiming {
		notes = append(notes, "Includes duration in minutes for segments")
	}
	switch style.Capitalization {
	case outline.CapitalizationUppercase:
		notes = append(notes, "Uses UPPERCASE for section titles")
	case outline.CapitalizationTitleCase:
		notes = append(notes, "Uses Title Case for section titles")
	}
	return notes
}
