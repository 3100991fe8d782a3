package outline

import (
	"regexp"
	"strconv"
	"strings"
)

// Bullet is the glyph that marks a subsection line.
const Bullet = "•"

var (
	// headerRe matches "1. Title" with an optional "(N min)" suffix. The
	// numeral only marks the line as a header and is not captured.
	headerRe = regexp.MustCompile(`^\s*\d+\.\s+(.*?)(?:\s+\(\d+\s*(?i:minutes|min)\)|\s*$)`)

	// durationRe matches "(N min)" or "(N minutes)" anywhere in a line.
	durationRe = regexp.MustCompile(`(?i)\((\d+)\s*(?:minutes|min)\)`)

	// subsectionRe matches a bullet line and captures its text.
	subsectionRe = regexp.MustCompile(`^\s*•\s+(.*?)\s*$`)

	breakRe = regexp.MustCompile(`(?i)break|pause|rest`)
)

// LineKind tags the structural role of a line.
type LineKind int

const (
	// LineBlank is an empty or whitespace-only line.
	LineBlank LineKind = iota
	// LineBody is any other non-blank line.
	LineBody
	// LineHeader starts a new segment.
	LineHeader
	// LineSubsection is a bullet line.
	LineSubsection
)

// String returns the kind name.
func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LineHeader:
		return "header"
	case LineSubsection:
		return "subsection"
	default:
		return "body"
	}
}

// Line is the classification of a single line of text.
//
// Title and DurationMinutes are set for headers, Text for subsections.
type Line struct {
	Kind            LineKind
	Raw             string
	Title           string
	DurationMinutes int
	Text            string
}

// ClassifyLine determines the structural role of one line.
// Header detection wins over subsection detection.
func ClassifyLine(raw string) Line {
	if strings.TrimSpace(raw) == "" {
		return Line{Kind: LineBlank, Raw: raw}
	}
	if title, ok := MatchHeader(raw); ok {
		minutes, _ := ParseDuration(raw)
		return Line{
			Kind:            LineHeader,
			Raw:             raw,
			Title:           title,
			DurationMinutes: minutes,
		}
	}
	if text, ok := MatchSubsection(raw); ok {
		return Line{Kind: LineSubsection, Raw: raw, Text: text}
	}
	return Line{Kind: LineBody, Raw: raw}
}

// MatchHeader reports whether line is a segment header and returns its title
// without the numeral and without a trailing duration annotation.
func MatchHeader(line string) (string, bool) {
	m := headerRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// IsHeader reports whether line starts a new segment.
func IsHeader(line string) bool {
	return headerRe.MatchString(line)
}

// MatchSubsection reports whether line is a bullet line and returns its text.
func MatchSubsection(line string) (string, bool) {
	m := subsectionRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// ParseDuration returns the minutes of the first "(N min)" annotation in s.
func ParseDuration(s string) (int, bool) {
	m := durationRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// HasDuration reports whether s contains a duration annotation.
func HasDuration(s string) bool {
	return durationRe.MatchString(s)
}

// IsBreakTitle reports whether a segment title names a break, pause or rest.
// The match is a case-insensitive substring match.
func IsBreakTitle(title string) bool {
	return breakRe.MatchString(title)
}
