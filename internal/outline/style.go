package outline

import (
	"strings"
	"unicode"
)

// Capitalization is the casing convention of segment titles.
type Capitalization string

const (
	CapitalizationUppercase Capitalization = "uppercase"
	CapitalizationTitleCase Capitalization = "title_case"
	CapitalizationMixed     Capitalization = "mixed"
	CapitalizationUnknown   Capitalization = "unknown"
)

// FormatStyle is the set of formatting conventions a document exhibits.
type FormatStyle struct {
	UsesBullets          bool           `json:"uses_bullets"`
	UsesNumberedSections bool           `json:"uses_numbered_sections"`
	UsesTiming           bool           `json:"uses_timing"`
	Capitalization       Capitalization `json:"capitalization"`
	UsesColons           bool           `json:"uses_colons"`
}

// DefaultStyle is the style assumed when there are no reference documents.
func DefaultStyle() FormatStyle {
	return FormatStyle{
		UsesNumberedSections: true,
		UsesTiming:           true,
		Capitalization:       CapitalizationTitleCase,
	}
}

// DetectStyle infers formatting conventions from raw text.
func DetectStyle(text string) FormatStyle {
	style := FormatStyle{
		UsesBullets: strings.Contains(text, Bullet),
		UsesTiming:  HasDuration(text),
		UsesColons:  strings.Contains(text, ":"),
	}

	var titles []string
	for _, line := range SplitLines(text) {
		title, ok := MatchHeader(line)
		if !ok {
			continue
		}
		style.UsesNumberedSections = true
		titles = append(titles, title)
	}
	style.Capitalization = DetectCapitalization(titles)

	return style
}

// DetectCapitalization classifies a set of header titles.
func DetectCapitalization(titles []string) Capitalization {
	if len(titles) == 0 {
		return CapitalizationUnknown
	}

	var upper, title int
	for _, t := range titles {
		switch {
		case isUpper(t):
			upper++
		case isTitle(t):
			title++
		}
	}

	switch {
	case upper > title:
		return CapitalizationUppercase
	case title > 0:
		return CapitalizationTitleCase
	default:
		return CapitalizationMixed
	}
}

// isUpper reports whether s has at least one cased letter and no lowercase
// letters.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}

// isTitle reports whether every run of letters in s starts with an uppercase
// letter followed only by lowercase letters, and s has at least one letter.
// "Main Activity" and "Q&A Time" are title case; "Main activity" is not.
func isTitle(s string) bool {
	cased := false
	inWord := false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			if inWord {
				return false
			}
			inWord = true
			cased = true
		case unicode.IsLower(r):
			if !inWord {
				return false
			}
			cased = true
		default:
			inWord = false
		}
	}
	return cased
}

// Directives renders the style as prompt directive lines.
func (f FormatStyle) Directives() []string {
	var out []string
	if f.UsesBullets {
		out = append(out, "Use bullet points (•) for subsections")
	}
	if f.UsesNumberedSections {
		out = append(out, "Use numbered sections (1., 2., etc.) for main segments")
	}
	if f.UsesTiming {
		out = append(out, "Include duration in minutes for each segment in parentheses")
	}
	switch f.Capitalization {
	case CapitalizationUppercase:
		out = append(out, "Use UPPERCASE for main section titles")
	case CapitalizationTitleCase:
		out = append(out, "Use Title Case for main section titles")
	}
	if f.UsesColons {
		out = append(out, "Use colons after section titles")
	}
	return out
}
