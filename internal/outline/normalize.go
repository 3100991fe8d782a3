package outline

import "regexp"

var (
	pdfHeaderRe      = regexp.MustCompile(`(\d+)\.\s*([A-Z])`)
	pdfInlineBullet  = regexp.MustCompile(`([^\n])•`)
	pdfDurationRe    = regexp.MustCompile(`(?i)\((\d+)\s*(?:minutes|minute|min)\)`)
	pdfBulletSpacing = regexp.MustCompile(`•[ \t]*([^\n])`)
	blankRunRe       = regexp.MustCompile(`\n{3,}`)
)

// NormalizePDFText repairs line flow in text extracted from PDF files, where
// headers and bullets are often run together on one line.
//
// A newline is inserted before every "N." followed by an uppercase letter and
// before every bullet that does not start a line. Duration variants become
// "(N min)", bullets are followed by exactly one space, and runs of three or
// more newlines collapse to one blank line.
func NormalizePDFText(text string) string {
	text = pdfHeaderRe.ReplaceAllString(text, "\n${1}. ${2}")
	text = pdfInlineBullet.ReplaceAllString(text, "${1}\n•")
	text = pdfDurationRe.ReplaceAllString(text, "(${1} min)")
	text = pdfBulletSpacing.ReplaceAllString(text, "• ${1}")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return text
}
