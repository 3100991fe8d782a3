package ingest

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/fyrsmithlabs/outlined/internal/outline"
)

var pdfMagic = []byte("%PDF-")

var disableConfigDir sync.Once

// decodePDF extracts and reflow-normalizes the text of a PDF. Input that is
// not a PDF file is taken as already extracted text, with form feeds
// separating pages.
func decodePDF(data []byte) (string, error) {
	var pages []string
	if bytes.HasPrefix(data, pdfMagic) {
		var err error
		pages, err = extractPDFPages(data)
		if err != nil {
			return "", err
		}
	} else {
		text, err := decodeText(data)
		if err != nil {
			return "", err
		}
		pages = strings.Split(text, "\f")
	}

	kept := pages[:0]
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return "", fmt.Errorf("%w: no text content found in PDF", ErrUnsupportedFormat)
	}

	return outline.NormalizePDFText(strings.Join(kept, "\n\n")), nil
}

func extractPDFPages(data []byte) ([]string, error) {
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: pdfcpu read: %v", ErrUnsupportedFormat, err)
	}

	pages := make([]string, 0, ctx.PageCount)
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil || r == nil {
			continue
		}
		content, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading page %d: %w", pageNr, err)
		}
		pages = append(pages, contentStreamText(content))
	}
	return pages, nil
}

// contentStreamText collects the strings shown by the text operators of a
// page content stream. Line moves (T*, ', ", Tm and Td/TD with a vertical
// offset) start a new line; horizontal moves become a space.
func contentStreamText(stream []byte) string {
	var (
		sb      strings.Builder
		shown   []string
		numbers []float64
	)

	newline := func() {
		if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteByte('\n')
		}
	}
	space := func() {
		s := sb.String()
		if s != "" && !strings.HasSuffix(s, " ") && !strings.HasSuffix(s, "\n") {
			sb.WriteByte(' ')
		}
	}
	show := func() {
		for _, s := range shown {
			sb.WriteString(s)
		}
	}

	lex := &pdfLexer{data: stream}
	for {
		tok, ok := lex.next()
		if !ok {
			break
		}
		switch tok.kind {
		case tokString:
			shown = append(shown, decodePDFString(tok.text))
			continue
		case tokNumber:
			numbers = append(numbers, tok.num)
			continue
		case tokOperator:
			switch tok.text {
			case "Tj", "TJ":
				show()
			case "'", `"`:
				newline()
				show()
			case "T*", "Tm":
				newline()
			case "Td", "TD":
				if len(numbers) >= 2 && numbers[len(numbers)-1] != 0 {
					newline()
				} else {
					space()
				}
			}
		}
		shown = shown[:0]
		numbers = numbers[:0]
	}

	return tidyPageText(sb.String())
}

var utf16BOM = "\xFE\xFF"

// decodePDFString converts a shown string to UTF-8. Strings with a UTF-16
// byte order mark are decoded as UTF-16BE; others are read as Windows-1252,
// which covers the bullets and dashes of simple fonts.
func decodePDFString(raw string) string {
	if strings.HasPrefix(raw, utf16BOM) {
		s, err := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().String(raw)
		if err == nil {
			return s
		}
	}
	s, err := charmap.Windows1252.NewDecoder().String(raw)
	if err != nil {
		return raw
	}
	return s
}

// tidyPageText collapses runs of horizontal whitespace and drops blank
// lines.
func tidyPageText(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

type pdfTokenKind int

const (
	tokOperator pdfTokenKind = iota
	tokString
	tokNumber
)

type pdfToken struct {
	kind pdfTokenKind
	text string
	num  float64
}

// pdfLexer tokenizes the subset of the content stream syntax needed for
// text extraction. Names, dictionaries and array brackets are skipped;
// TJ kerning numbers inside arrays are dropped.
type pdfLexer struct {
	data  []byte
	pos   int
	array int
}

func (l *pdfLexer) next() (pdfToken, bool) {
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		switch {
		case isPDFSpace(c):
			l.pos++
		case c == '%':
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
		case c == '(':
			return pdfToken{kind: tokString, text: l.literal()}, true
		case c == '<' && l.pos+1 < len(l.data) && l.data[l.pos+1] == '<':
			l.pos += 2
		case c == '>' && l.pos+1 < len(l.data) && l.data[l.pos+1] == '>':
			l.pos += 2
		case c == '<':
			return pdfToken{kind: tokString, text: l.hex()}, true
		case c == '[':
			l.array++
			l.pos++
		case c == ']':
			if l.array > 0 {
				l.array--
			}
			l.pos++
		case c == '/':
			l.pos++
			l.word()
		default:
			w := l.word()
			if w == "" {
				l.pos++
				continue
			}
			if n, err := strconv.ParseFloat(w, 64); err == nil {
				if l.array > 0 {
					continue
				}
				return pdfToken{kind: tokNumber, num: n}, true
			}
			return pdfToken{kind: tokOperator, text: w}, true
		}
	}
	return pdfToken{}, false
}

func (l *pdfLexer) word() string {
	start := l.pos
	for l.pos < len(l.data) && !isPDFSpace(l.data[l.pos]) && !isPDFDelimiter(l.data[l.pos]) {
		l.pos++
	}
	return string(l.data[start:l.pos])
}

// literal reads a (string) with balanced parentheses and escapes.
func (l *pdfLexer) literal() string {
	var sb strings.Builder
	depth := 0
	l.pos++
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		switch c {
		case '(':
			depth++
			sb.WriteByte(c)
		case ')':
			if depth == 0 {
				return sb.String()
			}
			depth--
			sb.WriteByte(c)
		case '\\':
			if l.pos >= len(l.data) {
				return sb.String()
			}
			e := l.data[l.pos]
			l.pos++
			switch e {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'b', 'f':
			case '\r', '\n':
				// line continuation
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && l.pos < len(l.data) && l.data[l.pos] >= '0' && l.data[l.pos] <= '7'; i++ {
						v = v*8 + int(l.data[l.pos]-'0')
						l.pos++
					}
					sb.WriteByte(byte(v))
				} else {
					sb.WriteByte(e)
				}
			}
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// hex reads a <hex string>. An odd trailing digit is padded with zero.
func (l *pdfLexer) hex() string {
	l.pos++
	var digits []byte
	for l.pos < len(l.data) && l.data[l.pos] != '>' {
		if c := l.data[l.pos]; isHexDigit(c) {
			digits = append(digits, c)
		}
		l.pos++
	}
	l.pos++
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, 0, len(digits)/2)
	for i := 0; i < len(digits); i += 2 {
		b, _ := strconv.ParseUint(string(digits[i:i+2]), 16, 8)
		out = append(out, byte(b))
	}
	return string(out)
}

func isPDFSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func isPDFDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
