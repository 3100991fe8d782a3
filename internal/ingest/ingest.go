// Package ingest decodes uploaded outline documents into plain text.
//
// Three formats are understood: plain text, Word documents (.docx) and PDF.
// Word documents contribute their body paragraphs joined with newlines. PDF
// pages are extracted with pdfcpu and joined with a blank line; already
// extracted PDF text is accepted as well. PDF text is reflow-normalized with
// outline.NormalizePDFText before it is returned.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var (
	// ErrUnsupportedFormat is returned for input that cannot be decoded in
	// the requested format.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrFileTooLarge is returned for input above MaxFileSize.
	ErrFileTooLarge = errors.New("file too large")
)

// MaxFileSize bounds the size of accepted input.
const MaxFileSize = 32 << 20

// Format identifies how a document's bytes are decoded.
type Format string

const (
	FormatText Format = "text"
	FormatDOCX Format = "docx"
	FormatPDF  Format = "pdf"
)

// ParseFormat parses a format name. An empty name or "auto" returns the
// empty Format, meaning detection by file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return "", nil
	case "text", "txt", "md":
		return FormatText, nil
	case "docx":
		return FormatDOCX, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// DetectFormat picks a format from the file extension. Unknown extensions
// are read as text.
func DetectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".docx":
		return FormatDOCX
	case ".pdf":
		return FormatPDF
	default:
		return FormatText
	}
}

// Document is a decoded upload.
type Document struct {
	Filename string `json:"filename"`
	Format   Format `json:"format"`
	Text     string `json:"text"`
}

// ReadFile reads and decodes the file at path. An empty override detects
// the format from the extension.
func ReadFile(path string, override Format) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes (max %d)", ErrFileTooLarge, path, info.Size(), MaxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Decode(filepath.Base(path), data, override)
}

// Decode decodes data named filename. An empty override detects the format
// from the extension.
func Decode(filename string, data []byte, override Format) (*Document, error) {
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes (max %d)", ErrFileTooLarge, filename, len(data), MaxFileSize)
	}

	format := override
	if format == "" {
		format = DetectFormat(filename)
	}

	var (
		text string
		err  error
	)
	switch format {
	case FormatText:
		text, err = decodeText(data)
	case FormatDOCX:
		text, err = extractDOCX(data)
	case FormatPDF:
		text, err = decodePDF(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s as %s: %w", filename, format, err)
	}

	return &Document{Filename: filename, Format: format, Text: text}, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: text is not valid UTF-8", ErrUnsupportedFormat)
	}
	return normalizeNewlines(string(data)), nil
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
