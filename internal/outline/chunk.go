package outline

import (
	"regexp"
	"strings"
)

// DefaultChunkSize is the default maximum chunk length in bytes.
const DefaultChunkSize = 1000

var paragraphBreakRe = regexp.MustCompile(`\n\s*\n`)

// Chunk is a segment-aligned piece of an outline.
type Chunk struct {
	Index        int    `json:"index"`
	Content      string `json:"content"`
	SegmentIndex int    `json:"segment_index"`
	SegmentTitle string `json:"segment_title"`
}

// ChunkText splits an outline into chunks along segment boundaries. Segments
// longer than maxChars are split further on blank lines. Text before the
// first header is not chunked. maxChars <= 0 uses DefaultChunkSize.
func ChunkText(text string, maxChars int) []Chunk {
	if maxChars <= 0 {
		maxChars = DefaultChunkSize
	}
	lines := SplitLines(text)
	chunks := make([]Chunk, 0)

	for segIndex, r := range segmentRanges(lines) {
		title, _ := MatchHeader(lines[r.Start])
		content := strings.TrimSpace(strings.Join(lines[r.Start:r.End+1], "\n"))
		if content == "" {
			continue
		}

		for _, piece := range splitParagraphs(content, maxChars) {
			chunks = append(chunks, Chunk{
				Index:        len(chunks),
				Content:      piece,
				SegmentIndex: segIndex,
				SegmentTitle: title,
			})
		}
	}

	return chunks
}

// splitParagraphs packs blank-line separated paragraphs into pieces shorter
// than maxChars. A single paragraph longer than maxChars becomes its own piece.
func splitParagraphs(content string, maxChars int) []string {
	if len(content) <= maxChars {
		return []string{content}
	}

	var pieces []string
	var current strings.Builder
	for _, para := range paragraphBreakRe.Split(content, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(para) >= maxChars {
			pieces = append(pieces, strings.TrimSpace(current.String()))
			current.Reset()
		}
		current.WriteString(para)
		current.WriteString("\n\n")
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		pieces = append(pieces, s)
	}
	return pieces
}
