package outline

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EmbeddingText renders the concise representation of a parsed outline that
// is sent to the embedding service.
func EmbeddingText(s Structure) string {
	style, _ := json.Marshal(s.FormatStyle)
	return strings.Join([]string{
		"Workshop title: " + s.Title,
		"Format style: " + string(style),
		"Segments: " + strings.Join(s.SegmentTitles(), " | "),
		fmt.Sprintf("Total duration: %d minutes", s.TotalDurationMinutes()),
		fmt.Sprintf("Segment count: %d", s.SegmentCount()),
	}, "\n")
}

// SpecificationText renders a generation request in the same shape as
// EmbeddingText so that both land close together in vector space.
func SpecificationText(title, objectives string, segmentTitles []string, totalMinutes int) string {
	parts := []string{"Workshop title: " + title}
	if objectives != "" {
		parts = append(parts, "Objectives: "+objectives)
	}
	parts = append(parts,
		"Segments: "+strings.Join(segmentTitles, " | "),
		fmt.Sprintf("Total duration: %d minutes", totalMinutes),
		fmt.Sprintf("Segment count: %d", len(segmentTitles)),
	)
	return strings.Join(parts, "\n")
}
