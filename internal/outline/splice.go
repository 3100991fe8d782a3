package outline

import "strings"

// LineRange is an inclusive range of line indexes.
type LineRange struct {
	Start int
	End   int
}

// segmentRanges scans lines for headers and returns the line range of every
// segment in document order. A segment ends on the line before the next
// header, or on the last line of the document.
func segmentRanges(lines []string) []LineRange {
	var ranges []LineRange
	for i, line := range lines {
		if !IsHeader(line) {
			continue
		}
		if n := len(ranges); n > 0 {
			ranges[n-1].End = i - 1
		}
		ranges = append(ranges, LineRange{Start: i, End: len(lines) - 1})
	}
	return ranges
}

// LocateSegment finds the line range of the segment at index by scanning the
// header lines of text. It reports false when index is out of range.
func LocateSegment(text string, index int) (LineRange, bool) {
	if index < 0 {
		return LineRange{}, false
	}
	lines := SplitLines(text)

	counter := -1
	start := -1
	for i, line := range lines {
		if !IsHeader(line) {
			continue
		}
		if start >= 0 {
			return LineRange{Start: start, End: i - 1}, true
		}
		counter++
		if counter == index {
			start = i
		}
	}
	if start < 0 {
		return LineRange{}, false
	}
	return LineRange{Start: start, End: len(lines) - 1}, true
}

// SegmentText returns the current text of the segment at index.
func SegmentText(text string, index int) (string, bool) {
	r, ok := LocateSegment(text, index)
	if !ok {
		return "", false
	}
	lines := SplitLines(text)
	return strings.Join(lines[r.Start:r.End+1], "\n"), true
}

// SpliceSegment replaces the segment at index with replacement. Lines outside
// the segment are kept byte for byte. An out-of-range index returns text
// unchanged.
func SpliceSegment(text string, index int, replacement string) string {
	r, ok := LocateSegment(text, index)
	if !ok {
		return text
	}
	lines := SplitLines(text)

	out := make([]string, 0, len(lines))
	out = append(out, lines[:r.Start]...)
	out = append(out, SplitLines(replacement)...)
	out = append(out, lines[r.End+1:]...)
	return strings.Join(out, "\n")
}
