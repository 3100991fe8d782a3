// Package outline extracts structure from loosely formatted workshop outlines.
//
// Everything in this package is a pure function over in-memory text. Nothing
// here performs I/O, logs, or keeps state between calls, so every operation is
// safe for concurrent use.
//
// # Pipeline
//
//	raw text -> ClassifyLine -> Segmenter (Parse) -> DetectStyle / ExtractPatterns -> MergeStyles
//
// ClassifyLine recognises three kinds of non-blank lines:
//
//	1. Welcome (10 min)     header: starts a new segment, title "Welcome", 10 minutes
//	  • Say hello           subsection of the open segment
//	anything else           body text of the open segment
//
// # Splicing
//
// SpliceSegment replaces one segment of an existing outline in place. It
// re-scans header lines of the text it is given instead of trusting a
// previously parsed Structure, because callers edit outlines between parses.
// Lines outside the located range are preserved byte for byte.
//
// # Degenerate input
//
// Text without header lines parses to a Structure with zero segments; an
// out-of-range splice index returns the input unchanged. Neither is an error.
package outline
