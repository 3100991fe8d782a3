// Package prompt renders the text requests sent to the generation service.
//
// Rendering is deterministic: the same Request always produces the same
// string. The package never calls the generation service and never looks at
// what it returns.
//
// Style adherence controls how much reference material is included:
//
//	> 0.5  include a reference example
//	> 0.6  append common duration and segment type patterns
//	> 0.7  include up to three examples instead of one
//
// Examples are cut to ExcerptChars characters (1500 by default).
package prompt
