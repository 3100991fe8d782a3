package outline

// MergeStyles combines style observations into the dominant style.
//
// A boolean holds in the result only when it holds for a strict majority of
// observations. Capitalization is the most frequent value; ties go to the
// value seen first. An empty slice yields all false and unknown.
func MergeStyles(styles []FormatStyle) FormatStyle {
	merged := FormatStyle{Capitalization: CapitalizationUnknown}
	if len(styles) == 0 {
		return merged
	}

	var bullets, numbered, timing, colons int
	counts := make(map[Capitalization]int)
	var order []Capitalization

	for _, s := range styles {
		if s.UsesBullets {
			bullets++
		}
		if s.UsesNumberedSections {
			numbered++
		}
		if s.UsesTiming {
			timing++
		}
		if s.UsesColons {
			colons++
		}

		c := s.Capitalization
		if c == "" {
			c = CapitalizationUnknown
		}
		if _, seen := counts[c]; !seen {
			order = append(order, c)
		}
		counts[c]++
	}

	majority := func(n int) bool { return n*2 > len(styles) }
	merged.UsesBullets = majority(bullets)
	merged.UsesNumberedSections = majority(numbered)
	merged.UsesTiming = majority(timing)
	merged.UsesColons = majority(colons)

	best := 0
	for _, c := range order {
		if counts[c] > best {
			best = counts[c]
			merged.Capitalization = c
		}
	}

	return merged
}
