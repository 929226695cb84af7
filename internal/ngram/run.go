// Package ngram extracts speed and error n-gram records from a completed
// typing session's keystroke stream.
package ngram

// Run is a maximal span of expected text containing no separator.
type Run struct {
	Start  int
	Length int
}

// IsSeparator reports whether r splits the expected text into runs.
func IsSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', 0:
		return true
	}
	return false
}

// Runs splits the expected text into ordered separator-free spans.
// Separators themselves belong to no run; adjacent separators produce no
// empty runs.
func Runs(text []rune) []Run {
	var runs []Run
	start := -1
	for i, r := range text {
		if IsSeparator(r) {
			if start >= 0 {
				runs = append(runs, Run{Start: start, Length: i - start})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		runs = append(runs, Run{Start: start, Length: len(text) - start})
	}
	return runs
}
