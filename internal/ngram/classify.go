package ngram

import (
	"golang.org/x/text/unicode/norm"

	"github.com/verte-zerg/typegram/internal/model"
)

// Outcome is the classification of one n-gram window.
type Outcome int

// Window classifications.
const (
	// Clean means expected equals actual at every position.
	Clean Outcome = iota
	// ErrorLast means the window is correct except for its final character.
	ErrorLast
	// Ignored covers everything else: an error in a non-final position or
	// multiple errors. Such windows feed neither pipeline.
	Ignored
)

func (o Outcome) String() string {
	switch o {
	case Clean:
		return "clean"
	case ErrorLast:
		return "error-last"
	case Ignored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Classify labels a window's keystrokes. Characters are compared after NFC
// normalization so composed and decomposed forms of the same character
// never count as a mistake.
func Classify(keys []model.Keystroke) Outcome {
	if len(keys) == 0 {
		return Ignored
	}
	last := len(keys) - 1
	for _, k := range keys[:last] {
		if !sameChar(k.Expected, k.Actual) {
			return Ignored
		}
	}
	if sameChar(keys[last].Expected, keys[last].Actual) {
		return Clean
	}
	return ErrorLast
}

func sameChar(expected, actual string) bool {
	return norm.NFC.String(expected) == norm.NFC.String(actual)
}
