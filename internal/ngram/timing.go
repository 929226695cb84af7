package ngram

import (
	"github.com/verte-zerg/typegram/internal/model"
)

// Duration computes a window's duration in milliseconds from its n ordered
// keystrokes. atRunStart marks windows whose first character opens a run:
// the first keystroke has no anchor inside the run, so the observed span
// covers only n-1 intervals and is grossed up by n/(n-1) to stay comparable
// with interior windows, which are measured strictly first-to-last.
//
// Returns false for non-positive spans; timestamps can be non-monotonic due
// to clock artifacts and such windows are dropped rather than stored.
func Duration(keys []model.Keystroke, atRunStart bool) (float64, bool) {
	n := len(keys)
	if n < 2 {
		return 0, false
	}
	first := keys[0].Timestamp
	last := keys[n-1].Timestamp
	observed := float64(last.Sub(first).Microseconds()) / 1000.0
	if observed <= 0 {
		return 0, false
	}
	if atRunStart {
		return observed / float64(n-1) * float64(n), true
	}
	return observed, true
}
