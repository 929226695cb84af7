package ngram

import (
	"github.com/verte-zerg/typegram/internal/model"
)

// View resolves a text index to the single keystroke measured at that
// position under one speed-mode projection.
type View struct {
	byIndex map[int]model.Keystroke
}

// NewRawView keeps, per text index, the first keystroke typed there. The
// original attempt stays visible, so a later-corrected mistake still shows
// up to error evaluation.
func NewRawView(keys []model.Keystroke) View {
	byIndex := make(map[int]model.Keystroke, len(keys))
	for _, k := range keys {
		prev, ok := byIndex[k.TextIndex]
		if !ok || k.Timestamp.Before(prev.Timestamp) {
			byIndex[k.TextIndex] = k
		}
	}
	return View{byIndex: byIndex}
}

// NewNetView keeps, per text index, the last keystroke typed there,
// simulating the final text with corrections collapsed.
func NewNetView(keys []model.Keystroke) View {
	byIndex := make(map[int]model.Keystroke, len(keys))
	for _, k := range keys {
		prev, ok := byIndex[k.TextIndex]
		if !ok || !k.Timestamp.Before(prev.Timestamp) {
			byIndex[k.TextIndex] = k
		}
	}
	return View{byIndex: byIndex}
}

// Lookup returns the keystroke at a text index, if the position was typed.
func (v View) Lookup(index int) (model.Keystroke, bool) {
	k, ok := v.byIndex[index]
	return k, ok
}

// Resolve collects the keystrokes for n consecutive indices starting at
// start. It returns false if any position was never typed under this view,
// in which case the window must be skipped.
func (v View) Resolve(start, n int) ([]model.Keystroke, bool) {
	keys := make([]model.Keystroke, n)
	for i := 0; i < n; i++ {
		k, ok := v.byIndex[start+i]
		if !ok {
			return nil, false
		}
		keys[i] = k
	}
	return keys, true
}
