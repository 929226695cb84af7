package ngram

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/typegram/internal/model"
)

// Result holds the two disjoint record streams produced by one analysis
// pass over a session.
type Result struct {
	Speed  []model.SpeedNGram
	Errors []model.ErrorNGram
}

// Analyze scans a completed session against its expected text and emits
// speed records for fully correct windows and error records for windows
// correct except for a trailing mistake. Speed windows are measured on the
// projection selected by mode; error windows always use the raw projection.
//
// Windows with untyped positions and windows with non-positive durations
// are skipped silently; the only errors returned are input validation
// failures.
func Analyze(sessionID, expectedText string, keys []model.Keystroke, mode model.SpeedMode) (Result, error) {
	if strings.TrimSpace(sessionID) == "" {
		return Result{}, fmt.Errorf("session id must not be empty")
	}
	if mode != model.SpeedModeRaw && mode != model.SpeedModeNet {
		return Result{}, fmt.Errorf("unsupported speed mode %q (want raw or net)", mode)
	}

	text := []rune(expectedText)
	raw := NewRawView(keys)
	speedView := raw
	if mode == model.SpeedModeNet {
		speedView = NewNetView(keys)
	}

	now := time.Now()
	var res Result
	for _, run := range Runs(text) {
		maxSize := run.Length
		if maxSize > model.MaxNGramSize {
			maxSize = model.MaxNGramSize
		}
		for n := model.MinNGramSize; n <= maxSize; n++ {
			for offset := 0; offset+n <= run.Length; offset++ {
				start := run.Start + offset
				atRunStart := offset == 0

				if speed, ok := speedWindow(speedView, text, start, n, atRunStart); ok {
					speed.ID = uuid.NewString()
					speed.SessionID = sessionID
					speed.SpeedMode = mode
					speed.CreatedAt = now
					res.Speed = append(res.Speed, speed)
				}
				if errRec, ok := errorWindow(raw, text, start, n, atRunStart); ok {
					errRec.ID = uuid.NewString()
					errRec.SessionID = sessionID
					errRec.CreatedAt = now
					res.Errors = append(res.Errors, errRec)
				}
			}
		}
	}
	return res, nil
}

func speedWindow(view View, text []rune, start, n int, atRunStart bool) (model.SpeedNGram, bool) {
	keys, ok := view.Resolve(start, n)
	if !ok {
		return model.SpeedNGram{}, false
	}
	if Classify(keys) != Clean {
		return model.SpeedNGram{}, false
	}
	duration, ok := Duration(keys, atRunStart)
	if !ok {
		return model.SpeedNGram{}, false
	}
	return model.SpeedNGram{
		Size:           n,
		Text:           string(text[start : start+n]),
		DurationMs:     duration,
		MsPerKeystroke: duration / float64(n),
	}, true
}

func errorWindow(raw View, text []rune, start, n int, atRunStart bool) (model.ErrorNGram, bool) {
	keys, ok := raw.Resolve(start, n)
	if !ok {
		return model.ErrorNGram{}, false
	}
	if Classify(keys) != ErrorLast {
		return model.ErrorNGram{}, false
	}
	duration, ok := Duration(keys, atRunStart)
	if !ok {
		return model.ErrorNGram{}, false
	}
	expected := string(text[start : start+n])
	actual := string(text[start:start+n-1]) + keys[n-1].Actual
	return model.ErrorNGram{
		Size:         n,
		ExpectedText: expected,
		ActualText:   actual,
		DurationMs:   duration,
	}, true
}
