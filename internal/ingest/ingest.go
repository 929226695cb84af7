// Package ingest normalizes session payloads from upstream capture tools
// into the fixed keystroke record the analysis core works on.
package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/verte-zerg/typegram/internal/model"
)

// Session is a normalized session payload ready for analysis.
type Session struct {
	SessionID  string
	Text       string
	Keystrokes []model.Keystroke
}

// Upstream payloads vary in shape: timestamps arrive as epoch milliseconds
// or RFC3339 strings, the position field is spelled text_index or index,
// and correct may be omitted. Pointers distinguish absent from zero.
type rawKeystroke struct {
	TimestampMs *float64 `json:"timestamp_ms"`
	Timestamp   *string  `json:"timestamp"`
	TextIndex   *int     `json:"text_index"`
	Index       *int     `json:"index"`
	Expected    string   `json:"expected"`
	Actual      string   `json:"actual"`
	Correct     *bool    `json:"correct"`
}

type rawSession struct {
	SessionID  string         `json:"session_id"`
	Text       string         `json:"text"`
	Keystrokes []rawKeystroke `json:"keystrokes"`
}

// LoadSession reads and normalizes a session payload from a JSON file.
func LoadSession(path string) (Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return Session{}, fmt.Errorf("failed to open session payload: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close on a read-only file.
			_ = cerr
		}
	}()
	return ReadSession(f)
}

// ReadSession decodes and normalizes a session payload.
func ReadSession(r io.Reader) (Session, error) {
	var raw rawSession
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return Session{}, fmt.Errorf("failed to decode session payload: %w", err)
	}
	if raw.SessionID == "" {
		return Session{}, fmt.Errorf("session payload has no session_id")
	}
	if raw.Text == "" {
		return Session{}, fmt.Errorf("session payload has no text")
	}

	keys := make([]model.Keystroke, 0, len(raw.Keystrokes))
	for i, rk := range raw.Keystrokes {
		k, err := mapKeystroke(rk)
		if err != nil {
			return Session{}, fmt.Errorf("keystroke %d: %w", i, err)
		}
		keys = append(keys, k)
	}
	return Session{
		SessionID:  raw.SessionID,
		Text:       raw.Text,
		Keystrokes: keys,
	}, nil
}

func mapKeystroke(rk rawKeystroke) (model.Keystroke, error) {
	ts, err := mapTimestamp(rk)
	if err != nil {
		return model.Keystroke{}, err
	}

	index := -1
	switch {
	case rk.TextIndex != nil:
		index = *rk.TextIndex
	case rk.Index != nil:
		index = *rk.Index
	default:
		return model.Keystroke{}, fmt.Errorf("missing text_index")
	}
	if index < 0 {
		return model.Keystroke{}, fmt.Errorf("negative text_index %d", index)
	}

	if rk.Expected == "" {
		return model.Keystroke{}, fmt.Errorf("missing expected char")
	}
	if rk.Actual == "" {
		return model.Keystroke{}, fmt.Errorf("missing actual char")
	}

	correct := rk.Expected == rk.Actual
	if rk.Correct != nil {
		correct = *rk.Correct
	}

	return model.Keystroke{
		Timestamp: ts,
		TextIndex: index,
		Expected:  rk.Expected,
		Actual:    rk.Actual,
		Correct:   correct,
	}, nil
}

func mapTimestamp(rk rawKeystroke) (time.Time, error) {
	switch {
	case rk.TimestampMs != nil:
		ms := *rk.TimestampMs
		sec := int64(ms) / 1000
		nsec := int64((ms - float64(sec*1000)) * float64(time.Millisecond))
		return time.Unix(sec, nsec).UTC(), nil
	case rk.Timestamp != nil:
		ts, err := time.Parse(time.RFC3339Nano, *rk.Timestamp)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", *rk.Timestamp, err)
		}
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("missing timestamp")
}
