// Package model defines shared data structures.
package model

import (
	"fmt"
	"time"
)

// N-gram sizes supported by the analysis engine.
const (
	MinNGramSize = 2
	MaxNGramSize = 20
)

// SpeedMode selects which keystroke projection speed windows are measured on.
type SpeedMode string

// Speed modes.
const (
	// SpeedModeRaw measures on the verbatim keystroke stream, corrections included.
	SpeedModeRaw SpeedMode = "raw"
	// SpeedModeNet measures on the final text, corrections collapsed.
	SpeedModeNet SpeedMode = "net"
)

// ParseSpeedMode converts a string into a SpeedMode.
func ParseSpeedMode(s string) (SpeedMode, error) {
	switch SpeedMode(s) {
	case SpeedModeRaw:
		return SpeedModeRaw, nil
	case SpeedModeNet:
		return SpeedModeNet, nil
	}
	return "", fmt.Errorf("unsupported speed mode %q (want raw or net)", s)
}

// Keystroke is one typed character event within a session. Multiple
// keystrokes may share a TextIndex after a correction.
type Keystroke struct {
	Timestamp time.Time
	TextIndex int
	Expected  string
	Actual    string
	Correct   bool
}

// SpeedNGram records the duration of one fully correct n-gram window.
type SpeedNGram struct {
	ID             string
	SessionID      string
	Size           int
	Text           string
	DurationMs     float64
	MsPerKeystroke float64
	SpeedMode      SpeedMode
	CreatedAt      time.Time
}

// ErrorNGram records an n-gram window typed correctly except for the last
// character.
type ErrorNGram struct {
	ID           string
	SessionID    string
	Size         int
	ExpectedText string
	ActualText   string
	DurationMs   float64
	CreatedAt    time.Time
}

// ReportConfig defines filters and options for report output.
type ReportConfig struct {
	Size           int
	SpeedMode      SpeedMode
	MinOccurrences int
	Top            int
	TrendText      string
}

// SpeedAggregate aggregates speed records for one n-gram text.
type SpeedAggregate struct {
	Text              string
	Size              int
	Count             int
	AvgMsPerKeystroke float64
}

// ErrorAggregate aggregates error records for one expected/actual pair.
type ErrorAggregate struct {
	ExpectedText string
	ActualText   string
	Size         int
	Count        int
}

// TrendPoint is a per-session average for one n-gram text.
type TrendPoint struct {
	SessionID         string
	LastCreatedAt     time.Time
	AvgMsPerKeystroke float64
}
