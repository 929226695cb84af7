package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/typegram/internal/model"
)

const sparkChars = " .:-=+*#%@"

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSpeedTable prints slowest n-grams first.
func RenderSpeedTable(w io.Writer, aggs []model.SpeedAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No speed n-grams found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Slowest N-Grams"); err != nil {
		return err
	}
	headers := []string{"Text", "Size", "Count", "Avg ms/keystroke"}
	rows := make([][]string, 0, len(aggs))
	for _, agg := range aggs {
		rows = append(rows, []string{
			agg.Text,
			fmt.Sprintf("%d", agg.Size),
			fmt.Sprintf("%d", agg.Count),
			fmt.Sprintf("%.1f", agg.AvgMsPerKeystroke),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderErrorTable prints most frequent error n-grams first.
func RenderErrorTable(w io.Writer, aggs []model.ErrorAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No error n-grams found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Frequent Errors"); err != nil {
		return err
	}
	headers := []string{"Expected", "Typed", "Size", "Count"}
	rows := make([][]string, 0, len(aggs))
	for _, agg := range aggs {
		rows = append(rows, []string{
			agg.ExpectedText,
			agg.ActualText,
			fmt.Sprintf("%d", agg.Size),
			fmt.Sprintf("%d", agg.Count),
		})
	}
	rightAlign := map[int]bool{2: true, 3: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderSpeedTrend prints a sparkline of per-session average speed for one
// n-gram text. width caps how many points are shown; the most recent
// sessions win when the series is longer.
func RenderSpeedTrend(w io.Writer, text string, points []model.TrendPoint, window, width int) error {
	if len(points) == 0 {
		_, err := fmt.Fprintf(w, "No speed records for %q.\n", text)
		return err
	}
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.AvgMsPerKeystroke
	}
	values = MovingAverage(values, window)
	if width > 0 && len(values) > width {
		values = values[len(values)-width:]
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if _, err := fmt.Fprintf(w, "Trend %q (%d sessions, ms/keystroke)\n", text, len(points)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, Sparkline(values)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "min %.1f · max %.1f\n", minVal, maxVal)
	return err
}
