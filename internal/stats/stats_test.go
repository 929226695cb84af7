package stats

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/typegram/internal/model"
)

func TestMovingAverage(t *testing.T) {
	values := []float64{10, 20, 30, 40}
	got := MovingAverage(values, 2)
	want := []float64{10, 15, 25, 35}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("moving average[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	same := MovingAverage(values, 1)
	for i := range values {
		if same[i] != values[i] {
			t.Fatalf("window 1 should copy values, got %v", same)
		}
	}
}

func TestSparkline(t *testing.T) {
	line := Sparkline([]float64{0, 5, 10})
	if len(line) != 3 {
		t.Fatalf("expected 3 chars, got %q", line)
	}
	if line[0] != ' ' || line[2] != '@' {
		t.Fatalf("expected full range coverage, got %q", line)
	}
	flat := Sparkline([]float64{7, 7, 7})
	if len(flat) != 3 || flat[0] != flat[1] || flat[1] != flat[2] {
		t.Fatalf("flat series should render uniformly, got %q", flat)
	}
	if Sparkline(nil) != "" {
		t.Fatalf("empty series should render empty")
	}
}

func TestRenderSpeedTable(t *testing.T) {
	var b strings.Builder
	aggs := []model.SpeedAggregate{
		{Text: "qu", Size: 2, Count: 4, AvgMsPerKeystroke: 250.5},
		{Text: "th", Size: 2, Count: 9, AvgMsPerKeystroke: 98.2},
	}
	if err := RenderSpeedTable(&b, aggs); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := b.String()
	if !strings.Contains(out, "Slowest N-Grams") {
		t.Fatalf("missing title: %q", out)
	}
	if !strings.Contains(out, "qu") || !strings.Contains(out, "250.5") {
		t.Fatalf("missing row data: %q", out)
	}

	b.Reset()
	if err := RenderSpeedTable(&b, nil); err != nil {
		t.Fatalf("render empty: %v", err)
	}
	if !strings.Contains(b.String(), "No speed n-grams") {
		t.Fatalf("missing empty notice: %q", b.String())
	}
}

func TestRenderErrorTable(t *testing.T) {
	var b strings.Builder
	aggs := []model.ErrorAggregate{
		{ExpectedText: "th", ActualText: "tg", Size: 2, Count: 5},
	}
	if err := RenderErrorTable(&b, aggs); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := b.String()
	if !strings.Contains(out, "Frequent Errors") || !strings.Contains(out, "tg") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestRenderSpeedTrend(t *testing.T) {
	base := time.Unix(0, 0).UTC()
	points := []model.TrendPoint{
		{SessionID: "s1", LastCreatedAt: base, AvgMsPerKeystroke: 120},
		{SessionID: "s2", LastCreatedAt: base.Add(time.Hour), AvgMsPerKeystroke: 100},
		{SessionID: "s3", LastCreatedAt: base.Add(2 * time.Hour), AvgMsPerKeystroke: 90},
	}
	var b strings.Builder
	if err := RenderSpeedTrend(&b, "th", points, 1, 2); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := b.String()
	if !strings.Contains(out, `Trend "th"`) {
		t.Fatalf("missing title: %q", out)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", out)
	}
	// Width caps the sparkline to the most recent points.
	if len(lines[1]) != 2 {
		t.Fatalf("expected 2 sparkline chars, got %q", lines[1])
	}

	b.Reset()
	if err := RenderSpeedTrend(&b, "th", nil, 1, 10); err != nil {
		t.Fatalf("render empty: %v", err)
	}
	if !strings.Contains(b.String(), "No speed records") {
		t.Fatalf("missing empty notice: %q", b.String())
	}
}
