package store

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/typegram/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	st, err := Open(filepath.Join(dir, "typegram.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func speedRec(sessionID, text string, msPerKey float64, createdAt time.Time) model.SpeedNGram {
	size := len([]rune(text))
	return model.SpeedNGram{
		ID:             uuid.NewString(),
		SessionID:      sessionID,
		Size:           size,
		Text:           text,
		DurationMs:     msPerKey * float64(size),
		MsPerKeystroke: msPerKey,
		SpeedMode:      model.SpeedModeRaw,
		CreatedAt:      createdAt,
	}
}

func errorRec(sessionID, expected, actual string, createdAt time.Time) model.ErrorNGram {
	return model.ErrorNGram{
		ID:           uuid.NewString(),
		SessionID:    sessionID,
		Size:         len([]rune(expected)),
		ExpectedText: expected,
		ActualText:   actual,
		DurationMs:   180,
		CreatedAt:    createdAt,
	}
}

func TestSpeedAggregates(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Unix(0, 0).UTC()

	records := []model.SpeedNGram{
		speedRec("s1", "th", 120, base),
		speedRec("s1", "th", 100, base),
		speedRec("s2", "th", 80, base.Add(time.Minute)),
		speedRec("s1", "he", 200, base),
		speedRec("s1", "qu", 300, base),
	}
	if err := st.InsertSpeedNGrams(ctx, records); err != nil {
		t.Fatalf("insert speed: %v", err)
	}

	aggs, err := st.SpeedAggregates(ctx, model.ReportConfig{
		SpeedMode:      model.SpeedModeRaw,
		MinOccurrences: 2,
	})
	if err != nil {
		t.Fatalf("speed aggregates: %v", err)
	}
	if len(aggs) != 1 {
		t.Fatalf("expected only the repeated text, got %+v", aggs)
	}
	agg := aggs[0]
	if agg.Text != "th" || agg.Count != 3 {
		t.Fatalf("unexpected aggregate: %+v", agg)
	}
	if math.Abs(agg.AvgMsPerKeystroke-100.0) > 1e-9 {
		t.Fatalf("avg = %v, want 100", agg.AvgMsPerKeystroke)
	}

	all, err := st.SpeedAggregates(ctx, model.ReportConfig{MinOccurrences: 1})
	if err != nil {
		t.Fatalf("speed aggregates: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 aggregates, got %d", len(all))
	}
	if all[0].Text != "qu" {
		t.Fatalf("expected slowest first, got %+v", all)
	}

	top, err := st.SpeedAggregates(ctx, model.ReportConfig{MinOccurrences: 1, Top: 2})
	if err != nil {
		t.Fatalf("speed aggregates: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected top limit, got %d rows", len(top))
	}
}

func TestErrorAggregates(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Unix(0, 0).UTC()

	records := []model.ErrorNGram{
		errorRec("s1", "th", "tg", base),
		errorRec("s2", "th", "tg", base),
		errorRec("s1", "he", "hr", base),
	}
	if err := st.InsertErrorNGrams(ctx, records); err != nil {
		t.Fatalf("insert errors: %v", err)
	}

	aggs, err := st.ErrorAggregates(ctx, model.ReportConfig{MinOccurrences: 1})
	if err != nil {
		t.Fatalf("error aggregates: %v", err)
	}
	if len(aggs) != 2 {
		t.Fatalf("expected 2 aggregates, got %+v", aggs)
	}
	if aggs[0].ExpectedText != "th" || aggs[0].ActualText != "tg" || aggs[0].Count != 2 {
		t.Fatalf("expected most frequent pair first, got %+v", aggs[0])
	}

	filtered, err := st.ErrorAggregates(ctx, model.ReportConfig{MinOccurrences: 2})
	if err != nil {
		t.Fatalf("error aggregates: %v", err)
	}
	if len(filtered) != 1 {
		t.Fatalf("min occurrences filter failed: %+v", filtered)
	}
}

func TestClearSession(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Unix(0, 0).UTC()

	if err := st.InsertSpeedNGrams(ctx, []model.SpeedNGram{
		speedRec("s1", "th", 100, base),
		speedRec("s2", "th", 100, base),
	}); err != nil {
		t.Fatalf("insert speed: %v", err)
	}
	if err := st.InsertErrorNGrams(ctx, []model.ErrorNGram{
		errorRec("s1", "th", "tg", base),
	}); err != nil {
		t.Fatalf("insert errors: %v", err)
	}

	if err := st.ClearSession(ctx, "s1"); err != nil {
		t.Fatalf("clear session: %v", err)
	}
	aggs, err := st.SpeedAggregates(ctx, model.ReportConfig{MinOccurrences: 1})
	if err != nil {
		t.Fatalf("speed aggregates: %v", err)
	}
	if len(aggs) != 1 || aggs[0].Count != 1 {
		t.Fatalf("expected only s2 records to remain, got %+v", aggs)
	}
	errAggs, err := st.ErrorAggregates(ctx, model.ReportConfig{MinOccurrences: 1})
	if err != nil {
		t.Fatalf("error aggregates: %v", err)
	}
	if len(errAggs) != 0 {
		t.Fatalf("expected s1 error records cleared, got %+v", errAggs)
	}

	if err := st.ClearSession(ctx, ""); err == nil {
		t.Fatalf("expected empty session id to be rejected")
	}
}

func TestClearAll(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Unix(0, 0).UTC()

	if err := st.InsertSpeedNGrams(ctx, []model.SpeedNGram{speedRec("s1", "th", 100, base)}); err != nil {
		t.Fatalf("insert speed: %v", err)
	}
	if err := st.InsertErrorNGrams(ctx, []model.ErrorNGram{errorRec("s1", "th", "tg", base)}); err != nil {
		t.Fatalf("insert errors: %v", err)
	}
	if err := st.ClearAll(ctx); err != nil {
		t.Fatalf("clear all: %v", err)
	}
	aggs, err := st.SpeedAggregates(ctx, model.ReportConfig{MinOccurrences: 1})
	if err != nil {
		t.Fatalf("speed aggregates: %v", err)
	}
	errAggs, err := st.ErrorAggregates(ctx, model.ReportConfig{MinOccurrences: 1})
	if err != nil {
		t.Fatalf("error aggregates: %v", err)
	}
	if len(aggs) != 0 || len(errAggs) != 0 {
		t.Fatalf("expected both stores empty, got %d/%d", len(aggs), len(errAggs))
	}
}

func TestSpeedTrend(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Unix(0, 0).UTC()

	if err := st.InsertSpeedNGrams(ctx, []model.SpeedNGram{
		speedRec("s2", "th", 80, base.Add(time.Hour)),
		speedRec("s1", "th", 120, base),
		speedRec("s1", "th", 100, base),
		speedRec("s1", "he", 999, base),
	}); err != nil {
		t.Fatalf("insert speed: %v", err)
	}

	points, err := st.SpeedTrend(ctx, "th", model.SpeedModeRaw)
	if err != nil {
		t.Fatalf("speed trend: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 trend points, got %+v", points)
	}
	if points[0].SessionID != "s1" || points[1].SessionID != "s2" {
		t.Fatalf("expected oldest session first, got %+v", points)
	}
	if math.Abs(points[0].AvgMsPerKeystroke-110.0) > 1e-9 {
		t.Fatalf("s1 average = %v, want 110", points[0].AvgMsPerKeystroke)
	}
}

func TestInsertEmptyBatchesNoOp(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if err := st.InsertSpeedNGrams(ctx, nil); err != nil {
		t.Fatalf("empty speed batch: %v", err)
	}
	if err := st.InsertErrorNGrams(ctx, nil); err != nil {
		t.Fatalf("empty error batch: %v", err)
	}
}
