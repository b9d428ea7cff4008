package memory

import (
	"testing"
	"time"
)

func TestRelevanceDecayMonotonic(t *testing.T) {
	prev := relevance(0.8, 2.0, 0, 3, 90)
	for _, age := range []float64{1, 7, 30, 90, 365, 3650} {
		score := relevance(0.8, 2.0, age, 3, 90)
		if score >= prev {
			t.Errorf("score at age %f is %f, not below %f", age, score, prev)
		}
		prev = score
	}
}

func TestRelevanceAccessBoost(t *testing.T) {
	base := relevance(0.5, 1.0, 0, 0, 90)
	boosted := relevance(0.5, 1.0, 0, 10, 90)
	if boosted != base*2 {
		t.Errorf("got %f, want exactly double %f at access count 10", boosted, base)
	}
}

func TestRelevanceScalesWithImportance(t *testing.T) {
	low := relevance(0.5, 1.0, 10, 0, 90)
	high := relevance(0.5, 5.0, 10, 0, 90)
	if high != low*5 {
		t.Errorf("got %f, want five times %f", high, low)
	}
}

func TestSimilarityFromDistance(t *testing.T) {
	if got := similarityFromDistance(0); got != 1 {
		t.Errorf("got %f at distance 0, want 1", got)
	}
	prev := 1.0
	for _, d := range []float64{0.1, 1, 10, 1000} {
		sim := similarityFromDistance(d)
		if sim <= 0 || sim >= prev {
			t.Errorf("similarity at distance %f is %f, want in (0,%f)", d, sim, prev)
		}
		prev = sim
	}
}

func TestAgeDaysTruncatesToWholeDays(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	sameDay := now.Add(-6 * time.Hour)
	if got := ageDays(now, sameDay); got != 0 {
		t.Errorf("got %f for a 6h-old record, want 0", got)
	}

	lastWeek := now.AddDate(0, 0, -7)
	if got := ageDays(now, lastWeek); got != 7 {
		t.Errorf("got %f for a 7d-old record, want 7", got)
	}

	future := now.Add(time.Hour)
	if got := ageDays(now, future); got != 0 {
		t.Errorf("got %f for a future timestamp, want clamped 0", got)
	}
}
