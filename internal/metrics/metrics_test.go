package metrics

import "testing"

func TestAccuracyDefaultsToPerfect(t *testing.T) {
	if got := Accuracy(0, 0); got != 1 {
		t.Fatalf("expected 1 for zero attempts, got %v", got)
	}
	if got := Accuracy(5, -1); got != 1 {
		t.Fatalf("expected 1 for negative total, got %v", got)
	}
}

func TestAccuracyClamped(t *testing.T) {
	if got := Accuracy(3, 4); got != 0.75 {
		t.Fatalf("expected 0.75, got %v", got)
	}
	if got := Accuracy(10, 4); got != 1 {
		t.Fatalf("expected clamp to 1, got %v", got)
	}
	if got := Accuracy(-2, 4); got != 0 {
		t.Fatalf("expected clamp to 0, got %v", got)
	}
}

func TestCPMGuardsZeroElapsed(t *testing.T) {
	if got := CPM(120, 0); got != 0 {
		t.Fatalf("expected 0 for zero elapsed, got %d", got)
	}
	if got := CPM(120, -5); got != 0 {
		t.Fatalf("expected 0 for negative elapsed, got %d", got)
	}
	if got := CPM(120, 30); got != 240 {
		t.Fatalf("expected 240, got %d", got)
	}
}

func TestWPM(t *testing.T) {
	if got := WPM(250); got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
	if got := WPM(0); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestScoreMonotonic(t *testing.T) {
	prev := -1
	for cpm := 0; cpm <= 500; cpm += 50 {
		s := Score(cpm, 0.9)
		if s < prev {
			t.Fatalf("score decreased at cpm=%d: %d < %d", cpm, s, prev)
		}
		prev = s
	}
	prev = -1
	for _, acc := range []float64{0, 0.25, 0.5, 0.75, 0.9, 1} {
		s := Score(300, acc)
		if s < prev {
			t.Fatalf("score decreased at acc=%v: %d < %d", acc, s, prev)
		}
		prev = s
	}
}

func TestScorePenalizesInaccuracy(t *testing.T) {
	if got := Score(400, 0.5); got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
	if got := Score(300, 1); got != 150 {
		t.Fatalf("expected 150, got %d", got)
	}
}

func TestAnomalyScoreSmallInputs(t *testing.T) {
	if got := AnomalyScore(nil); got != 0 {
		t.Fatalf("expected 0 for empty intervals, got %v", got)
	}
	if got := AnomalyScore([]float64{123}); got != 0 {
		t.Fatalf("expected 0 for single interval, got %v", got)
	}
}

func TestAnomalyScoreRegularCadence(t *testing.T) {
	if got := AnomalyScore([]float64{100, 100, 100, 100}); got != 1.0 {
		t.Fatalf("expected 1.0 for zero variance, got %v", got)
	}
}

func TestAnomalyScoreHumanCadence(t *testing.T) {
	got := AnomalyScore([]float64{80, 240, 40, 320, 60, 500})
	if got < 0 || got >= 0.5 {
		t.Fatalf("expected low anomaly for irregular cadence, got %v", got)
	}
}

func TestAnomalyScoreZeroMean(t *testing.T) {
	if got := AnomalyScore([]float64{0, 0, 0}); got != 1.0 {
		t.Fatalf("expected 1.0 for zero-mean cadence, got %v", got)
	}
}

func TestAnomalyBreakdown(t *testing.T) {
	mean, std, cv, count := AnomalyBreakdown([]float64{100, 100})
	if mean != 100 || std != 0 || cv != 0 || count != 2 {
		t.Fatalf("unexpected breakdown: mean=%v std=%v cv=%v count=%d", mean, std, cv, count)
	}
	if _, _, _, count := AnomalyBreakdown(nil); count != 0 {
		t.Fatalf("expected zero count, got %d", count)
	}
}
