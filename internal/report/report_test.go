package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/typerally/typerally/internal/model"
)

func TestSparklineFlat(t *testing.T) {
	out := Sparkline([]float64{5, 5, 5})
	if len(out) != 3 {
		t.Fatalf("expected 3 chars, got %q", out)
	}
	if out != strings.Repeat(string(out[0]), 3) {
		t.Fatalf("expected uniform sparkline, got %q", out)
	}
}

func TestSparklineRange(t *testing.T) {
	out := Sparkline([]float64{0, 100})
	if out[0] != sparkChars[0] || out[1] != sparkChars[len(sparkChars)-1] {
		t.Fatalf("expected full range endpoints, got %q", out)
	}
	if Sparkline(nil) != "" {
		t.Fatalf("expected empty output for no values")
	}
}

func TestRenderLeaderboard(t *testing.T) {
	page := model.LeaderboardPage{
		Top: []model.LeaderboardEntry{
			{SessionID: "s1", Username: "alice", Rank: 1, Score: 930, CPM: 360, Accuracy: 0.99},
			{SessionID: "s2", Username: "bob", Rank: 2, Score: 880, CPM: 340, Accuracy: 0.97},
		},
		Total: 12,
		Me:    &model.LeaderboardEntry{SessionID: "s9", Username: "carol", Rank: 11, Score: 120, CPM: 80, Accuracy: 0.9},
	}
	var buf bytes.Buffer
	if err := RenderLeaderboard(&buf, page); err != nil {
		t.Fatalf("failed to render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"alice", "930", "carol (you)", "Entries: 12"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderLeaderboardViewerInTop(t *testing.T) {
	me := model.LeaderboardEntry{SessionID: "s1", Username: "alice", Rank: 1, Score: 930}
	page := model.LeaderboardPage{Top: []model.LeaderboardEntry{me}, Total: 1, Me: &me}
	var buf bytes.Buffer
	if err := RenderLeaderboard(&buf, page); err != nil {
		t.Fatalf("failed to render: %v", err)
	}
	if strings.Contains(buf.String(), "(you)") {
		t.Fatalf("viewer inside the top must not be duplicated:\n%s", buf.String())
	}
}

func TestRenderLeaderboardEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderLeaderboard(&buf, model.LeaderboardPage{}); err != nil {
		t.Fatalf("failed to render: %v", err)
	}
	if !strings.Contains(buf.String(), "No results yet.") {
		t.Fatalf("expected placeholder, got %q", buf.String())
	}
}

func TestRenderResults(t *testing.T) {
	completed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	results := []model.SessionResult{
		{Score: 300, CPM: 200, WPM: 40, Accuracy: 0.95, Errors: 3, CompletedAt: completed.Add(time.Hour)},
		{Score: 150, CPM: 120, WPM: 24, Accuracy: 0.9, Errors: 5, CompletedAt: completed},
	}
	var buf bytes.Buffer
	if err := RenderResults(&buf, results, 40); err != nil {
		t.Fatalf("failed to render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Score", "300", "150", "Score trend:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}
