package rank

import (
	"testing"

	"github.com/typerally/typerally/internal/model"
)

func TestOrderTiebreaks(t *testing.T) {
	entries := []model.LeaderboardEntry{
		{SessionID: "s2", Score: 930, CPM: 340, Accuracy: 0.99},
		{SessionID: "s3", Score: 880, CPM: 400, Accuracy: 1.0},
		{SessionID: "s1", Score: 930, CPM: 360, Accuracy: 0.99},
	}
	ordered := Order(entries)
	want := []string{"s1", "s2", "s3"}
	for i, id := range want {
		if ordered[i].SessionID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, ordered[i].SessionID)
		}
		if ordered[i].Rank != i+1 {
			t.Fatalf("position %d: expected rank %d, got %d", i, i+1, ordered[i].Rank)
		}
	}
}

func TestOrderFullTiesGetDistinctRanks(t *testing.T) {
	entries := []model.LeaderboardEntry{
		{SessionID: "a", Score: 500, CPM: 300, Accuracy: 0.9},
		{SessionID: "b", Score: 500, CPM: 300, Accuracy: 0.9},
	}
	ordered := Order(entries)
	if ordered[0].Rank != 1 || ordered[1].Rank != 2 {
		t.Fatalf("expected distinct consecutive ranks, got %d and %d", ordered[0].Rank, ordered[1].Rank)
	}
}

func TestOrderDoesNotMutateInput(t *testing.T) {
	entries := []model.LeaderboardEntry{
		{SessionID: "low", Score: 1},
		{SessionID: "high", Score: 2},
	}
	Order(entries)
	if entries[0].SessionID != "low" || entries[0].Rank != 0 {
		t.Fatalf("input slice mutated: %+v", entries[0])
	}
}

func TestViewLimitsTop(t *testing.T) {
	entries := make([]model.LeaderboardEntry, 0, 15)
	for i := 0; i < 15; i++ {
		entries = append(entries, model.LeaderboardEntry{
			SessionID: string(rune('a' + i)),
			Score:     1000 - i,
		})
	}
	page := View(entries, "", 10)
	if len(page.Top) != 10 {
		t.Fatalf("expected 10 entries, got %d", len(page.Top))
	}
	if page.Total != 15 {
		t.Fatalf("expected total 15, got %d", page.Total)
	}
}

func TestViewPersonalRowOutsideTop(t *testing.T) {
	entries := make([]model.LeaderboardEntry, 0, 12)
	for i := 0; i < 12; i++ {
		entries = append(entries, model.LeaderboardEntry{
			SessionID: string(rune('a' + i)),
			Score:     1000 - i,
		})
	}
	page := View(entries, "l", 10)
	if page.Me == nil || page.Me.Rank != 12 {
		t.Fatalf("expected personal row with rank 12, got %+v", page.Me)
	}
	if Personal(page) == nil {
		t.Fatalf("expected synthesized personal row")
	}
}

func TestViewPersonalRowInsideTopNotDuplicated(t *testing.T) {
	entries := []model.LeaderboardEntry{
		{SessionID: "me", Score: 900},
		{SessionID: "other", Score: 800},
	}
	page := View(entries, "me", 10)
	if page.Me == nil || page.Me.Rank != 1 {
		t.Fatalf("expected viewer found at rank 1, got %+v", page.Me)
	}
	if Personal(page) != nil {
		t.Fatalf("expected no synthesized row for a viewer inside the top")
	}
}
