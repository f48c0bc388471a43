package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/typerally/typerally/internal/model"
	"github.com/typerally/typerally/internal/store"
)

func newService(t *testing.T, contest model.Contest, targets []string, now *time.Time) *Local {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "typerally.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		if cerr := st.Close(); cerr != nil {
			t.Errorf("failed to close store: %v", cerr)
		}
	})
	ctx := context.Background()
	contest.CreatedAt = *now
	if err := st.CreateContest(ctx, contest); err != nil {
		t.Fatalf("failed to create contest: %v", err)
	}
	for i, target := range targets {
		prompt := model.Prompt{
			ID:           contest.ID + "-p" + string(rune('0'+i)),
			DisplayText:  target,
			TypingTarget: target,
			Language:     contest.Language,
			OrderIndex:   i,
		}
		if err := st.AddPrompt(ctx, contest.ID, prompt); err != nil {
			t.Fatalf("failed to add prompt: %v", err)
		}
	}
	return New(st, WithClock(func() time.Time { return *now }))
}

func TestStartSessionRotatesFromFirstPrompt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	contest := model.Contest{ID: "c1", Title: "Sprint", TimeLimitSec: 60, Language: "en"}
	svc := newService(t, contest, []string{"alpha", "beta", "gamma"}, &now)
	ctx := context.Background()

	sess, err := svc.StartSession(ctx, "c1", "alice")
	if err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	if sess.OrderIndex != 0 || sess.Prompt.TypingTarget != "alpha" {
		t.Fatalf("expected first prompt, got %+v", sess.Prompt)
	}
	if sess.AttemptsUsed != 1 {
		t.Fatalf("expected attempts 1, got %d", sess.AttemptsUsed)
	}

	p, order, err := svc.NextPrompt(ctx, sess.ID)
	if err != nil {
		t.Fatalf("failed to fetch next prompt: %v", err)
	}
	if order != 1 || p.TypingTarget != "beta" {
		t.Fatalf("expected beta at order 1, got %q at %d", p.TypingTarget, order)
	}
	// Rotation wraps around.
	if _, order, err = svc.NextPrompt(ctx, sess.ID); err != nil || order != 2 {
		t.Fatalf("expected order 2, got %d (%v)", order, err)
	}
	if p, order, err = svc.NextPrompt(ctx, sess.ID); err != nil || order != 0 || p.TypingTarget != "alpha" {
		t.Fatalf("expected wrap to alpha, got %q at %d (%v)", p.TypingTarget, order, err)
	}
}

func TestStartSessionEnforcesAttemptLimit(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	contest := model.Contest{ID: "c1", Title: "Sprint", TimeLimitSec: 60, MaxAttempts: 2, Language: "en"}
	svc := newService(t, contest, []string{"alpha"}, &now)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.StartSession(ctx, "c1", "alice"); err != nil {
			t.Fatalf("attempt %d failed: %v", i+1, err)
		}
	}
	if _, err := svc.StartSession(ctx, "c1", "alice"); err == nil {
		t.Fatalf("expected attempt limit error")
	}
	// Other users are unaffected.
	if _, err := svc.StartSession(ctx, "c1", "bob"); err != nil {
		t.Fatalf("expected bob to start, got %v", err)
	}
}

func TestStartSessionRequiresPrompts(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	contest := model.Contest{ID: "empty", Title: "Empty", TimeLimitSec: 60, Language: "en"}
	svc := newService(t, contest, nil, &now)
	if _, err := svc.StartSession(context.Background(), "empty", "alice"); err == nil {
		t.Fatalf("expected error for contest without prompts")
	}
}

func TestFinishSessionRecomputesAuthoritatively(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	contest := model.Contest{ID: "c1", Title: "Sprint", TimeLimitSec: 60, Language: "en"}
	svc := newService(t, contest, []string{"abc"}, &now)
	ctx := context.Background()

	sess, err := svc.StartSession(ctx, "c1", "alice")
	if err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	now = now.Add(30 * time.Second)

	// Inflated client numbers must not survive the recompute.
	req := model.FinishRequest{
		CPM:      9000,
		Score:    99999,
		Errors:   1,
		Accuracy: 1,
		Keylog: []model.KeyLogEntry{
			{T: 100, K: "a", OK: true},
			{T: 300, K: "b", OK: true},
			{T: 500, K: "x", OK: false},
			{T: 700, K: "c", OK: true},
		},
		Flags: model.ClientFlags{Defocus: 2, PasteBlocked: true},
	}
	res, err := svc.FinishSession(ctx, sess.ID, "c1", req)
	if err != nil {
		t.Fatalf("failed to finish session: %v", err)
	}
	// 3 correct over 30s.
	if res.CPM != 6 {
		t.Fatalf("expected recomputed cpm 6, got %d", res.CPM)
	}
	if res.Accuracy != 0.75 {
		t.Fatalf("expected recomputed accuracy 0.75, got %v", res.Accuracy)
	}
	if res.Score >= 99999 {
		t.Fatalf("expected recomputed score, got %d", res.Score)
	}
	if res.Errors != 1 {
		t.Fatalf("expected 1 error, got %d", res.Errors)
	}
	// Perfectly regular cadence flags as anomalous.
	if res.Flags.AnomalyScore != 1.0 {
		t.Fatalf("expected anomaly 1.0, got %v", res.Flags.AnomalyScore)
	}
	if res.Flags.Defocus != 2 || !res.Flags.PasteBlocked {
		t.Fatalf("expected client flags carried over, got %+v", res.Flags)
	}
}

func TestLeaderboardBestPerUser(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	contest := model.Contest{ID: "c1", Title: "Sprint", TimeLimitSec: 60, Language: "en"}
	svc := newService(t, contest, []string{"aaaaaaaaaaaaaaaaaaaa"}, &now)
	ctx := context.Background()

	finish := func(user string, correct int) *model.SessionResult {
		t.Helper()
		sess, err := svc.StartSession(ctx, "c1", user)
		if err != nil {
			t.Fatalf("failed to start session for %s: %v", user, err)
		}
		now = now.Add(60 * time.Second)
		keylog := make([]model.KeyLogEntry, 0, correct)
		for i := 0; i < correct; i++ {
			keylog = append(keylog, model.KeyLogEntry{T: int64(i*150 + (i%3)*40), K: "a", OK: true})
		}
		res, err := svc.FinishSession(ctx, sess.ID, "c1", model.FinishRequest{Keylog: keylog})
		if err != nil {
			t.Fatalf("failed to finish session for %s: %v", user, err)
		}
		return res
	}

	finish("alice", 10)
	aliceBest := finish("alice", 18)
	finish("bob", 14)

	page, err := svc.Leaderboard(ctx, "c1", "alice")
	if err != nil {
		t.Fatalf("failed to load leaderboard: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("expected one entry per user, got total %d", page.Total)
	}
	if page.Top[0].UserID != "alice" || page.Top[0].Rank != 1 {
		t.Fatalf("expected alice first, got %+v", page.Top[0])
	}
	if page.Top[0].SessionID != aliceBest.SessionID {
		t.Fatalf("expected alice's best session on top")
	}
	if page.Me == nil || page.Me.UserID != "alice" {
		t.Fatalf("expected viewer row, got %+v", page.Me)
	}
}
