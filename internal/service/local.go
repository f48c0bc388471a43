// Package service implements the session and leaderboard collaborators
// on top of the local store.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/typerally/typerally/internal/metrics"
	"github.com/typerally/typerally/internal/model"
	"github.com/typerally/typerally/internal/rank"
	"github.com/typerally/typerally/internal/store"
)

// Local serves contests from the SQLite store. It is the authoritative
// side of the engine's collaborator contracts: finish submissions are
// recomputed here rather than trusted as sent.
type Local struct {
	store *store.Store
	now   func() time.Time
	top   int
}

// Option configures a Local service.
type Option func(*Local)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Local) { l.now = now }
}

// WithTop overrides how many leaderboard entries are exposed.
func WithTop(top int) Option {
	return func(l *Local) { l.top = top }
}

// New returns a service backed by the given store.
func New(st *store.Store, opts ...Option) *Local {
	l := &Local{store: st, now: time.Now, top: rank.DefaultTop}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// StartSession opens a new session for a contest, enforcing the
// contest's attempt limit when one is set.
func (l *Local) StartSession(ctx context.Context, contestID, user string) (*model.Session, error) {
	contest, err := l.store.GetContest(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contest: %w", err)
	}
	used, err := l.store.CountSessions(ctx, contestID, user)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}
	if contest.MaxAttempts > 0 && used >= contest.MaxAttempts {
		return nil, fmt.Errorf("attempt limit reached (%d of %d)", used, contest.MaxAttempts)
	}
	prompts, err := l.store.ListPrompts(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}
	if len(prompts) == 0 {
		return nil, fmt.Errorf("contest %s has no prompts", contestID)
	}

	sess := model.Session{
		ID:           uuid.NewString(),
		ContestID:    contestID,
		User:         user,
		Prompt:       prompts[0],
		StartedAt:    l.now(),
		AttemptsUsed: used + 1,
		OrderIndex:   0,
	}
	if err := l.store.InsertSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to record session: %w", err)
	}
	return &sess, nil
}

// NextPrompt returns the next prompt in the contest's rotation for a
// session, wrapping around at the end.
func (l *Local) NextPrompt(ctx context.Context, sessionID string) (model.Prompt, int, error) {
	sess, err := l.store.GetSession(ctx, sessionID)
	if err != nil {
		return model.Prompt{}, 0, fmt.Errorf("failed to load session: %w", err)
	}
	prompts, err := l.store.ListPrompts(ctx, sess.ContestID)
	if err != nil {
		return model.Prompt{}, 0, fmt.Errorf("failed to load prompts: %w", err)
	}
	if len(prompts) == 0 {
		return model.Prompt{}, 0, fmt.Errorf("contest %s has no prompts", sess.ContestID)
	}
	next := (sess.OrderIndex + 1) % len(prompts)
	if err := l.store.UpdateSessionOrder(ctx, sessionID, next); err != nil {
		return model.Prompt{}, 0, fmt.Errorf("failed to advance session: %w", err)
	}
	return prompts[next], next, nil
}

// FinishSession validates and stores a finished session. The returned
// result is authoritative: speed and score are recomputed from the
// submitted keylog and the server's own clock, so a tampered payload
// cannot inflate the leaderboard.
func (l *Local) FinishSession(ctx context.Context, sessionID, contestID string, req model.FinishRequest) (*model.SessionResult, error) {
	sess, err := l.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	contest, err := l.store.GetContest(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contest: %w", err)
	}

	correct := 0
	mistakes := 0
	for _, entry := range req.Keylog {
		if entry.OK {
			correct++
		} else {
			mistakes++
		}
	}
	// Disallowed backspaces are counted client-side but never logged.
	if req.Errors > mistakes {
		mistakes = req.Errors
	}

	limit := float64(contest.TimeLimitSec)
	elapsed := l.now().Sub(sess.StartedAt).Seconds()
	if elapsed > limit {
		elapsed = limit
	}
	if elapsed < 1 {
		elapsed = 1
	}

	acc := metrics.Accuracy(correct, correct+mistakes)
	cpm := metrics.CPM(correct, elapsed)
	res := model.SessionResult{
		SessionID: sessionID,
		ContestID: contestID,
		User:      sess.User,
		CPM:       cpm,
		WPM:       metrics.WPM(cpm),
		Accuracy:  acc,
		Score:     metrics.Score(cpm, acc),
		Errors:    mistakes,
		Keylog:    req.Keylog,
		Flags: model.ClientFlags{
			Defocus:      req.Flags.Defocus,
			PasteBlocked: req.Flags.PasteBlocked,
			AnomalyScore: metrics.AnomalyScore(keylogIntervals(req.Keylog)),
		},
		CompletedAt: l.now(),
	}
	if err := l.store.InsertResult(ctx, res); err != nil {
		return nil, fmt.Errorf("failed to store result: %w", err)
	}
	return &res, nil
}

// Leaderboard ranks each participant's best result and returns the top
// page plus the viewer's own row.
func (l *Local) Leaderboard(ctx context.Context, contestID, user string) (model.LeaderboardPage, error) {
	results, err := l.store.ListResults(ctx, contestID, "")
	if err != nil {
		return model.LeaderboardPage{}, fmt.Errorf("failed to load results: %w", err)
	}

	entries := make([]model.LeaderboardEntry, 0, len(results))
	for _, res := range results {
		entries = append(entries, model.LeaderboardEntry{
			SessionID: res.SessionID,
			UserID:    res.User,
			Username:  res.User,
			Score:     res.Score,
			CPM:       res.CPM,
			Accuracy:  res.Accuracy,
		})
	}
	best := bestPerUser(entries)

	viewerSession := ""
	for _, entry := range best {
		if entry.UserID == user {
			viewerSession = entry.SessionID
			break
		}
	}
	return rank.View(best, viewerSession, l.top), nil
}

// bestPerUser keeps each user's strongest entry under the ranking
// order.
func bestPerUser(entries []model.LeaderboardEntry) []model.LeaderboardEntry {
	ordered := rank.Order(entries)
	seen := make(map[string]struct{}, len(ordered))
	out := make([]model.LeaderboardEntry, 0, len(ordered))
	for _, entry := range ordered {
		if _, ok := seen[entry.UserID]; ok {
			continue
		}
		seen[entry.UserID] = struct{}{}
		out = append(out, entry)
	}
	return out
}

func keylogIntervals(keylog []model.KeyLogEntry) []float64 {
	if len(keylog) < 2 {
		return nil
	}
	intervals := make([]float64, 0, len(keylog)-1)
	for i := 1; i < len(keylog); i++ {
		intervals = append(intervals, float64(keylog[i].T-keylog[i-1].T))
	}
	return intervals
}
