// Package rank orders leaderboard entries deterministically.
package rank

import (
	"sort"

	"github.com/typerally/typerally/internal/model"
)

// DefaultTop is the number of entries exposed to consumers.
const DefaultTop = 10

// Order sorts entries by score, then accuracy, then cpm, all
// descending, and assigns dense ranks by sorted position. Ties across
// all three keys still receive distinct consecutive ranks.
func Order(entries []model.LeaderboardEntry) []model.LeaderboardEntry {
	out := make([]model.LeaderboardEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Accuracy != out[j].Accuracy {
			return out[i].Accuracy > out[j].Accuracy
		}
		return out[i].CPM > out[j].CPM
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// View builds the consumer-facing page: the top N ranked entries plus
// the viewer's own row when it falls outside the top. A viewer already
// inside the top is never duplicated.
func View(entries []model.LeaderboardEntry, viewerSessionID string, top int) model.LeaderboardPage {
	if top <= 0 {
		top = DefaultTop
	}
	ordered := Order(entries)
	page := model.LeaderboardPage{Total: len(ordered)}
	n := top
	if n > len(ordered) {
		n = len(ordered)
	}
	page.Top = ordered[:n]
	if viewerSessionID == "" {
		return page
	}
	for _, entry := range ordered {
		if entry.SessionID != viewerSessionID {
			continue
		}
		me := entry
		page.Me = &me
		break
	}
	return page
}

// Personal returns the synthesized personal row for a page, or nil
// when the viewer is absent or already shown in the top.
func Personal(page model.LeaderboardPage) *model.LeaderboardEntry {
	if page.Me == nil {
		return nil
	}
	for _, entry := range page.Top {
		if entry.SessionID == page.Me.SessionID {
			return nil
		}
	}
	return page.Me
}
