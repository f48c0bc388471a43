// Package report renders plain-text contest reports.
package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/typerally/typerally/internal/model"
	"github.com/typerally/typerally/internal/rank"
)

const sparkChars = " .:-=+*#%@"

const terminalWidthBackup = 80

// TerminalWidth returns the stdout width or a fallback.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
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

// RenderLeaderboard prints the ranked page with the personal row, when
// one applies, appended below the top.
func RenderLeaderboard(w io.Writer, page model.LeaderboardPage) error {
	if len(page.Top) == 0 {
		_, err := fmt.Fprintln(w, "No results yet.")
		return err
	}
	headers := []string{"Rank", "User", "Score", "CPM", "Accuracy"}
	rows := make([][]string, 0, len(page.Top)+1)
	for _, entry := range page.Top {
		rows = append(rows, leaderboardRow(entry, false))
	}
	if me := rank.Personal(page); me != nil {
		rows = append(rows, leaderboardRow(*me, true))
	}
	rightAlign := map[int]bool{0: true, 2: true, 3: true, 4: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Entries: %d\n", page.Total)
	return err
}

func leaderboardRow(entry model.LeaderboardEntry, personal bool) []string {
	user := entry.Username
	if user == "" {
		user = "anonymous"
	}
	if personal {
		user += " (you)"
	}
	return []string{
		fmt.Sprintf("%d", entry.Rank),
		user,
		fmt.Sprintf("%d", entry.Score),
		fmt.Sprintf("%d", entry.CPM),
		fmt.Sprintf("%.1f%%", entry.Accuracy*100),
	}
}

// RenderResults prints a user's result history, newest first, followed
// by a chronological score trend.
func RenderResults(w io.Writer, results []model.SessionResult, width int) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No results found.")
		return err
	}
	headers := []string{"Completed", "Score", "CPM", "WPM", "Accuracy", "Errors", "Anomaly"}
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		rows = append(rows, []string{
			res.CompletedAt.Local().Format(time.DateTime),
			fmt.Sprintf("%d", res.Score),
			fmt.Sprintf("%d", res.CPM),
			fmt.Sprintf("%d", res.WPM),
			fmt.Sprintf("%.1f%%", res.Accuracy*100),
			fmt.Sprintf("%d", res.Errors),
			fmt.Sprintf("%.2f", res.Flags.AnomalyScore),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	scores := make([]float64, 0, len(results))
	for i := len(results) - 1; i >= 0; i-- {
		scores = append(scores, float64(results[i].Score))
	}
	if width > 0 && len(scores) > width {
		scores = scores[len(scores)-width:]
	}
	_, err := fmt.Fprintf(w, "Score trend: %s\n", Sparkline(scores))
	return err
}
