// Package boardui provides the Bubble Tea leaderboard viewer.
package boardui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/typerally/typerally/internal/engine"
	"github.com/typerally/typerally/internal/model"
	"github.com/typerally/typerally/internal/rank"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

type refreshMsg time.Time

type pageMsg struct {
	page model.LeaderboardPage
	err  error
}

// Model implements the Bubble Tea leaderboard UI.
type Model struct {
	contest model.Contest
	user    string
	board   engine.LeaderboardService
	refresh time.Duration

	page    model.LeaderboardPage
	table   table.Model
	errMsg  string
	updated time.Time

	width  int
	height int
}

// NewModel constructs a leaderboard viewer for one contest.
func NewModel(contest model.Contest, user string, board engine.LeaderboardService, cfg model.BoardConfig) *Model {
	refresh := time.Duration(cfg.RefreshSeconds) * time.Second
	if refresh <= 0 {
		refresh = 5 * time.Second
	}
	return &Model{
		contest: contest,
		user:    user,
		board:   board,
		refresh: refresh,
		table:   buildTable(model.LeaderboardPage{}),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), m.refreshCmd())
}

func (m *Model) refreshCmd() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func (m *Model) fetchCmd() tea.Cmd {
	return func() tea.Msg {
		page, err := m.board.Leaderboard(context.Background(), m.contest.ID, m.user)
		return pageMsg{page: page, err: err}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width)
		return m, nil
	case refreshMsg:
		return m, tea.Batch(m.fetchCmd(), m.refreshCmd())
	case pageMsg:
		if msg.err != nil {
			m.errMsg = "failed to refresh leaderboard"
			return m, nil
		}
		m.errMsg = ""
		m.page = msg.page
		m.updated = time.Now()
		m.table = buildTable(msg.page)
		if m.width > 0 {
			m.table.SetWidth(m.width)
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "r":
			return m, m.fetchCmd()
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	title := m.contest.Title
	if title == "" {
		title = m.contest.ID
	}
	header := titleStyle.Render(fmt.Sprintf("Leaderboard · %s", title))
	body := m.table.View()
	footer := footerStyle.Render(fmt.Sprintf("%d entries · refresh %s · q quit", m.page.Total, m.refresh))
	if m.errMsg != "" {
		footer = errorStyle.Render(m.errMsg)
	}
	return header + "\n" + body + "\n" + footer
}

func buildTable(page model.LeaderboardPage) table.Model {
	columns := []table.Column{
		{Title: "Rank", Width: 4},
		{Title: "User", Width: 18},
		{Title: "Score", Width: 6},
		{Title: "CPM", Width: 5},
		{Title: "Accuracy", Width: 8},
	}
	rows := make([]table.Row, 0, len(page.Top)+1)
	for _, entry := range page.Top {
		rows = append(rows, buildRow(entry, false))
	}
	if me := rank.Personal(page); me != nil {
		rows = append(rows, buildRow(*me, true))
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(maxInt(1, len(rows)+1)),
	)
	t.SetStyles(boardTableStyles())
	return t
}

func buildRow(entry model.LeaderboardEntry, personal bool) table.Row {
	user := entry.Username
	if user == "" {
		user = "anonymous"
	}
	if personal {
		user += " (you)"
	}
	return table.Row{
		fmt.Sprintf("%d", entry.Rank),
		user,
		fmt.Sprintf("%d", entry.Score),
		fmt.Sprintf("%d", entry.CPM),
		fmt.Sprintf("%.1f%%", entry.Accuracy*100),
	}
}

func boardTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
