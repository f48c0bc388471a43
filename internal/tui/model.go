// Package tui provides the Bubble Tea play interface.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/typerally/typerally/internal/engine"
	"github.com/typerally/typerally/internal/model"
	"github.com/typerally/typerally/internal/rank"
)

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = pendingStyle.Copy().Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	warningStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5A144"))
	errorTextStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0")).Bold(true)
	boardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	personalRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
)

type tickMsg time.Time

type pollMsg time.Time

type sessionStartedMsg struct {
	sess *model.Session
	err  error
}

type promptMsg struct {
	prompt model.Prompt
	order  int
	err    error
}

type finishedMsg struct {
	res *model.SessionResult
	err error
}

type boardMsg struct {
	page model.LeaderboardPage
	err  error
}

// Model implements the Bubble Tea play UI around the session engine.
type Model struct {
	contest  model.Contest
	user     string
	eng      *engine.Engine
	svc      engine.SessionService
	board    engine.LeaderboardService
	boardCfg model.BoardConfig

	width  int
	height int

	boardPage model.LeaderboardPage
	boardErr  bool
}

// NewModel constructs a play model for one contest.
func NewModel(contest model.Contest, user string, eng *engine.Engine, svc engine.SessionService, board engine.LeaderboardService, boardCfg model.BoardConfig) *Model {
	if boardCfg.Top <= 0 {
		boardCfg.Top = rank.DefaultTop
	}
	if boardCfg.RefreshSeconds <= 0 {
		boardCfg.RefreshSeconds = 5
	}
	return &Model{
		contest:  contest,
		user:     user,
		eng:      eng,
		svc:      svc,
		board:    board,
		boardCfg: boardCfg,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(), m.fetchBoardCmd(), m.pollCmd()}
	if m.eng.BeginStart() {
		cmds = append(cmds, m.startCmd())
	}
	return tea.Batch(cmds...)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) pollCmd() tea.Cmd {
	return tea.Tick(time.Duration(m.boardCfg.RefreshSeconds)*time.Second, func(t time.Time) tea.Msg {
		return pollMsg(t)
	})
}

func (m *Model) startCmd() tea.Cmd {
	return func() tea.Msg {
		sess, err := m.svc.StartSession(context.Background(), m.contest.ID, m.user)
		return sessionStartedMsg{sess: sess, err: err}
	}
}

func (m *Model) advanceCmd() tea.Cmd {
	sess := m.eng.Session()
	if sess == nil {
		return nil
	}
	sessionID := sess.ID
	return func() tea.Msg {
		prompt, order, err := m.svc.NextPrompt(context.Background(), sessionID)
		return promptMsg{prompt: prompt, order: order, err: err}
	}
}

func (m *Model) finishCmd() tea.Cmd {
	sess := m.eng.Session()
	if sess == nil {
		return nil
	}
	sessionID := sess.ID
	contestID := sess.ContestID
	payload := m.eng.FinishPayload()
	return func() tea.Msg {
		res, err := m.svc.FinishSession(context.Background(), sessionID, contestID, payload)
		return finishedMsg{res: res, err: err}
	}
}

func (m *Model) fetchBoardCmd() tea.Cmd {
	return func() tea.Msg {
		page, err := m.board.Leaderboard(context.Background(), m.contest.ID, m.user)
		return boardMsg{page: page, err: err}
	}
}

func (m *Model) runEffect(eff engine.Effect) tea.Cmd {
	switch eff {
	case engine.EffectStart:
		return m.startCmd()
	case engine.EffectAdvance:
		return m.advanceCmd()
	case engine.EffectFinish:
		return m.finishCmd()
	default:
		return nil
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		return m, tea.Batch(tickCmd(), m.runEffect(m.eng.Tick()))
	case pollMsg:
		return m, tea.Batch(m.fetchBoardCmd(), m.pollCmd())
	case boardMsg:
		if msg.err != nil {
			m.boardErr = true
			return m, nil
		}
		m.boardErr = false
		m.boardPage = msg.page
		return m, nil
	case sessionStartedMsg:
		m.eng.ApplyStart(msg.sess, msg.err)
		return m, nil
	case promptMsg:
		return m, m.runEffect(m.eng.ApplyAdvance(msg.prompt, msg.order, msg.err))
	case finishedMsg:
		return m, tea.Batch(m.runEffect(m.eng.ApplyFinish(msg.res, msg.err)), m.fetchBoardCmd())
	case tea.FocusMsg:
		m.eng.Refocus()
		return m, nil
	case tea.BlurMsg:
		m.eng.Defocus()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyCtrlN:
		m.eng.SetAutoNext(!m.eng.AutoNext())
		return m, nil
	case tea.KeyEnter:
		switch m.eng.State() {
		case engine.StateIdle, engine.StateError:
			if m.eng.BeginStart() {
				return m, m.startCmd()
			}
			return m, nil
		case engine.StateFinishing:
			return m, m.runEffect(m.eng.RetryFinish())
		default:
			return m, nil
		}
	case tea.KeyTab:
		m.eng.HandleKey(engine.Key{Kind: engine.KeyTab})
		return m, nil
	case tea.KeyBackspace, tea.KeyDelete:
		m.eng.HandleKey(engine.Key{Kind: engine.KeyBackspace})
		return m, nil
	case tea.KeySpace:
		return m, m.runEffect(m.eng.HandleKey(engine.Key{Kind: engine.KeyRune, Rune: ' ', Modified: msg.Alt}))
	case tea.KeyRunes:
		var cmds []tea.Cmd
		for _, r := range msg.Runes {
			if cmd := m.runEffect(m.eng.HandleKey(engine.Key{Kind: engine.KeyRune, Rune: r, Modified: msg.Alt})); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
		return m, tea.Batch(cmds...)
	default:
		m.eng.HandleKey(engine.Key{Kind: engine.KeyOther})
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	sections := []string{
		m.renderHeader(),
		"",
		m.renderTarget(),
		"",
		m.renderFooter(),
	}
	if warn := m.renderWarnings(); warn != "" {
		sections = append(sections, warn)
	}
	if result := m.renderLastResult(); result != "" {
		sections = append(sections, "", result)
	}
	sections = append(sections, "", m.renderBoard(), "", m.renderHelp())
	content := strings.Join(sections, "\n")
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) renderHeader() string {
	title := m.contest.Title
	if title == "" {
		title = m.contest.ID
	}
	return headerStyle.Render(fmt.Sprintf("%s · %ds left · prompt %d", title, m.eng.Remaining(), m.eng.OrderIndex()+1))
}

func (m *Model) renderTarget() string {
	switch m.eng.State() {
	case engine.StateStarting:
		return pendingStyle.Render("Starting session...")
	case engine.StateAdvancing:
		return pendingStyle.Render("Fetching next prompt...")
	case engine.StateFinishing:
		return pendingStyle.Render("Submitting result...")
	case engine.StateIdle:
		return pendingStyle.Render("Press Enter to start a session.")
	case engine.StateError:
		return errorTextStyle.Render(m.eng.ErrMsg())
	}
	prompt := m.eng.Prompt()
	if prompt == nil {
		return ""
	}
	styled := buildStyledRunes(m.eng.Target(), m.eng.Cursor(), m.eng.HasError())
	contentWidth := 0
	if m.width > 0 {
		contentWidth = int(float64(m.width) * 0.70)
		if contentWidth < 1 {
			contentWidth = 1
		}
	}
	target := wrapStyledRunes(styled, contentWidth)
	if prompt.DisplayText == prompt.TypingTarget {
		return target
	}
	return pendingStyle.Render(prompt.DisplayText) + "\n\n" + target
}

func (m *Model) renderFooter() string {
	target := m.eng.Target()
	progress := 0
	if len(target) > 0 {
		progress = m.eng.Cursor() * 100 / len(target)
	}
	segments := []string{
		fmt.Sprintf("Progress %d%%", progress),
		fmt.Sprintf("%d CPM", m.eng.CPM()),
		fmt.Sprintf("%d WPM", m.eng.WPM()),
		fmt.Sprintf("Accuracy %.1f%%", m.eng.Accuracy()*100),
		fmt.Sprintf("Errors %d", m.eng.Errors()),
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func (m *Model) renderWarnings() string {
	lines := []string{}
	if m.eng.FocusWarning() {
		lines = append(lines, warningStyle.Render(fmt.Sprintf("Focus lost, return to continue (count: %d)", m.eng.DefocusCount())))
	}
	if msg := m.eng.ErrMsg(); msg != "" && m.eng.State() != engine.StateError {
		lines = append(lines, errorTextStyle.Render(msg+" (Enter to retry)"))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderLastResult() string {
	res := m.eng.LastResult()
	if res == nil {
		return ""
	}
	return footerStyle.Render(fmt.Sprintf(
		"Last result: score %d · %d CPM · %.1f%% · %d errors",
		res.Score, res.CPM, res.Accuracy*100, res.Errors,
	))
}

func (m *Model) renderBoard() string {
	if m.boardErr {
		return errorTextStyle.Render("Leaderboard unavailable.")
	}
	if len(m.boardPage.Top) == 0 {
		return footerStyle.Render("Leaderboard: no results yet.")
	}
	var b strings.Builder
	b.WriteString(boardTitleStyle.Render(fmt.Sprintf("Leaderboard (%d entries)", m.boardPage.Total)))
	for _, entry := range m.boardPage.Top {
		b.WriteString("\n")
		b.WriteString(footerStyle.Render(boardLine(entry)))
	}
	if me := rank.Personal(m.boardPage); me != nil {
		b.WriteString("\n")
		b.WriteString(personalRowStyle.Render(boardLine(*me) + " (you)"))
	}
	return b.String()
}

func boardLine(entry model.LeaderboardEntry) string {
	user := entry.Username
	if user == "" {
		user = "anonymous"
	}
	return fmt.Sprintf("%2d. %-16s %5d  %dcpm / %.1f%%", entry.Rank, user, entry.Score, entry.CPM, entry.Accuracy*100)
}

func (m *Model) renderHelp() string {
	auto := "off"
	if m.eng.AutoNext() {
		auto = "on"
	}
	return footerStyle.Render(fmt.Sprintf("enter start/retry · ctrl+n auto-next (%s) · esc quit", auto))
}
