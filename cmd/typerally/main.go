// Package main provides the CLI entrypoint for typerally.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/typerally/typerally/internal/boardui"
	"github.com/typerally/typerally/internal/config"
	"github.com/typerally/typerally/internal/engine"
	"github.com/typerally/typerally/internal/model"
	"github.com/typerally/typerally/internal/promptgen"
	"github.com/typerally/typerally/internal/report"
	"github.com/typerally/typerally/internal/service"
	"github.com/typerally/typerally/internal/store"
	"github.com/typerally/typerally/internal/tui"
)

const (
	defaultUser       = ""
	defaultLang       = "en"
	defaultTimeLimit  = 60
	defaultAttempts   = 0
	defaultTop        = 10
	defaultRefreshSec = 5
	defaultSeedWords  = 12
)

var (
	playContest  string
	playUser     string
	playAutoNext bool

	createTitle     string
	createTimeLimit int
	createBackspace bool
	createLang      string
	createAttempts  int
	createSeed      int

	promptContest string
	promptText    string
	promptTarget  string
	promptLang    string

	boardContest string
	boardUser    string
	boardTop     int
	boardRefresh int
	boardPlain   bool

	resultsContest string
	resultsUser    string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "typerally",
		Short:         "Terminal typing contests",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}

	rootCmd.Flags().StringVar(&playContest, "contest", "", "contest ID to play")
	rootCmd.Flags().StringVar(&playUser, "user", defaultUser, "username on the leaderboard")
	rootCmd.Flags().BoolVar(&playAutoNext, "auto-next", false, "start the next attempt automatically")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newContestCmd())
	rootCmd.AddCommand(newPromptCmd())
	rootCmd.AddCommand(newLeaderboardCmd())
	rootCmd.AddCommand(newResultsCmd())

	return rootCmd
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "contest", &playContest, fileCfg.Play.Contest)
	applyStringConfig(cmd, "user", &playUser, fileCfg.Play.User)
	applyBoolConfig(cmd, "auto-next", &playAutoNext, fileCfg.Play.AutoNext)

	if playContest == "" {
		return fmt.Errorf("--contest is required (run: typerally contest list)")
	}
	if playUser == "" {
		playUser = os.Getenv("USER")
	}
	if playUser == "" {
		return fmt.Errorf("--user is required")
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	contest, err := st.GetContest(context.Background(), playContest)
	if err != nil {
		return fmt.Errorf("failed to load contest %q: %w", playContest, err)
	}

	svc := service.New(st)
	eng := engine.New(contest, playUser, engine.WithAutoNext(playAutoNext))
	boardCfg := model.BoardConfig{Top: defaultTop, RefreshSeconds: defaultRefreshSec}
	if fileCfg.Leaderboard.Top != nil {
		boardCfg.Top = *fileCfg.Leaderboard.Top
	}
	if fileCfg.Leaderboard.RefreshSeconds != nil {
		boardCfg.RefreshSeconds = *fileCfg.Leaderboard.RefreshSeconds
	}

	m := tui.NewModel(contest, playUser, eng, svc, svc, boardCfg)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithReportFocus())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newContestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contest",
		Short: "Manage contests",
	}
	cmd.AddCommand(newContestCreateCmd())
	cmd.AddCommand(newContestListCmd())
	return cmd
}

func newContestCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a contest",
		Args:  cobra.NoArgs,
		RunE:  runContestCreateCmd,
	}
	cmd.Flags().StringVar(&createTitle, "title", "", "contest title")
	cmd.Flags().IntVar(&createTimeLimit, "time-limit", defaultTimeLimit, "session time limit in seconds")
	cmd.Flags().BoolVar(&createBackspace, "allow-backspace", false, "allow backspace corrections")
	cmd.Flags().StringVar(&createLang, "lang", defaultLang, "prompt language code")
	cmd.Flags().IntVar(&createAttempts, "max-attempts", defaultAttempts, "attempt limit per user (0 = unlimited)")
	cmd.Flags().IntVar(&createSeed, "seed", 0, "generate N prompts for the new contest")
	return cmd
}

func runContestCreateCmd(cmd *cobra.Command, _ []string) error {
	if createTitle == "" {
		return fmt.Errorf("--title is required")
	}
	if createTimeLimit <= 0 {
		return fmt.Errorf("--time-limit must be > 0")
	}
	if createAttempts < 0 {
		return fmt.Errorf("--max-attempts must be >= 0")
	}
	if createSeed < 0 {
		return fmt.Errorf("--seed must be >= 0")
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	contest := model.Contest{
		ID:             uuid.NewString(),
		Title:          createTitle,
		TimeLimitSec:   createTimeLimit,
		AllowBackspace: createBackspace,
		Language:       createLang,
		MaxAttempts:    createAttempts,
		CreatedAt:      time.Now(),
	}
	if err := st.CreateContest(context.Background(), contest); err != nil {
		return fmt.Errorf("failed to create contest: %w", err)
	}

	if createSeed > 0 {
		gen := promptgen.New()
		for i, text := range gen.Sentences(createSeed, defaultSeedWords, true) {
			prompt := model.Prompt{
				ID:           uuid.NewString(),
				DisplayText:  text,
				TypingTarget: text,
				Language:     createLang,
				OrderIndex:   i,
			}
			if err := st.AddPrompt(context.Background(), contest.ID, prompt); err != nil {
				return fmt.Errorf("failed to seed prompt %d: %w", i, err)
			}
		}
		logErrf("Seeded %d prompts\n", createSeed)
	}

	if _, err := fmt.Fprintln(cmd.OutOrStdout(), contest.ID); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newContestListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List contests",
		Args:  cobra.NoArgs,
		RunE:  runContestListCmd,
	}
}

func runContestListCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	contests, err := st.ListContests(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list contests: %w", err)
	}
	if len(contests) == 0 {
		logErrln("No contests yet. Create one with: typerally contest create --title <title>")
		return nil
	}
	for _, contest := range contests {
		limits := fmt.Sprintf("%ds", contest.TimeLimitSec)
		if contest.MaxAttempts > 0 {
			limits += fmt.Sprintf(", %d attempts", contest.MaxAttempts)
		}
		line := fmt.Sprintf("%s  %s (%s)", contest.ID, contest.Title, limits)
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newPromptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Manage contest prompts",
	}
	cmd.AddCommand(newPromptAddCmd())
	cmd.AddCommand(newPromptListCmd())
	return cmd
}

func newPromptAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a prompt to a contest",
		Args:  cobra.NoArgs,
		RunE:  runPromptAddCmd,
	}
	cmd.Flags().StringVar(&promptContest, "contest", "", "contest ID")
	cmd.Flags().StringVar(&promptText, "text", "", "display text")
	cmd.Flags().StringVar(&promptTarget, "target", "", "typing target (default: display text)")
	cmd.Flags().StringVar(&promptLang, "lang", "", "language code (default: contest language)")
	return cmd
}

func runPromptAddCmd(cmd *cobra.Command, _ []string) error {
	if promptContest == "" {
		return fmt.Errorf("--contest is required")
	}
	if promptText == "" {
		return fmt.Errorf("--text is required")
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	contest, err := st.GetContest(context.Background(), promptContest)
	if err != nil {
		return fmt.Errorf("failed to load contest %q: %w", promptContest, err)
	}
	existing, err := st.ListPrompts(context.Background(), contest.ID)
	if err != nil {
		return fmt.Errorf("failed to list prompts: %w", err)
	}

	target := promptTarget
	if target == "" {
		target = promptText
	}
	lang := promptLang
	if lang == "" {
		lang = contest.Language
	}
	prompt := model.Prompt{
		ID:           uuid.NewString(),
		DisplayText:  promptText,
		TypingTarget: target,
		Language:     lang,
		OrderIndex:   len(existing),
	}
	if err := st.AddPrompt(context.Background(), contest.ID, prompt); err != nil {
		return fmt.Errorf("failed to add prompt: %w", err)
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), prompt.ID); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newPromptListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List prompts for a contest",
		Args:  cobra.NoArgs,
		RunE:  runPromptListCmd,
	}
	cmd.Flags().StringVar(&promptContest, "contest", "", "contest ID")
	return cmd
}

func runPromptListCmd(cmd *cobra.Command, _ []string) error {
	if promptContest == "" {
		return fmt.Errorf("--contest is required")
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	prompts, err := st.ListPrompts(context.Background(), promptContest)
	if err != nil {
		return fmt.Errorf("failed to list prompts: %w", err)
	}
	if len(prompts) == 0 {
		logErrln("No prompts yet. Add one with: typerally prompt add --contest <id> --text <text>")
		return nil
	}
	for _, prompt := range prompts {
		line := fmt.Sprintf("%2d  %s  %s", prompt.OrderIndex, prompt.ID, prompt.DisplayText)
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newLeaderboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show a contest leaderboard",
		Args:  cobra.NoArgs,
		RunE:  runLeaderboardCmd,
	}
	cmd.Flags().StringVar(&boardContest, "contest", "", "contest ID")
	cmd.Flags().StringVar(&boardUser, "user", defaultUser, "highlight this user's personal row")
	cmd.Flags().IntVar(&boardTop, "top", defaultTop, "number of top entries")
	cmd.Flags().IntVar(&boardRefresh, "refresh", defaultRefreshSec, "refresh interval in seconds")
	cmd.Flags().BoolVar(&boardPlain, "plain", false, "print once without the TUI")
	return cmd
}

func runLeaderboardCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "contest", &boardContest, fileCfg.Play.Contest)
	applyStringConfig(cmd, "user", &boardUser, fileCfg.Play.User)
	applyIntConfig(cmd, "top", &boardTop, fileCfg.Leaderboard.Top)
	applyIntConfig(cmd, "refresh", &boardRefresh, fileCfg.Leaderboard.RefreshSeconds)

	if boardContest == "" {
		return fmt.Errorf("--contest is required (run: typerally contest list)")
	}
	if boardTop <= 0 {
		return fmt.Errorf("--top must be > 0")
	}
	if boardRefresh <= 0 {
		return fmt.Errorf("--refresh must be > 0")
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	contest, err := st.GetContest(context.Background(), boardContest)
	if err != nil {
		return fmt.Errorf("failed to load contest %q: %w", boardContest, err)
	}
	svc := service.New(st, service.WithTop(boardTop))

	if boardPlain {
		page, err := svc.Leaderboard(context.Background(), contest.ID, boardUser)
		if err != nil {
			return fmt.Errorf("failed to load leaderboard: %w", err)
		}
		if err := report.RenderLeaderboard(cmd.OutOrStdout(), page); err != nil {
			return fmt.Errorf("failed to render leaderboard: %w", err)
		}
		return nil
	}

	m := boardui.NewModel(contest, boardUser, svc, model.BoardConfig{
		Top:            boardTop,
		RefreshSeconds: boardRefresh,
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run leaderboard TUI: %w", err)
	}
	return nil
}

func newResultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Show finished session results",
		Args:  cobra.NoArgs,
		RunE:  runResultsCmd,
	}
	cmd.Flags().StringVar(&resultsContest, "contest", "", "contest filter")
	cmd.Flags().StringVar(&resultsUser, "user", defaultUser, "user filter")
	return cmd
}

func runResultsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "contest", &resultsContest, fileCfg.Play.Contest)
	applyStringConfig(cmd, "user", &resultsUser, fileCfg.Play.User)

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	results, err := st.ListResults(context.Background(), resultsContest, resultsUser)
	if err != nil {
		return fmt.Errorf("failed to list results: %w", err)
	}
	if err := report.RenderResults(cmd.OutOrStdout(), results, report.TerminalWidth()); err != nil {
		return fmt.Errorf("failed to render results: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# typerally configuration
# Uncomment a value to enable it. CLI flags override config values.

[play]
# contest = ""            # Default contest ID
# user = ""               # Leaderboard username
# auto-next = false       # Start the next attempt automatically

[leaderboard]
# top = %d                # Number of top entries
# refresh-seconds = %d    # Leaderboard refresh interval
`,
		defaultTop,
		defaultRefreshSec,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
