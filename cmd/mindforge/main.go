// Package main provides the CLI entrypoint for mindforge.
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
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dkarlsv/mindforge/internal/config"
	"github.com/dkarlsv/mindforge/internal/model"
	"github.com/dkarlsv/mindforge/internal/reward"
	"github.com/dkarlsv/mindforge/internal/sequence"
	"github.com/dkarlsv/mindforge/internal/session"
	"github.com/dkarlsv/mindforge/internal/stats"
	"github.com/dkarlsv/mindforge/internal/statsui"
	"github.com/dkarlsv/mindforge/internal/store"
	"github.com/dkarlsv/mindforge/internal/submit"
	"github.com/dkarlsv/mindforge/internal/task"
	"github.com/dkarlsv/mindforge/internal/trial"
	"github.com/dkarlsv/mindforge/internal/tui"
)

const (
	defaultTask       = "letters"
	defaultDifficulty = "easy"
)

var (
	playTask       string
	playDifficulty string
	playServer     string
	playToken      string
	playSubmit     bool

	statsTask  string
	statsSince string
	statsLast  int
	statsPlain bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mindforge",
		Short:         "TUI cognitive training suite",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}

	rootCmd.Flags().StringVar(&playTask, "task", defaultTask, "exercise to train (see: mindforge tasks)")
	rootCmd.Flags().StringVar(&playDifficulty, "difficulty", defaultDifficulty, "difficulty (easy, medium, hard, expert)")
	rootCmd.Flags().StringVar(&playServer, "server", "", "score service base URL (empty: no submission)")
	rootCmd.Flags().StringVar(&playToken, "token", "", "score service bearer token")
	rootCmd.Flags().BoolVar(&playSubmit, "submit", true, "submit completed sessions to the score service")

	rootCmd.AddCommand(newTasksCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "task", &playTask, fileCfg.Play.Task)
	applyStringConfig(cmd, "difficulty", &playDifficulty, fileCfg.Play.Difficulty)
	applyStringConfig(cmd, "server", &playServer, fileCfg.Play.Server)
	applyStringConfig(cmd, "token", &playToken, fileCfg.Play.Token)
	applyBoolConfig(cmd, "submit", &playSubmit, fileCfg.Play.Submit)

	// Fail on an invalid selection before any session state exists.
	if _, err := task.Profile(playTask, playDifficulty); err != nil {
		return err
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

	calc := reward.NewCalculator(fileCfg.Reward.Apply(reward.DefaultConfig()))
	gen := sequence.New()

	var submitter session.Submitter
	if playSubmit && playServer != "" {
		submitter = submit.NewClient(playServer, playToken)
	}

	events := make(chan session.Event, 64)
	notify := func(ev session.Event) {
		select {
		case events <- ev:
		default:
			// UI gone or saturated; dropping is safe, the TUI reads
			// authoritative state from the controller on render.
		}
	}
	ctrl := session.New(gen, calc, trial.SystemScheduler{}, submitter, notify)

	uiModel := tui.NewModel(ctrl, st, events, playDifficulty)
	program := tea.NewProgram(uiModel, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newTasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List available exercises",
		Args:  cobra.NoArgs,
		RunE:  runTasksCmd,
	}
}

func runTasksCmd(cmd *cobra.Command, _ []string) error {
	for _, t := range task.All() {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s — %s\n", t.Name, t.Title, t.Blurb); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show training history",
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsTask, "task", "", "task filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a plain report instead of the TUI")
	return cmd
}

func runStatsCmd(_ *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	cfg := model.StatsConfig{
		Task:  statsTask,
		Since: sinceTime,
		Last:  statsLast,
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

	if statsPlain {
		return runPlainStats(st, cfg)
	}

	uiModel := statsui.NewModel(st, cfg)
	program := tea.NewProgram(uiModel, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func runPlainStats(st *store.Store, cfg model.StatsConfig) error {
	ctx := context.Background()
	rows, err := st.ListSessions(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	width := 80
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}
	}

	if err := stats.RenderSummary(os.Stdout, rows, width-20); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}

	bests := make([]model.SessionRow, 0, len(task.Names()))
	for _, name := range task.Names() {
		best, err := st.BestScore(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to load best score: %w", err)
		}
		bests = append(bests, best)
	}
	if err := stats.RenderBests(os.Stdout, bests); err != nil {
		return fmt.Errorf("failed to render bests: %w", err)
	}
	if err := stats.RenderHistory(os.Stdout, rows); err != nil {
		return fmt.Errorf("failed to render history: %w", err)
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

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
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
	return fmt.Sprintf(`# mindforge configuration
# Uncomment a value to enable it. CLI flags override config values.

[play]
# task = %q          # Exercise to train (see: mindforge tasks)
# difficulty = %q      # easy, medium, hard, expert
# server = ""               # Score service base URL (empty: no submission)
# token = ""                # Score service bearer token
# submit = true             # Submit completed sessions

[reward]
# high-accuracy-pct = 90.0  # Accuracy breakpoint for the top bonus tier
# high-accuracy-mult = 1.5
# good-accuracy-pct = 75.0  # Accuracy breakpoint for the second tier
# good-accuracy-mult = 1.2
# flex-cost-ms = 150.0      # Condition-cost threshold for the flexibility bonus
# flex-mult = 1.1
# perfect-eff-mult = 1.25   # Perfect planning-efficiency bonus
`,
		defaultTask,
		defaultDifficulty,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
