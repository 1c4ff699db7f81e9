// Package main provides the CLI entrypoint for vizier.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/vizier/internal/config"
	"github.com/verte-zerg/vizier/internal/logging"
	"github.com/verte-zerg/vizier/internal/model"
	"github.com/verte-zerg/vizier/internal/profile"
	"github.com/verte-zerg/vizier/internal/stats"
	"github.com/verte-zerg/vizier/internal/statsui"
	"github.com/verte-zerg/vizier/internal/store"
	"github.com/verte-zerg/vizier/internal/tui"
)

const (
	defaultLogLevel    = "info"
	defaultCurveWindow = 10
	defaultPlotHeight  = 10
)

var (
	appUser     string
	appDB       string
	appSeed     int64
	appLogLevel string

	statsExercise    string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsPlain       bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "vizier",
		Short:         "Terminal anaglyph vision trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTrainer(cmd, nil)
		},
	}

	rootCmd.PersistentFlags().StringVar(&appUser, "user", "", "patient username (default: the active user)")
	rootCmd.PersistentFlags().StringVar(&appDB, "db", config.DefaultDBPath(), "database path")
	rootCmd.PersistentFlags().Int64Var(&appSeed, "seed", 0, "random seed (0: time based)")
	rootCmd.PersistentFlags().StringVar(&appLogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newExercisesCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newUsersCmd())
	rootCmd.AddCommand(newCalibrateCmd())
	rootCmd.AddCommand(newExportCmd())

	return rootCmd
}

// app holds what every subcommand shares once flags and the config file are merged.
type app struct {
	fileCfg config.FileConfig
	catalog config.Catalog
	store   *store.Store
	log     *logging.Logger
}

func openApp(cmd *cobra.Command) (*app, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "db", &appDB, fileCfg.App.DBPath)
	applyStringConfig(cmd, "log-level", &appLogLevel, fileCfg.App.LogLevel)
	applyInt64Config(cmd, "seed", &appSeed, fileCfg.App.Seed)

	logPath := config.DefaultLogPath()
	if fileCfg.App.LogFile != nil {
		logPath = *fileCfg.App.LogFile
	}
	log, err := logging.New(logging.Options{Path: logPath, Level: appLogLevel})
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}

	catalogPath := config.DefaultCatalogPath()
	if fileCfg.App.Catalog != nil {
		catalogPath = *fileCfg.App.Catalog
	}
	catalog, err := config.LoadCatalog(catalogPath)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("failed to load exercises: %w", err)
	}

	st, err := store.Open(appDB)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	log.Debug("app opened", "db", appDB, "catalog", catalogPath, "seed", appSeed)
	return &app{fileCfg: fileCfg, catalog: catalog, store: st, log: log}, nil
}

func (a *app) close() {
	if cerr := a.store.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
	a.log.Sync()
}

// activate resolves the patient: --user, then the remembered active user, then
// default-user from the config file.
func (a *app) activate(ctx context.Context, cmd *cobra.Command) (profile.Context, error) {
	username := ""
	if cmd.Flags().Changed("user") {
		username = appUser
	}
	pc, err := profile.Activate(ctx, a.store, username)
	if errors.Is(err, profile.ErrNoUser) && a.fileCfg.App.DefaultUser != nil {
		pc, err = profile.Activate(ctx, a.store, *a.fileCfg.App.DefaultUser)
	}
	if err != nil {
		return profile.Context{}, err
	}
	pc, err = pc.WithOverrides(profile.Overrides{Left: a.fileCfg.Colors.Left, Right: a.fileCfg.Colors.Right})
	if err != nil {
		return profile.Context{}, fmt.Errorf("invalid [colors] config: %w", err)
	}
	a.log.Info("user activated", "username", pc.User.Username, "calibrated", pc.Calibrated)
	return pc, nil
}

func runTrainer(cmd *cobra.Command, start *config.Launch) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	return a.runTrainer(cmd, start)
}

func (a *app) runTrainer(cmd *cobra.Command, start *config.Launch) error {
	pc, err := a.activate(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	if !pc.Calibrated {
		logErrln("no calibration stored; using blue (left) / red (right). Run: vizier calibrate")
	}
	m := tui.NewModel(tui.Deps{
		Catalog:  a.catalog,
		Store:    a.store,
		Profile:  pc,
		Log:      a.log,
		Seed:     appSeed,
		Anaglyph: a.fileCfg.Anaglyph,
		Start:    start,
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <exercise> [configuration]",
		Short: "Start one exercise directly",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runRunCmd,
	}
}

func runRunCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	label := ""
	if len(args) == 2 {
		label = args[1]
	}
	launch, err := a.catalog.Resolve(args[0], label)
	if err != nil {
		if errors.Is(err, config.ErrUnknownExercise) {
			return fmt.Errorf("%w (available: %s)", err, strings.Join(a.catalog.Names(), ", "))
		}
		return err
	}
	return a.runTrainer(cmd, &launch)
}

func newExercisesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exercises",
		Short: "List exercises and their configurations",
		Args:  cobra.NoArgs,
		RunE:  runExercisesCmd,
	}
}

func runExercisesCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	catalogPath := config.DefaultCatalogPath()
	if fileCfg.App.Catalog != nil {
		catalogPath = *fileCfg.App.Catalog
	}
	catalog, err := config.LoadCatalog(catalogPath)
	if err != nil {
		return fmt.Errorf("failed to load exercises: %w", err)
	}
	out := cmd.OutOrStdout()
	for _, name := range catalog.Names() {
		ex := catalog.Exercises[name]
		title := ex.Title
		if title == "" {
			title = name
		}
		if _, err := fmt.Fprintf(out, "%-12s %-24s %s\n", name, title, strings.Join(ex.Labels(), ", ")); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show training history",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsExercise, "exercise", "", "exercise filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of the interactive view")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	if statsCurveWindow <= 0 {
		return fmt.Errorf("--curve-window must be > 0")
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	pc, err := a.activate(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	cfg := model.StatsConfig{
		UserID:      pc.User.ID,
		Exercise:    statsExercise,
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}

	if statsPlain {
		return printReport(cmd.Context(), cmd, a.store, cfg)
	}
	m := statsui.NewModel(a.store, cfg)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func printReport(ctx context.Context, cmd *cobra.Command, src stats.Source, cfg model.StatsConfig) error {
	report, err := stats.BuildReport(ctx, src, cfg)
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, report.Sessions); err != nil {
		return err
	}
	if len(report.Sessions) == 0 {
		return nil
	}
	steps := []func() error{
		func() error { return stats.RenderCurves(out, report.Window, cfg.CurveWindow) },
		func() error { return stats.RenderExerciseTable(out, report.Exercises) },
		func() error { return stats.RenderSessionTable(out, report.Window) },
		func() error { return stats.RenderStaircase(out, report.Latest, 0, defaultPlotHeight, false) },
		func() error { return stats.RenderTrialTable(out, report.Latest) },
	}
	for _, step := range steps {
		if _, err := fmt.Fprintln(out); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if err := step(); err != nil {
			return err
		}
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

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
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

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# vizier configuration
# Uncomment a value to enable it. CLI flags override config values.

[app]
# db-path = %q
# log-file = %q
# log-level = %q          # debug, info, warn or error
# seed = 0                  # 0 picks a time based seed
# default-user = "jdoe"     # used when no user was selected with 'vizier users use'
# catalog = %q

[colors]
# Overrides the calibrated eye colors for this machine only.
# "#rrggbb", a default color name (red, blue, ...) or "palette:name" (wong:blue, tol:red)
# left = "blue"
# right = "red"

[anaglyph]
# size = 60                 # stereogram side in canvas pixels
# pixel-size = 1            # dot size in canvas pixels
# focal-size = 0.35         # focal target size as a ratio of size (0-1)
# focal-offset = 2          # disparity of the focal target
`,
		config.DefaultDBPath(),
		config.DefaultLogPath(),
		defaultLogLevel,
		config.DefaultCatalogPath(),
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
