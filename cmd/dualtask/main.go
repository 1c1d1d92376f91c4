// Package main provides the CLI entrypoint for dualtask.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/dualtask/internal/config"
	"github.com/verte-zerg/dualtask/internal/engine"
	"github.com/verte-zerg/dualtask/internal/generator"
	"github.com/verte-zerg/dualtask/internal/model"
	"github.com/verte-zerg/dualtask/internal/reportui"
	"github.com/verte-zerg/dualtask/internal/stats"
	"github.com/verte-zerg/dualtask/internal/stimuli"
	"github.com/verte-zerg/dualtask/internal/store"
)

const (
	defaultReportWindow = 5
	checkSubject        = "check"
)

var (
	configPath string

	runSubject     string
	runTasks       []string
	runNoAudio     bool
	runMetricsAddr string
	runFallbackHz  float64
	runVerbose     bool

	reportSubject     string
	reportTask        string
	reportWindow      int
	reportInteractive bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dualtask",
		Short:         "Frame-accurate dual-task experiment runner",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "config file")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newReportCmd())

	return rootCmd
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the experiment blocks for a subject",
		Args:  cobra.NoArgs,
		RunE:  runRunCmd,
	}
	addSessionFlags(cmd)
	cmd.Flags().BoolVar(&runNoAudio, "no-audio", false, "disable recording and tone playback")
	cmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on host:port")
	cmd.Flags().Float64Var(&runFallbackHz, "fallback-hz", config.DefaultFallbackHz, "frame rate used when the display cannot report one")
	cmd.Flags().BoolVar(&runVerbose, "verbose", false, "debug logging")
	return cmd
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the config and stimulus tables without opening devices",
		Args:  cobra.NoArgs,
		RunE:  runCheckCmd,
	}
	addSessionFlags(cmd)
	return cmd
}

func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&runSubject, "subject", "", "subject identifier")
	cmd.Flags().StringSliceVar(&runTasks, "tasks", nil, "comma-separated blocks to run, in order")
}

// loadSessionConfig merges defaults, the config file and changed flags.
func loadSessionConfig(cmd *cobra.Command) (model.Config, error) {
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	cfg := config.Defaults()
	fileCfg.Apply(&cfg)

	cfg.Subject = strings.TrimSpace(runSubject)
	applyFlag(cmd, "tasks", &cfg.Tasks, runTasks)
	if cmd.Flags().Changed("no-audio") {
		cfg.Audio = !runNoAudio
	}
	applyFlag(cmd, "metrics-addr", &cfg.MetricsAddr, runMetricsAddr)
	applyFlag(cmd, "fallback-hz", &cfg.FallbackHz, runFallbackHz)
	return cfg, nil
}

func planBlocks(cfg model.Config) ([]engine.Block, error) {
	load := func(variant string) ([]model.Stimulus, error) {
		return stimuli.Load(cfg.StimuliDir, variant)
	}
	return engine.PlanBlocks(cfg.Tasks, load, engine.BlockOptions{
		PracticeSize: cfg.PracticeSize,
		PracticeSeed: cfg.PracticeSeed,
		TestSeed:     cfg.TestSeed,
		Rules:        generator.OrderRules{MaxAttempts: cfg.MaxShuffleAttempts},
	})
}

func runRunCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSessionConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	blocks, err := planBlocks(cfg)
	if err != nil {
		return err
	}
	if !interactive() {
		return fmt.Errorf("run needs an interactive terminal")
	}
	return runSession(cmd.Context(), cfg, blocks, runVerbose)
}

func runCheckCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSessionConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Subject == "" {
		cfg.Subject = checkSubject
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	blocks, err := planBlocks(cfg)
	if err != nil {
		return err
	}
	rows := make([]stats.BlockRow, 0, len(blocks))
	for _, b := range blocks {
		rows = append(rows, stats.BlockRow{Task: b.Task, Phase: string(b.Phase), Trials: len(b.Stimuli), Seed: b.Seed})
	}
	if err := stats.RenderBlocks(cmd.OutOrStdout(), rows); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
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
	path := configPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.Template()), 0o644); err != nil {
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

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show accuracy and reaction times from the result store",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
	cmd.Flags().StringVar(&reportSubject, "subject", "", "subject filter")
	cmd.Flags().StringVar(&reportTask, "task", "", "task filter")
	cmd.Flags().IntVar(&reportWindow, "window", defaultReportWindow, "moving average window of choice accuracy")
	cmd.Flags().BoolVarP(&reportInteractive, "interactive", "i", false, "browse the report in a terminal UI")
	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	if reportWindow <= 0 {
		return fmt.Errorf("--window must be > 0")
	}
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := config.Defaults()
	fileCfg.Apply(&cfg)
	if cfg.DBPath == "" {
		return fmt.Errorf("no result database configured")
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	filter := model.ReportFilter{Subject: reportSubject, Task: reportTask}
	if reportInteractive {
		load := func(ctx context.Context, f model.ReportFilter) (stats.Report, error) {
			return stats.BuildReport(ctx, st, f)
		}
		program := tea.NewProgram(reportui.NewModel(load, filter, reportWindow), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run report TUI: %w", err)
		}
		return nil
	}

	report, err := stats.BuildReport(cmd.Context(), st, filter)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	return report.Render(cmd.OutOrStdout(), reportWindow)
}

// applyFlag overrides target with value when the flag was set explicitly.
func applyFlag[T any](cmd *cobra.Command, name string, target *T, value T) {
	if cmd.Flags().Lookup(name) == nil || !cmd.Flags().Changed(name) {
		return
	}
	*target = value
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
