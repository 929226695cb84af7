// Package main provides the CLI entrypoint for typegram.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/typegram/internal/config"
	"github.com/verte-zerg/typegram/internal/ingest"
	"github.com/verte-zerg/typegram/internal/model"
	"github.com/verte-zerg/typegram/internal/ngram"
	"github.com/verte-zerg/typegram/internal/stats"
	"github.com/verte-zerg/typegram/internal/store"
)

const (
	defaultSpeedMode   = "raw"
	defaultMinOccur    = 2
	defaultTop         = 20
	defaultTrendWindow = 5
)

var (
	analyzeInput     string
	analyzeSession   string
	analyzeSpeedMode string
	analyzeDBPath    string

	reportSize        int
	reportSpeedMode   string
	reportMinOccur    int
	reportTop         int
	reportTrendText   string
	reportTrendWindow int
	reportDBPath      string

	clearSession string
	clearAll     bool
	clearDBPath  string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "typegram",
		Short:         "N-gram typing performance analysis",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newClearCmd())
	rootCmd.AddCommand(newConfigCmd())
	return rootCmd
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a session payload and store its n-gram records",
		Args:  cobra.NoArgs,
		RunE:  runAnalyzeCmd,
	}
	cmd.Flags().StringVar(&analyzeInput, "input", "", "session payload JSON file (required)")
	cmd.Flags().StringVar(&analyzeSession, "session", "", "override the payload session id")
	cmd.Flags().StringVar(&analyzeSpeedMode, "speed-mode", defaultSpeedMode, "speed projection: raw or net")
	cmd.Flags().StringVar(&analyzeDBPath, "db", "", "database path (default: XDG data dir)")
	if err := cmd.MarkFlagRequired("input"); err != nil {
		panic(err)
	}
	return cmd
}

func runAnalyzeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "speed-mode", &analyzeSpeedMode, fileCfg.Analysis.SpeedMode)

	mode, err := model.ParseSpeedMode(analyzeSpeedMode)
	if err != nil {
		return err
	}

	session, err := ingest.LoadSession(analyzeInput)
	if err != nil {
		return err
	}
	if analyzeSession != "" {
		session.SessionID = analyzeSession
	}

	result, err := ngram.Analyze(session.SessionID, session.Text, session.Keystrokes, mode)
	if err != nil {
		return err
	}

	st, err := openStore(analyzeDBPath)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	if err := st.ClearSession(ctx, session.SessionID); err != nil {
		return fmt.Errorf("failed to clear previous records: %w", err)
	}
	if err := st.InsertSpeedNGrams(ctx, result.Speed); err != nil {
		return fmt.Errorf("failed to store speed n-grams: %w", err)
	}
	if err := st.InsertErrorNGrams(ctx, result.Errors); err != nil {
		return fmt.Errorf("failed to store error n-grams: %w", err)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Session %s: %d speed n-grams, %d error n-grams (%s mode)\n",
		session.SessionID, len(result.Speed), len(result.Errors), mode)
	return err
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show aggregated n-gram stats",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
	cmd.Flags().IntVar(&reportSize, "size", 0, "filter by n-gram size (0 = all)")
	cmd.Flags().StringVar(&reportSpeedMode, "speed-mode", defaultSpeedMode, "speed projection: raw or net")
	cmd.Flags().IntVar(&reportMinOccur, "min-occurrences", defaultMinOccur, "minimum occurrences per aggregate")
	cmd.Flags().IntVar(&reportTop, "top", defaultTop, "rows per table")
	cmd.Flags().StringVar(&reportTrendText, "trend", "", "n-gram text to plot a speed trend for")
	cmd.Flags().IntVar(&reportTrendWindow, "trend-window", defaultTrendWindow, "moving average window for the trend")
	cmd.Flags().StringVar(&reportDBPath, "db", "", "database path (default: XDG data dir)")
	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "speed-mode", &reportSpeedMode, fileCfg.Analysis.SpeedMode)
	applyIntConfig(cmd, "size", &reportSize, fileCfg.Analysis.Size)
	applyIntConfig(cmd, "min-occurrences", &reportMinOccur, fileCfg.Analysis.MinOccurrences)
	applyIntConfig(cmd, "top", &reportTop, fileCfg.Analysis.Top)

	mode, err := model.ParseSpeedMode(reportSpeedMode)
	if err != nil {
		return err
	}
	cfg := model.ReportConfig{
		Size:           reportSize,
		SpeedMode:      mode,
		MinOccurrences: reportMinOccur,
		Top:            reportTop,
		TrendText:      reportTrendText,
	}
	if err := validateReportConfig(cfg); err != nil {
		return err
	}

	st, err := openStore(reportDBPath)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	out := cmd.OutOrStdout()

	speedAggs, err := st.SpeedAggregates(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to load speed aggregates: %w", err)
	}
	if err := stats.RenderSpeedTable(out, speedAggs); err != nil {
		return err
	}

	errorAggs, err := st.ErrorAggregates(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to load error aggregates: %w", err)
	}
	if err := stats.RenderErrorTable(out, errorAggs); err != nil {
		return err
	}

	if cfg.TrendText != "" {
		points, err := st.SpeedTrend(ctx, cfg.TrendText, mode)
		if err != nil {
			return fmt.Errorf("failed to load speed trend: %w", err)
		}
		if err := stats.RenderSpeedTrend(out, cfg.TrendText, points, reportTrendWindow, stats.TrendWidth()); err != nil {
			return err
		}
	}
	return nil
}

func newClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove stored n-gram records",
		Args:  cobra.NoArgs,
		RunE:  runClearCmd,
	}
	cmd.Flags().StringVar(&clearSession, "session", "", "clear one session's records")
	cmd.Flags().BoolVar(&clearAll, "all", false, "clear all records")
	cmd.Flags().StringVar(&clearDBPath, "db", "", "database path (default: XDG data dir)")
	return cmd
}

func runClearCmd(cmd *cobra.Command, _ []string) error {
	if clearSession == "" && !clearAll {
		return fmt.Errorf("pass --session <id> or --all")
	}
	if clearSession != "" && clearAll {
		return fmt.Errorf("--session and --all are mutually exclusive")
	}

	st, err := openStore(clearDBPath)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	if clearAll {
		if err := st.ClearAll(ctx); err != nil {
			return fmt.Errorf("failed to clear records: %w", err)
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "Cleared all n-gram records")
		return err
	}
	if err := st.ClearSession(ctx, clearSession); err != nil {
		return fmt.Errorf("failed to clear session records: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Cleared n-gram records for session %s\n", clearSession)
	return err
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

func openStore(path string) (*store.Store, error) {
	if path == "" {
		path = config.DefaultDBPath()
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func validateReportConfig(cfg model.ReportConfig) error {
	if cfg.Size != 0 && (cfg.Size < model.MinNGramSize || cfg.Size > model.MaxNGramSize) {
		return fmt.Errorf("--size must be 0 or between %d and %d", model.MinNGramSize, model.MaxNGramSize)
	}
	if cfg.MinOccurrences < 1 {
		return fmt.Errorf("--min-occurrences must be >= 1")
	}
	if cfg.Top <= 0 {
		return fmt.Errorf("--top must be > 0")
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

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# typegram configuration
# Uncomment a value to enable it. CLI flags override config values.

[analysis]
# speed-mode = %q       # Speed projection: raw or net
# size = 0              # N-gram size filter for reports (0 = all)
# min-occurrences = %d  # Minimum occurrences per report aggregate
# top = %d              # Rows per report table
`,
		defaultSpeedMode,
		defaultMinOccur,
		defaultTop,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
