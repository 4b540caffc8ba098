package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/edakit/internal/config"
	"github.com/KaramelBytes/edakit/internal/logging"
)

var (
	// Global flags (override config if set)
	cfgFile       string
	debug         bool
	flagLogFormat string
	flagRunsDir   string

	// Loaded configuration
	cfg *cfgpkg.Global

	flushLogs = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "edakit",
	Short: "edakit: tabular wrangling, modeling and charting pipelines",
	Long: `edakit loads delimited text and XLSX datasets, runs cleaning, integration,
transformation and error-correction pipelines over them, fits simple models,
renders charts, and drives Hadoop streaming and Hive for the forest fires
workload. Every command records its outputs in a run directory.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	err := rootCmd.Execute()
	flushLogs()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.edakit/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: text|json (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagRunsDir, "runs-dir", "", "directory holding run outputs (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to defaults via currentConfig
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("debug") && debug {
		cfg.LogLevel = "debug"
	}
	if f.Changed("log-format") && flagLogFormat != "" {
		cfg.LogFormat = flagLogFormat
	}
	if f.Changed("runs-dir") && flagRunsDir != "" {
		cfg.RunsDir = flagRunsDir
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
	}

	flushLogs()
	cleanup, err := logging.Setup(logging.Options{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		SeqURL:    cfg.SeqURL,
		SeqAPIKey: cfg.SeqAPIKey,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: logging setup failed: %v\n", err)
		return
	}
	flushLogs = cleanup
	slog.Debug("config loaded", slog.String("runs_dir", cfg.RunsDir), slog.String("log_level", cfg.LogLevel))
}

// currentConfig returns the loaded configuration, loading it on demand when
// initialization failed or has not run.
func currentConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}
