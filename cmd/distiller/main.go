package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/distiller"
	"github.com/jward/distiller/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// cliFlags holds the raw flag values. Only flags the user actually set
// override the config file.
type cliFlags struct {
	input        string
	output       string
	workers      int
	configFile   string
	filterScript string
	metricsFile  string
	logLevel     string
	logFormat    string
}

func newRootCmd() *cobra.Command {
	var flags cliFlags

	cmd := &cobra.Command{
		Use:           "distiller -i DIR [-o FILE]",
		Short:         "Extract source comments into a SQLite database",
		Long:          "Distiller walks a directory, extracts the comments of every C, C++ and Rust file, fingerprints files and comments with SHA3-512 and stores them in SQLite in a single transaction.",
		Version:       distiller.Version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.input, "input", "i", "", "directory to scan (required)")
	f.StringVarP(&flags.output, "output", "o", config.DefaultOutput, "SQLite database to create")
	f.IntVar(&flags.workers, "workers", 0, "worker pool size (default: one per CPU)")
	f.StringVar(&flags.configFile, "config", "", "YAML config file")
	f.StringVar(&flags.filterScript, "filter-script", "", "Risor script deciding which comments to keep")
	f.StringVar(&flags.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile after the run")
	f.StringVar(&flags.logLevel, "log-level", "info", "log level: debug|info|warn|error")
	f.StringVar(&flags.logFormat, "log-format", "text", "log format: text|json")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// loadConfig merges defaults, the config file and explicitly set flags, in
// increasing order of precedence.
func loadConfig(cmd *cobra.Command, flags cliFlags) (config.Config, error) {
	cfg := config.Defaults()
	if flags.configFile != "" {
		loaded, err := config.Load(flags.configFile)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	if changed("output") {
		cfg.Output = flags.output
	}
	if changed("workers") {
		cfg.Workers = flags.workers
	}
	if changed("filter-script") {
		cfg.FilterScript = flags.filterScript
	}
	if changed("metrics-file") {
		cfg.MetricsFile = flags.metricsFile
	}
	if changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if changed("log-format") {
		cfg.LogFormat = flags.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// resolveInputDir checks that dir is an existing directory and returns it
// cleaned but otherwise as given, so stored paths keep the user's form.
func resolveInputDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return filepath.Clean(dir), nil
}

func run(cmd *cobra.Command, flags cliFlags) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}
	input, err := resolveInputDir(flags.input)
	if err != nil {
		return err
	}

	logger := cfg.NewLogger(cmd.ErrOrStderr())

	retry := distiller.DefaultRetryConfig()
	retry.MaxRetries = cfg.ReadRetries
	opts := []distiller.Option{
		distiller.WithLogger(logger),
		distiller.WithWorkers(cfg.Workers),
		distiller.WithExtensions(cfg.Extensions...),
		distiller.WithMinCommentLength(cfg.MinCommentLength),
		distiller.WithReadRetry(retry),
	}
	if cfg.FilterScript != "" {
		opts = append(opts, distiller.WithFilterScript(cfg.FilterScript))
	}

	engine, err := distiller.New(opts...)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	_, runErr := engine.Run(ctx, input, cfg.Output)

	if cfg.MetricsFile != "" {
		if err := engine.Metrics().WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Error("could not write metrics", "path", cfg.MetricsFile, "error", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Done")
	return nil
}
