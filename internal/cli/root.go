// Package cli provides the command-line interface for regextract.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/raphaelgruber/regextract/internal/config"
	"github.com/raphaelgruber/regextract/internal/db"
	"github.com/raphaelgruber/regextract/internal/llm"
	"github.com/raphaelgruber/regextract/internal/metrics"
	"github.com/raphaelgruber/regextract/internal/models"
	"github.com/raphaelgruber/regextract/internal/service"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose    bool
	configPath string

	// Global config and logging
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error

	collector = metrics.NewCollector()
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "regextract",
	Short: "Extract register notices from OCR newspaper text",
	Long: `Regextract turns OCR text of historical German newspapers into structured
commercial register records (court, date, company, register code, year).

Text files are split into overlapping word windows, each window is sent to
an LLM provider, and the JSON objects found in the replies are saved as one
JSON array per input file.`,
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}
		initLogging(false)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// initLogging (re)creates the global logger. quiet hands the terminal to the
// progress UI.
func initLogging(quiet bool) {
	if logCleanup != nil {
		_ = logCleanup()
	}
	logger, logCleanup = config.SetupLogger(cfg.LogFile, cfg.LogLevel, quiet)
	slog.SetDefault(logger)
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging and run statistics")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(chunkCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(runsCmd)
}

// extraction bundles what a command needs to process files.
type extraction struct {
	provider llm.Provider
	pipeline *service.Pipeline
	mode     models.Mode
}

// close releases provider resources.
func (e *extraction) close() {
	if c, ok := e.provider.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			logger.Warn("close provider", "error", err)
		}
	}
}

// newExtraction validates cfg and wires provider, worker, coordinator and
// File Pipeline.
func newExtraction(ctx context.Context) (*extraction, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, err := models.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	instructions, err := llm.LoadInstructions(cfg.PromptFile)
	if err != nil {
		return nil, err
	}

	provider, err := llm.NewProvider(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init provider: %w", err)
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	worker := service.NewWorker(provider, service.WorkerOptions{
		Instructions: instructions,
		MaxRetries:   cfg.MaxRetries,
		Backoff:      cfg.Backoff,
		Timeout:      cfg.RequestTimeout,
		Limiter:      limiter,
		Metrics:      collector,
		Logger:       logger,
	})
	coordinator := service.NewCoordinator(worker, cfg.MaxConcurrent, cfg.ChunkDelay, logger)
	pipeline := service.NewPipeline(coordinator, service.PipelineOptions{
		MaxWords: cfg.MaxWords,
		Overlap:  cfg.Overlap,
		Mode:     mode,
		Strict:   cfg.Strict,
		Metrics:  collector,
		Logger:   logger,
	})

	return &extraction{provider: provider, pipeline: pipeline, mode: mode}, nil
}

// connectStore opens the SurrealDB run store.
func connectStore(ctx context.Context) (*db.Client, error) {
	client, err := db.NewClient(ctx, db.ConfigFrom(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := client.InitSchema(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return client, nil
}
