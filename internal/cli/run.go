package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/raphaelgruber/regextract/internal/service"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	runProvider      string
	runMaxWords      int
	runOverlap       int
	runDelay         float64
	runMode          string
	runStrict        bool
	runSummaryDir    string
	runMaxConcurrent int
	runMaxRetries    int
	runXLSX          bool
	runNoProgress    bool
	runStore         bool
)

var runCmd = &cobra.Command{
	Use:   "run <input-dir> <output-dir>",
	Short: "Extract records from every .txt file of a directory",
	Long: `Process all .txt files below input-dir, in sorted order, and write one JSON
array of register records per file to output-dir, mirroring the directory
layout. Files whose output already exists are skipped, so an interrupted run
can simply be restarted.

A summary CSV (run_log_summary_<timestamp>.csv) is written to the summary
directory after every run.

Examples:
  regextract run ./ocr ./parsed
  regextract run ./ocr ./parsed --provider openrouter --mode sequential
  regextract run ./ocr ./parsed --strict --max-words 300 --overlap 30
  regextract run ./ocr ./parsed --xlsx --store`,
	Args: cobra.ExactArgs(2),
	RunE: runBatch,
}

func init() {
	runCmd.Flags().StringVarP(&runProvider, "provider", "p", "", "LLM provider (ollama, openrouter, groq, bedrock, maia, anthropic, vertex)")
	runCmd.Flags().IntVar(&runMaxWords, "max-words", 0, "words per chunk")
	runCmd.Flags().IntVar(&runOverlap, "overlap", 0, "words shared by consecutive chunks")
	runCmd.Flags().Float64VarP(&runDelay, "delay", "d", 0, "seconds to wait between files")
	runCmd.Flags().StringVarP(&runMode, "mode", "m", "", "chunk scheduling: parallel or sequential")
	runCmd.Flags().BoolVar(&runStrict, "strict", false, "do not save a file when any chunk failed")
	runCmd.Flags().StringVarP(&runSummaryDir, "log", "l", "", "directory for run summaries")
	runCmd.Flags().IntVar(&runMaxConcurrent, "max-concurrent", 0, "concurrent provider calls in parallel mode")
	runCmd.Flags().IntVar(&runMaxRetries, "max-retries", 0, "attempts per chunk")
	runCmd.Flags().BoolVar(&runXLSX, "xlsx", false, "also write the summary as .xlsx")
	runCmd.Flags().BoolVar(&runNoProgress, "no-progress", false, "disable the interactive progress bar")
	runCmd.Flags().BoolVar(&runStore, "store", false, "persist the run in SurrealDB")
}

// applyRunFlags overrides cfg with the flags set on the command line.
func applyRunFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.Provider = runProvider
	}
	if flags.Changed("max-words") {
		cfg.MaxWords = runMaxWords
	}
	if flags.Changed("overlap") {
		cfg.Overlap = runOverlap
	}
	if flags.Changed("delay") {
		cfg.FileDelay = time.Duration(runDelay * float64(time.Second))
	}
	if flags.Changed("mode") {
		cfg.Mode = runMode
	}
	if flags.Changed("strict") {
		cfg.Strict = runStrict
	}
	if flags.Changed("log") {
		cfg.SummaryDir = runSummaryDir
	}
	if flags.Changed("max-concurrent") {
		cfg.MaxConcurrent = runMaxConcurrent
	}
	if flags.Changed("max-retries") {
		cfg.MaxRetries = runMaxRetries
	}
	if flags.Changed("store") {
		cfg.StoreRuns = runStore
	}
}

// setupBatch wires the extraction. When the progress UI will own the
// terminal the quiet logger is installed first, so every component logs
// through it.
func setupBatch(ctx context.Context, interactive bool) (*extraction, error) {
	if interactive {
		initLogging(true)
	}
	return newExtraction(ctx)
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	inputDir, outputDir := args[0], args[1]

	info, err := os.Stat(inputDir)
	if err != nil {
		return fmt.Errorf("invalid input directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("input must be a directory: %s", inputDir)
	}

	applyRunFlags(cmd)
	interactive := !runNoProgress && term.IsTerminal(int(os.Stdout.Fd()))
	ext, err := setupBatch(ctx, interactive)
	if err != nil {
		return err
	}
	defer ext.close()

	var store service.RunStore
	if cfg.StoreRuns {
		client, err := connectStore(ctx)
		if err != nil {
			return err
		}
		defer client.Close(context.Background())
		store = client
	}

	run := func(ctx context.Context, obs service.Observer) (*service.BatchResult, error) {
		runner := service.NewBatchRunner(ext.pipeline, service.BatchOptions{
			FileDelay: cfg.FileDelay,
			Observer:  obs,
			Store:     store,
			Provider:  ext.provider.Name(),
			Model:     ext.provider.Model(),
			Strict:    cfg.Strict,
			Metrics:   collector,
			Logger:    logger,
		})
		return runner.Run(ctx, inputDir, outputDir)
	}

	var result *service.BatchResult
	if interactive {
		result, err = runWithProgress(ctx, run)
	} else {
		result, err = run(ctx, lineObserver{})
	}
	if result == nil {
		return err
	}

	printSummary(result)

	csvPath, csvErr := service.WriteSummaryCSV(cfg.SummaryDir, result)
	if csvErr != nil {
		logger.Error("write summary failed", "error", csvErr)
	} else {
		fmt.Printf("Summary saved to %s\n", csvPath)
	}
	if runXLSX {
		xlsxPath, xlsxErr := service.WriteSummaryXLSX(cfg.SummaryDir, result)
		if xlsxErr != nil {
			logger.Error("write xlsx summary failed", "error", xlsxErr)
		} else {
			fmt.Printf("Spreadsheet saved to %s\n", xlsxPath)
		}
	}
	if store != nil {
		fmt.Printf("Run stored as %s\n", result.ID)
	}
	if verbose {
		fmt.Println()
		printRunStats(collector.Snapshot())
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("run interrupted with %d files recorded", len(result.Records))
	}
	return errors.Join(err, csvErr)
}
