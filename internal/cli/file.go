package cli

import (
	"fmt"

	"github.com/raphaelgruber/regextract/internal/models"
	"github.com/spf13/cobra"
)

var fileCmd = &cobra.Command{
	Use:   "file <input.txt> <output.json>",
	Short: "Extract records from a single text file",
	Long: `Run the extraction pipeline for one file. The output is written even if it
already exists. Provider and chunking flags of "run" are available here too.

Examples:
  regextract file ./ocr/Reichsanzeiger_06_09_1927.txt ./parsed/Reichsanzeiger_06_09_1927.json
  regextract file in.txt out.json --provider maia --strict`,
	Args: cobra.ExactArgs(2),
	RunE: runFile,
}

func init() {
	fileCmd.Flags().StringVarP(&runProvider, "provider", "p", "", "LLM provider")
	fileCmd.Flags().IntVar(&runMaxWords, "max-words", 0, "words per chunk")
	fileCmd.Flags().IntVar(&runOverlap, "overlap", 0, "words shared by consecutive chunks")
	fileCmd.Flags().StringVarP(&runMode, "mode", "m", "", "chunk scheduling: parallel or sequential")
	fileCmd.Flags().BoolVar(&runStrict, "strict", false, "do not save when any chunk failed")
	fileCmd.Flags().IntVar(&runMaxConcurrent, "max-concurrent", 0, "concurrent provider calls in parallel mode")
	fileCmd.Flags().IntVar(&runMaxRetries, "max-retries", 0, "attempts per chunk")
}

func runFile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	applyRunFlags(cmd)

	ext, err := newExtraction(ctx)
	if err != nil {
		return err
	}
	defer ext.close()

	rec := ext.pipeline.ProcessFile(ctx, args[0], args[1])

	fmt.Printf("%s: %s (%d chunks, %d records, %.2fs)\n",
		rec.File, defaultTheme.outcomeStyle(rec.Status).Render(rec.Outcome()),
		rec.Chunks, rec.Records, rec.Elapsed.Seconds())
	if rec.Saved() {
		fmt.Printf("Saved to %s\n", rec.Output)
	}
	if verbose {
		fmt.Println()
		printRunStats(collector.Snapshot())
	}

	switch rec.Status {
	case models.StatusSuccess, models.StatusPartialSuccess, models.StatusNoData, models.StatusEmpty:
		return nil
	}
	if rec.Err != "" {
		return fmt.Errorf("%s: %s", rec.Status, rec.Err)
	}
	return fmt.Errorf("%s", rec.Status)
}
