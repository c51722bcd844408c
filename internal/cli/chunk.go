package cli

import (
	"fmt"

	"github.com/raphaelgruber/regextract/internal/config"
	"github.com/raphaelgruber/regextract/internal/service"
	"github.com/spf13/cobra"
)

var chunkShowText bool

var chunkCmd = &cobra.Command{
	Use:   "chunk <input.txt>",
	Short: "Show how a file is split into chunks",
	Long: `Print the word windows a file would be split into, without calling any
LLM provider. Useful for tuning --max-words and --overlap.

Examples:
  regextract chunk ./ocr/Reichsanzeiger_06_09_1927.txt
  regextract chunk in.txt --max-words 200 --overlap 20 --text`,
	Args: cobra.ExactArgs(1),
	RunE: runChunk,
}

func init() {
	chunkCmd.Flags().IntVar(&runMaxWords, "max-words", 0, "words per chunk")
	chunkCmd.Flags().IntVar(&runOverlap, "overlap", 0, "words shared by consecutive chunks")
	chunkCmd.Flags().BoolVar(&chunkShowText, "text", false, "print the chunk text")
}

func runChunk(cmd *cobra.Command, args []string) error {
	applyRunFlags(cmd)
	// Only the chunking settings matter here; provider settings may be absent.
	if cfg.MaxWords < 1 {
		return &config.ConfigurationError{Field: "max_words", Reason: "must be at least 1"}
	}

	pipeline := service.NewPipeline(nil, service.PipelineOptions{
		MaxWords: cfg.MaxWords,
		Overlap:  cfg.Overlap,
		Logger:   logger,
	})
	chunks, err := pipeline.Chunks(args[0])
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	if len(chunks) == 0 {
		fmt.Println("No words found.")
		return nil
	}

	fmt.Printf("%d chunks (max %d words, overlap %d)\n\n", len(chunks), cfg.MaxWords, cfg.Overlap)
	for _, c := range chunks {
		fmt.Printf("Chunk %d: words %d-%d (%d words)\n", c.Index, c.Start, c.End, c.Words())
		if chunkShowText {
			fmt.Println(defaultTheme.hintStyle().Render(c.Text))
			fmt.Println()
		}
	}
	return nil
}
