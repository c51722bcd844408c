package cli

import (
	"fmt"

	"github.com/raphaelgruber/regextract/internal/metrics"
)

// printRunStats displays the in-memory statistics of this process.
func printRunStats(stats metrics.Snapshot) {
	fmt.Printf("Run Statistics\n")
	fmt.Printf("═══════════════════════════════════════════════\n")
	fmt.Printf("Uptime: %.1f seconds\n", stats.UptimeSeconds)

	if stats.File != nil {
		fmt.Printf("\nFiles:\n")
		printOpStats(stats.File)
	}

	if stats.Chunk != nil {
		fmt.Printf("\nChunks:\n")
		printOpStats(stats.Chunk)
	}

	if stats.ProviderCall != nil {
		fmt.Printf("\nProvider Calls:\n")
		printOpStats(stats.ProviderCall)
		printTokenStats(stats.ProviderCall)
	}

	if stats.DBWrite != nil {
		fmt.Printf("\nRun Store Writes:\n")
		printOpStats(stats.DBWrite)
	}
}

// printOpStats displays timing statistics for an operation.
func printOpStats(op *metrics.OperationSnapshot) {
	fmt.Printf("  Count: %d, Total: %dms\n", op.Count, op.TotalTimeMs)
	if op.Count > 0 {
		fmt.Printf("  Time: avg %.1fms, min %dms, max %dms\n",
			op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
	}
	if op.Retries > 0 || op.Failures > 0 {
		fmt.Printf("  Retries: %d, Failures: %d\n", op.Retries, op.Failures)
	}
}

// printTokenStats displays token statistics if available.
func printTokenStats(op *metrics.OperationSnapshot) {
	if op.TotalInputTokens == nil || op.TotalOutputTokens == nil {
		return
	}
	fmt.Printf("  Tokens In:  %d total", *op.TotalInputTokens)
	if op.AvgInputTokens != nil {
		fmt.Printf(", avg %.0f", *op.AvgInputTokens)
	}
	if op.MinInputTokens != nil && op.MaxInputTokens != nil {
		fmt.Printf(", min %d, max %d", *op.MinInputTokens, *op.MaxInputTokens)
	}
	fmt.Println()

	fmt.Printf("  Tokens Out: %d total", *op.TotalOutputTokens)
	if op.AvgOutputTokens != nil {
		fmt.Printf(", avg %.0f", *op.AvgOutputTokens)
	}
	if op.MinOutputTokens != nil && op.MaxOutputTokens != nil {
		fmt.Printf(", min %d, max %d", *op.MinOutputTokens, *op.MaxOutputTokens)
	}
	fmt.Println()
}
