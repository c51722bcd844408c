package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/raphaelgruber/regextract/internal/models"
	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List batch runs stored in SurrealDB",
	Long: `List the most recent batch runs persisted with --store, or show the files
of one run.

Examples:
  regextract runs
  regextract runs --limit 5
  regextract runs 3f1c9a52-8c0e-4c4b-9a55-5a2f0e3f9d61`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "number of runs to list")
}

func runRuns(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, err := connectStore(ctx)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	if len(args) == 1 {
		run, err := client.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		files, err := client.ListFileRuns(ctx, args[0])
		if err != nil {
			return err
		}
		stored, err := client.CountRecords(ctx, args[0])
		if err != nil {
			return err
		}
		printRunFiles(os.Stdout, run, files, stored)
		return nil
	}

	runs, err := client.ListRuns(ctx, runsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs stored.")
		return nil
	}

	rows := make([][]string, len(runs))
	for i, r := range runs {
		finished := "running"
		if r.CompletedAt != nil {
			finished = r.CompletedAt.Sub(r.StartedAt).Truncate(time.Second).String()
		}
		rows[i] = []string{
			models.MustRecordIDString(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Provider + "/" + r.Model,
			fmt.Sprintf("%d", r.Total),
			finished,
			formatStringCounts(r.Counts),
		}
	}

	fmt.Println(newTable([]string{"ID", "Started", "Model", "Files", "Duration", "Outcomes"}, rows))
	return nil
}

// printRunFiles writes the detail view of one stored run.
func printRunFiles(w io.Writer, run *models.BatchRun, files []models.FileRun, stored int) {
	fmt.Fprintf(w, "Run %s (%s, %s/%s)\n", models.MustRecordIDString(run.ID), run.Mode, run.Provider, run.Model)
	fmt.Fprintf(w, "%s → %s\n", run.InputDir, run.OutputDir)
	fmt.Fprintf(w, "%d records stored\n\n", stored)

	rows := make([][]string, len(files))
	for i, f := range files {
		rows[i] = []string{
			f.File,
			fmt.Sprintf("%d", f.Chunks),
			fmt.Sprintf("%.2f", float64(f.ElapsedMs)/1000),
			fmt.Sprintf("%d", f.Records),
			models.RunRecord{Status: models.RunStatus(f.Status), FailedChunks: f.FailedChunks}.Outcome(),
		}
	}
	fmt.Fprintln(w, newTable([]string{"File", "Chunks", "Time (s)", "Records", "Outcome"}, rows))
}

func newTable(headers []string, rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(defaultTheme.Hint)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return style.Bold(true)
			}
			return style
		})
}

func formatStringCounts(counts map[string]int) string {
	typed := make(map[models.RunStatus]int, len(counts))
	for k, v := range counts {
		typed[models.RunStatus(k)] = v
	}
	return formatCounts(typed)
}
