package cli

import (
	"fmt"

	"github.com/raphaelgruber/regextract/internal/models"
	"github.com/raphaelgruber/regextract/internal/service"
	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <ground-truth.json> <parsed.json>",
	Short: "Score extracted records against ground truth",
	Long: `Compare a parsed output file with a hand-made ground truth. Every ground
truth record is matched to its most similar parsed record; court, date and
company match on substrings, register code and year must be equal.

Examples:
  regextract evaluate GT_Reichsanzeiger_06_09_1927.json parsed/Reichsanzeiger_06_09_1927.json`,
	Args: cobra.ExactArgs(2),
	RunE: runEvaluate,
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	truth, err := service.LoadRecords(args[0])
	if err != nil {
		return fmt.Errorf("load ground truth: %w", err)
	}
	parsed, err := service.LoadRecords(args[1])
	if err != nil {
		return fmt.Errorf("load parsed records: %w", err)
	}

	report := service.Evaluate(truth, parsed)
	theme := defaultTheme

	fmt.Printf("Detailed Comparison Results\n")
	fmt.Printf("═══════════════════════════════════════\n\n")
	for _, m := range report.Matches {
		match := "none"
		if m.Parsed >= 0 {
			match = fmt.Sprintf("parsed record %d", m.Parsed+1)
		}
		fmt.Printf("GT record %d: best match %s, score %d / %d\n",
			m.GroundTruth+1, match, m.Score, service.IdealScore)
	}

	fmt.Printf("\nRegistration_Code Mismatches\n")
	if len(report.CodeMismatches) == 0 {
		fmt.Println(theme.completedStyle().Render("✓ No mismatches in Registration_Code"))
	}
	for _, mm := range report.CodeMismatches {
		fmt.Println(theme.warningStyle().Render(fmt.Sprintf("\nGT record %d:", mm.GroundTruth+1)))
		printRecordLine("GT", mm.Expected)
		if mm.Got != nil {
			printRecordLine("Parsed", *mm.Got)
		} else {
			fmt.Println("  Parsed: no match")
		}
	}

	fmt.Printf("\nSummary\n")
	fmt.Printf("  Max score:       %d\n", report.MaxScore)
	fmt.Printf("  Obtained score:  %d\n", report.ObtainedScore)
	fmt.Printf("  Similarity:      %.4f\n", report.Similarity)
	fmt.Printf("  Code mismatches: %d\n", len(report.CodeMismatches))
	return nil
}

func printRecordLine(label string, r models.ExtractionRecord) {
	fmt.Printf("  %s company: %s\n", label, orNull(r.CompanyName))
	fmt.Printf("  %s court:   %s\n", label, orNull(r.CourtName))
	fmt.Printf("  %s code:    %s\n", label, orNull(r.RegistrationCode))
}

func orNull(s *string) string {
	if s == nil {
		return "null"
	}
	return *s
}
