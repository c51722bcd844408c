package service

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// SummaryHeaders are the columns of every run summary.
var SummaryHeaders = []string{"File", "Mode", "Chunks", "Time (s)", "Outcome"}

// SummaryRows renders one row per file plus the final TOTAL row.
func SummaryRows(result *BatchResult) [][]string {
	rows := make([][]string, 0, len(result.Records)+1)
	for _, r := range result.Records {
		rows = append(rows, []string{
			r.File,
			string(r.Mode),
			strconv.Itoa(r.Chunks),
			seconds(r.Elapsed.Seconds()),
			r.Outcome(),
		})
	}
	rows = append(rows, []string{
		"TOTAL", "", "",
		seconds(result.Elapsed.Seconds()),
		fmt.Sprintf("%d files", len(result.Records)),
	})
	return rows
}

func seconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 2, 64)
}

func summaryPath(dir string, result *BatchResult, ext string) string {
	return filepath.Join(dir, "run_log_summary_"+result.Started.Format("20060102_150405")+ext)
}

// WriteSummaryCSV writes run_log_summary_<timestamp>.csv into dir and
// returns its path.
func WriteSummaryCSV(dir string, result *BatchResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create summary dir: %w", err)
	}
	path := summaryPath(dir, result, ".csv")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create summary: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(SummaryHeaders); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	if err := w.WriteAll(SummaryRows(result)); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close summary: %w", err)
	}
	return path, nil
}

// WriteSummaryXLSX writes the same summary as a spreadsheet.
func WriteSummaryXLSX(dir string, result *BatchResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create summary dir: %w", err)
	}
	path := summaryPath(dir, result, ".xlsx")

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Summary"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return "", fmt.Errorf("xlsx sheet: %w", err)
	}

	w := &sheetWriter{f: f, sheet: sheet}
	headers := make([]any, len(SummaryHeaders))
	for i, h := range SummaryHeaders {
		headers[i] = h
	}
	w.row(1, headers...)

	row := 2
	for _, r := range result.Records {
		w.row(row, r.File, string(r.Mode), r.Chunks, roundSeconds(r.Elapsed.Seconds()), r.Outcome())
		row++
	}
	w.row(row, "TOTAL", nil, nil, roundSeconds(result.Elapsed.Seconds()), fmt.Sprintf("%d files", len(result.Records)))

	w.colWidth("A", "A", 48) // file
	w.colWidth("B", "D", 12)
	w.colWidth("E", "E", 40) // outcome
	if w.err != nil {
		return "", fmt.Errorf("xlsx write: %w", w.err)
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("xlsx write: %w", err)
	}
	return path, nil
}

// sheetWriter fills one worksheet and keeps the first error; later calls
// are no-ops once an error is recorded.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

// row writes values from column A on; nil values leave the cell empty.
func (w *sheetWriter) row(row int, values ...any) {
	for i, v := range values {
		if w.err != nil {
			return
		}
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			w.err = err
			return
		}
		w.err = w.f.SetCellValue(w.sheet, cell, v)
	}
}

func (w *sheetWriter) colWidth(start, end string, width float64) {
	if w.err != nil {
		return
	}
	w.err = w.f.SetColWidth(w.sheet, start, end, width)
}

func roundSeconds(s float64) float64 {
	v, _ := strconv.ParseFloat(seconds(s), 64)
	return v
}
