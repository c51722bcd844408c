package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/raphaelgruber/regextract/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// SaveBatch creates or updates an extraction run.
func (c *Client) SaveBatch(ctx context.Context, run *models.BatchRun) error {
	id, err := models.RecordIDString(run.ID)
	if err != nil {
		return fmt.Errorf("save batch: %w", err)
	}

	var counts map[string]int
	if len(run.Counts) > 0 {
		counts = run.Counts
	}

	_, err = surrealdb.Query[any](ctx, c.db, `
		UPSERT type::record("extraction_run", $id) SET
			provider = $provider,
			model = $model,
			mode = $mode,
			strict = $strict,
			input_dir = $input_dir,
			output_dir = $output_dir,
			total = $total,
			counts = $counts,
			started_at = $started_at,
			completed_at = $completed_at
	`, map[string]any{
		"id":           id,
		"provider":     run.Provider,
		"model":        run.Model,
		"mode":         run.Mode,
		"strict":       run.Strict,
		"input_dir":    run.InputDir,
		"output_dir":   run.OutputDir,
		"total":        run.Total,
		"counts":       counts,
		"started_at":   run.StartedAt,
		"completed_at": run.CompletedAt,
	})
	if err != nil {
		return fmt.Errorf("save batch: %w", wrapQueryError(err))
	}
	return nil
}

// SaveFileRun stores one RunRecord under runID and returns the new
// file_run id.
func (c *Client) SaveFileRun(ctx context.Context, runID string, rec models.RunRecord) (string, error) {
	id := uuid.NewString()
	failed := rec.FailedChunks
	if failed == nil {
		failed = []int{}
	}

	_, err := surrealdb.Query[any](ctx, c.db, `
		CREATE type::record("file_run", $id) SET
			run = type::record("extraction_run", $run),
			file = $file,
			mode = $mode,
			chunks = $chunks,
			elapsed_ms = $elapsed_ms,
			failed_chunks = $failed_chunks,
			records = $records,
			status = $status,
			output = $output,
			error = $error
	`, map[string]any{
		"id":            id,
		"run":           runID,
		"file":          rec.File,
		"mode":          string(rec.Mode),
		"chunks":        rec.Chunks,
		"elapsed_ms":    rec.Elapsed.Milliseconds(),
		"failed_chunks": failed,
		"records":       rec.Records,
		"status":        string(rec.Status),
		"output":        models.StringPtr(rec.Output),
		"error":         models.StringPtr(rec.Err),
	})
	if err != nil {
		return "", fmt.Errorf("save file run: %w", wrapQueryError(err))
	}
	return id, nil
}

// SaveRecords stores the extracted records of one file run in order.
func (c *Client) SaveRecords(ctx context.Context, runID, fileRunID string, records []models.ExtractionRecord) error {
	if len(records) == 0 {
		return nil
	}

	run := surrealmodels.NewRecordID("extraction_run", runID)
	file := surrealmodels.NewRecordID("file_run", fileRunID)
	rows := make([]map[string]any, len(records))
	for i, r := range records {
		row := map[string]any{
			"run":      run,
			"file":     file,
			"position": i,
		}
		for _, field := range models.RecordFields {
			row[field] = r.Field(field)
		}
		rows[i] = row
	}

	_, err := surrealdb.Query[any](ctx, c.db, `INSERT INTO register_record $rows`, map[string]any{
		"rows": rows,
	})
	if err != nil {
		return fmt.Errorf("save records: %w", wrapQueryError(err))
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (c *Client) ListRuns(ctx context.Context, limit int) ([]models.BatchRun, error) {
	if limit <= 0 {
		limit = 20
	}
	results, err := surrealdb.Query[[]models.BatchRun](ctx, c.db, `
		SELECT * FROM extraction_run ORDER BY started_at DESC LIMIT $limit
	`, map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	if results != nil && len(*results) > 0 {
		return (*results)[0].Result, nil
	}
	return []models.BatchRun{}, nil
}

// GetRun returns one run by id.
func (c *Client) GetRun(ctx context.Context, id string) (*models.BatchRun, error) {
	results, err := surrealdb.Query[[]models.BatchRun](ctx, c.db, `
		SELECT * FROM type::record("extraction_run", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &(*results)[0].Result[0], nil
}

// ListFileRuns returns the file runs of one run in processing order.
func (c *Client) ListFileRuns(ctx context.Context, runID string) ([]models.FileRun, error) {
	results, err := surrealdb.Query[[]models.FileRun](ctx, c.db, `
		SELECT * FROM file_run WHERE run = type::record("extraction_run", $run) ORDER BY created ASC
	`, map[string]any{"run": runID})
	if err != nil {
		return nil, fmt.Errorf("list file runs: %w", err)
	}

	if results != nil && len(*results) > 0 {
		return (*results)[0].Result, nil
	}
	return []models.FileRun{}, nil
}

// CountRecords returns the number of register records stored for a run.
func (c *Client) CountRecords(ctx context.Context, runID string) (int, error) {
	results, err := surrealdb.Query[[]struct {
		Count int `json:"count"`
	}](ctx, c.db, `
		SELECT count() AS count FROM register_record
		WHERE run = type::record("extraction_run", $run) GROUP ALL
	`, map[string]any{"run": runID})
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return 0, nil
	}
	return (*results)[0].Result[0].Count, nil
}
