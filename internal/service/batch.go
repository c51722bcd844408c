package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/regextract/internal/metrics"
	"github.com/raphaelgruber/regextract/internal/models"
)

// ErrNoInputFiles is returned when the input directory holds no .txt files.
var ErrNoInputFiles = errors.New("no .txt files found")

// Observer receives per-file progress events from a BatchRunner.
type Observer interface {
	FileStarted(index, total int, file string)
	FileFinished(index, total int, rec models.RunRecord)
}

// RunStore persists batch runs. Implemented by db.Client.
type RunStore interface {
	SaveBatch(ctx context.Context, run *models.BatchRun) error
	SaveFileRun(ctx context.Context, runID string, rec models.RunRecord) (string, error)
	SaveRecords(ctx context.Context, runID, fileRunID string, records []models.ExtractionRecord) error
}

// BatchOptions configures a BatchRunner.
type BatchOptions struct {
	// FileDelay is slept between processed files.
	FileDelay time.Duration
	Observer  Observer
	Store     RunStore
	// Provider and Model are recorded with the run in Store.
	Provider string
	Model    string
	Strict   bool
	Metrics  *metrics.Collector
	Logger   *slog.Logger
}

// BatchResult summarizes one batch invocation.
type BatchResult struct {
	ID      string
	Started time.Time
	Elapsed time.Duration
	Records []models.RunRecord
}

// Counts returns the number of files per status.
func (r *BatchResult) Counts() map[models.RunStatus]int {
	counts := make(map[models.RunStatus]int)
	for _, rec := range r.Records {
		counts[rec.Status]++
	}
	return counts
}

// BatchRunner processes every text file of a directory tree in order.
type BatchRunner struct {
	pipeline  *Pipeline
	fileDelay time.Duration
	observer  Observer
	store     RunStore
	provider  string
	model     string
	strict    bool
	metrics   *metrics.Collector
	logger    *slog.Logger
}

// NewBatchRunner creates a batch runner around a File Pipeline.
func NewBatchRunner(pipeline *Pipeline, opts BatchOptions) *BatchRunner {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &BatchRunner{
		pipeline:  pipeline,
		fileDelay: opts.FileDelay,
		observer:  opts.Observer,
		store:     opts.Store,
		provider:  opts.Provider,
		model:     opts.Model,
		strict:    opts.Strict,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
	}
}

// CollectFiles returns all *.txt files under dir, sorted by path.
func CollectFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && filepath.Ext(path) == ".txt" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// OutputPath maps an input file to its JSON output under outputDir,
// preserving the directory layout below inputDir.
func OutputPath(inputDir, outputDir, file string) (string, error) {
	rel, err := filepath.Rel(inputDir, file)
	if err != nil {
		return "", fmt.Errorf("relative path: %w", err)
	}
	return filepath.Join(outputDir, strings.TrimSuffix(rel, filepath.Ext(rel))+".json"), nil
}

// Run processes all files. On interrupt the files seen so far are returned
// together with ctx.Err().
func (b *BatchRunner) Run(ctx context.Context, inputDir, outputDir string) (*BatchResult, error) {
	files, err := CollectFiles(inputDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoInputFiles, inputDir)
	}

	result := &BatchResult{ID: uuid.NewString(), Started: time.Now()}
	batch := &models.BatchRun{
		ID:        models.NewRunID(result.ID),
		Provider:  b.provider,
		Model:     b.model,
		Mode:      string(b.pipeline.mode),
		Strict:    b.strict,
		InputDir:  inputDir,
		OutputDir: outputDir,
		Total:     len(files),
		StartedAt: result.Started,
	}
	b.persist(ctx, "save batch", func(ctx context.Context) error {
		return b.store.SaveBatch(ctx, batch)
	})

	b.logger.Info("batch started", "run_id", result.ID, "files", len(files), "input", inputDir, "output", outputDir)

	processed := false
	for i, file := range files {
		if ctx.Err() != nil {
			break
		}

		rel, _ := filepath.Rel(inputDir, file)
		out, err := OutputPath(inputDir, outputDir, file)
		if err != nil {
			return nil, err
		}

		if _, err := os.Stat(out); err == nil {
			b.logger.Info("output exists, skipping", "file", rel, "output", out)
			rec := models.RunRecord{File: rel, Mode: b.pipeline.mode, Status: models.StatusSkipped, Output: out}
			result.Records = append(result.Records, rec)
			if b.observer != nil {
				b.observer.FileFinished(i, len(files), rec)
			}
			continue
		}

		if processed {
			if err := sleep(ctx, b.fileDelay); err != nil {
				break
			}
		}
		processed = true

		if b.observer != nil {
			b.observer.FileStarted(i, len(files), rel)
		}
		rec, records := b.pipeline.process(ctx, file, out)
		rec.File = rel
		result.Records = append(result.Records, rec)
		if b.observer != nil {
			b.observer.FileFinished(i, len(files), rec)
		}

		b.persist(ctx, "save file run", func(ctx context.Context) error {
			fileRunID, err := b.store.SaveFileRun(ctx, result.ID, rec)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return nil
			}
			return b.store.SaveRecords(ctx, result.ID, fileRunID, records)
		})
	}

	result.Elapsed = time.Since(result.Started)
	counts := result.Counts()

	completed := time.Now()
	batch.CompletedAt = &completed
	batch.Counts = make(map[string]int, len(counts))
	for status, n := range counts {
		batch.Counts[string(status)] = n
	}
	// Persist the final state even after an interrupt.
	b.persist(context.WithoutCancel(ctx), "complete batch", func(ctx context.Context) error {
		return b.store.SaveBatch(ctx, batch)
	})

	b.logger.Info("batch finished",
		"run_id", result.ID,
		"files", len(result.Records),
		"total", len(files),
		"elapsed_ms", result.Elapsed.Milliseconds(),
	)
	return result, ctx.Err()
}

// persist runs fn against the store if one is configured. Store failures are
// logged and never fail the batch.
func (b *BatchRunner) persist(ctx context.Context, what string, fn func(context.Context) error) {
	if b.store == nil || ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := fn(ctx); err != nil {
		b.metrics.RecordFailure(metrics.OpDBWrite)
		b.logger.Warn("run store write failed", "op", what, "error", err)
		return
	}
	b.metrics.RecordTiming(metrics.OpDBWrite, time.Since(start))
}
