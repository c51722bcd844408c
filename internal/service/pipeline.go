package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/raphaelgruber/regextract/internal/metrics"
	"github.com/raphaelgruber/regextract/internal/models"
	"github.com/raphaelgruber/regextract/internal/parser"
)

// PipelineOptions configures a File Pipeline.
type PipelineOptions struct {
	MaxWords int
	Overlap  int
	Mode     models.Mode
	// Strict refuses to save output when any chunk failed.
	Strict  bool
	Metrics *metrics.Collector
	Logger  *slog.Logger
}

// Pipeline turns one OCR text file into one JSON output file.
type Pipeline struct {
	coordinator *Coordinator
	maxWords    int
	overlap     int
	mode        models.Mode
	strict      bool
	metrics     *metrics.Collector
	logger      *slog.Logger
}

// NewPipeline creates a File Pipeline around a coordinator.
func NewPipeline(coordinator *Coordinator, opts PipelineOptions) *Pipeline {
	if opts.MaxWords < 1 {
		opts.MaxWords = 500
	}
	if opts.Mode == "" {
		opts.Mode = models.ModeParallel
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Pipeline{
		coordinator: coordinator,
		maxWords:    opts.MaxWords,
		overlap:     opts.Overlap,
		mode:        opts.Mode,
		strict:      opts.Strict,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
	}
}

// Chunks reads inputPath and returns its word windows without calling the
// provider.
func (p *Pipeline) Chunks(inputPath string) ([]models.Chunk, error) {
	doc, err := readDocument(inputPath)
	if err != nil {
		return nil, err
	}
	return parser.ChunkWords(doc.Text, p.maxWords, p.overlap), nil
}

// ProcessFile runs chunking, extraction and assembly for one file and
// writes outputPath when the outcome allows it. It never returns an error;
// every outcome is described by the RunRecord.
func (p *Pipeline) ProcessFile(ctx context.Context, inputPath, outputPath string) models.RunRecord {
	rec, _ := p.process(ctx, inputPath, outputPath)
	return rec
}

// process is ProcessFile that also returns the saved records.
func (p *Pipeline) process(ctx context.Context, inputPath, outputPath string) (models.RunRecord, []models.ExtractionRecord) {
	start := time.Now()
	rec := models.RunRecord{File: inputPath, Mode: p.mode}
	var saved []models.ExtractionRecord
	logger := p.logger.With("file", inputPath)

	finish := func(status models.RunStatus, err error) (models.RunRecord, []models.ExtractionRecord) {
		rec.Status = status
		rec.Elapsed = time.Since(start)
		if err != nil {
			rec.Err = err.Error()
		}
		p.metrics.RecordTiming(metrics.OpFile, rec.Elapsed)
		if !rec.Saved() && status != models.StatusEmpty && status != models.StatusNoData {
			p.metrics.RecordFailure(metrics.OpFile)
		}
		logger.Info("file finished",
			"status", rec.Status,
			"chunks", rec.Chunks,
			"records", rec.Records,
			"elapsed_ms", rec.Elapsed.Milliseconds(),
		)
		if !rec.Saved() {
			return rec, nil
		}
		return rec, saved
	}

	doc, err := readDocument(inputPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Error("input file not found", "error", err)
			return finish(models.StatusNotFound, err)
		}
		logger.Error("read input failed", "error", err)
		return finish(models.StatusReadFailed, err)
	}
	if doc.IsBlank() {
		logger.Warn("input file is empty")
		return finish(models.StatusEmpty, nil)
	}

	chunks := parser.ChunkWords(doc.Text, p.maxWords, p.overlap)
	rec.Chunks = len(chunks)
	logger.Info("file started", "chunks", len(chunks), "mode", p.mode)

	ext, err := p.coordinator.Run(ctx, chunks, p.mode)
	if err != nil {
		return finish(models.StatusInterrupted, err)
	}
	rec.FailedChunks = ext.Failed

	if len(ext.Failed) > 0 && p.strict {
		logger.Error("chunks failed in strict mode, output not written", "failed_chunks", ext.Failed)
		return finish(models.StatusFailedChunks, fmt.Errorf("%d of %d chunks failed", len(ext.Failed), len(chunks)))
	}

	records, err := Assemble(ext.Results, logger)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			logger.Error("failed to parse extracted records", "error", perr.Err, "text", perr.Text)
		}
		return finish(models.StatusParseFailed, err)
	}
	if len(records) == 0 {
		logger.Warn("no records extracted")
		return finish(models.StatusNoData, nil)
	}

	if err := writeRecords(outputPath, records); err != nil {
		logger.Error("write output failed", "output", outputPath, "error", err)
		return finish(models.StatusWriteFailed, err)
	}
	rec.Records = len(records)
	rec.Output = outputPath
	saved = records

	if len(ext.Failed) > 0 {
		logger.Warn("saved with missing chunks", "failed_chunks", ext.Failed)
		return finish(models.StatusPartialSuccess, nil)
	}
	return finish(models.StatusSuccess, nil)
}

func readDocument(path string) (*models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &models.Document{
		Path: path,
		Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Text: string(data),
	}, nil
}

// writeRecords saves records as an indented UTF-8 JSON array. The file is
// written next to its destination and renamed into place.
func writeRecords(path string, records []models.ExtractionRecord) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode records: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
