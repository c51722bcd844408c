package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/raphaelgruber/regextract/internal/models"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Extraction is the aggregated outcome of all chunks of one file.
type Extraction struct {
	Attempts    []models.ExtractionAttempt // indexed by chunk
	Results     []string                   // successful texts, chunk order
	Failed      []int                      // failed chunk indices, ascending
	TotalChunks int
	Elapsed     time.Duration
}

// Coordinator fans chunks out to a Worker and collects the attempts.
type Coordinator struct {
	worker        *Worker
	maxConcurrent int
	chunkDelay    time.Duration
	logger        *slog.Logger
}

// NewCoordinator creates a coordinator. maxConcurrent bounds in-flight
// provider calls in parallel mode; chunkDelay separates chunks in
// sequential mode.
func NewCoordinator(worker *Worker, maxConcurrent int, chunkDelay time.Duration, logger *slog.Logger) *Coordinator {
	if maxConcurrent < 1 {
		maxConcurrent = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		worker:        worker,
		maxConcurrent: maxConcurrent,
		chunkDelay:    chunkDelay,
		logger:        logger,
	}
}

// Run extracts every chunk. A failing chunk never aborts the others; an
// error is returned only when ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context, chunks []models.Chunk, mode models.Mode) (*Extraction, error) {
	start := time.Now()
	attempts := make([]models.ExtractionAttempt, len(chunks))

	c.logger.Info("extraction started", "chunks", len(chunks), "mode", mode)

	switch mode {
	case models.ModeSequential:
		for i, ch := range chunks {
			attempts[i] = c.worker.Process(ctx, ch, nil)
			if ctx.Err() != nil {
				break
			}
			if i < len(chunks)-1 {
				if err := sleep(ctx, c.chunkDelay); err != nil {
					break
				}
			}
		}
	default:
		sem := semaphore.NewWeighted(int64(c.maxConcurrent))
		var g errgroup.Group
		for i, ch := range chunks {
			g.Go(func() error {
				attempts[i] = c.worker.Process(ctx, ch, sem)
				return nil
			})
		}
		_ = g.Wait()
	}

	if err := ctx.Err(); err != nil {
		c.logger.Warn("extraction interrupted", "chunks", len(chunks), "error", err)
		return nil, err
	}

	ext := &Extraction{
		Attempts:    attempts,
		TotalChunks: len(chunks),
		Elapsed:     time.Since(start),
	}
	for i, a := range attempts {
		if a.OK() {
			ext.Results = append(ext.Results, *a.Raw)
		} else {
			ext.Failed = append(ext.Failed, i)
		}
	}

	c.logger.Info("extraction finished",
		"chunks", ext.TotalChunks,
		"failed", len(ext.Failed),
		"elapsed_ms", ext.Elapsed.Milliseconds(),
	)
	return ext, nil
}
