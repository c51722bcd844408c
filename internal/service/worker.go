// Package service implements the extraction pipeline: chunk workers, the
// per-file coordinator, result assembly and the batch runner.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/raphaelgruber/regextract/internal/llm"
	"github.com/raphaelgruber/regextract/internal/metrics"
	"github.com/raphaelgruber/regextract/internal/models"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// errEmptyResponse marks a reply that contained no usable text.
var errEmptyResponse = errors.New("empty response")

// WorkerOptions configures retry behaviour for a Worker.
type WorkerOptions struct {
	// Instructions are prepended to every chunk in the user message.
	Instructions string
	// MaxRetries is the total number of attempts per chunk (default 3).
	MaxRetries int
	// Backoff is multiplied by the attempt number between attempts.
	Backoff time.Duration
	// Timeout bounds a single provider call (default 180s).
	Timeout time.Duration
	// Limiter throttles provider calls across all workers (optional).
	Limiter *rate.Limiter
	// Metrics records call timings and token usage (optional).
	Metrics *metrics.Collector
	Logger  *slog.Logger
}

// Worker dispatches one chunk to the provider with bounded retries.
type Worker struct {
	provider     llm.Provider
	instructions string
	maxRetries   int
	backoff      time.Duration
	timeout      time.Duration
	limiter      *rate.Limiter
	metrics      *metrics.Collector
	logger       *slog.Logger
}

// NewWorker creates a chunk worker.
func NewWorker(provider llm.Provider, opts WorkerOptions) *Worker {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 3
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 180 * time.Second
	}
	if opts.Instructions == "" {
		opts.Instructions = llm.DefaultInstructions
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Worker{
		provider:     provider,
		instructions: opts.Instructions,
		maxRetries:   opts.MaxRetries,
		backoff:      opts.Backoff,
		timeout:      opts.Timeout,
		limiter:      opts.Limiter,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
	}
}

// Process extracts one chunk. sem bounds concurrent provider calls and may
// be nil; it is held only while a call is in flight.
func (w *Worker) Process(ctx context.Context, chunk models.Chunk, sem *semaphore.Weighted) models.ExtractionAttempt {
	start := time.Now()
	prompt := llm.BuildUserPrompt(w.instructions, chunk.Text)
	attempt := models.ExtractionAttempt{ChunkIndex: chunk.Index, Status: models.AttemptExhaustedRetries}

	w.logger.Info("chunk started", "chunk", chunk.Index, "words", chunk.Words())

	for n := 1; n <= w.maxRetries; n++ {
		attempt.Attempts = n
		if n > 1 {
			w.metrics.RecordRetry(metrics.OpChunk)
		}

		text, err := w.call(ctx, prompt, sem)
		if err == nil {
			attempt.Raw = &text
			attempt.Status = models.AttemptSuccess
			attempt.Err = nil
			break
		}
		attempt.Err = err

		if ctx.Err() != nil || errors.Is(err, llm.ErrFatalAPI) {
			attempt.Status = models.AttemptAborted
			w.logger.Warn("chunk aborted", "chunk", chunk.Index, "attempt", n, "error", err)
			break
		}

		w.logger.Warn("chunk attempt failed",
			"chunk", chunk.Index,
			"attempt", n,
			"max_retries", w.maxRetries,
			"error", err,
		)
		if n == w.maxRetries {
			break
		}
		if err := sleep(ctx, w.backoff*time.Duration(n)); err != nil {
			attempt.Status = models.AttemptAborted
			attempt.Err = err
			break
		}
	}

	attempt.Elapsed = time.Since(start)
	w.metrics.RecordTiming(metrics.OpChunk, attempt.Elapsed)
	if !attempt.OK() {
		w.metrics.RecordFailure(metrics.OpChunk)
		w.logger.Error("chunk failed",
			"chunk", chunk.Index,
			"status", attempt.Status,
			"attempts", attempt.Attempts,
			"elapsed_ms", attempt.Elapsed.Milliseconds(),
			"error", attempt.Err,
		)
		return attempt
	}

	w.logger.Info("chunk finished",
		"chunk", chunk.Index,
		"attempts", attempt.Attempts,
		"elapsed_ms", attempt.Elapsed.Milliseconds(),
	)
	return attempt
}

// call performs one rate-limited, timeout-bounded provider request.
func (w *Worker) call(ctx context.Context, prompt string, sem *semaphore.Weighted) (string, error) {
	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit: %w", err)
		}
	}
	if sem != nil {
		if err := sem.Acquire(ctx, 1); err != nil {
			return "", err
		}
		defer sem.Release(1)
	}

	callCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	start := time.Now()
	c, err := w.provider.Complete(callCtx, llm.SystemMessage, prompt)
	elapsed := time.Since(start)
	if err != nil {
		w.metrics.RecordFailure(metrics.OpProviderCall)
		return "", err
	}
	w.metrics.RecordLLMUsage(metrics.OpProviderCall, elapsed, c.InputTokens, c.OutputTokens)

	if strings.TrimSpace(c.Text) == "" {
		return "", errEmptyResponse
	}
	return c.Text, nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
