package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/raphaelgruber/regextract/internal/llm"
	"github.com/raphaelgruber/regextract/internal/models"
)

// stubProvider answers every call with fn.
type stubProvider struct {
	fn func(ctx context.Context, user string) (string, error)

	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration

	mu      sync.Mutex
	prompts []string
}

func (s *stubProvider) Complete(ctx context.Context, system, user string) (llm.Completion, error) {
	s.calls.Add(1)
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		m := s.maxSeen.Load()
		if n <= m || s.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}

	s.mu.Lock()
	s.prompts = append(s.prompts, user)
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return llm.Completion{}, ctx.Err()
		}
	}
	text, err := s.fn(ctx, user)
	if err != nil {
		return llm.Completion{}, err
	}
	return llm.Completion{Text: text, InputTokens: 10, OutputTokens: 5}, nil
}

func (s *stubProvider) Name() string  { return "stub" }
func (s *stubProvider) Model() string { return "stub-model" }

func answer(text string) func(context.Context, string) (string, error) {
	return func(context.Context, string) (string, error) { return text, nil }
}

// failOn fails every chunk whose prompt contains marker and answers text
// otherwise.
func failOn(marker, text string) func(context.Context, string) (string, error) {
	return func(_ context.Context, user string) (string, error) {
		if strings.Contains(user, marker) {
			return "", io.ErrUnexpectedEOF
		}
		return text, nil
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestWorker(p llm.Provider, retries int) *Worker {
	return NewWorker(p, WorkerOptions{
		Instructions: "Extract records.",
		MaxRetries:   retries,
		Timeout:      time.Second,
		Logger:       discardLogger(),
	})
}

func newTestPipeline(p llm.Provider, maxWords, overlap int, mode models.Mode, strict bool) *Pipeline {
	coord := NewCoordinator(newTestWorker(p, 2), 4, 0, discardLogger())
	return NewPipeline(coord, PipelineOptions{
		MaxWords: maxWords,
		Overlap:  overlap,
		Mode:     mode,
		Strict:   strict,
		Logger:   discardLogger(),
	})
}

// chunksOf builds consecutive, non-overlapping windows over texts.
func chunksOf(texts ...string) []models.Chunk {
	chunks := make([]models.Chunk, len(texts))
	start := 0
	for i, t := range texts {
		end := start + len(strings.Fields(t))
		chunks[i] = models.Chunk{Index: i, Start: start, End: end, Text: t}
		start = end
	}
	return chunks
}

func strPtr(s string) *string { return &s }
