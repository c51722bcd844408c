package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/raphaelgruber/regextract/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinatorFailingMiddleChunk(t *testing.T) {
	for _, mode := range []models.Mode{models.ModeParallel, models.ModeSequential} {
		t.Run(string(mode), func(t *testing.T) {
			p := &stubProvider{fn: func(_ context.Context, user string) (string, error) {
				switch {
				case strings.Contains(user, "beta"):
					return "", fmt.Errorf("upstream down")
				case strings.Contains(user, "alpha"):
					return `{"n":"alpha"}`, nil
				default:
					return `{"n":"gamma"}`, nil
				}
			}}
			c := NewCoordinator(newTestWorker(p, 2), 3, 0, discardLogger())

			ext, err := c.Run(context.Background(), chunksOf("alpha", "beta", "gamma"), mode)

			require.NoError(t, err)
			assert.Equal(t, 3, ext.TotalChunks)
			assert.Equal(t, []int{1}, ext.Failed)
			assert.Equal(t, []string{`{"n":"alpha"}`, `{"n":"gamma"}`}, ext.Results)
			require.Len(t, ext.Attempts, 3)
			assert.Equal(t, models.AttemptExhaustedRetries, ext.Attempts[1].Status)
			assert.Equal(t, 2, ext.Attempts[1].Attempts)
		})
	}
}

func TestCoordinatorBoundsConcurrency(t *testing.T) {
	p := &stubProvider{fn: answer("{}"), delay: 30 * time.Millisecond}
	c := NewCoordinator(newTestWorker(p, 1), 2, 0, discardLogger())

	ext, err := c.Run(context.Background(), chunksOf("a", "b", "c", "d", "e", "f"), models.ModeParallel)

	require.NoError(t, err)
	assert.Empty(t, ext.Failed)
	assert.Len(t, ext.Results, 6)
	assert.LessOrEqual(t, p.maxSeen.Load(), int32(2))
}

func TestCoordinatorSequentialOrder(t *testing.T) {
	p := &stubProvider{fn: answer("{}")}
	c := NewCoordinator(newTestWorker(p, 1), 5, time.Millisecond, discardLogger())

	_, err := c.Run(context.Background(), chunksOf("first", "second", "third"), models.ModeSequential)

	require.NoError(t, err)
	require.Len(t, p.prompts, 3)
	assert.Contains(t, p.prompts[0], "first")
	assert.Contains(t, p.prompts[1], "second")
	assert.Contains(t, p.prompts[2], "third")
	assert.Equal(t, int32(1), p.maxSeen.Load())
}

func TestCoordinatorAllFailed(t *testing.T) {
	p := &stubProvider{fn: answer("")}
	c := NewCoordinator(newTestWorker(p, 1), 5, 0, discardLogger())

	ext, err := c.Run(context.Background(), chunksOf("a", "b"), models.ModeParallel)

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, ext.Failed)
	assert.Empty(t, ext.Results)
}

func TestCoordinatorInterrupted(t *testing.T) {
	p := &stubProvider{fn: answer("{}"), delay: time.Second}
	c := NewCoordinator(newTestWorker(p, 3), 5, 0, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	ext, err := c.Run(ctx, chunksOf("a", "b"), models.ModeParallel)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, ext)
}

func TestCoordinatorBackoffDoesNotBlockOtherChunks(t *testing.T) {
	const backoff = 400 * time.Millisecond

	var (
		mu         sync.Mutex
		failedAt   time.Time
		otherStart time.Time
		failedOnce bool
	)
	p := &stubProvider{fn: func(_ context.Context, user string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if strings.Contains(user, "flaky") {
			if !failedOnce {
				failedOnce = true
				failedAt = time.Now()
				return "", fmt.Errorf("upstream down")
			}
			return `{"n":"flaky"}`, nil
		}
		otherStart = time.Now()
		return `{"n":"steady"}`, nil
	}}
	w := NewWorker(p, WorkerOptions{MaxRetries: 2, Backoff: backoff, Logger: discardLogger()})
	c := NewCoordinator(w, 1, 0, discardLogger())

	ext, err := c.Run(context.Background(), chunksOf("flaky", "steady"), models.ModeParallel)

	require.NoError(t, err)
	assert.Empty(t, ext.Failed)
	assert.Equal(t, []string{`{"n":"flaky"}`, `{"n":"steady"}`}, ext.Results)
	assert.Equal(t, 2, ext.Attempts[0].Attempts)
	assert.True(t, otherStart.Before(failedAt.Add(backoff)),
		"second chunk waited for the first chunk's backoff")
	assert.LessOrEqual(t, p.maxSeen.Load(), int32(1))
}
