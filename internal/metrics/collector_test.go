package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorTimings(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpChunk, 100*time.Millisecond)
	c.RecordTiming(OpChunk, 300*time.Millisecond)
	c.RecordRetry(OpChunk)
	c.RecordFailure(OpChunk)

	snap := c.Snapshot()
	require.NotNil(t, snap.Chunk)
	assert.Equal(t, int64(2), snap.Chunk.Count)
	assert.Equal(t, int64(400), snap.Chunk.TotalTimeMs)
	assert.InDelta(t, 200, snap.Chunk.AvgTimeMs, 0.001)
	assert.Equal(t, int64(100), snap.Chunk.MinTimeMs)
	assert.Equal(t, int64(300), snap.Chunk.MaxTimeMs)
	assert.Equal(t, int64(1), snap.Chunk.Retries)
	assert.Equal(t, int64(1), snap.Chunk.Failures)

	assert.Nil(t, snap.File)
	assert.Nil(t, snap.Chunk.TotalInputTokens)
}

func TestCollectorTokenUsage(t *testing.T) {
	c := NewCollector()
	c.RecordLLMUsage(OpProviderCall, time.Second, 100, 20)
	c.RecordLLMUsage(OpProviderCall, time.Second, 50, 40)

	snap := c.Snapshot()
	require.NotNil(t, snap.ProviderCall)
	require.NotNil(t, snap.ProviderCall.TotalInputTokens)
	assert.Equal(t, int64(150), *snap.ProviderCall.TotalInputTokens)
	assert.Equal(t, int64(60), *snap.ProviderCall.TotalOutputTokens)
	assert.Equal(t, int64(50), *snap.ProviderCall.MinInputTokens)
	assert.Equal(t, int64(40), *snap.ProviderCall.MaxOutputTokens)
}

func TestCollectorFailuresOnly(t *testing.T) {
	c := NewCollector()
	c.RecordFailure(OpProviderCall)

	snap := c.Snapshot()
	require.NotNil(t, snap.ProviderCall)
	assert.Equal(t, int64(0), snap.ProviderCall.Count)
	assert.Equal(t, int64(1), snap.ProviderCall.Failures)
	assert.Equal(t, int64(0), snap.ProviderCall.MinTimeMs)
}

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordTiming(OpProviderCall, time.Millisecond)
			c.RecordRetry(OpProviderCall)
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	assert.Equal(t, int64(50), snap.ProviderCall.Count)
	assert.Equal(t, int64(50), snap.ProviderCall.Retries)
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordTiming(OpChunk, time.Millisecond)
		c.RecordRetry(OpChunk)
		c.RecordFailure(OpChunk)
		c.RecordLLMUsage(OpProviderCall, time.Millisecond, 1, 1)
	})
}
