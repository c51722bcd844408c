package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/raphaelgruber/regextract/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []string
}

func (o *recordingObserver) FileStarted(index, total int, file string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, "start "+file)
}

func (o *recordingObserver) FileFinished(index, total int, rec models.RunRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, "finish "+rec.File+" "+string(rec.Status))
}

type fakeStore struct {
	batches  []models.BatchRun
	fileRuns []models.RunRecord
	records  map[string][]models.ExtractionRecord
	err      error
}

func (s *fakeStore) SaveBatch(_ context.Context, run *models.BatchRun) error {
	s.batches = append(s.batches, *run)
	return s.err
}

func (s *fakeStore) SaveFileRun(_ context.Context, runID string, rec models.RunRecord) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.fileRuns = append(s.fileRuns, rec)
	return rec.File, nil
}

func (s *fakeStore) SaveRecords(_ context.Context, runID, fileRunID string, records []models.ExtractionRecord) error {
	if s.records == nil {
		s.records = make(map[string][]models.ExtractionRecord)
	}
	s.records[fileRunID] = records
	return s.err
}

func TestBatchRunner(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeInput(t, in, "b.txt", "Amtsgericht Glogau")
	writeInput(t, in, "a.txt", "Amtsgericht Breslau")
	writeInput(t, in, "nested/c.txt", "Amtsgericht Liegnitz")
	writeInput(t, in, "empty.txt", "   ")
	writeInput(t, in, "notes.md", "ignored")
	writeInput(t, in, "upper.TXT", "ignored")

	// a.txt was finished by an earlier run.
	require.NoError(t, os.WriteFile(filepath.Join(out, "a.json"), []byte("[]"), 0o644))

	p := &stubProvider{fn: answer(glogauReply)}
	obs := &recordingObserver{}
	store := &fakeStore{}
	runner := NewBatchRunner(newTestPipeline(p, 500, 50, models.ModeParallel, false), BatchOptions{
		Observer: obs,
		Store:    store,
		Provider: "stub",
		Model:    "stub-model",
		Logger:   discardLogger(),
	})

	result, err := runner.Run(context.Background(), in, out)

	require.NoError(t, err)
	assert.NotEmpty(t, result.ID)
	require.Len(t, result.Records, 4)

	files := make([]string, len(result.Records))
	for i, r := range result.Records {
		files[i] = r.File
	}
	assert.Equal(t, []string{"a.txt", "b.txt", "empty.txt", filepath.Join("nested", "c.txt")}, files)

	counts := result.Counts()
	assert.Equal(t, 1, counts[models.StatusSkipped])
	assert.Equal(t, 2, counts[models.StatusSuccess])
	assert.Equal(t, 1, counts[models.StatusEmpty])

	assert.Equal(t, int32(2), p.calls.Load(), "skipped and empty files never reach the provider")

	skipped, err := os.ReadFile(filepath.Join(out, "a.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(skipped))
	assert.FileExists(t, filepath.Join(out, "nested", "c.json"))
	assert.NoFileExists(t, filepath.Join(out, "empty.json"))

	assert.Equal(t, []string{
		"finish a.txt skipped",
		"start b.txt",
		"finish b.txt success",
		"start empty.txt",
		"finish empty.txt empty",
		"start " + filepath.Join("nested", "c.txt"),
		"finish " + filepath.Join("nested", "c.txt") + " success",
	}, obs.events)

	require.Len(t, store.batches, 2)
	assert.Nil(t, store.batches[0].CompletedAt)
	final := store.batches[1]
	require.NotNil(t, final.CompletedAt)
	assert.Equal(t, 4, final.Total)
	assert.Equal(t, 2, final.Counts["success"])
	assert.Len(t, store.fileRuns, 3)
	assert.Len(t, store.records["b.txt"], 1)
	assert.NotContains(t, store.records, "empty.txt")
}

func TestBatchRunnerRerunSkipsEverything(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeInput(t, in, "a.txt", "Amtsgericht Glogau")

	p := &stubProvider{fn: answer(glogauReply)}
	runner := NewBatchRunner(newTestPipeline(p, 500, 50, models.ModeParallel, false), BatchOptions{Logger: discardLogger()})

	_, err := runner.Run(context.Background(), in, out)
	require.NoError(t, err)
	second, err := runner.Run(context.Background(), in, out)
	require.NoError(t, err)

	assert.Equal(t, int32(1), p.calls.Load())
	require.Len(t, second.Records, 1)
	assert.Equal(t, models.StatusSkipped, second.Records[0].Status)
}

func TestBatchRunnerNoInputFiles(t *testing.T) {
	in := t.TempDir()
	writeInput(t, in, "readme.md", "no text here")

	runner := NewBatchRunner(newTestPipeline(&stubProvider{fn: answer("")}, 500, 50, models.ModeParallel, false), BatchOptions{Logger: discardLogger()})
	_, err := runner.Run(context.Background(), in, t.TempDir())

	assert.ErrorIs(t, err, ErrNoInputFiles)
}

func TestBatchRunnerMissingInputDir(t *testing.T) {
	runner := NewBatchRunner(newTestPipeline(&stubProvider{fn: answer("")}, 500, 50, models.ModeParallel, false), BatchOptions{Logger: discardLogger()})
	_, err := runner.Run(context.Background(), filepath.Join(t.TempDir(), "missing"), t.TempDir())

	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoInputFiles))
}

func TestBatchRunnerInterruptedDuringDelay(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeInput(t, in, "a.txt", "Amtsgericht Glogau")
	writeInput(t, in, "b.txt", "Amtsgericht Breslau")

	p := &stubProvider{fn: answer(glogauReply)}
	runner := NewBatchRunner(newTestPipeline(p, 500, 50, models.ModeParallel, false), BatchOptions{
		FileDelay: time.Hour,
		Logger:    discardLogger(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	result, err := runner.Run(ctx, in, out)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotNil(t, result)
	require.Len(t, result.Records, 1)
	assert.Equal(t, models.StatusSuccess, result.Records[0].Status)
	assert.NoFileExists(t, filepath.Join(out, "b.json"))
}

func TestBatchRunnerStoreErrorsDoNotFail(t *testing.T) {
	in := t.TempDir()
	writeInput(t, in, "a.txt", "Amtsgericht Glogau")

	runner := NewBatchRunner(newTestPipeline(&stubProvider{fn: answer(glogauReply)}, 500, 50, models.ModeParallel, false), BatchOptions{
		Store:  &fakeStore{err: errors.New("connection refused")},
		Logger: discardLogger(),
	})
	result, err := runner.Run(context.Background(), in, t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, result.Records[0].Status)
}

func TestOutputPath(t *testing.T) {
	got, err := OutputPath("/data/in", "/data/out", "/data/in/1927/sept/glogau.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data/out", "1927", "sept", "glogau.json"), got)
}
