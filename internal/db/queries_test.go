package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/regextract/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBatch(started time.Time) *models.BatchRun {
	return &models.BatchRun{
		ID:        models.NewRunID(uuid.NewString()),
		Provider:  "local-http",
		Model:     "gemma3:12b",
		Mode:      "parallel",
		InputDir:  "/data/in",
		OutputDir: "/data/out",
		Total:     2,
		StartedAt: started,
	}
}

func TestSaveBatchAndGetRun(t *testing.T) {
	skipShort(t)
	ctx := context.Background()
	t.Cleanup(func() { _ = wipe(ctx, testDB) })

	run := newBatch(time.Now().UTC().Truncate(time.Second))
	require.NoError(t, testDB.SaveBatch(ctx, run))

	id := models.MustRecordIDString(run.ID)
	got, err := testDB.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "gemma3:12b", got.Model)
	assert.Equal(t, 2, got.Total)
	assert.Nil(t, got.CompletedAt)

	completed := run.StartedAt.Add(time.Minute)
	run.CompletedAt = &completed
	run.Counts = map[string]int{"success": 1, "skipped": 1}
	require.NoError(t, testDB.SaveBatch(ctx, run))

	got, err = testDB.GetRun(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, completed.Equal(*got.CompletedAt))
	assert.Equal(t, 1, got.Counts["success"])
}

func TestGetRunNotFound(t *testing.T) {
	skipShort(t)

	_, err := testDB.GetRun(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSaveFileRunAndRecords(t *testing.T) {
	skipShort(t)
	ctx := context.Background()
	t.Cleanup(func() { _ = wipe(ctx, testDB) })

	run := newBatch(time.Now().UTC())
	require.NoError(t, testDB.SaveBatch(ctx, run))
	runID := models.MustRecordIDString(run.ID)

	court := "Amtsgericht Glogau"
	year := "1927"
	fileID, err := testDB.SaveFileRun(ctx, runID, models.RunRecord{
		File:         "glogau.txt",
		Mode:         models.ModeParallel,
		Chunks:       3,
		Elapsed:      1500 * time.Millisecond,
		FailedChunks: []int{2},
		Records:      1,
		Status:       models.StatusPartialSuccess,
		Output:       "/data/out/glogau.json",
	})
	require.NoError(t, err)
	require.NotEmpty(t, fileID)

	_, err = testDB.SaveFileRun(ctx, runID, models.RunRecord{
		File:   "empty.txt",
		Mode:   models.ModeParallel,
		Status: models.StatusEmpty,
	})
	require.NoError(t, err)

	require.NoError(t, testDB.SaveRecords(ctx, runID, fileID, []models.ExtractionRecord{
		{CourtName: &court, RegistrationYear: &year},
	}))

	fileRuns, err := testDB.ListFileRuns(ctx, runID)
	require.NoError(t, err)
	require.Len(t, fileRuns, 2)
	assert.Equal(t, "glogau.txt", fileRuns[0].File)
	assert.Equal(t, []int{2}, fileRuns[0].FailedChunks)
	assert.Equal(t, int64(1500), fileRuns[0].ElapsedMs)
	assert.Equal(t, "/data/out/glogau.json", models.Deref(fileRuns[0].Output))
	assert.Nil(t, fileRuns[1].Output)

	n, err := testDB.CountRecords(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestListRunsNewestFirst(t *testing.T) {
	skipShort(t)
	ctx := context.Background()
	t.Cleanup(func() { _ = wipe(ctx, testDB) })

	base := time.Now().UTC()
	older := newBatch(base.Add(-time.Hour))
	newer := newBatch(base)
	require.NoError(t, testDB.SaveBatch(ctx, older))
	require.NoError(t, testDB.SaveBatch(ctx, newer))

	runs, err := testDB.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.ID, runs[0].ID)

	runs, err = testDB.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestSaveRecordsEmpty(t *testing.T) {
	// No round trip is needed for an empty slice.
	var c Client
	assert.NoError(t, c.SaveRecords(context.Background(), "run", "file", nil))
}
