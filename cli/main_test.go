package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/amonks/soundscout/data"
	"github.com/amonks/soundscout/db"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("SOUNDSCOUT_CONFIG", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("LOG_LEVEL", "disabled")
	dbPath := filepath.Join(dir, "test.db")
	t.Setenv("DATABASE_PATH", dbPath)
	return dbPath
}

func TestRunUsage(t *testing.T) {
	isolate(t)
	var out bytes.Buffer

	err := run(nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usage: soundscout $cmd")

	err = run([]string{"fetch"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown cmd: 'fetch'")
}

func TestGenres(t *testing.T) {
	isolate(t)
	var out bytes.Buffer
	require.NoError(t, run([]string{"genres"}, &out))
	assert.Contains(t, out.String(), "1   Electronic\n")
	assert.Contains(t, out.String(), "19  Ambient\n")
}

func TestMissingArgument(t *testing.T) {
	isolate(t)
	var out bytes.Buffer
	err := run([]string{"similar"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing <artist>")
}

func TestInvalidEnumFlag(t *testing.T) {
	isolate(t)
	var out bytes.Buffer
	err := run([]string{"trending", "-timeframe", "decade"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported value 'decade'")
}

func TestTask(t *testing.T) {
	dbPath := isolate(t)

	store, err := db.Open(dbPath)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.CreateTask(ctx, &data.DiscoveryTask{TaskID: "t1", TaskType: "batch_scrape", Target: "a,b", Status: data.TaskPending}))
	require.NoError(t, store.CreateTask(ctx, &data.DiscoveryTask{TaskID: "t2", TaskType: "batch_scrape", Target: "c", Status: data.TaskPending}))
	require.NoError(t, store.CompleteTask(ctx, "t2", data.TaskCompleted, data.BatchResult{Succeeded: 1}, ""))
	require.NoError(t, store.Close())

	t.Run("summary", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run([]string{"task"}, &out))
		assert.Contains(t, out.String(), "TASKS\n  2\ttotal\n")
		assert.Contains(t, out.String(), "1\tpending (50.00%)")
		assert.Contains(t, out.String(), "1\tcompleted (50.00%)")
		assert.Contains(t, out.String(), "t1")
		assert.Contains(t, out.String(), "100%")
	})

	t.Run("one task", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run([]string{"task", "t2"}, &out))
		var got data.DiscoveryTask
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, data.TaskCompleted, got.Status)
		assert.JSONEq(t, `{"items":null,"succeeded":1,"failed":0}`, string(got.Result))
	})

	t.Run("unknown task", func(t *testing.T) {
		var out bytes.Buffer
		err := run([]string{"task", "nope"}, &out)
		assert.ErrorIs(t, err, db.ErrTaskNotFound)
	})
}
