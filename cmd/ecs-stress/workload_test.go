package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWorkloadFrames(t *testing.T) {
	w := NewWorkload(0, 1, 50, zap.NewNop())
	require.NoError(t, w.Populate(200))
	assert.Equal(t, 200, w.storage.EntityCount())
	assert.Len(t, w.live, 200)

	for i := 0; i < 200; i++ {
		require.NoError(t, w.Frame())
		require.NoError(t, w.storage.CheckIntegrity())
		require.Equal(t, w.storage.EntityCount(), len(w.live))
	}

	assert.Positive(t, w.ops.ComponentInserts)
	assert.Positive(t, w.ops.Iterations)
}

func TestWorkloadDeterministic(t *testing.T) {
	play := func() OpCounts {
		w := NewWorkload(0, 42, 20, zap.NewNop())
		require.NoError(t, w.Populate(50))
		for i := 0; i < 50; i++ {
			require.NoError(t, w.Frame())
		}
		return w.ops
	}
	assert.Equal(t, play(), play())
}

func TestRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Duration = 50 * time.Millisecond
	cfg.Entities = 100
	cfg.Shards = 3
	cfg.Seed = 5

	report, err := run(context.Background(), &cfg, zap.NewNop())
	require.NoError(t, err)

	require.Len(t, report.ShardResults, 3)
	for i, result := range report.ShardResults {
		assert.Equal(t, i, result.Shard)
		assert.Positive(t, result.Frames)
	}
	assert.Positive(t, report.TotalFrames)
	assert.Len(t, report.FrameTime.Samples, int(report.TotalFrames))
	assert.LessOrEqual(t, report.FrameTime.Min, report.FrameTime.Max)

	report.RunID = "test-run"
	var buf bytes.Buffer
	require.NoError(t, report.Generate(&buf))
	assert.Contains(t, buf.String(), "**Run ID:** test-run")
	assert.Contains(t, buf.String(), "### Shard 2")
}

func TestStatsFinalize(t *testing.T) {
	s := Stats{Samples: []time.Duration{3 * time.Millisecond, time.Millisecond, 2 * time.Millisecond}}
	s.Finalize()

	assert.Equal(t, time.Millisecond, s.Min)
	assert.Equal(t, 3*time.Millisecond, s.Max)
	assert.Equal(t, 2*time.Millisecond, s.Avg)

	var empty Stats
	empty.Finalize()
	assert.Zero(t, empty.Avg)
}
