package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls atomic.Int32
	ttl   atomic.Int64
}

func (c *countingSweeper) SweepIdle(ttl time.Duration) int {
	c.calls.Add(1)
	c.ttl.Store(int64(ttl))
	return 0
}

func TestRunOnceUsesTTL(t *testing.T) {
	sweeper := &countingSweeper{}
	s := New(sweeper, "@every 1h", 30*time.Minute, nil)

	s.RunOnce()

	assert.Equal(t, int32(1), sweeper.calls.Load())
	assert.Equal(t, int64(30*time.Minute), sweeper.ttl.Load())
}

func TestStartRejectsInvalidSpec(t *testing.T) {
	s := New(&countingSweeper{}, "every now and then", time.Minute, nil)
	assert.Error(t, s.Start())
	assert.Empty(t, s.cron.Entries())
}

func TestStartAndStop(t *testing.T) {
	s := New(&countingSweeper{}, "@every 1h", time.Minute, nil)
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)
	s.Stop()
}

func TestStartRequiresSweeper(t *testing.T) {
	s := New(nil, "@every 1h", time.Minute, nil)
	assert.Error(t, s.Start())
}
