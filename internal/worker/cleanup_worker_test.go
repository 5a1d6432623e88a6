package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunOnce_SumsTargets(t *testing.T) {
	w := NewCleanupWorker(map[string]Sweepable{
		"dashboards":  SweepFunc(func() int { return 2 }),
		"revocations": SweepFunc(func() int { return 3 }),
	}, nil, time.Minute)

	assert.Equal(t, 5, w.RunOnce())
}

func TestStart_StopsOnCancel(t *testing.T) {
	var sweeps atomic.Int32
	w := NewCleanupWorker(map[string]Sweepable{
		"count": SweepFunc(func() int { sweeps.Add(1); return 0 }),
	}, nil, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return sweeps.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
