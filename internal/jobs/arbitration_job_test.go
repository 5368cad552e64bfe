package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeArbitrator struct {
	calls    atomic.Int32
	resolved int
	failed   int
	err      error
}

func (f *fakeArbitrator) ArbitrateDue(ctx context.Context, limit int) (int, int, error) {
	f.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return 0, 0, errors.New("missing deadline")
	}
	return f.resolved, f.failed, f.err
}

func TestRunOnceLogsBatch(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	arb := &fakeArbitrator{resolved: 2, failed: 1}
	job := NewArbitrationJob(arb, time.Minute, zap.New(core))

	job.RunOnce(context.Background())

	assert.Equal(t, int32(1), arb.calls.Load())
	entries := logs.FilterMessage("arbitration batch finished").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.EqualValues(t, 2, fields["resolved"])
	assert.EqualValues(t, 1, fields["failed"])
}

func TestRunOnceLogsFetchError(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	job := NewArbitrationJob(&fakeArbitrator{err: errors.New("db down")}, time.Minute, zap.New(core))

	job.RunOnce(context.Background())

	assert.Equal(t, 1, logs.FilterMessage("fetching due bets failed").Len())
	assert.Zero(t, logs.FilterMessage("arbitration batch finished").Len())
}

func TestStartTicksUntilStopped(t *testing.T) {
	arb := &fakeArbitrator{}
	job := NewArbitrationJob(arb, 10*time.Millisecond, zap.NewNop())

	done := make(chan struct{})
	go func() {
		job.Start()
		close(done)
	}()

	assert.Eventually(t, func() bool { return arb.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	job.Stop()
	job.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not stop")
	}
}
