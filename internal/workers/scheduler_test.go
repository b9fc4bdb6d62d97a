package workers

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWorker struct {
	*BaseWorker
	runCount int32
	runFunc  func(ctx context.Context) error
}

func newMockWorker(name string, interval time.Duration, enabled bool) *mockWorker {
	return &mockWorker{
		BaseWorker: NewBaseWorker(name, interval, enabled),
	}
}

func (m *mockWorker) Run(ctx context.Context) error {
	atomic.AddInt32(&m.runCount, 1)
	if m.runFunc != nil {
		return m.runFunc(ctx)
	}
	return nil
}

func (m *mockWorker) GetRunCount() int {
	return int(atomic.LoadInt32(&m.runCount))
}

func TestScheduler_StartStop(t *testing.T) {
	scheduler := NewScheduler()

	worker := newMockWorker("refresh", 100*time.Millisecond, true)
	scheduler.RegisterWorker(worker)

	require.NoError(t, scheduler.Start(context.Background()))
	assert.True(t, scheduler.IsRunning())

	time.Sleep(250 * time.Millisecond)

	require.NoError(t, scheduler.Stop())
	assert.False(t, scheduler.IsRunning())

	// immediate run plus at least one tick
	assert.GreaterOrEqual(t, worker.GetRunCount(), 2)
}

func TestScheduler_DisabledWorkerNeverRuns(t *testing.T) {
	scheduler := NewScheduler()

	enabled := newMockWorker("enabled", 100*time.Millisecond, true)
	disabled := newMockWorker("disabled", 100*time.Millisecond, false)
	scheduler.RegisterWorker(enabled)
	scheduler.RegisterWorker(disabled)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(250 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	assert.Greater(t, enabled.GetRunCount(), 0)
	assert.Equal(t, 0, disabled.GetRunCount())
}

func TestScheduler_RecordsWorkerHealth(t *testing.T) {
	scheduler := NewScheduler()

	flaky := newMockWorker("flaky", time.Hour, true)
	flaky.runFunc = func(context.Context) error {
		return fmt.Errorf("transient failure")
	}
	scheduler.RegisterWorker(flaky)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	health := flaky.Health()
	assert.Equal(t, int64(1), health.RunCount)
	assert.Equal(t, int64(1), health.ErrorCount)
	assert.Error(t, health.LastError)
}

func TestScheduler_ContextCancellation(t *testing.T) {
	scheduler := NewScheduler()
	scheduler.RegisterWorker(newMockWorker("w", 100*time.Millisecond, true))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, scheduler.Start(ctx))

	cancel()
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, scheduler.Stop())
}

func TestScheduler_CannotStartTwice(t *testing.T) {
	scheduler := NewScheduler()
	scheduler.RegisterWorker(newMockWorker("w", 100*time.Millisecond, true))

	ctx := context.Background()
	require.NoError(t, scheduler.Start(ctx))
	assert.Error(t, scheduler.Start(ctx))

	scheduler.Stop()
}

func TestScheduler_SurvivesWorkerPanic(t *testing.T) {
	scheduler := NewScheduler()

	panicky := newMockWorker("panicky", 80*time.Millisecond, true)
	panicky.runFunc = func(context.Context) error {
		panic("boom")
	}
	scheduler.RegisterWorker(panicky)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(220 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	// panics are recovered and the loop keeps ticking
	assert.GreaterOrEqual(t, panicky.GetRunCount(), 2)
}
