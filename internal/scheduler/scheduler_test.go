package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleOnceRuns(t *testing.T) {
	s := New(nil)
	defer func() { _ = s.Stop(context.Background()) }()

	ran := make(chan string, 1)
	job := s.ScheduleOnce(10*time.Millisecond, "advance:chat-1", func(context.Context) {
		ran <- "done"
	})
	assert.Equal(t, "advance:chat-1", job.Name())

	select {
	case v := <-ran:
		assert.Equal(t, "done", v)
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
	assert.False(t, job.Cancel(), "cancel after run must report false")
	assert.Equal(t, 0, s.Pending())
}

func TestCancelPreventsRun(t *testing.T) {
	s := New(nil)
	defer func() { _ = s.Stop(context.Background()) }()

	var runs atomic.Int32
	job := s.ScheduleOnce(50*time.Millisecond, "expire", func(context.Context) {
		runs.Add(1)
	})
	require.Equal(t, 1, s.Pending())
	require.True(t, job.Cancel())
	require.False(t, job.Cancel(), "second cancel is a no-op")

	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())
	assert.Equal(t, 0, s.Pending())
}

func TestPanicInJobIsRecovered(t *testing.T) {
	s := New(nil)
	defer func() { _ = s.Stop(context.Background()) }()

	s.ScheduleOnce(time.Millisecond, "boom", func(context.Context) {
		panic("boom")
	})

	ran := make(chan struct{})
	s.ScheduleOnce(20*time.Millisecond, "after", func(context.Context) {
		close(ran)
	})
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler stopped running jobs after a panic")
	}
}

func TestStopDropsPendingAndRejectsNewJobs(t *testing.T) {
	s := New(nil)

	var runs atomic.Int32
	s.ScheduleOnce(30*time.Millisecond, "pending", func(context.Context) { runs.Add(1) })
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, 0, s.Pending())

	job := s.ScheduleOnce(time.Millisecond, "late", func(context.Context) { runs.Add(1) })
	assert.False(t, job.Cancel())

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())
}

func TestStopWaitsForRunningJob(t *testing.T) {
	s := New(nil)

	started := make(chan struct{})
	var finished atomic.Bool
	s.ScheduleOnce(time.Millisecond, "slow", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		finished.Store(true)
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.True(t, finished.Load())
}
