package services

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstittsworth/fpl-predictor/internal/artifact"
	"github.com/jstittsworth/fpl-predictor/internal/fpl"
	"github.com/jstittsworth/fpl-predictor/internal/pipeline"
)

// blockingSource signals when a fetch begins and then blocks until
// released, so tests can hold a pipeline run in flight.
type blockingSource struct {
	startedOnce sync.Once
	started     chan struct{}
	release     chan struct{}
}

func newBlockingSource() *blockingSource {
	return &blockingSource{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (b *blockingSource) Fetch(ctx context.Context) (*fpl.Dataset, error) {
	b.startedOnce.Do(func() { close(b.started) })
	<-b.release
	return &fpl.Dataset{}, nil
}

func schedulerLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func blockedScheduler(t *testing.T, interval time.Duration) (*SchedulerService, *blockingSource) {
	t.Helper()
	source := newBlockingSource()
	pipe := pipeline.New(source, artifact.NewStore(t.TempDir()), nil, schedulerLogger(), pipeline.Options{})
	return NewSchedulerService(pipe, nil, schedulerLogger(), interval), source
}

func TestStopReturnsWhileScheduledRunInFlight(t *testing.T) {
	scheduler, source := blockedScheduler(t, 50*time.Millisecond)
	require.NoError(t, scheduler.Start(true))

	// Wait until a cron-fired run is actually inside the pipeline.
	select {
	case <-source.started:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled run never started")
	}

	stopped := make(chan struct{})
	go func() {
		scheduler.Stop()
		close(stopped)
	}()

	// Stop must be waiting on the run, not returning early.
	select {
	case <-stopped:
		t.Fatal("Stop returned before the in-flight run finished")
	case <-time.After(100 * time.Millisecond):
	}

	close(source.release)

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return after the in-flight run finished")
	}
}

func TestStopWithoutStart(t *testing.T) {
	scheduler, _ := blockedScheduler(t, time.Hour)

	done := make(chan struct{})
	go func() {
		scheduler.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a scheduler that was never started")
	}
}

func TestStartTwice(t *testing.T) {
	scheduler, source := blockedScheduler(t, time.Hour)
	require.NoError(t, scheduler.Start(true))
	defer func() {
		close(source.release)
		scheduler.Stop()
	}()

	assert.Error(t, scheduler.Start(true))
}

func TestRunOnDemandRejectsOverlap(t *testing.T) {
	scheduler, source := blockedScheduler(t, time.Hour)
	require.NoError(t, scheduler.Start(true))
	defer scheduler.Stop()

	require.True(t, scheduler.RunOnDemand())

	select {
	case <-source.started:
	case <-time.After(5 * time.Second):
		t.Fatal("on-demand run never started")
	}

	assert.False(t, scheduler.RunOnDemand())
	close(source.release)
}
