package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeDeleter struct {
	mu      sync.Mutex
	cutoffs []time.Time
	n       int64
	err     error
}

func (f *fakeDeleter) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.n, f.err
}

func (f *fakeDeleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

type countRecorder struct {
	mu    sync.Mutex
	total int64
}

func (c *countRecorder) RecordExpiredSessionsDeleted(n int64) {
	c.mu.Lock()
	c.total += n
	c.mu.Unlock()
}

func TestSweepOnce_CutoffAndRecording(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeDeleter{n: 3}
	rec := &countRecorder{}
	s := New(repo, time.Minute, time.Hour, rec, nil)
	s.now = func() time.Time { return now }

	n, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.Len(t, repo.cutoffs, 1)
	assert.Equal(t, now.Add(-time.Hour), repo.cutoffs[0])
	assert.Equal(t, int64(3), rec.total)
}

func TestSweepOnce_NothingDeletedRecordsNothing(t *testing.T) {
	rec := &countRecorder{}
	s := New(&fakeDeleter{}, time.Minute, 0, rec, nil)
	_, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, rec.total)
}

func TestSweepOnce_Error(t *testing.T) {
	s := New(&fakeDeleter{err: errors.New("db down")}, time.Minute, 0, nil, nil)
	_, err := s.SweepOnce(context.Background())
	assert.EqualError(t, err, "db down")
}

func TestRun_SweepsUntilCancelled(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	repo := &fakeDeleter{err: errors.New("db down")}
	s := New(repo, 5*time.Millisecond, 0, nil, zap.New(core))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return repo.calls() >= 2 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.NotZero(t, logs.FilterMessage("session sweep failed").Len())
}

func TestRun_DisabledInterval(t *testing.T) {
	repo := &fakeDeleter{}
	New(repo, 0, 0, nil, nil).Run(context.Background())
	assert.Zero(t, repo.calls())
}
