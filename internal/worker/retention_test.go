package worker

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-portal/pkg/logger"
)

type fakePruner struct {
	mu      sync.Mutex
	cutoffs []time.Time
	rows    int64
	err     error
}

func (f *fakePruner) DeleteOlderThan(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, before)
	return f.rows, f.err
}

func testLogger(buf *bytes.Buffer) *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: "debug", Output: buf})
}

func TestRunOnceUsesRetentionWindow(t *testing.T) {
	var buf bytes.Buffer
	repo := &fakePruner{rows: 3}
	w := NewRetentionWorker(repo, 48*time.Hour, time.Hour, testLogger(&buf))
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	n, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.Len(t, repo.cutoffs, 1)
	assert.Equal(t, now.Add(-48*time.Hour), repo.cutoffs[0])
	assert.Contains(t, buf.String(), "pruned integration logs")
}

func TestRunOnceWrapsError(t *testing.T) {
	var buf bytes.Buffer
	repo := &fakePruner{err: errors.New("db down")}
	w := NewRetentionWorker(repo, time.Hour, time.Hour, testLogger(&buf))

	_, err := w.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestStartRunsImmediatelyAndStops(t *testing.T) {
	var buf bytes.Buffer
	repo := &fakePruner{}
	w := NewRetentionWorker(repo, time.Hour, time.Hour, testLogger(&buf))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return len(repo.cutoffs) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestStartDisabled(t *testing.T) {
	var buf bytes.Buffer
	repo := &fakePruner{}
	w := NewRetentionWorker(repo, 0, time.Hour, testLogger(&buf))

	w.Start(context.Background())
	assert.Empty(t, repo.cutoffs)
}
