package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bowriverstudio/fscrawler/internal/adapters/driven/storage/memory"
	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driving"
)

// mockCrawler implements driving.Crawler for testing.
type mockCrawler struct {
	mu     sync.Mutex
	calls  int
	errs   []error
	onCall func(n int)
}

func (m *mockCrawler) RunCycle(_ context.Context) (*domain.CycleStats, error) {
	m.mu.Lock()
	m.calls++
	n := m.calls
	var err error
	if n <= len(m.errs) {
		err = m.errs[n-1]
	}
	m.mu.Unlock()
	if m.onCall != nil {
		m.onCall(n)
	}
	now := time.Now()
	return &domain.CycleStats{StartedAt: now, EndedAt: now, Indexed: n}, err
}

func (m *mockCrawler) Status() driving.CrawlStatus { return driving.CrawlStatus{} }

func (m *mockCrawler) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockWatcher implements driven.Watcher for testing.
type mockWatcher struct {
	events chan struct{}
	err    error
}

func (m *mockWatcher) Watch(_ context.Context) (<-chan struct{}, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.events, nil
}

func TestNewScheduler_DefaultRate(t *testing.T) {
	s := NewScheduler("job", 0, 1, &mockCrawler{}, nil, nil)
	assert.Equal(t, domain.DefaultUpdateRate, s.rate)
}

func TestScheduler_LoopCount(t *testing.T) {
	crawler := &mockCrawler{}
	store := memory.NewJobStatusStore()
	s := NewScheduler("job", time.Millisecond, 3, crawler, store, nil)

	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, 3, crawler.callCount())
	runs, err := store.History(context.Background(), "job", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 3)

	status, err := store.GetStatus(context.Background(), "job")
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, 3, status.Indexed)
	assert.False(t, status.NextCheck.IsZero())
}

func TestScheduler_LoopZero(t *testing.T) {
	crawler := &mockCrawler{}

	require.NoError(t, NewScheduler("job", time.Millisecond, 0, crawler, nil, nil).Run(context.Background()))

	assert.Zero(t, crawler.callCount())
}

func TestScheduler_CycleErrorDoesNotStop(t *testing.T) {
	crawler := &mockCrawler{errs: []error{domain.ErrCycleAborted}}
	store := memory.NewJobStatusStore()
	s := NewScheduler("job", time.Millisecond, 2, crawler, store, nil)

	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, 2, crawler.callCount())
	runs, err := store.History(context.Background(), "job", 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	failed := 0
	for _, r := range runs {
		if !r.Success {
			failed++
		}
	}
	assert.Equal(t, 1, failed)
}

func TestScheduler_InProgressNotCounted(t *testing.T) {
	crawler := &mockCrawler{errs: []error{domain.ErrSyncInProgress}}
	s := NewScheduler("job", time.Millisecond, 1, crawler, nil, nil)

	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, 2, crawler.callCount())
}

func TestScheduler_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	crawler := &mockCrawler{onCall: func(int) { cancel() }}
	s := NewScheduler("job", time.Hour, -1, crawler, nil, nil)

	err := s.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, crawler.callCount())
}

func TestScheduler_CancelWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	crawler := &mockCrawler{}
	s := NewScheduler("job", time.Hour, -1, crawler, nil, nil)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	require.Eventually(t, func() bool { return crawler.callCount() == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_WatchTriggersEarlyCycle(t *testing.T) {
	watcher := &mockWatcher{events: make(chan struct{}, 4)}
	crawler := &mockCrawler{}
	s := NewScheduler("job", time.Hour, 2, crawler, nil, watcher)
	s.debounce = time.Millisecond

	crawler.onCall = func(n int) {
		if n == 1 {
			watcher.events <- struct{}{}
			watcher.events <- struct{}{}
		}
	}

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch event did not trigger a cycle")
	}
	assert.Equal(t, 2, crawler.callCount())
}

func TestScheduler_WatchUnavailable(t *testing.T) {
	watcher := &mockWatcher{err: errors.New("no inotify")}
	crawler := &mockCrawler{}
	s := NewScheduler("job", time.Millisecond, 2, crawler, nil, watcher)

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, 2, crawler.callCount())
}
