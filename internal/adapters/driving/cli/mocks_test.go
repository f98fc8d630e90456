package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driving"
)

// mockSettingsStore implements driven.SettingsStore in memory.
type mockSettingsStore struct {
	mu       sync.Mutex
	settings map[string]domain.Settings
	saved    []domain.Settings
}

func newMockSettingsStore(jobs ...domain.Settings) *mockSettingsStore {
	s := &mockSettingsStore{settings: make(map[string]domain.Settings)}
	for _, j := range jobs {
		s.settings[j.Name] = j
	}
	return s
}

func (m *mockSettingsStore) Load(job string) (domain.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settings[job]
	if !ok {
		return domain.Settings{}, domain.ErrNotFound
	}
	return s, nil
}

func (m *mockSettingsStore) Save(settings domain.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, settings)
	m.settings[settings.Name] = settings
	return nil
}

func (m *mockSettingsStore) Dir(job string) string {
	return "/config/" + job
}

// mockCrawler implements Crawler.
type mockCrawler struct {
	mu       sync.Mutex
	cycles   int
	resets   int
	err      error
	failures []domain.ItemError
	status   driving.CrawlStatus
}

func (m *mockCrawler) RunCycle(_ context.Context) (*domain.CycleStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cycles++
	m.status.DocumentsProcessed = 3
	if m.err != nil {
		m.status.LastError = m.err.Error()
	}
	return &domain.CycleStats{Indexed: 3, Failures: m.failures}, m.err
}

func (m *mockCrawler) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
	return nil
}

func (m *mockCrawler) Status() driving.CrawlStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// mockStatusStore implements driven.JobStatusStore.
type mockStatusStore struct {
	status *domain.JobStatus
	runs   []domain.CycleRun
}

func (m *mockStatusStore) GetStatus(_ context.Context, _ string) (*domain.JobStatus, error) {
	return m.status, nil
}

func (m *mockStatusStore) SaveStatus(_ context.Context, status *domain.JobStatus) error {
	m.status = status
	return nil
}

func (m *mockStatusStore) RecordRun(_ context.Context, run *domain.CycleRun) error {
	m.runs = append([]domain.CycleRun{*run}, m.runs...)
	return nil
}

func (m *mockStatusStore) History(_ context.Context, _ string, limit int) ([]domain.CycleRun, error) {
	if limit > 0 && limit < len(m.runs) {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

func (m *mockStatusStore) PruneHistory(_ context.Context, _ string, _ int) error {
	return nil
}

var _ driven.JobStatusStore = (*mockStatusStore)(nil)

// setupCLI installs a test configuration and returns the output buffer.
func setupCLI(t *testing.T, cfg *Config) *bytes.Buffer {
	t.Helper()
	old := cliConfig
	SetConfig(cfg)
	crawlLoop, crawlRestart, crawlWatch, crawlRest = -1, false, false, false
	statusLimit = 10

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	t.Cleanup(func() {
		cliConfig = old
		rootCmd.SetArgs(nil)
	})
	return buf
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

func testSettings(t *testing.T, name string) domain.Settings {
	t.Helper()
	s := domain.DefaultSettings(name)
	s.Fs.URL = t.TempDir()
	s.Fs.UpdateRate = domain.Duration{Duration: 10 * time.Millisecond}
	require.NoError(t, s.Validate())
	return s
}
