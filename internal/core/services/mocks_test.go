package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
)

// mockBackend implements driven.ParsingBackend.
type mockBackend struct {
	mu       sync.Mutex
	text     string
	metadata map[string]string
	err      error
	failOn   map[string]error
	hook     func(req driven.ParseRequest)
	calls    []string
}

func (m *mockBackend) Name() string { return "mock" }

func (m *mockBackend) Parse(_ context.Context, req driven.ParseRequest) (*driven.ParseResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req.Filename)
	m.mu.Unlock()
	if m.hook != nil {
		m.hook(req)
	}
	if err, ok := m.failOn[req.Filename]; ok {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	text := m.text
	if text == "" {
		text = string(req.Content)
	}
	return &driven.ParseResult{Text: text, Metadata: m.metadata, ContentType: "text/plain"}, nil
}

func (m *mockBackend) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockOCR implements driven.OCRProvider.
type mockOCR struct {
	resp  *domain.OCRResponse
	err   error
	calls int
}

func (m *mockOCR) Name() string { return "mock-ocr" }

func (m *mockOCR) Recognize(_ context.Context, _ []byte) (*domain.OCRResponse, error) {
	m.calls++
	return m.resp, m.err
}

// mockSource implements driven.Source over an in-memory file set.
type mockSource struct {
	mu      sync.Mutex
	files   map[string]string
	dirs    []string
	modTime map[string]time.Time
	scanErr error
	openErr map[string]error
	opened  []string
}

func newMockSource() *mockSource {
	return &mockSource{
		files:   map[string]string{},
		modTime: map[string]time.Time{},
		openErr: map[string]error{},
	}
}

func (m *mockSource) put(path, content string, mod time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = content
	m.modTime[path] = mod
}

func (m *mockSource) remove(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
}

func (m *mockSource) Validate(_ context.Context) error { return m.scanErr }

func (m *mockSource) Scan(_ context.Context, skip driven.SkipFunc) ([]domain.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	var out []domain.Candidate
	for _, dir := range m.dirs {
		c := domain.Candidate{
			RealPath:    "/root" + dir,
			VirtualPath: dir,
			ParentPath:  "/root",
			Name:        strings.TrimPrefix(dir, "/"),
			IsDir:       true,
		}
		if skip == nil || !skip(c) {
			out = append(out, c)
		}
	}
	for path, content := range m.files {
		c := domain.Candidate{
			RealPath:     "/root" + path,
			VirtualPath:  path,
			ParentPath:   "/root",
			Name:         path[strings.LastIndex(path, "/")+1:],
			Size:         int64(len(content)),
			LastModified: m.modTime[path],
		}
		if skip == nil || !skip(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockSource) Open(_ context.Context, realPath string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened = append(m.opened, realPath)
	path := strings.TrimPrefix(realPath, "/root")
	if err, ok := m.openErr[path]; ok {
		return nil, err
	}
	content, ok := m.files[path]
	if !ok {
		return nil, errors.New("no such file")
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func (m *mockSource) Close() error { return nil }

func (m *mockSource) openCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.opened)
}
