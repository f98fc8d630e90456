package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driving"
)

type mockUploader struct {
	req     driving.UploadRequest
	content []byte
	err     error
}

func (m *mockUploader) Upload(_ context.Context, req driving.UploadRequest) (*driving.UploadResponse, error) {
	m.req = req
	m.content, _ = io.ReadAll(req.Content)
	if m.err != nil {
		return nil, m.err
	}
	return &driving.UploadResponse{OK: true, Filename: req.Filename, ID: "abc", URL: "bleve://memory/docs/abc"}, nil
}

type mockCrawler struct {
	status driving.CrawlStatus
}

func (m *mockCrawler) RunCycle(_ context.Context) (*domain.CycleStats, error) {
	return &domain.CycleStats{}, nil
}

func (m *mockCrawler) Status() driving.CrawlStatus {
	return m.status
}

type mockObserver struct {
	errs []error
}

func (m *mockObserver) ObserveUpload(err error) {
	m.errs = append(m.errs, err)
}

func uploadRequest(t *testing.T, target string, fields map[string]string, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	if cfg.Uploader == nil {
		cfg.Uploader = &mockUploader{}
	}
	s, err := NewServer(cfg)
	require.NoError(t, err)
	return s
}

func TestNewServer_RequiresUploader(t *testing.T) {
	_, err := NewServer(Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpload_Success(t *testing.T) {
	uploader := &mockUploader{}
	observer := &mockObserver{}
	s := newTestServer(t, Config{Job: "docs", Uploader: uploader, Observer: observer})

	req := uploadRequest(t, "/_upload?debug=true&simulate=TRUE", map[string]string{
		"id":   "my-id",
		"tags": `{"meta":{"tags":["a"]}}`,
	}, "report.txt", "hello")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp driving.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, "report.txt", resp.Filename)
	assert.Equal(t, "bleve://memory/docs/abc", resp.URL)

	assert.Equal(t, "report.txt", uploader.req.Filename)
	assert.Equal(t, int64(5), uploader.req.Size)
	assert.Equal(t, "hello", string(uploader.content))
	assert.Equal(t, "my-id", uploader.req.ID)
	assert.JSONEq(t, `{"meta":{"tags":["a"]}}`, string(uploader.req.Tags))
	assert.True(t, uploader.req.Debug)
	assert.True(t, uploader.req.Simulate)

	require.Len(t, observer.errs, 1)
	assert.NoError(t, observer.errs[0])
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestUpload_TagsAsFilePart(t *testing.T) {
	uploader := &mockUploader{}
	s := newTestServer(t, Config{Uploader: uploader})

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "a.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("x"))
	tags, err := w.CreateFormFile("tags", "tags.json")
	require.NoError(t, err)
	_, _ = tags.Write([]byte(`{"external":{"k":"v"}}`))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/_upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"external":{"k":"v"}}`, string(uploader.req.Tags))
	assert.False(t, uploader.req.Simulate)
	assert.Empty(t, uploader.req.ID)
}

func TestUpload_MissingFile(t *testing.T) {
	uploader := &mockUploader{}
	s := newTestServer(t, Config{Uploader: uploader})

	req := uploadRequest(t, "/_upload", map[string]string{"id": "x"}, "", "")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "file is required")
	assert.Empty(t, uploader.req.Filename)
}

func TestUpload_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"malformed overlay", fmt.Errorf("%w: unexpected end of JSON input", domain.ErrMalformedOverlay), http.StatusBadRequest},
		{"invalid input", fmt.Errorf("%w: file is required", domain.ErrInvalidInput), http.StatusBadRequest},
		{"publish failure", fmt.Errorf("%w: store down", domain.ErrPublish), http.StatusInternalServerError},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observer := &mockObserver{}
			s := newTestServer(t, Config{Uploader: &mockUploader{err: tt.err}, Observer: observer})

			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, uploadRequest(t, "/_upload", nil, "a.txt", "x"))

			assert.Equal(t, tt.code, rec.Code)
			var resp response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.OK)
			assert.NotEmpty(t, resp.Message)
			require.Len(t, observer.errs, 1)
			assert.ErrorIs(t, observer.errs[0], tt.err)
		})
	}
}

func TestStatus(t *testing.T) {
	last := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	crawler := &mockCrawler{status: driving.CrawlStatus{
		Job:                "docs",
		Phase:              domain.PhaseIdle,
		DocumentsProcessed: 7,
		ErrorCount:         1,
		LastCycle:          last,
	}}
	s := newTestServer(t, Config{Job: "docs", Version: "1.2.3", Crawler: crawler})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, "docs", resp.Job)
	require.NotNil(t, resp.Crawler)
	assert.Equal(t, 7, resp.Crawler.DocumentsProcessed)
	assert.Equal(t, 1, resp.Crawler.Errors)
	require.NotNil(t, resp.Crawler.LastCycle)
	assert.True(t, last.Equal(*resp.Crawler.LastCycle))
}

func TestPrefix(t *testing.T) {
	uploader := &mockUploader{}
	s := newTestServer(t, Config{Prefix: "/fscrawler/", Uploader: uploader})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadRequest(t, "/fscrawler/_upload", nil, "a.txt", "x"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fscrawler", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadRequest(t, "/_upload", nil, "a.txt", "x"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("fscrawler_uploads_total 1\n"))
	})
	s := newTestServer(t, Config{Metrics: metrics})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fscrawler_uploads_total")
}

func TestListenAddress(t *testing.T) {
	tests := []struct {
		raw    string
		addr   string
		prefix string
	}{
		{"127.0.0.1:8080", "127.0.0.1:8080", ""},
		{"http://127.0.0.1:8080/fscrawler", "127.0.0.1:8080", "/fscrawler"},
		{"http://localhost:9000/api/", "localhost:9000", "/api"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			addr, prefix, err := ListenAddress(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.addr, addr)
			assert.Equal(t, tt.prefix, prefix)
		})
	}

	_, _, err := ListenAddress("http:///nohost")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
