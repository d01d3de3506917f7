package preview

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Index</h1>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "static"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "static", "style.css"), []byte("body{}"), 0o644))
	return dir
}

func get(t *testing.T, h http.Handler, path string) (*http.Response, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	res := rec.Result()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(body)
}

func TestServer_ServesSiteFiles(t *testing.T) {
	srv, err := NewServer("127.0.0.1:0", newSite(t))
	require.NoError(t, err)
	h := srv.Handler()

	res, body := get(t, h, "/")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "<h1>Index</h1>", body)

	res, body = get(t, h, "/static/style.css")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "body{}", body)
	assert.Contains(t, res.Header.Get("Content-Type"), "text/css")

	res, _ = get(t, h, "/missing.html")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, body = get(t, h, "/health")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"status":"healthy"}`, body)
}

func TestServer_MetricsRouteIsOptional(t *testing.T) {
	site := newSite(t)

	srv, err := NewServer("127.0.0.1:0", site)
	require.NoError(t, err)
	res, _ := get(t, srv.Handler(), "/metrics")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pagesmith_up 1\n"))
	})
	srv, err = NewServer("127.0.0.1:0", site, WithMetricsHandler(metrics))
	require.NoError(t, err)
	res, body := get(t, srv.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "pagesmith_up 1\n", body)
}

func TestNewServer_RejectsMissingDirectory(t *testing.T) {
	_, err := NewServer(":0", filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.html")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = NewServer(":0", file)
	require.Error(t, err)
}
