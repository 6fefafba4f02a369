package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheme(t *testing.T) {
	assert.Equal(t, "https", Scheme("https://example.com/a.csv"))
	assert.Equal(t, "http", Scheme("HTTP://example.com/a.csv"))
	assert.Equal(t, "ftp", Scheme("ftp://example.com/a.csv"))
	assert.Equal(t, "file", Scheme("file:///tmp/a.csv"))
	assert.Equal(t, "", Scheme("/tmp/a.csv"))
	assert.Equal(t, "", Scheme("data/posts.csv"))
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://example.com/a.csv"))
	assert.True(t, IsRemote("ftp://example.com/a.csv"))
	assert.False(t, IsRemote("file:///tmp/a.csv"))
	assert.False(t, IsRemote("posts.csv"))
}

func TestIsXLSX(t *testing.T) {
	assert.True(t, IsXLSX("posts.xlsx"))
	assert.True(t, IsXLSX("https://example.com/export/POSTS.XLSX?token=1"))
	assert.False(t, IsXLSX("posts.csv"))
	assert.False(t, IsXLSX("https://example.com/posts.csv?fmt=xlsx"))
}

func TestOpen_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.csv")
	require.NoError(t, os.WriteFile(path, []byte("Nome\nAna\n"), 0o644))

	for _, src := range []string{path, "file://" + path} {
		rc, err := Open(context.Background(), src, Options{})
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.Equal(t, "Nome\nAna\n", string(data))
	}
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetcher: open")
}

func TestOpen_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("a,b\n"))
	}))
	defer srv.Close()

	rc, err := Open(context.Background(), srv.URL+"/a.csv", Options{})
	require.NoError(t, err)
	defer rc.Close() //nolint:errcheck
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))
}

func TestDownloadToFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("file content here"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "out.xlsx")
	n, err := DownloadToFile(context.Background(), newTestFetcher(), srv.URL+"/out.xlsx", path)
	require.NoError(t, err)
	assert.Equal(t, int64(17), n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file content here", string(data))
}

func TestForScheme(t *testing.T) {
	f, err := ForScheme("https://example.com/a.xlsx", Options{})
	require.NoError(t, err)
	assert.IsType(t, &HTTPFetcher{}, f)

	f, err = ForScheme("ftp://example.com/a.xlsx", Options{})
	require.NoError(t, err)
	assert.IsType(t, &FTPFetcher{}, f)

	_, err = ForScheme("a.xlsx", Options{})
	require.Error(t, err)
}
