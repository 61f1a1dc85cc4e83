package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(path, []byte("<p>hola</p>"), 0o644))

	res, err := NewLoader(t.TempDir()).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "<p>hola</p>", string(res.Body))
	assert.False(t, res.FromCache)

	_, err = NewLoader(t.TempDir()).Load(context.Background(), filepath.Join(t.TempDir(), "missing.html"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFetchUsesETag(t *testing.T) {
	var hits, conditional atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			conditional.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte("<p>agenda</p>"))
	}))
	defer srv.Close()

	l := NewLoader(t.TempDir())
	first, err := l.Load(context.Background(), srv.URL+"/index.html")
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := l.Load(context.Background(), srv.URL+"/index.html")
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, int32(1), conditional.Load())
}

func TestFetchFallsBackToCache(t *testing.T) {
	fail := atomic.Bool{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("cached"))
	}))
	defer srv.Close()

	l := NewLoader(t.TempDir())
	_, err := l.Load(context.Background(), srv.URL)
	require.NoError(t, err)

	fail.Store(true)
	res, err := l.Load(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, "cached", string(res.Body))

	_, err = NewLoader(t.TempDir()).Load(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "502")
}

func TestLoadAllJoinsErrors(t *testing.T) {
	dir := t.TempDir()
	ok := filepath.Join(dir, "ok.html")
	require.NoError(t, os.WriteFile(ok, []byte("x"), 0o644))

	res, err := NewLoader(dir).LoadAll(context.Background(), []string{ok, filepath.Join(dir, "a"), ""})
	assert.Len(t, res, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.ErrorContains(t, err, "location is empty")
}

func TestWriteAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "index.html")
	require.NoError(t, WriteAtomic(path, []byte("one")))
	require.NoError(t, WriteAtomic(path, []byte("two")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://h.example/...(redacted)", redactURL("https://h.example/p?token=1"))
	assert.Equal(t, "https://h.example", redactURL("https://h.example"))
	assert.Equal(t, "./index.html", redactURL("./index.html"))
}
