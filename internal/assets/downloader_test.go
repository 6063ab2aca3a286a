package assets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadWritesFile(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte("image-bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := NewDownloader(dir, false, zerolog.Nop())

	path, err := d.Download(context.Background(), srv.URL+"/avatar.png")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path) || filepath.Dir(path) == dir)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(data))
	assert.Contains(t, filepath.Base(path), "avatar.png")

	// Same url within one run is served from the in-memory map.
	again, err := d.Download(context.Background(), srv.URL+"/avatar.png")
	require.NoError(t, err)
	assert.Equal(t, path, again)
	assert.Equal(t, 1, hits)
}

func TestDownloadReuseSkipsFetch(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte("fresh"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	url := srv.URL + "/file.bin"

	// Seed the file under the deterministic name a previous run would use.
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileNameFor(url)), []byte("stale"), 0o644))

	d := NewDownloader(dir, true, zerolog.Nop())
	path, err := d.Download(context.Background(), url)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "stale", string(data), "reuse keeps the existing file")
	assert.Equal(t, 0, hits)
}

func TestDownloadErrorOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	d := NewDownloader(t.TempDir(), false, zerolog.Nop())
	_, err := d.Download(context.Background(), srv.URL+"/missing.png")
	assert.Error(t, err)
}

func TestFileNameFor(t *testing.T) {
	a := fileNameFor("https://cdn.example/a/photo.png")
	b := fileNameFor("https://cdn.example/b/photo.png")
	assert.NotEqual(t, a, b, "same base name from different urls must not collide")
	assert.Contains(t, a, "photo.png")

	weird := fileNameFor(`https://cdn.example/we"ird:name.png`)
	assert.NotContains(t, weird, `"`)
	assert.NotContains(t, weird, ":")
}
