package client

import (
	"bytes"
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

func TestDownloadActivity(t *testing.T) {
	payload := bytes.Repeat([]byte("fit-data"), 128)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/download-service/files/activity/42", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("Authorization"))
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	api, _ := newTestAPI(server.URL)
	destDir := t.TempDir()

	path, err := api.DownloadActivity(context.Background(), 42, destDir, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(destDir, "activity_42.zip"), path)
	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, written)
}

func TestDownloadActivity_CreatesDestDir(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("zip"))
	}))
	defer server.Close()

	api, _ := newTestAPI(server.URL)
	destDir := filepath.Join(t.TempDir(), "nested", "downloads")

	path, err := api.DownloadActivity(context.Background(), 7, destDir, nil)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestDownloadActivity_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such activity", http.StatusNotFound)
	}))
	defer server.Close()

	api, _ := newTestAPI(server.URL)
	destDir := t.TempDir()

	_, err := api.DownloadActivity(context.Background(), 99, destDir, io.Discard)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)

	entries, err := os.ReadDir(destDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "a failed request must not leave a file behind")
}
