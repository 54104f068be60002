package helpers

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

	"github.com/spektr-org/admissions/schema"
)

func TestOpenURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data.csv" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, dashboardCSV)
	}))
	defer srv.Close()

	rc, err := Open(context.Background(), srv.URL+"/data.csv")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, dashboardCSV, string(body))

	_, err = Open(context.Background(), srv.URL+"/missing.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(dashboardCSV), 0o644))

	for _, loc := range []string{path, "file://" + path} {
		rc, err := Open(context.Background(), loc)
		require.NoError(t, err)
		rc.Close()
	}

	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening file")
}

func TestLoadFromURLAndFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, dashboardCSV)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(dashboardCSV), 0o644))

	fromURL, err := Load(context.Background(), srv.URL, "", schema.DefaultConfig())
	require.NoError(t, err)
	fromFile, err := Load(context.Background(), path, "", schema.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, srv.URL, fromURL.Source)
	assert.Equal(t, path, fromFile.Source)
	assert.Equal(t, fromFile.Store.Len(), fromURL.Store.Len())
}

func TestOpenCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, dashboardCSV)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Open(ctx, srv.URL)
	assert.Error(t, err)
}
