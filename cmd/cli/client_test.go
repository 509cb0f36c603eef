package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenFileLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")

	_, err := readToken(path)
	assert.Error(t, err)

	assert.Error(t, saveToken(path, tokenData{}))
	require.NoError(t, saveToken(path, tokenData{Token: " abc ", ExpiresAt: "2026-01-01T00:00:00Z"}))

	token, err := readToken(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	require.NoError(t, clearToken(path))
	require.NoError(t, clearToken(path), "clearing twice is fine")
	_, err = readToken(path)
	assert.Error(t, err)
}

func TestWebsocketURL(t *testing.T) {
	u, err := websocketURL("http://localhost:8080/api", "/ws")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/ws", u)

	u, err = websocketURL("https://cells.example.org", "/ws")
	require.NoError(t, err)
	assert.Equal(t, "wss://cells.example.org/ws", u)
}

func TestListFlagsValues(t *testing.T) {
	f := listFlags{
		q:        "lung",
		filters:  []string{"tissue=lung", "tissue = heart", "is_primary_data=primary"},
		sort:     "name",
		minCells: 10,
		maxCells: -1,
		limit:    5,
	}
	v, err := f.values()
	require.NoError(t, err)
	assert.Equal(t, []string{"lung", "heart"}, v["tissue"])
	assert.Equal(t, "primary", v.Get("is_primary_data"))
	assert.Equal(t, "lung", v.Get("q"))
	assert.Equal(t, "10", v.Get("min_cell_count"))
	assert.False(t, v.Has("max_cell_count"))
	assert.Equal(t, "5", v.Get("limit"))

	req, err := f.request()
	require.NoError(t, err)
	assert.Equal(t, []string{"lung", "heart"}, req.Categories["tissue"])
	require.NotNil(t, req.MinCellCount)
	assert.Equal(t, int64(10), *req.MinCellCount)
	assert.Nil(t, req.MaxCellCount)

	bad := listFlags{filters: []string{"tissue"}}
	_, err = bad.values()
	assert.Error(t, err)
}

func TestDoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"missing token"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"invalidated"}`))
	}))
	defer srv.Close()

	var out map[string]string
	err := doJSON(context.Background(), srv.Client(), http.MethodPost, endpoint(srv.URL, "/admin/cache/invalidate", nil), "tok", nil, &out)
	require.NoError(t, err)
	assert.Equal(t, "invalidated", out["status"])

	err = doJSON(context.Background(), srv.Client(), http.MethodGet, srv.URL, "", nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing token")
}
