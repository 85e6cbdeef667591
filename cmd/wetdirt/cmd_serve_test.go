package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wetdirt/wetdirt/db/mock"
	"github.com/wetdirt/wetdirt/finger"
	"go.uber.org/zap"
)

func testConfig(dbURL string) *Config {
	return &Config{
		Database: DatabaseConfig{URL: dbURL, Namespace: "test", Database: "test", Credentials: "root:root"},
		Server:   ServerConfig{Domain: "example.com"},
		Hash:     HashConfig{Workers: 1, Time: 1, Memory: 64, Threads: 1},
		Metrics:  MetricsConfig{Enabled: true},
	}
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServeMux(t *testing.T) {
	db := mock.New(mock.Config{Credentials: "root:root", Seed: map[string]mock.Record{"alice": {}}})
	defer db.Close()

	handler, err := newServeMux(context.Background(), testConfig(db.URL), zap.NewNop())
	require.NoError(t, err)

	web := httptest.NewServer(handler)
	defer web.Close()

	code, body := get(t, web.URL+"/health")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"healthy"}`, body)

	code, body = get(t, web.URL+finger.Path+"?resource=acct:alice@example.com")
	require.Equal(t, http.StatusOK, code)
	var jrd finger.Resource
	require.NoError(t, json.Unmarshal([]byte(body), &jrd))
	assert.Equal(t, "acct:alice@example.com", jrd.Subject)
	require.Len(t, jrd.Links, 1)
	assert.Equal(t, "https://example.com/users/alice", jrd.Links[0].Href)

	code, _ = get(t, web.URL+finger.Path+"?resource=acct:nobody@example.com")
	assert.Equal(t, http.StatusNotFound, code)

	code, body = get(t, web.URL+"/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "wetdirt_db_queries_total")
}

func TestServeMuxWithoutMetrics(t *testing.T) {
	db := mock.New(mock.Config{})
	defer db.Close()

	cfg := testConfig(db.URL)
	cfg.Metrics.Enabled = false

	handler, err := newServeMux(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	web := httptest.NewServer(handler)
	defer web.Close()

	code, _ := get(t, web.URL+"/metrics")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServeMuxFailsOnHandshake(t *testing.T) {
	db := mock.New(mock.Config{Credentials: "root:other"})
	defer db.Close()

	_, err := newServeMux(context.Background(), testConfig(db.URL), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database handshake")
}
