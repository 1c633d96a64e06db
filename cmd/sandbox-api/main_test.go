package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aanand-mishra/school-health/internal/clock"
	"github.com/aanand-mishra/school-health/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(skipSeed bool) *config.Config {
	cfg := &config.Config{}
	cfg.Sandbox.Addr = "127.0.0.1:0"
	cfg.Sandbox.Token = "secret"
	cfg.Sandbox.SkipSeed = skipSeed
	return cfg
}

func pendingCount(t *testing.T, h http.Handler, token string) (int, int) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/medication-requests/pending", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		return rr.Code, 0
	}
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	return rr.Code, len(list)
}

func TestNewServerSeedsAndRequiresToken(t *testing.T) {
	srv := newServer(testConfig(false), clock.New())

	code, _ := pendingCount(t, srv.Handler, "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, n := pendingCount(t, srv.Handler, "secret")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 4, n) // three pending plus one approved
}

func TestNewServerSkipSeed(t *testing.T) {
	srv := newServer(testConfig(true), clock.New())

	code, n := pendingCount(t, srv.Handler, "secret")
	assert.Equal(t, http.StatusOK, code)
	assert.Zero(t, n)
}

func TestServeStopsOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	cfg := testConfig(true)
	cfg.Sandbox.Addr = addr
	srv := newServer(cfg, clock.New())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv) }()

	require.Eventually(t, func() bool {
		c, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		c.Close()
		return true
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
