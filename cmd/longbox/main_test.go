package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mmcdole/longbox/internal/comicserver"
	"github.com/mmcdole/longbox/internal/config"
	"github.com/mmcdole/longbox/internal/domain"
	"github.com/mmcdole/longbox/internal/poller"
	"github.com/mmcdole/longbox/internal/session"
)

func TestRunOnceSummary(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			_, _ = io.WriteString(w, `{"comics": [
				{"id": 1, "comicState": "STABLE", "publisher": "Image", "series": "Saga"},
				{"id": 2, "comicState": "DELETED", "series": "Saga"}
			], "lastComicId": 2, "mostRecentUpdate": 1700000000000, "moreUpdates": true}`)
			return
		}
		_, _ = io.WriteString(w, `{"comics": [], "lastComicId": 0, "mostRecentUpdate": null, "moreUpdates": false}`)
	}))
	defer server.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sess := session.New(session.Config{}, nil, logger)
	client := comicserver.NewClient(server.URL, "t", logger)
	p := poller.New(sess, client, poller.NewSchedule(time.Millisecond, 0, time.Millisecond), nil, logger)

	var out strings.Builder
	require.NoError(t, runOnce(context.Background(), sess, p, &out))

	require.Equal(t, 2, calls)
	require.Contains(t, out.String(), "Library:   2 comics (1 deleted)")
	require.Contains(t, out.String(), "(#2)")
}

func TestRunOnceReportsFailureKind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sess := session.New(session.Config{}, nil, logger)
	p := poller.New(sess, comicserver.NewClient(server.URL, "t", logger), poller.NewSchedule(time.Millisecond, 0, time.Millisecond), nil, logger)

	err := runOnce(context.Background(), sess, p, io.Discard)
	require.ErrorContains(t, err, "server rejected the request")
	require.ErrorIs(t, err, domain.ErrRequestRejected)
}

func TestLogoutClearsCredentialsAndCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cacheDir := filepath.Join(dir, "cache")
	require.NoError(t, os.MkdirAll(filepath.Join(cacheDir, "server"), 0755))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	cfg.Server.URL = "https://comics.example.com"
	cfg.Server.Token = "tok"
	cfg.Cache.Dir = cacheDir
	require.NoError(t, cfg.Save())

	var out strings.Builder
	require.NoError(t, runLogout(cfg, &out))
	require.Contains(t, out.String(), "Logged out")

	reloaded, err := config.Load(path)
	require.NoError(t, err)
	require.False(t, reloaded.IsConfigured())
	require.Equal(t, cacheDir, reloaded.Cache.Dir)
	_, err = os.Stat(cacheDir)
	require.True(t, os.IsNotExist(err))
}
