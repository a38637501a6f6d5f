package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServe_WaitsForCleanup(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	httpServer := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	var order []string
	var finished atomic.Bool
	slow := func() {
		time.Sleep(100 * time.Millisecond)
		order = append(order, "pipeline")
	}
	last := func() {
		order = append(order, "sessions")
		finished.Store(true)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- serve(ctx, httpServer, log, slow, last) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return")
	}
	assert.True(t, finished.Load(), "serve returned before cleanup finished")
	assert.Equal(t, []string{"pipeline", "sessions"}, order)
}

func TestServe_ListenError(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	httpServer := &http.Server{Addr: "127.0.0.1:-1"}

	err := serve(context.Background(), httpServer, log)
	assert.Error(t, err)
}
