package main

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func swapLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var stdout, stderr bytes.Buffer
	previous := logger
	logger = NewLogger(&stdout, &stderr, slog.LevelDebug)
	t.Cleanup(func() { logger = previous })
	return &stderr
}

func TestStopMetrics(t *testing.T) {
	server := serveMetrics("127.0.0.1:0")
	require.NoError(t, stopMetrics(server, time.Second))
}

func TestStopMetricsLogsShutdownError(t *testing.T) {
	stderr := swapLogger(t)

	started := make(chan struct{})
	release := make(chan struct{})
	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			close(started)
			<-release
		}),
		ReadHeaderTimeout: time.Second,
	}
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go server.Serve(listener)
	defer close(release)

	go func() {
		response, err := http.Get("http://" + listener.Addr().String() + "/metrics")
		if err == nil {
			response.Body.Close()
		}
	}()
	<-started

	err = stopMetrics(server, 10*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, stderr.String(), "error stopping metrics server")
}
