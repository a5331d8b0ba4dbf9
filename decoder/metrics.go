package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// serveMetrics exposes the decoder counters on addr until the process exits.
func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info(fmt.Sprintf("Serving metrics on %s/metrics", addr), "metrics")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(fmt.Sprintf("metrics server stopped: %v", err))
		}
	}()
	return server
}

// stopMetrics shuts the metrics server down, waiting up to timeout for
// open scrapes to finish.
func stopMetrics(server *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		err = fmt.Errorf("error stopping metrics server: %w", err)
		logger.Error(err.Error())
		return err
	}
	return nil
}
