package main

import (
	"context"
	"net/http"

	"github.com/ravensys/netcollect/pkg/log"
	"github.com/ravensys/netcollect/pkg/metrics"
)

// startMetricsServer serves the Prometheus registry at addr/metrics for the
// duration of a job or batch run. Returns a no-op stop function if addr is
// empty. The server's errors are logged, never fatal to the run itself.
func startMetricsServer(addr string) (stop func()) {
	if addr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Logger.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()

	return func() {
		_ = srv.Shutdown(context.Background())
	}
}
