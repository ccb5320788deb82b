// Package metrics exposes the vault's operational counters in Prometheus
// format using the VictoriaMetrics client.
//
// Counters are package-global: the vault runs as a single process and the
// service layer increments them directly. MetricsServer serves the standard
// /metrics endpoint on a dedicated listener so scraping does not compete with
// API traffic.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	vmmetrics "github.com/VictoriaMetrics/metrics"
)

var (
	productsAdded    = vmmetrics.NewCounter("vault_products_added_total")
	productsVerified = vmmetrics.NewCounter("vault_products_verified_total")
)

// ProductAdded counts a committed product registration.
func ProductAdded() {
	productsAdded.Inc()
}

// ProductVerified counts a committed product verification.
func ProductVerified() {
	productsVerified.Inc()
}

// RequestRejected counts a rejected mutation by operation and reason.
func RequestRejected(op, reason string) {
	vmmetrics.GetOrCreateCounter(
		fmt.Sprintf(`vault_requests_rejected_total{op=%q,reason=%q}`, op, reason),
	).Inc()
}

// MetricsServer serves the /metrics endpoint on its own listener.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server for the given address. An empty address
// disables metrics; ListenAndServe then returns immediately.
func New(addr string) (*MetricsServer, error) {
	if addr == "" {
		return &MetricsServer{}, nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		vmmetrics.WritePrometheus(w, true)
	})

	return &MetricsServer{
		srv: &http.Server{Addr: addr, Handler: mux},
	}, nil
}

// ListenAndServe starts serving metrics. Blocks until shutdown.
func (m *MetricsServer) ListenAndServe() error {
	if m.srv == nil {
		return nil
	}
	return m.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics server.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	if m.srv == nil {
		return nil
	}
	return m.srv.Shutdown(ctx)
}
