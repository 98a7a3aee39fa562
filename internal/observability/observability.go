// Package observability wires logging, tracing, and metrics for the service.
package observability

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "ranking-engine"

// Observability bundles the logger, tracer, and metrics registry handed to modules.
type Observability struct {
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Registry *prometheus.Registry
}

// Config controls observability setup.
type Config struct {
	Environment    string
	MetricsAddress string
}

// Init builds the observability stack. The tracer is resolved from the global
// otel provider so deployments can install an SDK exporter without the service
// caring which one.
func Init(cfg Config) *Observability {
	var handler slog.Handler
	if cfg.Environment == "development" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	logger := slog.New(handler).With(slog.String("service", tracerName))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Observability{
		Logger:   logger,
		Tracer:   otel.Tracer(tracerName),
		Registry: registry,
	}
}

// ServeMetrics exposes the prometheus registry over HTTP. Blocks until the
// listener fails; intended to run in its own goroutine.
func (o *Observability) ServeMetrics(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(o.Registry, promhttp.HandlerOpts{}))
	return http.ListenAndServe(addr, mux)
}
