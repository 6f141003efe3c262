// Package api configures and exposes the HTTP server, routes,
// metrics, docs and related middleware for the exporter.
package api

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggest/swgui/v5emb"
	"go.opentelemetry.io/otel"

	"covidexport/internal/api/handler/v1handler"
	"covidexport/internal/api/specs/v1specs"
	"covidexport/internal/config"
	"covidexport/pkg/controller"
	"covidexport/pkg/metrics"
	"covidexport/pkg/storage"
)

// v1Spec contains the embedded OpenAPI specification for version 1 of the API.
//
//go:embed specs/v1.yaml
var v1Spec []byte

// V1Prefix is the path prefix of the v1 API and the artifacts.
const V1Prefix = "/v1/"

// Options holds configuration for the HTTP server and its dependencies.
// It is typically created from a config.Config via NewOptions.
// All durations are used to configure server timeouts, and zero values
// should be considered as using the defaults provided by net/http where applicable.
type Options struct {
	// Addr is the TCP address the server listens on, e.g. ":8080".
	Addr string
	// ReadTimeout is the maximum duration for reading the entire request, including the body.
	ReadTimeout time.Duration
	// ReadHeaderTimeout is the amount of time allowed to read request headers.
	ReadHeaderTimeout time.Duration
	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration
	// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled.
	IdleTimeout time.Duration
	// RequestTimeout is the global timeout applied via http.TimeoutHandler for handling requests.
	RequestTimeout time.Duration
	// MaxHeaderBytes controls the maximum number of bytes the server
	// will read parsing the request header's keys and values, including the request line.
	MaxHeaderBytes int
	// MetricsPath is the HTTP path at which Prometheus metrics are served.
	MetricsPath string
}

// NewOptions constructs an Options value from the provided application configuration.
// It maps HTTP server-related settings from config.Config to the Options used by the API server.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Addr:              cfg.HTTP.Addr,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		RequestTimeout:    cfg.HTTP.RequestTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
		MetricsPath:       cfg.HTTP.MetricsPath,
	}
}

// Deps are the data sources exposed by the server.
type Deps struct {
	// Artifacts is the output directory of the exporter.
	Artifacts fs.FS
	// Runs lists the run history. The generated v1 server is not mounted when nil.
	Runs storage.RunStorage
}

// NewServer wires up and returns a configured *http.Server using the provided Options.
// It sets up:
// - Prometheus metrics endpoint (MetricsPath)
// - Embedded OpenAPI v1 document and Swagger UI
// - v1 API routes backed by generated server and handlers, next to the exported artifacts
// - pprof endpoints for profiling
// It also wraps the mux with CORS, metrics and logging middlewares and applies a request timeout.
func NewServer(deps Deps, opts Options) (*http.Server, error) {
	if deps.Artifacts == nil {
		return nil, errors.New("artifacts file system is required")
	}

	mux := http.NewServeMux()

	// prometheus metrics server, the otel instruments are exported to the same
	// registry by metrics.Setup
	mux.Handle(opts.MetricsPath, promhttp.Handler())

	// v1 specs file
	mux.HandleFunc("/specs/v1.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(v1Spec)
	})
	// v1 api swagger playground
	mux.Handle(V1Prefix+"docs/", v5emb.New(
		"COVID-19 Data Export",
		"/specs/v1.yaml",
		V1Prefix+"docs/",
	))
	// v1 api, artifacts are static files and only the typed operations go
	// through the generated server
	if deps.Runs != nil {
		v1Srv, err := v1specs.NewServer(v1handler.New(v1handler.Deps{Runs: deps.Runs}),
			v1specs.WithMeterProvider(otel.GetMeterProvider()),
			v1specs.WithTracerProvider(otel.GetTracerProvider()),
			v1specs.WithPathPrefix(strings.TrimSuffix(V1Prefix, "/")))
		if err != nil {
			return nil, fmt.Errorf("could not create v1 api server: %w", err)
		}
		mux.Handle("GET "+V1Prefix+"runs", v1Srv)
	}
	mux.Handle(V1Prefix, controller.ArtifactsHandler(V1Prefix, deps.Artifacts))

	// pprof
	mux.Handle(controller.PprofPrefix, controller.PprofMux())

	// cors
	handler := controller.WithCORS(mux)

	// metrics
	handler, err := controller.WithMetrics(otel.Meter(metrics.MeterName), handler)
	if err != nil {
		return nil, fmt.Errorf("could not create metrics middleware: %w", err)
	}

	// logger
	handler = controller.WithLogger(handler, opts.MetricsPath, controller.PprofPrefix)

	if opts.RequestTimeout > 0 {
		handler = http.TimeoutHandler(handler, opts.RequestTimeout, `{"error":"request timed out"}`)
	}

	return &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
		MaxHeaderBytes:    opts.MaxHeaderBytes,
	}, nil
}
