// Package controller contains HTTP middlewares and helper handlers used by the API server.
//
// Provided middlewares:
//   - WithCORS: Adds read-only CORS headers and handles OPTIONS preflight.
//   - WithLogger: Attaches a request-scoped logger and request ID to the context and logs access info,
//     quietly for scrape and profiling paths.
//   - WithMetrics: Records request durations in an OpenTelemetry histogram.
//
// Provided helpers:
//   - ArtifactsHandler: Serves emitted artifacts read-only.
//   - PprofMux: Returns a ServeMux exposing net/http/pprof handlers.
package controller
