// Package metrics holds the shared metric settings and the OpenTelemetry meter
// provider exporting to the Prometheus registry.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MeterName is the instrumentation scope of the exporter's own instruments.
const MeterName = "covidexport"

// DefaultBuckets provides a common set of histogram buckets in seconds that can
// be reused across the application for latency metrics.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10} //nolint: gochecknoglobals

// RunBuckets are histogram buckets in seconds sized for whole export runs,
// which download and write hundreds of megabytes.
var RunBuckets = []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200} //nolint: gochecknoglobals

// Setup creates a meter provider whose instruments are exposed through reg
// and installs it as the global provider.
func Setup(reg prometheus.Registerer) (*sdkmetric.MeterProvider, error) {
	exp, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("could not create otel exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp))
	otel.SetMeterProvider(mp)

	return mp, nil
}
