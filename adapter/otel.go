package adapter

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// GlobalInstruments returns a meter and a tracer from the global OpenTelemetry
// providers, ready for bulk.Config.Meter and bulk.Config.Tracer.
func GlobalInstruments(scope string) (metric.Meter, trace.Tracer) {
	return otel.GetMeterProvider().Meter(scope), otel.GetTracerProvider().Tracer(scope)
}
