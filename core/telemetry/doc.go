// Package telemetry wires the OpenTelemetry metrics pipeline: an OTLP/gRPC
// exporter behind a periodic reader, installed as the global MeterProvider.
// Feature packages create their instruments through otel.Meter and never
// depend on this package directly.
package telemetry
