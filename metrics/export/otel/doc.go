// Package otel bridges authgate metrics into an OpenTelemetry meter.
//
// [NewExporter] registers observable instruments for every core counter and
// histogram bucket; each collection cycle reads a fresh engine snapshot.
// Close unregisters the callback.
package otel
