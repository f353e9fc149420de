// Package telemetry is the metrics surface of the engine. Emission is
// fire-and-forget: a slow or failing sink must never delay or fail the
// caller's response, so the engine always talks to an AsyncRecorder that
// drops on backpressure.
package telemetry

import "time"

// Tags attach dimension labels to a metric point.
type Tags map[string]string

// Recorder is the sink contract. Implementations must not panic; failures
// are logged and discarded.
type Recorder interface {
	Gauge(name string, value float64, tags Tags)
	Count(name string, delta float64, tags Tags)
	Timing(name string, duration time.Duration, tags Tags)
	Event(title, message string, tags Tags)
}

// NopRecorder discards all metrics.
type NopRecorder struct{}

func (NopRecorder) Gauge(string, float64, Tags)        {}
func (NopRecorder) Count(string, float64, Tags)        {}
func (NopRecorder) Timing(string, time.Duration, Tags) {}
func (NopRecorder) Event(string, string, Tags)         {}
