package telemetry

import (
	"sync/atomic"
	"time"

	"github.com/promptpilot/promptpilot/internal/logging"
)

const defaultBufferSize = 1024

type pointKind int

const (
	kindGauge pointKind = iota
	kindCount
	kindTiming
	kindEvent
)

type point struct {
	kind     pointKind
	name     string
	value    float64
	duration time.Duration
	message  string
	tags     Tags
}

// AsyncRecorder decouples metric emission from request handling. Points are
// queued on a buffered channel and forwarded by a single background
// goroutine; when the buffer is full the point is dropped and counted.
type AsyncRecorder struct {
	sink    Recorder
	logger  logging.Logger
	points  chan point
	done    chan struct{}
	dropped atomic.Int64
}

// NewAsyncRecorder starts the forwarding goroutine around sink.
func NewAsyncRecorder(sink Recorder, logger logging.Logger) *AsyncRecorder {
	r := &AsyncRecorder{
		sink:   sink,
		logger: logger,
		points: make(chan point, defaultBufferSize),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *AsyncRecorder) run() {
	defer close(r.done)
	for p := range r.points {
		r.forward(p)
	}
}

func (r *AsyncRecorder) forward(p point) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("Metrics sink panicked, point discarded", "name", p.name, "panic", rec)
		}
	}()

	switch p.kind {
	case kindGauge:
		r.sink.Gauge(p.name, p.value, p.tags)
	case kindCount:
		r.sink.Count(p.name, p.value, p.tags)
	case kindTiming:
		r.sink.Timing(p.name, p.duration, p.tags)
	case kindEvent:
		r.sink.Event(p.name, p.message, p.tags)
	}
}

func (r *AsyncRecorder) enqueue(p point) {
	select {
	case r.points <- p:
	default:
		r.dropped.Add(1)
		r.logger.Debug("Metrics buffer full, point dropped", "name", p.name)
	}
}

// Dropped returns the number of points discarded due to backpressure.
func (r *AsyncRecorder) Dropped() int64 {
	return r.dropped.Load()
}

func (r *AsyncRecorder) Gauge(name string, value float64, tags Tags) {
	r.enqueue(point{kind: kindGauge, name: name, value: value, tags: tags})
}

func (r *AsyncRecorder) Count(name string, delta float64, tags Tags) {
	r.enqueue(point{kind: kindCount, name: name, value: delta, tags: tags})
}

func (r *AsyncRecorder) Timing(name string, duration time.Duration, tags Tags) {
	r.enqueue(point{kind: kindTiming, name: name, duration: duration, tags: tags})
}

func (r *AsyncRecorder) Event(title, message string, tags Tags) {
	r.enqueue(point{kind: kindEvent, name: title, message: message, tags: tags})
}

// Close drains queued points and stops the forwarding goroutine.
func (r *AsyncRecorder) Close() {
	close(r.points)
	<-r.done
}
