// Package progress implements the completion-event stream the SSH execution
// pool publishes as each device finishes. The default sink
// applies backpressure to workers rather than dropping events; a lossy
// sink is available for subscribers that explicitly accept drops.
package progress

import (
	"github.com/ravensys/netcollect/pkg/log"
)

// Event is a single device-completion notice.
type Event struct {
	Index int // position in completion order, not start order
	Total int
	DeviceID string
	DeviceName string
	Success bool
	Skipped bool
	DurationMS int64
	ErrorKind string
	ErrorMessage string
}

// Sink receives completion events. Publish must never be called concurrently
// with Close.
type Sink interface {
	Publish(Event)
}

// BufferedSink is the default sink: a bounded channel that blocks the
// publisher once full, which throttles the worker pool naturally.
// Capacity should be at least 2x the device pool's worker count.
type BufferedSink struct {
	ch chan Event
}

// NewBufferedSink returns a BufferedSink with the given channel capacity.
func NewBufferedSink(capacity int) *BufferedSink {
	if capacity < 1 {
		capacity = 1
	}
	return &BufferedSink{ch: make(chan Event, capacity)}
}

// Publish blocks until the event is queued.
func (s *BufferedSink) Publish(e Event) {
	s.ch <- e
}

// Events returns the channel subscribers drain.
func (s *BufferedSink) Events() <-chan Event {
	return s.ch
}

// Close signals no more events will be published. Callers must ensure every
// publisher has stopped before calling Close.
func (s *BufferedSink) Close() {
	close(s.ch)
}

// LossySink drops events when its buffer is full instead of blocking the
// publisher. Use only when a subscriber has explicitly opted into losing
// updates (e.g. a TUI progress bar that only cares about the latest state).
type LossySink struct {
	ch chan Event
	dropped int64
}

// NewLossySink returns a LossySink with the given channel capacity.
func NewLossySink(capacity int) *LossySink {
	if capacity < 1 {
		capacity = 1
	}
	return &LossySink{ch: make(chan Event, capacity)}
}

// Publish enqueues e, or drops it and increments the drop counter if the
// buffer is full.
func (s *LossySink) Publish(e Event) {
	select {
	case s.ch <- e:
	default:
		s.dropped++
		log.WithComponent("progress").Warn().
			Int64("dropped_total", s.dropped).
			Str("device", e.DeviceName).
			Msg("progress sink full, dropping event")
	}
}

// Events returns the channel subscribers drain.
func (s *LossySink) Events() <-chan Event {
	return s.ch
}

// Dropped returns the count of events dropped so far.
func (s *LossySink) Dropped() int64 {
	return s.dropped
}

// Close signals no more events will be published.
func (s *LossySink) Close() {
	close(s.ch)
}
