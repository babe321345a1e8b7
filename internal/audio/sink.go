package audio

import "errors"

// Sink receives the samples of every executed tick. Queue must not block
// the caller for long; the tick loop calls it once per batch. The slice is
// never reused by the caller, but Tee shares it between sinks, so a sink
// must not modify it.
type Sink interface {
	Queue(samples []int16)
	Close() error
}

type discard struct{}

func (discard) Queue([]int16) {}
func (discard) Close() error  { return nil }

// Discard drops every sample. It is used for muted and headless runs.
var Discard Sink = discard{}

type tee []Sink

// Tee fans samples out to every sink in order.
func Tee(sinks ...Sink) Sink {
	if len(sinks) == 1 {
		return sinks[0]
	}
	return tee(sinks)
}

func (t tee) Queue(samples []int16) {
	for _, s := range t {
		s.Queue(samples)
	}
}

func (t tee) Close() error {
	var errs []error
	for _, s := range t {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
