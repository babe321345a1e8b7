package audio

import (
	"encoding/binary"
	"sync"
)

// Ring is a bounded sample queue between the tick loop and a device that
// pulls bytes on its own goroutine. Writes never block: when the ring is
// full the oldest samples are dropped. Reads past the queued samples are
// filled with silence.
type Ring struct {
	mu      sync.Mutex
	buf     []int16
	start   int
	size    int
	dropped uint64
}

func NewRing(capacity int) *Ring {
	return &Ring{buf: make([]int16, capacity)}
}

// Write copies samples into the ring.
func (r *Ring) Write(samples []int16) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(samples) > len(r.buf) {
		r.dropped += uint64(len(samples) - len(r.buf))
		samples = samples[len(samples)-len(r.buf):]
	}
	if over := r.size + len(samples) - len(r.buf); over > 0 {
		r.start = (r.start + over) % len(r.buf)
		r.size -= over
		r.dropped += uint64(over)
	}
	for _, v := range samples {
		r.buf[(r.start+r.size)%len(r.buf)] = v
		r.size++
	}
}

// Read fills p with little-endian int16 samples.
func (r *Ring) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(p) / 2
	for i := 0; i < n; i++ {
		var v int16
		if r.size > 0 {
			v = r.buf[r.start]
			r.start = (r.start + 1) % len(r.buf)
			r.size--
		}
		binary.LittleEndian.PutUint16(p[i*2:], uint16(v))
	}
	return n * 2, nil
}

// Len is the number of queued samples.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Dropped is the number of samples lost to overflow so far.
func (r *Ring) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
