// Package recorder stores the input latched on every tick so that a run can
// be replayed exactly.
//
// A recording is a header followed by one record per tick:
//
//	0   [4]byte  magic "SN5I"
//	4   uint8    version
//	... records  {uint16 buttons, int8 horizontal, int8 vertical}
//
// Values are little-endian.
package recorder

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/nevisdale/sn50/internal/bank"
	"github.com/nevisdale/sn50/internal/profile"
)

const (
	magic   = "SN5I"
	version = 1

	headerSize = 5
	recordSize = 2 + profile.NumAxes
)

var ErrBadRecording = errors.New("not an input recording")

type Source interface {
	Poll() bank.InputState
}

// Writer appends one record for every polled input state.
type Writer struct {
	src Source
	w   *bufio.Writer
	n   uint64
	err error
}

// NewWriter writes the header to w and records everything polled from src.
// A nil src records zero input.
func NewWriter(w io.Writer, src Source) (*Writer, error) {
	bw := bufio.NewWriter(w)
	bw.WriteString(magic)
	bw.WriteByte(version)
	if err := bw.Flush(); err != nil {
		return nil, fmt.Errorf("couldn't write the recording header: %w", err)
	}
	return &Writer{src: src, w: bw}, nil
}

// Poll forwards the next state of the wrapped source and records it. Write
// errors are kept for Flush and never change the returned state.
func (w *Writer) Poll() bank.InputState {
	var in bank.InputState
	if w.src != nil {
		in = w.src.Poll()
	}
	w.Record(in)
	return in
}

func (w *Writer) Record(in bank.InputState) {
	if w.err != nil {
		return
	}
	if err := binary.Write(w.w, binary.LittleEndian, in); err != nil {
		w.err = fmt.Errorf("couldn't record tick %d: %w", w.n, err)
		return
	}
	w.n++
}

// Ticks is the number of records written so far.
func (w *Writer) Ticks() uint64 {
	return w.n
}

func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("couldn't flush the recording: %w", err)
	}
	return nil
}

// Reader replays a recording. Once the records run out it returns zero input.
type Reader struct {
	records []bank.InputState
	next    int
}

func NewReader(r io.Reader) (*Reader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("couldn't read the recording: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Reader, error) {
	if len(data) < headerSize || string(data[:4]) != magic {
		return nil, ErrBadRecording
	}
	if data[4] != version {
		return nil, fmt.Errorf("%w: version %d", ErrBadRecording, data[4])
	}

	body := data[headerSize:]
	if len(body)%recordSize != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrBadRecording, len(body)%recordSize)
	}

	records := make([]bank.InputState, len(body)/recordSize)
	if err := binary.Read(bytes.NewReader(body), binary.LittleEndian, records); err != nil {
		return nil, fmt.Errorf("couldn't decode the recording: %w", err)
	}
	return &Reader{records: records}, nil
}

func (r *Reader) Poll() bank.InputState {
	if r.next >= len(r.records) {
		return bank.InputState{}
	}
	in := r.records[r.next]
	r.next++
	return in
}

// Len is the number of recorded ticks.
func (r *Reader) Len() int {
	return len(r.records)
}

// Done reports whether every recorded tick has been replayed.
func (r *Reader) Done() bool {
	return r.next >= len(r.records)
}

func (r *Reader) Rewind() {
	r.next = 0
}
