// Package recording stores detection ticks as a msgpack stream so a control
// session can be replayed through the engine offline.
//
// A recording is a Header followed by any number of Tick values.
package recording

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/ayusman/soundwave/internal/detector"
	"github.com/ayusman/soundwave/internal/gesture"
)

// Format identifies soundwave recordings.
const (
	Format  = "soundwave-ticks"
	Version = 1
)

// ErrBadFrame is returned for a malformed header or tick.
var ErrBadFrame = errors.New("malformed recording frame")

// Header opens every recording.
type Header struct {
	Format    string    `msgpack:"format"`
	Version   int       `msgpack:"version"`
	CreatedAt time.Time `msgpack:"created_at"`
	Mode      string    `msgpack:"mode,omitempty"`
}

// Tick is the detector output for one frame.
type Tick struct {
	At    time.Time                `msgpack:"at"`
	Hands []detector.HandLandmarks `msgpack:"hands"`
}

// Writer appends ticks to a recording. It is safe for concurrent use.
type Writer struct {
	mu     sync.Mutex
	buf    *bufio.Writer
	enc    *msgpack.Encoder
	closer io.Closer
	count  int
}

// NewWriter writes the header to w and returns a Writer.
func NewWriter(w io.Writer, mode string) (*Writer, error) {
	buf := bufio.NewWriter(w)
	wr := &Writer{buf: buf, enc: msgpack.NewEncoder(buf)}

	h := Header{Format: Format, Version: Version, CreatedAt: time.Now().UTC(), Mode: mode}
	if err := wr.enc.Encode(&h); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := buf.Flush(); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	return wr, nil
}

// Create truncates or creates the file at path and returns a Writer on it.
func Create(path, mode string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create recording: %w", err)
	}
	w, err := NewWriter(f, mode)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

// Write appends one tick.
func (w *Writer) Write(t Tick) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.enc.Encode(&t); err != nil {
		return fmt.Errorf("write tick: %w", err)
	}
	w.count++
	return nil
}

// Count returns how many ticks were written.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Flush writes buffered ticks to the underlying writer.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Flush()
}

// Close flushes and closes the underlying file when the Writer owns one.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	err := w.buf.Flush()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
		w.closer = nil
	}
	return err
}

// Reader reads ticks from a recording.
type Reader struct {
	dec    *msgpack.Decoder
	header Header
	closer io.Closer
}

// NewReader reads and validates the header from r.
func NewReader(r io.Reader) (*Reader, error) {
	dec := msgpack.NewDecoder(bufio.NewReader(r))

	var h Header
	if err := dec.Decode(&h); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrBadFrame, err)
	}
	if h.Format != Format {
		return nil, fmt.Errorf("%w: unknown format %q", ErrBadFrame, h.Format)
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadFrame, h.Version)
	}
	return &Reader{dec: dec, header: h}, nil
}

// Open opens the recording file at path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// Header returns the recording header.
func (r *Reader) Header() Header {
	return r.header
}

// Next returns the next tick, or io.EOF after the last one.
func (r *Reader) Next() (Tick, error) {
	var t Tick
	if err := r.dec.Decode(&t); err != nil {
		if errors.Is(err, io.EOF) {
			return Tick{}, io.EOF
		}
		return Tick{}, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	return t, nil
}

// Close closes the underlying file when the Reader owns one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// Replay feeds every tick to e in recorded order and returns the results.
// Results gathered before a malformed tick are returned with the error.
func Replay(r *Reader, e *gesture.Engine) ([]gesture.Result, error) {
	var results []gesture.Result
	for {
		t, err := r.Next()
		if errors.Is(err, io.EOF) {
			return results, nil
		}
		if err != nil {
			return results, err
		}
		results = append(results, e.ProcessTick(t.Hands, t.At))
	}
}
