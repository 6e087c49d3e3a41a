package capture

import (
	"context"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// LatestFrame holds the most recent frame as JPEG so preview clients can
// read it without touching the camera.
type LatestFrame struct {
	mu     sync.Mutex
	jpeg   []byte
	seq    uint64
	notify chan struct{}
}

// NewLatestFrame returns an empty buffer.
func NewLatestFrame() *LatestFrame {
	return &LatestFrame{notify: make(chan struct{})}
}

// Store encodes frame as JPEG and publishes it.
func (l *LatestFrame) Store(frame *gocv.Mat) error {
	if frame == nil || frame.Empty() {
		return ErrNoFrame
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	l.StoreJPEG(data)
	return nil
}

// StoreJPEG publishes already encoded bytes.
func (l *LatestFrame) StoreJPEG(data []byte) {
	l.mu.Lock()
	l.jpeg = data
	l.seq++
	close(l.notify)
	l.notify = make(chan struct{})
	l.mu.Unlock()
}

// Load returns the current frame and its sequence number. Sequence 0 means
// nothing has been stored yet.
func (l *LatestFrame) Load() ([]byte, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.jpeg, l.seq
}

// Next blocks until a frame newer than after is stored or ctx is done.
func (l *LatestFrame) Next(ctx context.Context, after uint64) ([]byte, uint64, error) {
	for {
		l.mu.Lock()
		if l.seq > after {
			data, seq := l.jpeg, l.seq
			l.mu.Unlock()
			return data, seq, nil
		}
		ch := l.notify
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, after, ctx.Err()
		case <-ch:
		}
	}
}
