// Package serial writes telemetry frames to a serial port.
//
// Each frame is prefixed with its length as a 4-byte little-endian
// integer.
package serial

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"

	"github.com/robotalks/cmt.go/pkg/telemetry"
)

// MaxFrameSize is the largest frame FrameReader accepts.
const MaxFrameSize = 64 * 1024

// ErrFrameTooLarge is returned for frames over MaxFrameSize.
var ErrFrameTooLarge = errors.New("frame too large")

// FrameWriter writes length-prefixed frames.
type FrameWriter struct {
	w    io.Writer
	lock sync.Mutex
}

// NewFrameWriter creates a FrameWriter.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// WriteFrame writes one frame.
func (w *FrameWriter) WriteFrame(frame []byte) error {
	if len(frame) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	buf := make([]byte, 4+len(frame))
	binary.LittleEndian.PutUint32(buf, uint32(len(frame)))
	copy(buf[4:], frame)
	w.lock.Lock()
	defer w.lock.Unlock()
	_, err := w.w.Write(buf)
	return err
}

// FrameReader reads length-prefixed frames.
type FrameReader struct {
	r io.Reader
}

// NewFrameReader creates a FrameReader.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: r}
}

// ReadFrame reads one frame.
func (r *FrameReader) ReadFrame() ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r.r, hdr[:]); err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint32(hdr[:])
	if size > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	frame := make([]byte, size)
	if _, err := io.ReadFull(r.r, frame); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return frame, nil
}

// Sink is a telemetry.Sink writing frames to a serial port.
type Sink struct {
	*FrameWriter
	port io.Closer
}

// NewSink creates a Sink writing to w.
func NewSink(w io.Writer) *Sink {
	s := &Sink{FrameWriter: NewFrameWriter(w)}
	if c, ok := w.(io.Closer); ok {
		s.port = c
	}
	return s
}

// OpenPort opens a serial port in 8N1 mode.
func OpenPort(portName string, baudRate int) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}
	return port, nil
}

// Open opens a Sink on a serial port.
func Open(portName string, baudRate int) (*Sink, error) {
	port, err := OpenPort(portName, baudRate)
	if err != nil {
		return nil, err
	}
	return NewSink(port), nil
}

// Receive decodes frames from r and sends them to ch as reports of board
// until r fails.
func Receive(r io.Reader, board string, codec telemetry.Codec, ch chan<- telemetry.Received) error {
	frames := NewFrameReader(r)
	for {
		frame, err := frames.ReadFrame()
		if err != nil {
			return err
		}
		report, err := codec.Decode(frame)
		ch <- telemetry.Received{Board: board, Report: report, Err: err}
	}
}

// Name implements telemetry.Sink.
func (s *Sink) Name() string {
	return "serial"
}

// Publish implements telemetry.Sink.
func (s *Sink) Publish(frame []byte) error {
	return s.WriteFrame(frame)
}

// Run keeps the port open until ctx is done, then closes it.
func (s *Sink) Run(ctx context.Context) error {
	<-ctx.Done()
	if err := s.Close(); err != nil {
		return fmt.Errorf("close serial port: %w", err)
	}
	return ctx.Err()
}

// Close closes the underlying port.
func (s *Sink) Close() error {
	if s.port == nil {
		return nil
	}
	return s.port.Close()
}
