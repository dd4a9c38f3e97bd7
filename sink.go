package jpegli

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
)

// Destination is the output sink of an encode. Init is invoked once when
// serialization starts and Finalize exactly once on every exit path,
// success or failure. Flush may be called between the two to bound
// buffering.
type Destination interface {
	io.Writer
	Init() error
	Flush() error
	Finalize() error
}

// BufferDestination collects the bitstream in memory.
type BufferDestination struct {
	bytes.Buffer
}

func (d *BufferDestination) Init() error     { return nil }
func (d *BufferDestination) Flush() error    { return nil }
func (d *BufferDestination) Finalize() error { return nil }

// writerDestination adapts a plain io.Writer with buffering.
type writerDestination struct {
	w  io.Writer
	bw *bufio.Writer
}

// NewWriterDestination wraps w as a buffered Destination.
func NewWriterDestination(w io.Writer) Destination {
	return &writerDestination{w: w}
}

func (d *writerDestination) Init() error {
	d.bw = bufio.NewWriter(d.w)
	return nil
}

func (d *writerDestination) Write(p []byte) (int, error) {
	return d.bw.Write(p)
}

func (d *writerDestination) Flush() error {
	return d.bw.Flush()
}

func (d *writerDestination) Finalize() error {
	return d.bw.Flush()
}

// fileDestination writes to a file created at Init and closed at
// Finalize.
type fileDestination struct {
	path string
	f    *os.File
	bw   *bufio.Writer
}

// NewFileDestination returns a Destination that creates path when
// serialization starts.
func NewFileDestination(path string) Destination {
	return &fileDestination{path: path}
}

func (d *fileDestination) Init() error {
	f, err := os.Create(d.path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrResource, err)
	}
	d.f = f
	d.bw = bufio.NewWriter(f)
	return nil
}

func (d *fileDestination) Write(p []byte) (int, error) {
	if d.bw == nil {
		return 0, fmt.Errorf("%w: destination not initialized", ErrResource)
	}
	return d.bw.Write(p)
}

func (d *fileDestination) Flush() error {
	return d.bw.Flush()
}

func (d *fileDestination) Finalize() error {
	if d.f == nil {
		return nil
	}
	flushErr := d.bw.Flush()
	closeErr := d.f.Close()
	d.f = nil
	if flushErr != nil {
		return fmt.Errorf("%w: %v", ErrResource, flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("%w: %v", ErrResource, closeErr)
	}
	return nil
}
