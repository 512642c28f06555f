// Package sink carries formatted sample lines out of the firmware.
//
// Sinks are called from task context and must not block for long; Queued
// decouples a slow transport from the consumer task.
package sink

import (
	"errors"
	"io"
	"sync"
)

// Sink accepts one line at a time, without its terminator.
type Sink interface {
	WriteLine(line string) error
}

// Func adapts a function to Sink.
type Func func(line string) error

func (f Func) WriteLine(line string) error { return f(line) }

// LineWriter terminates each line and writes it in a single Write.
type LineWriter struct {
	mu     sync.Mutex
	w      io.Writer
	ending string
	buf    []byte
	bytes  uint64
}

// NewLineWriter returns a sink over w. An empty ending means "\r\n".
func NewLineWriter(w io.Writer, ending string) *LineWriter {
	if ending == "" {
		ending = "\r\n"
	}
	return &LineWriter{w: w, ending: ending}
}

func (l *LineWriter) WriteLine(line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf = append(l.buf[:0], line...)
	l.buf = append(l.buf, l.ending...)
	n, err := l.w.Write(l.buf)
	l.bytes += uint64(n)
	if err == nil && n < len(l.buf) {
		err = io.ErrShortWrite
	}
	return err
}

// Bytes returns how many bytes reached the writer.
func (l *LineWriter) Bytes() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bytes
}

// Fanout writes every line to each sink and joins their errors.
type Fanout []Sink

func (f Fanout) WriteLine(line string) error {
	var errs []error
	for _, s := range f {
		if err := s.WriteLine(line); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps every line in memory.
type Recorder struct {
	mu    sync.Mutex
	lines []string
	Err   error
}

func (r *Recorder) WriteLine(line string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.lines = append(r.lines, line)
	return nil
}

func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}
