//go:build !tinygo

package hal

import (
	"io"
	"sync"
)

// hostSerial stands in for the UART: writes are serialized and counted.
type hostSerial struct {
	mu      sync.Mutex
	w       io.Writer
	written uint64
}

func (s *hostSerial) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.w.Write(p)
	s.written += uint64(n)
	return n, err
}

func (s *hostSerial) bytes() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}
