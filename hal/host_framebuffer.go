//go:build !tinygo

package hal

import "sync"

// hostFramebuffer is drawn on the core goroutine and shown on the window
// goroutine; Present publishes the back buffer to the front copy.
type hostFramebuffer struct {
	mu       sync.Mutex
	width    int
	height   int
	stride   int
	buf      []byte
	front    []byte
	presents uint64
}

func newHostFramebuffer(width, height int) *hostFramebuffer {
	stride := width * 2
	return &hostFramebuffer{
		width:  width,
		height: height,
		stride: stride,
		buf:    make([]byte, stride*height),
		front:  make([]byte, stride*height),
	}
}

func (f *hostFramebuffer) Width() int          { return f.width }
func (f *hostFramebuffer) Height() int         { return f.height }
func (f *hostFramebuffer) Format() PixelFormat { return PixelFormatRGB565 }
func (f *hostFramebuffer) StrideBytes() int    { return f.stride }
func (f *hostFramebuffer) Buffer() []byte      { return f.buf }

func (f *hostFramebuffer) ClearRGB(r, g, b uint8) {
	pixel := uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
	lo := byte(pixel)
	hi := byte(pixel >> 8)
	for i := 0; i+1 < len(f.buf); i += 2 {
		f.buf[i] = lo
		f.buf[i+1] = hi
	}
}

func (f *hostFramebuffer) Present() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copy(f.front, f.buf)
	f.presents++
	return nil
}

// snapshotRGB565 copies the last presented frame and returns its sequence.
func (f *hostFramebuffer) snapshotRGB565(dst []byte) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	copy(dst, f.front)
	return f.presents
}

// expandRGB565 converts little-endian RGB565 pixels in src to opaque RGBA
// in dst.
func expandRGB565(dst, src []byte) {
	for i, j := 0, 0; i+1 < len(src) && j+3 < len(dst); i, j = i+2, j+4 {
		p := uint16(src[i]) | uint16(src[i+1])<<8
		dst[j+0] = uint8(uint32(p>>11&0x1F) * 255 / 31)
		dst[j+1] = uint8(uint32(p>>5&0x3F) * 255 / 63)
		dst[j+2] = uint8(uint32(p&0x1F) * 255 / 31)
		dst[j+3] = 0xFF
	}
}
