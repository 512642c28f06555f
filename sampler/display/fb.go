// Package display draws on a hal.Framebuffer through the tinygo drivers
// Displayer interface, so tinyfont and tinyterm can render onto it.
package display

import (
	"fmt"
	"image/color"

	"rtsampler/hal"

	"tinygo.org/x/drivers"
)

// FB adapts an RGB565 framebuffer to drivers.Displayer. A nil or foreign
// format framebuffer swallows all drawing.
//
// FB emulates a display controller's vertical scroll: drawing addresses
// display memory rows, and SetScroll picks the memory row shown at the top
// of the screen.
type FB struct {
	fb     hal.Framebuffer
	scroll int
	tmp    []byte
}

var _ drivers.Displayer = (*FB)(nil)

func New(fb hal.Framebuffer) *FB {
	return &FB{fb: fb}
}

// Usable reports whether drawing reaches a pixel buffer.
func (d *FB) Usable() bool {
	return d.fb != nil && d.fb.Format() == hal.PixelFormatRGB565 && d.fb.Buffer() != nil
}

func (d *FB) Size() (x, y int16) {
	if d.fb == nil {
		return 0, 0
	}
	return int16(d.fb.Width()), int16(d.fb.Height())
}

func (d *FB) SetPixel(x, y int16, c color.RGBA) {
	if !d.Usable() {
		return
	}
	ix, iy := int(x), int(y)
	if ix < 0 || ix >= d.fb.Width() || iy < 0 || iy >= d.fb.Height() {
		return
	}
	buf := d.fb.Buffer()
	off := d.screenRow(iy)*d.fb.StrideBytes() + ix*2
	if off+1 >= len(buf) {
		return
	}
	pixel := rgb565(c)
	buf[off] = byte(pixel)
	buf[off+1] = byte(pixel >> 8)
}

// Display presents the frame.
func (d *FB) Display() error {
	if d.fb == nil {
		return nil
	}
	return d.fb.Present()
}

// Clear fills the screen with c and resets the scroll.
func (d *FB) Clear(c color.RGBA) {
	d.scroll = 0
	if d.fb != nil {
		d.fb.ClearRGB(c.R, c.G, c.B)
	}
}

func (d *FB) screenRow(memRow int) int {
	h := d.fb.Height()
	return ((memRow-d.scroll)%h + h) % h
}

// SetScroll shows memory row line at the top of the screen.
func (d *FB) SetScroll(line int16) {
	if !d.Usable() || d.fb.Height() == 0 {
		return
	}
	h := d.fb.Height()
	next := (int(line)%h + h) % h
	delta := (next - d.scroll + h) % h
	d.scroll = next
	if delta == 0 {
		return
	}

	// Screen row s now shows what was on screen row s+delta.
	stride := d.fb.StrideBytes()
	buf := d.fb.Buffer()
	n := min(len(buf), h*stride)
	if cap(d.tmp) < n {
		d.tmp = make([]byte, n)
	}
	tmp := d.tmp[:n]
	split := delta * stride
	copy(tmp, buf[split:n])
	copy(tmp[n-split:], buf[:split])
	copy(buf, tmp)
}

// SetRotation only accepts the native orientation.
func (d *FB) SetRotation(rotation drivers.Rotation) error {
	if rotation != drivers.Rotation0 {
		return fmt.Errorf("display: rotation %d not supported", rotation)
	}
	return nil
}

func (d *FB) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	if !d.Usable() {
		return nil
	}
	w, h := d.fb.Width(), d.fb.Height()
	x0 := clamp(int(x), 0, w)
	y0 := clamp(int(y), 0, h)
	x1 := clamp(int(x)+int(width), 0, w)
	y1 := clamp(int(y)+int(height), 0, h)
	if x0 >= x1 || y0 >= y1 {
		return nil
	}

	pixel := rgb565(c)
	lo, hi := byte(pixel), byte(pixel>>8)
	buf := d.fb.Buffer()
	stride := d.fb.StrideBytes()
	for py := y0; py < y1; py++ {
		row := d.screenRow(py) * stride
		for px := x0; px < x1; px++ {
			off := row + px*2
			if off+1 >= len(buf) {
				break
			}
			buf[off] = lo
			buf[off+1] = hi
		}
	}
	return nil
}

// PixelAt decodes the RGB565 pixel shown at screen position x, y.
func (d *FB) PixelAt(x, y int) (uint16, bool) {
	if !d.Usable() || x < 0 || y < 0 || x >= d.fb.Width() || y >= d.fb.Height() {
		return 0, false
	}
	buf := d.fb.Buffer()
	off := y*d.fb.StrideBytes() + x*2
	return uint16(buf[off]) | uint16(buf[off+1])<<8, true
}

func rgb565(c color.RGBA) uint16 {
	return uint16((uint16(c.R>>3)&0x1F)<<11 | (uint16(c.G>>2)&0x3F)<<5 | (uint16(c.B>>3) & 0x1F))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
