package display

import (
	"image/color"
	"strings"

	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"
)

var (
	White = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	Black = color.RGBA{A: 0xFF}
)

// Console is a scrolling tinyterm text console on an FB. Once the screen is
// full every new line scrolls the oldest one out, so the tail stays visible.
type Console struct {
	fb   *FB
	term *tinyterm.Terminal
	cfg  tinyterm.Config
}

// NewConsole clears fb and starts a console at its top-left. On an unusable
// FB the console discards everything.
func NewConsole(fb *FB) *Console {
	h := int16(proggy.TinySZ8pt7b.YAdvance)
	c := &Console{
		fb: fb,
		cfg: tinyterm.Config{
			Font:       &proggy.TinySZ8pt7b,
			FontHeight: h,
			FontOffset: h - h/4,
		},
	}
	if fb.Usable() {
		if width, height := fb.Size(); width >= h && height >= h {
			c.term = tinyterm.NewTerminal(fb)
		}
	}
	c.Reset()
	return c
}

// Reset clears the screen and homes the cursor.
func (c *Console) Reset() {
	if c.term == nil {
		return
	}
	c.fb.Clear(Black)
	c.term.Configure(&c.cfg)
}

// LineHeight is the pixel height of one text row.
func (c *Console) LineHeight() int16 { return c.cfg.FontHeight }

func (c *Console) Write(p []byte) (int, error) {
	if c.term == nil {
		return len(p), nil
	}
	return c.term.Write(p)
}

// Show writes lines one per row, without a trailing newline, and presents
// the frame.
func (c *Console) Show(lines ...string) error {
	if c.term == nil {
		return nil
	}
	_, _ = c.term.Write([]byte(strings.Join(lines, "\n")))
	return c.fb.Display()
}
