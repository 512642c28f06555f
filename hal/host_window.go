//go:build !tinygo && cgo

package hal

import (
	"context"
	"image"
	"image/color"

	"rtsampler/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
)

const ledSize = 8

var (
	ledOn  = color.RGBA{R: 0xFF, G: 0x8C, A: 0xFF}
	indOn  = color.RGBA{R: 0x20, G: 0x60, B: 0xFF, A: 0xFF}
	ledOff = color.RGBA{R: 0x30, G: 0x20, B: 0x10, A: 0xFF}
)

// RunWindow shows the framebuffer and the LED in a desktop window while the
// firmware runs. It blocks until the window closes or the firmware returns.
func RunWindow(ctx context.Context, h *Host, run RunFunc, hz int) error {
	if hz <= 0 {
		hz = 60
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer h.Stop()

	done := make(chan error, 1)
	go func() { done <- run(ctx, h) }()

	g := &hostGame{h: h, ctx: ctx, done: done}
	ebiten.SetWindowTitle("rtsampler (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(h.fb.width*2, h.fb.height*2)
	ebiten.SetTPS(hz)
	err := ebiten.RunGame(g)
	if err == ebiten.Termination {
		err = nil
	}
	cancel()
	if g.exited {
		return quietCancel(g.result)
	}
	if err != nil {
		return err
	}
	return quietCancel(<-done)
}

type hostGame struct {
	h       *Host
	ctx     context.Context
	done    <-chan error
	result  error
	exited  bool
	img     *image.RGBA
	fbImg   *ebiten.Image
	ledImg  *ebiten.Image
	scratch []byte
	seq     uint64
}

func (g *hostGame) Update() error {
	select {
	case err := <-g.done:
		g.exited = true
		g.result = err
		return ebiten.Termination
	case <-g.ctx.Done():
		return ebiten.Termination
	default:
	}
	g.h.SetButton(ebiten.IsKeyPressed(ebiten.KeySpace))
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	fb := g.h.fb
	if g.img == nil {
		g.img = image.NewRGBA(image.Rect(0, 0, fb.width, fb.height))
		g.scratch = make([]byte, len(fb.front))
		g.fbImg = ebiten.NewImage(fb.width, fb.height)
		g.ledImg = ebiten.NewImage(ledSize, ledSize)
	}

	if seq := fb.snapshotRGB565(g.scratch); seq != g.seq {
		g.seq = seq
		expandRGB565(g.img.Pix, g.scratch)
		g.fbImg.WritePixels(g.img.Pix)
	}
	screen.DrawImage(g.fbImg, nil)

	g.drawLED(screen, g.h.led, ledOn, fb.width-ledSize-2)
	g.drawLED(screen, g.h.ind, indOn, fb.width-2*ledSize-4)
}

func (g *hostGame) drawLED(screen *ebiten.Image, l *hostLED, lit color.RGBA, x int) {
	if on, _ := l.state(); on {
		g.ledImg.Fill(lit)
	} else {
		g.ledImg.Fill(ledOff)
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(x), 2)
	screen.DrawImage(g.ledImg, op)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.h.fb.width, g.h.fb.height
}
