package app

import (
	"rtsampler/internal/logx"
	"rtsampler/sampler/display"
)

// bootStep records init progress and shows it on the display when there
// is one.
func (s *System) bootStep(msg string) {
	bootDiagSetStep(msg)
	s.log.Debug("boot", logx.String("step", msg))

	disp := s.h.Display()
	if disp == nil {
		return
	}
	_ = display.NewConsole(display.New(disp.Framebuffer())).Show("rtsampler boot", msg)
}
