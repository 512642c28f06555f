package app

import (
	"fmt"
	"io"
	"strings"

	"rtsampler/kernel"
	"rtsampler/sampler/display"
)

// fatal is the dispatcher panic handler. It reports the failure on the
// console and draws it on the display.
func (s *System) fatal(info kernel.PanicInfo) {
	s.fatalOnce.Do(func() {
		s.stop()
		lines := panicLines(info)

		if w := s.h.Console(); w != nil {
			writeConsole(w, lines)
		}

		if disp := s.h.Display(); disp != nil {
			_ = display.NewConsole(display.New(disp.Framebuffer())).Show(lines...)
		}

		if s.onPanic != nil {
			s.onPanic(info)
		}
	})
}

func panicLines(info kernel.PanicInfo) []string {
	lines := []string{
		"rtsampler panic:",
		fmt.Sprintf("task: %s (%d)", info.Task, info.TaskID),
		fmt.Sprintf("panic: %v", info.Value),
	}
	if len(info.Stack) == 0 {
		return append(lines, "stack: unavailable")
	}
	lines = append(lines, "stack:")
	for _, line := range strings.Split(string(info.Stack), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func writeConsole(w io.Writer, lines []string) {
	for _, line := range lines {
		_, _ = io.WriteString(w, line+"\r\n")
	}
}
