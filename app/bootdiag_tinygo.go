//go:build tinygo && bootdebug

package app

import (
	"io"
	"sync"
	"time"

	"rtsampler/hal"
)

var (
	bootDiagMu   sync.Mutex
	bootDiagStep string
	bootDiagDone bool
)

func bootDiagSetStep(msg string) {
	bootDiagMu.Lock()
	bootDiagStep = msg
	bootDiagDone = msg == "ready"
	bootDiagMu.Unlock()
}

// BootDiag repeats the current init step on the console until init reports
// ready, so a late-attached terminal still sees where boot stopped.
func BootDiag(h hal.HAL) {
	w := h.Console()
	if w == nil {
		return
	}
	go func() {
		for {
			bootDiagMu.Lock()
			step, done := bootDiagStep, bootDiagDone
			bootDiagMu.Unlock()
			if step == "" {
				step = "<empty>"
			}
			_, _ = io.WriteString(w, "bootdiag: "+step+"\r\n")
			if done {
				return
			}
			time.Sleep(250 * time.Millisecond)
		}
	}()
}
