//go:build !tinygo && !cgo

package hal

import (
	"context"
	"errors"
)

func RunWindow(_ context.Context, h *Host, _ RunFunc, _ int) error {
	h.Stop()
	return errors.New("window mode requires cgo (build/run with CGO_ENABLED=1)")
}
