//go:build tinygo

package main

import (
	"context"

	"rtsampler/app"
	"rtsampler/hal"
	"rtsampler/internal/config"
	"rtsampler/internal/logx"
)

func main() {
	h := hal.New()
	app.BootDiag(h)

	cfg := config.Default()
	log := logx.NewConsole(h.Console(), cfg.Logging.Level)

	sys, err := app.New(h, app.Options{Config: cfg, Log: log})
	if err != nil {
		log.Error("init failed", logx.Err(err))
		select {}
	}
	if err := sys.Run(context.Background()); err != nil {
		log.Error("halted", logx.Err(err))
	}
	select {}
}
