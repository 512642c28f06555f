//go:build !(tinygo && bootdebug)

package app

import "rtsampler/hal"

func bootDiagSetStep(string) {}

func BootDiag(hal.HAL) {}
