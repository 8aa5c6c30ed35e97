//go:build tinygo

package main

import "stm32wl-hal/pac"

const (
	cycles  = 0
	speedup = 1
)

func setup() *pac.Peripherals { return pac.Take() }
