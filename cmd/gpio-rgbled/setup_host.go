//go:build !tinygo

package main

import (
	"stm32wl-hal/pac"
	"stm32wl-hal/sim"
)

// The host build runs one cycle against the simulated board.
const (
	cycles  = 1
	speedup = 100
)

func setup() *pac.Peripherals {
	sim.NewBoard(sim.Options{}).Install()
	return pac.Take()
}
