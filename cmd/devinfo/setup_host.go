//go:build !tinygo

package main

import "stm32wl-hal/sim"

// setup installs a simulated NUCLEO-WL55JC so the signature reads work.
func setup() { sim.NewBoard(sim.Options{}).Install() }
