//go:build !tinygo

package main

import (
	"log/slog"
	"os"

	"stm32wl-hal/pac"
	"stm32wl-hal/sim"
	"stm32wl-hal/x/logx"
)

const (
	cycles  = 3
	speedup = 100
)

// setup installs a simulated Generic Node with both sensors on I2C1.
func setup() *pac.Peripherals {
	logx.SetOutput(os.Stderr, logx.FormatText)
	logx.SetLevel(slog.LevelDebug)

	b := sim.NewBoard(sim.Options{})
	b.I2C1.Attach(sim.LIS2DH12Address, sim.NewLIS2DH12())
	b.I2C1.Attach(sim.SHTC3Address, sim.NewSHTC3())
	b.Install()
	return pac.Take()
}
