// Package sim simulates the parts of the SoC the HAL drives, so the HAL can
// run and be tested on a host.
//
// A Board is a register file (mmio.Sim) with peripheral models mapped over
// the RCC, PWR, GPIO and I2C windows and the factory information block
// filled in. I2C targets are attached per controller:
//
//	b := sim.NewBoard(sim.Options{})
//	b.I2C1.Attach(0x19, sim.NewLIS2DH12())
//	dp := b.Peripherals()
package sim

import (
	"stm32wl-hal/mmio"
	"stm32wl-hal/pac"
)

// Options configures a Board. Zero values select NUCLEO-WL55JC defaults.
type Options struct {
	// FlashSizeKiB defaults to 256.
	FlashSizeKiB uint16
	// PackageCode is the raw package register value (default 0, UFBGA73).
	PackageCode uint16
	// UIDHigh/UIDLow are the two UID64 words (defaults 0x00550015, 0x0080E115).
	UIDHigh, UIDLow uint32
	// StartInRange2 starts the regulator in voltage range 2.
	StartInRange2 bool
}

// Board is a simulated SoC.
type Board struct {
	Mem *mmio.Sim

	RCC  *RCCModel
	PWR  *PWRModel
	GPIO map[uintptr]*GPIOModel

	I2C1, I2C2, I2C3 *I2CModel
}

// NewBoard builds a board in its reset state.
func NewBoard(o Options) *Board {
	if o.FlashSizeKiB == 0 {
		o.FlashSizeKiB = 256
	}
	if o.UIDHigh == 0 && o.UIDLow == 0 {
		o.UIDHigh, o.UIDLow = 0x0055_0015, 0x0080_E115
	}

	m := mmio.NewSim()
	b := &Board{Mem: m, GPIO: make(map[uintptr]*GPIOModel)}

	b.RCC = newRCCModel(m)
	b.PWR = newPWRModel(m, o.StartInRange2)
	m.Poke32(pac.FLASH_BASE+pac.FLASH_ACR, 0x600)

	for _, g := range []struct {
		base  uintptr
		moder uint32
	}{
		{pac.GPIOA_BASE, 0xABFF_FFFF},
		{pac.GPIOB_BASE, 0xFFFF_FEBF},
		{pac.GPIOC_BASE, 0xFFFF_FFFF},
		{pac.GPIOH_BASE, 0xFFFF_FFFF},
	} {
		b.GPIO[g.base] = newGPIOModel(m, g.base, g.moder)
	}

	b.I2C1 = newI2CModel(m, pac.I2C1_BASE, "I2C1")
	b.I2C2 = newI2CModel(m, pac.I2C2_BASE, "I2C2")
	b.I2C3 = newI2CModel(m, pac.I2C3_BASE, "I2C3")

	m.Poke16(pac.FLASHSIZE_ADDR, o.FlashSizeKiB)
	m.Poke16(pac.PACKAGE_ADDR, o.PackageCode)
	m.Poke32(pac.UID64_ADDR, o.UIDHigh)
	m.Poke32(pac.UID64_ADDR+4, o.UIDLow)
	return b
}

// Bus returns the board's register bus.
func (b *Board) Bus() mmio.Bus { return b.Mem }

// Install makes the board the process default bus so pac.Take works.
func (b *Board) Install() { mmio.SetDefault(b.Mem) }

// Peripherals returns a fresh token set over the board, bypassing the
// pac.Take singleton.
func (b *Board) Peripherals() *pac.Peripherals { return pac.Steal(b.Mem) }

// Port returns the GPIO model at base (pac.GPIOx_BASE).
func (b *Board) Port(base uintptr) *GPIOModel { return b.GPIO[base] }
