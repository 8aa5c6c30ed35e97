// Package pac hands out the device's peripherals.
//
// Each peripheral is represented by an ownership token. The full set is
// granted once per process by Take; drivers consume tokens when they build
// typed handles, and a consumed token cannot be consumed again until the
// handle is freed.
package pac

import (
	"sync/atomic"

	"stm32wl-hal/internal/claim"
	"stm32wl-hal/mmio"
)

type periph struct {
	bus  mmio.Bus
	base uintptr
	slot *claim.Slot
}

func newPeriph(bus mmio.Bus, base uintptr, name string) periph {
	return periph{bus: bus, base: base, slot: claim.New(name)}
}

// Bus returns the register bus the peripheral lives on.
func (p *periph) Bus() mmio.Bus { return p.bus }

// Base returns the peripheral's base address.
func (p *periph) Base() uintptr { return p.base }

// Reg returns the register at offset off from the base.
func (p *periph) Reg(off uintptr) mmio.Reg { return mmio.At(p.bus, p.base+off) }

func (p *periph) Name() string { return p.slot.Name() }

// Consume checks the token out to a driver. It panics for tokens that did
// not come from Take/Steal and for tokens that are already in use.
func (p *periph) Consume() {
	if p == nil || p.bus == nil || p.slot == nil {
		panic("pac: invalid peripheral token")
	}
	p.slot.Claim()
}

// Release hands the token back; drivers call it when their handle is freed.
func (p *periph) Release() { p.slot.Release() }

// InUse reports whether a driver currently holds the token.
func (p *periph) InUse() bool { return p.slot.Claimed() }

// Peripheral token types. Distinct types keep an I2C2 token from being passed
// where an I2C1 driver is expected.
type (
	RCC   struct{ periph }
	PWR   struct{ periph }
	FLASH struct{ periph }
	GPIOA struct{ periph }
	GPIOB struct{ periph }
	GPIOC struct{ periph }
	GPIOH struct{ periph }
	I2C1  struct{ periph }
	I2C2  struct{ periph }
	I2C3  struct{ periph }
)

// Peripherals is the complete set of ownership tokens. Fields are moved out
// by callers; set a field to nil after handing it over to make that explicit.
type Peripherals struct {
	RCC   *RCC
	PWR   *PWR
	FLASH *FLASH

	GPIOA *GPIOA
	GPIOB *GPIOB
	GPIOC *GPIOC
	GPIOH *GPIOH

	I2C1 *I2C1
	I2C2 *I2C2
	I2C3 *I2C3
}

var taken atomic.Bool

// TryTake returns the peripherals the first time it is called and false on
// every later call.
func TryTake() (*Peripherals, bool) {
	bus := mmio.Default()
	if bus == nil {
		panic("pac: no register bus installed")
	}
	if !taken.CompareAndSwap(false, true) {
		return nil, false
	}
	return Steal(bus), true
}

// Take returns the peripherals and panics if they were already taken. A
// second Take is a logic error in the program, not a runtime condition.
func Take() *Peripherals {
	p, ok := TryTake()
	if !ok {
		panic("peripherals already taken")
	}
	return p
}

// Steal builds a fresh token set over bus without touching the Take
// singleton. Only simulations and tests should need it: two sets over the
// same hardware defeat every ownership check in this module.
func Steal(bus mmio.Bus) *Peripherals {
	return &Peripherals{
		RCC:   &RCC{newPeriph(bus, RCC_BASE, "RCC")},
		PWR:   &PWR{newPeriph(bus, PWR_BASE, "PWR")},
		FLASH: &FLASH{newPeriph(bus, FLASH_BASE, "FLASH")},
		GPIOA: &GPIOA{newPeriph(bus, GPIOA_BASE, "GPIOA")},
		GPIOB: &GPIOB{newPeriph(bus, GPIOB_BASE, "GPIOB")},
		GPIOC: &GPIOC{newPeriph(bus, GPIOC_BASE, "GPIOC")},
		GPIOH: &GPIOH{newPeriph(bus, GPIOH_BASE, "GPIOH")},
		I2C1:  &I2C1{newPeriph(bus, I2C1_BASE, "I2C1")},
		I2C2:  &I2C2{newPeriph(bus, I2C2_BASE, "I2C2")},
		I2C3:  &I2C3{newPeriph(bus, I2C3_BASE, "I2C3")},
	}
}
