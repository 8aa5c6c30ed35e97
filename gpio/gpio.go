// Package gpio splits GPIO ports into pin identities and turns those into
// typed handles.
//
// A port is split once, which enables its clock and yields one *Pin per
// physical pin. Converting a pin into an Output, Input or Alternate handle
// consumes it; doing so twice without freeing the first handle panics.
// Port-wide configuration registers (MODER, OTYPER, OSPEEDR, PUPDR, AFR) are
// shared between pins, so conversions take a critical-section token. Level
// operations on a handle go through BSRR/IDR and need no token.
package gpio

import (
	"periph.io/x/conn/v3/gpio"

	"stm32wl-hal/cs"
	"stm32wl-hal/internal/claim"
	"stm32wl-hal/mmio"
	"stm32wl-hal/pac"
	"stm32wl-hal/rcc"
	"stm32wl-hal/x/conv"
	"stm32wl-hal/x/logx"
)

// Level is a pin level.
type Level = gpio.Level

const (
	Low  = gpio.Low
	High = gpio.High
)

// Pull selects the pull resistor. gpio.PullNoChange keeps the current
// setting.
type Pull = gpio.Pull

const (
	Float    = gpio.Float
	PullUp   = gpio.PullUp
	PullDown = gpio.PullDown
)

// Speed is the output slew rate.
type Speed uint8

const (
	SpeedLow Speed = iota
	SpeedMedium
	SpeedFast
	SpeedHigh
)

const (
	modeInput  uint32 = 0
	modeOutput uint32 = 1
	modeAlt    uint32 = 2
	modeAnalog uint32 = 3
)

// port is the register block of one GPIO port.
type port struct {
	bus    mmio.Bus
	base   uintptr
	letter byte
	rcc    *rcc.RCC
	gate   rcc.Periph
}

func (p *port) reg(off uintptr) mmio.Reg { return mmio.At(p.bus, p.base+off) }

// PinID names a physical pin.
type PinID struct {
	Port byte // 'A', 'B', 'C' or 'H'
	N    uint8
}

func (id PinID) String() string {
	return string(conv.AppendUint([]byte{id.Port}, uint64(id.N)))
}

// Pin is the identity of one physical pin, obtained by splitting its port.
type Pin struct {
	port *port
	n    uint8
	slot *claim.Slot
}

func newPin(p *port, n uint8) *Pin {
	id := PinID{Port: p.letter, N: n}
	return &Pin{port: p, n: n, slot: claim.New(id.String())}
}

// ID returns the pin's name.
func (p *Pin) ID() PinID { return PinID{Port: p.port.letter, N: p.n} }

func (p *Pin) String() string { return p.ID().String() }

// InUse reports whether a handle currently owns the pin.
func (p *Pin) InUse() bool { return p.slot.Claimed() }

// consume claims the pin and holds its port clock until release.
func (p *Pin) consume(tok *cs.Token) {
	if p == nil || p.port == nil {
		panic("gpio: invalid pin")
	}
	p.slot.Claim()
	p.port.rcc.Acquire(p.port.gate, tok)
}

func (p *Pin) mask() uint32 { return 1 << p.n }

func (p *Pin) setMode(m uint32) {
	p.port.reg(pac.GPIO_MODER).ReplaceBits(m, 0x3, 2*p.n)
}

func (p *Pin) mode() uint32 {
	return p.port.reg(pac.GPIO_MODER).Field(0x3, 2*p.n)
}

func (p *Pin) setOpenDrain(od bool) {
	r := p.port.reg(pac.GPIO_OTYPER)
	if od {
		r.SetBits(p.mask())
	} else {
		r.ClearBits(p.mask())
	}
}

func (p *Pin) setSpeed(s Speed) {
	p.port.reg(pac.GPIO_OSPEEDR).ReplaceBits(uint32(s), 0x3, 2*p.n)
}

func (p *Pin) setPull(pull Pull) {
	var v uint32
	switch pull {
	case gpio.PullNoChange:
		return
	case PullUp:
		v = 1
	case PullDown:
		v = 2
	}
	p.port.reg(pac.GPIO_PUPDR).ReplaceBits(v, 0x3, 2*p.n)
}

func (p *Pin) setAltFunc(af uint8) {
	off, pos := pac.GPIO_AFRL, 4*p.n
	if p.n >= 8 {
		off, pos = pac.GPIO_AFRH, 4*(p.n-8)
	}
	p.port.reg(off).ReplaceBits(uint32(af), 0xF, pos)
}

// latch writes the output data bit through BSRR.
func (p *Pin) latch(l Level) {
	if l {
		p.port.reg(pac.GPIO_BSRR).Set(p.mask())
	} else {
		p.port.reg(pac.GPIO_BSRR).Set(p.mask() << 16)
	}
}

func (p *Pin) input() Level {
	return p.port.reg(pac.GPIO_IDR).Get()&p.mask() != 0
}

func (p *Pin) output() Level {
	return p.port.reg(pac.GPIO_ODR).Get()&p.mask() != 0
}

// release parks the pin in analog mode, the reset state, and returns the
// identity.
func (p *Pin) release(tok *cs.Token) *Pin {
	cs.Check(tok)
	p.setMode(modeAnalog)
	p.setPull(Float)
	p.port.rcc.Release(p.port.gate)
	p.slot.Release()
	logx.Debug(logx.ComponentGPIO, "pin freed", "pin", p.String())
	return p
}
