package sim

import (
	"stm32wl-hal/mmio"
	"stm32wl-hal/pac"
)

// GPIOModel implements BSRR/BRR set-reset semantics and an input data
// register that reflects driven outputs and externally applied levels.
type GPIOModel struct {
	base uintptr
	mem  *mmio.Sim
	ext  uint16
}

func newGPIOModel(m *mmio.Sim, base uintptr, moder uint32) *GPIOModel {
	g := &GPIOModel{base: base, mem: m}
	m.Poke32(base+pac.GPIO_MODER, moder)
	m.Map(base, pac.BLOCK_SIZE, g)
	return g
}

func (g *GPIOModel) outputs() uint32 {
	moder := g.mem.Peek32(g.base + pac.GPIO_MODER)
	var out uint32
	for i := 0; i < 16; i++ {
		if (moder>>(2*i))&0x3 == 0x1 {
			out |= 1 << i
		}
	}
	return out
}

func (g *GPIOModel) OnRead(addr uintptr, cur uint32) uint32 {
	switch addr - g.base {
	case pac.GPIO_IDR:
		out := g.outputs()
		odr := g.mem.Peek32(g.base + pac.GPIO_ODR)
		return (odr & out) | (uint32(g.ext) &^ out)
	case pac.GPIO_BSRR, pac.GPIO_BRR:
		return 0
	}
	return cur
}

func (g *GPIOModel) OnWrite(addr uintptr, _, v uint32) uint32 {
	odrAddr := g.base + pac.GPIO_ODR
	switch addr - g.base {
	case pac.GPIO_BSRR:
		odr := g.mem.Peek32(odrAddr)
		// Set wins over reset.
		odr = odr&^(v>>16) | v&0xFFFF
		g.mem.Poke32(odrAddr, odr)
		return 0
	case pac.GPIO_BRR:
		g.mem.Poke32(odrAddr, g.mem.Peek32(odrAddr)&^(v&0xFFFF))
		return 0
	}
	return v
}

// Drive applies an external level to pin n (seen by IDR when not an output).
func (g *GPIOModel) Drive(n int, high bool) {
	if high {
		g.ext |= 1 << n
	} else {
		g.ext &^= 1 << n
	}
}

// Mode returns the two MODER bits of pin n.
func (g *GPIOModel) Mode(n int) uint32 {
	return (g.mem.Peek32(g.base+pac.GPIO_MODER) >> (2 * n)) & 0x3
}

// OpenDrain reports whether pin n is configured open-drain.
func (g *GPIOModel) OpenDrain(n int) bool {
	return g.mem.Peek32(g.base+pac.GPIO_OTYPER)&(1<<n) != 0
}

// AltFunc returns the alternate function number of pin n.
func (g *GPIOModel) AltFunc(n int) uint32 {
	off := pac.GPIO_AFRL
	if n >= 8 {
		off = pac.GPIO_AFRH
	}
	return (g.mem.Peek32(g.base+off) >> (4 * (n % 8))) & 0xF
}

// Pull returns the two PUPDR bits of pin n.
func (g *GPIOModel) Pull(n int) uint32 {
	return (g.mem.Peek32(g.base+pac.GPIO_PUPDR) >> (2 * n)) & 0x3
}

// Output reports the ODR bit of pin n.
func (g *GPIOModel) Output(n int) bool {
	return g.mem.Peek32(g.base+pac.GPIO_ODR)&(1<<n) != 0
}
