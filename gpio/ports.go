package gpio

import (
	"stm32wl-hal/cs"
	"stm32wl-hal/mmio"
	"stm32wl-hal/pac"
	"stm32wl-hal/rcc"
	"stm32wl-hal/x/logx"
)

func split(bus mmio.Bus, base uintptr, letter byte, gate rcc.Periph, r *rcc.RCC, pins []**Pin) {
	cs.With(func(tok *cs.Token) { r.Enable(gate, tok) })
	p := &port{bus: bus, base: base, letter: letter, rcc: r, gate: gate}
	for i, dst := range pins {
		*dst = newPin(p, uint8(i))
	}
	logx.Debug(logx.ComponentGPIO, "port split", "port", string(letter))
}

// PortA holds the pin identities of GPIOA.
type PortA struct {
	A0, A1, A2, A3, A4, A5, A6, A7, A8, A9, A10, A11, A12, A13, A14, A15 *Pin
}

// PortB holds the pin identities of GPIOB.
type PortB struct {
	B0, B1, B2, B3, B4, B5, B6, B7, B8, B9, B10, B11, B12, B13, B14, B15 *Pin
}

// PortC holds the pin identities of GPIOC.
type PortC struct {
	C0, C1, C2, C3, C4, C5, C6, C7, C8, C9, C10, C11, C12, C13, C14, C15 *Pin
}

// PortH holds the pin identities of GPIOH. Only H3 is bonded out.
type PortH struct {
	H3 *Pin
}

// SplitA consumes the GPIOA token, enables the port clock and returns its
// pins.
func SplitA(t *pac.GPIOA, r *rcc.RCC) *PortA {
	t.Consume()
	p := new(PortA)
	split(t.Bus(), t.Base(), 'A', rcc.GPIOA, r, []**Pin{
		&p.A0, &p.A1, &p.A2, &p.A3, &p.A4, &p.A5, &p.A6, &p.A7,
		&p.A8, &p.A9, &p.A10, &p.A11, &p.A12, &p.A13, &p.A14, &p.A15,
	})
	return p
}

// SplitB consumes the GPIOB token, enables the port clock and returns its
// pins.
func SplitB(t *pac.GPIOB, r *rcc.RCC) *PortB {
	t.Consume()
	p := new(PortB)
	split(t.Bus(), t.Base(), 'B', rcc.GPIOB, r, []**Pin{
		&p.B0, &p.B1, &p.B2, &p.B3, &p.B4, &p.B5, &p.B6, &p.B7,
		&p.B8, &p.B9, &p.B10, &p.B11, &p.B12, &p.B13, &p.B14, &p.B15,
	})
	return p
}

// SplitC consumes the GPIOC token, enables the port clock and returns its
// pins.
func SplitC(t *pac.GPIOC, r *rcc.RCC) *PortC {
	t.Consume()
	p := new(PortC)
	split(t.Bus(), t.Base(), 'C', rcc.GPIOC, r, []**Pin{
		&p.C0, &p.C1, &p.C2, &p.C3, &p.C4, &p.C5, &p.C6, &p.C7,
		&p.C8, &p.C9, &p.C10, &p.C11, &p.C12, &p.C13, &p.C14, &p.C15,
	})
	return p
}

// SplitH consumes the GPIOH token, enables the port clock and returns its
// pins.
func SplitH(t *pac.GPIOH, r *rcc.RCC) *PortH {
	t.Consume()
	p := &PortH{}
	var unused [3]*Pin
	split(t.Bus(), t.Base(), 'H', rcc.GPIOH, r, []**Pin{&unused[0], &unused[1], &unused[2], &p.H3})
	return p
}
