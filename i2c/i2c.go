// Package i2c is a blocking I2C master for the STM32WL I2C controllers.
//
// A driver owns its controller and both bus pins for its whole life:
//
//	cs.With(func(tok *cs.Token) {
//		bus, err = i2c.NewI2C1(dp.I2C1, pa.A9, pa.A10, i2c.Config{
//			Frequency: 100 * physic.KiloHertz,
//		}, clocks, tok)
//	})
//	err = bus.WriteRead(0x19, []byte{0x0F}, who[:])
//
// Every transfer polls status flags with a bounded budget and always leaves
// the controller idle, whether it succeeds or fails. Nothing is retried.
package i2c

import (
	periphi2c "periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"

	"stm32wl-hal/cs"
	"stm32wl-hal/errcode"
	"stm32wl-hal/gpio"
	"stm32wl-hal/mmio"
	"stm32wl-hal/pac"
	"stm32wl-hal/rcc"
	"stm32wl-hal/x/logx"
)

// DefaultPollBudget is the number of status reads a single wait may take
// before the transfer fails with errcode.Timeout.
const DefaultPollBudget = 250_000

// Config is fixed at construction; there is no reconfiguration afterwards.
type Config struct {
	// Frequency is the SCL rate.
	Frequency physic.Frequency
	// Mode defaults to the slowest grade that allows Frequency.
	Mode Mode
	// PullUp enables the internal pull-ups on SCL and SDA.
	PullUp bool
	// PollBudget bounds each flag wait; zero means DefaultPollBudget.
	PollBudget uint32
	// Tolerance is the accepted rate error in parts per thousand; zero
	// means DefaultTolerance.
	Tolerance uint16
}

// pinAF is the alternate function of every I2C pin on this family.
const pinAF = 4

type instance struct {
	name string
	gate rcc.Periph
	scl  []gpio.PinID
	sda  []gpio.PinID
}

var (
	i2c1 = instance{"I2C1", rcc.I2C1,
		[]gpio.PinID{{Port: 'A', N: 9}, {Port: 'B', N: 6}, {Port: 'B', N: 8}},
		[]gpio.PinID{{Port: 'A', N: 10}, {Port: 'B', N: 7}, {Port: 'B', N: 9}}}
	i2c2 = instance{"I2C2", rcc.I2C2,
		[]gpio.PinID{{Port: 'A', N: 12}, {Port: 'A', N: 15}, {Port: 'B', N: 15}},
		[]gpio.PinID{{Port: 'A', N: 11}}}
	i2c3 = instance{"I2C3", rcc.I2C3,
		[]gpio.PinID{{Port: 'A', N: 7}, {Port: 'B', N: 10}, {Port: 'B', N: 13}, {Port: 'C', N: 0}},
		[]gpio.PinID{{Port: 'B', N: 4}, {Port: 'B', N: 11}, {Port: 'B', N: 14}, {Port: 'C', N: 1}}}
)

func has(ids []gpio.PinID, id gpio.PinID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// token is the part of a pac peripheral token the driver needs.
type token interface {
	Bus() mmio.Bus
	Base() uintptr
	Consume()
	Release()
}

var (
	_ drivers.I2C   = (*I2C)(nil)
	_ periphi2c.Bus = (*I2C)(nil)
)

// I2C is a blocking I2C master. It is owned by one execution context;
// methods must not be called concurrently or re-entered.
type I2C struct {
	inst   instance
	tok    token
	bus    mmio.Bus
	base   uintptr
	rcc    *rcc.RCC
	scl    *gpio.Alternate
	sda    *gpio.Alternate
	timing TimingConfig
	budget uint32
	busy   bool
}

// NewI2C1 builds a driver on I2C1. Valid pins: SCL A9, B6, B8; SDA A10,
// B7, B9.
func NewI2C1(t *pac.I2C1, scl, sda *gpio.Pin, c Config, r *rcc.RCC, tok *cs.Token) (*I2C, error) {
	return newI2C(i2c1, t, scl, sda, c, r, tok)
}

// NewI2C2 builds a driver on I2C2. Valid pins: SCL A12, A15, B15; SDA A11.
func NewI2C2(t *pac.I2C2, scl, sda *gpio.Pin, c Config, r *rcc.RCC, tok *cs.Token) (*I2C, error) {
	return newI2C(i2c2, t, scl, sda, c, r, tok)
}

// NewI2C3 builds a driver on I2C3. Valid pins: SCL A7, B10, B13, C0; SDA
// B4, B11, B14, C1.
func NewI2C3(t *pac.I2C3, scl, sda *gpio.Pin, c Config, r *rcc.RCC, tok *cs.Token) (*I2C, error) {
	return newI2C(i2c3, t, scl, sda, c, r, tok)
}

// newI2C validates everything before it consumes anything, so a failed
// construction leaves the token and pins usable.
func newI2C(in instance, t token, scl, sda *gpio.Pin, c Config, r *rcc.RCC, tok *cs.Token) (*I2C, error) {
	cs.Check(tok)
	if scl == nil || sda == nil || !has(in.scl, scl.ID()) || !has(in.sda, sda.ID()) {
		return nil, errcode.Wrap(errcode.InvalidPins, "i2c", in.name+" scl/sda pair")
	}
	timing, err := Timing(r.I2CKernelHz(in.gate), c)
	if err != nil {
		logx.Warn(logx.ComponentI2C, "no timing", "bus", in.name, "hz", uint64(c.Frequency/physic.Hertz), "err", err)
		return nil, err
	}

	t.Consume()
	pull := gpio.Float
	if c.PullUp {
		pull = gpio.PullUp
	}
	pc := gpio.AltConfig{AF: pinAF, OpenDrain: true, Speed: gpio.SpeedHigh, Pull: pull}
	d := &I2C{
		inst:   in,
		tok:    t,
		bus:    t.Bus(),
		base:   t.Base(),
		rcc:    r,
		scl:    gpio.NewAlternate(scl, pc, tok),
		sda:    gpio.NewAlternate(sda, pc, tok),
		timing: timing,
		budget: c.PollBudget,
	}
	if d.budget == 0 {
		d.budget = DefaultPollBudget
	}

	r.Acquire(in.gate, tok)
	r.Reset(in.gate, tok)

	cr1 := d.reg(pac.I2C_CR1)
	cr1.ClearBits(pac.I2C_CR1_PE)
	d.reg(pac.I2C_TIMINGR).Set(timing.Register())
	// NOSTRETCH must stay clear in master mode; targets may always stretch.
	cr1.ClearBits(pac.I2C_CR1_NOSTRETCH)
	cr1.SetBits(pac.I2C_CR1_PE)

	logx.Debug(logx.ComponentI2C, "configured",
		"bus", in.name,
		"mode", timing.Mode.String(),
		"timingr", timing.Register(),
		"actual_hz", uint64(timing.Actual/physic.Hertz))
	return d, nil
}

func (d *I2C) reg(off uintptr) mmio.Reg { return mmio.At(d.bus, d.base+off) }

func (d *I2C) String() string { return d.inst.name }

// Timing returns the programmed bus timing.
func (d *I2C) Timing() TimingConfig { return d.timing }

// SetSpeed always fails: timing is fixed at construction.
func (d *I2C) SetSpeed(physic.Frequency) error {
	return errcode.Wrap(errcode.Unsupported, "i2c", "speed is fixed at construction")
}

// Free disables the controller and returns the bus pins. The peripheral
// token may be used again afterwards.
func (d *I2C) Free(tok *cs.Token) (scl, sda *gpio.Pin) {
	cs.Check(tok)
	if d.busy {
		panic("i2c: Free during a transfer")
	}
	d.reg(pac.I2C_CR1).ClearBits(pac.I2C_CR1_PE)
	d.rcc.Release(d.inst.gate)
	scl, sda = d.scl.Free(tok), d.sda.Free(tok)
	d.tok.Release()
	logx.Debug(logx.ComponentI2C, "freed", "bus", d.inst.name)
	return scl, sda
}
