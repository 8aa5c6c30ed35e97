package gpio

import (
	"stm32wl-hal/cs"
	"stm32wl-hal/x/logx"
)

// OutputConfig configures an output pin. The zero value is a low push-pull
// output at low speed that keeps the current pull setting.
type OutputConfig struct {
	Level     Level
	OpenDrain bool
	Speed     Speed
	Pull      Pull
}

// Output is a pin driven as a digital output.
type Output struct {
	pin *Pin
}

// NewOutput consumes pin and drives it at level l.
func NewOutput(pin *Pin, l Level, tok *cs.Token) *Output {
	return NewOutputWith(pin, OutputConfig{Level: l}, tok)
}

// NewOutputWith consumes pin and configures it as an output. The initial
// level is latched before the pin switches to output mode so the pin never
// drives a stale value.
func NewOutputWith(pin *Pin, c OutputConfig, tok *cs.Token) *Output {
	cs.Check(tok)
	pin.consume(tok)
	pin.latch(c.Level)
	pin.setOpenDrain(c.OpenDrain)
	pin.setSpeed(c.Speed)
	pin.setPull(c.Pull)
	pin.setMode(modeOutput)
	logx.Debug(logx.ComponentGPIO, "output", "pin", pin.String(), "level", c.Level.String())
	return &Output{pin: pin}
}

// Set drives the pin to l.
func (o *Output) Set(l Level) { o.pin.latch(l) }

func (o *Output) High() { o.pin.latch(High) }
func (o *Output) Low()  { o.pin.latch(Low) }

// Level returns the driven level (ODR), not the sensed one.
func (o *Output) Level() Level { return o.pin.output() }

// Toggle inverts the driven level.
func (o *Output) Toggle() { o.pin.latch(!o.pin.output()) }

// Out implements periph's gpio.PinOut level setter.
func (o *Output) Out(l Level) error {
	o.pin.latch(l)
	return nil
}

func (o *Output) String() string { return o.pin.String() }

// Pin returns the identity the handle owns.
func (o *Output) Pin() PinID { return o.pin.ID() }

// Free returns the pin to analog mode and hands back its identity.
func (o *Output) Free(tok *cs.Token) *Pin {
	p := o.pin.release(tok)
	o.pin = nil
	return p
}

// Input is a pin sampled as a digital input.
type Input struct {
	pin *Pin
}

// NewInput consumes pin and configures it as an input with the given pull.
func NewInput(pin *Pin, pull Pull, tok *cs.Token) *Input {
	cs.Check(tok)
	pin.consume(tok)
	pin.setPull(pull)
	pin.setMode(modeInput)
	return &Input{pin: pin}
}

// Level samples the pin.
func (i *Input) Level() Level { return i.pin.input() }

// Read implements periph's gpio.PinIn sampler.
func (i *Input) Read() Level { return i.pin.input() }

func (i *Input) String() string { return i.pin.String() }

// Free returns the pin to analog mode and hands back its identity.
func (i *Input) Free(tok *cs.Token) *Pin {
	p := i.pin.release(tok)
	i.pin = nil
	return p
}

// AltConfig configures a pin for a peripheral function.
type AltConfig struct {
	AF        uint8 // alternate function number 0..15
	OpenDrain bool
	Speed     Speed
	Pull      Pull
}

// Alternate is a pin owned by a peripheral driver.
type Alternate struct {
	pin *Pin
}

// NewAlternate consumes pin and routes it to alternate function c.AF.
// Peripheral drivers call it while they are constructed.
func NewAlternate(pin *Pin, c AltConfig, tok *cs.Token) *Alternate {
	cs.Check(tok)
	pin.consume(tok)
	pin.setOpenDrain(c.OpenDrain)
	pin.setSpeed(c.Speed)
	pin.setPull(c.Pull)
	pin.setAltFunc(c.AF & 0xF)
	pin.setMode(modeAlt)
	logx.Debug(logx.ComponentGPIO, "alternate", "pin", pin.String(), "af", int(c.AF))
	return &Alternate{pin: pin}
}

// Pin returns the identity the handle owns.
func (a *Alternate) Pin() PinID { return a.pin.ID() }

// Level samples the pin, useful to check whether a bus line is held low.
func (a *Alternate) Level() Level { return a.pin.input() }

// Free returns the pin to analog mode and hands back its identity.
func (a *Alternate) Free(tok *cs.Token) *Pin {
	p := a.pin.release(tok)
	a.pin = nil
	return p
}
