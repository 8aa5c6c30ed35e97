// Package board describes the wiring of the boards the HAL is used on and
// turns split GPIO ports into ready handles for them.
//
// A Layout is plain data; the helpers consume pins and must be called
// inside a critical section.
package board

import (
	"periph.io/x/conn/v3/physic"

	"stm32wl-hal/cs"
	"stm32wl-hal/gpio"
	"stm32wl-hal/i2c"
	"stm32wl-hal/pac"
	"stm32wl-hal/rcc"
	"stm32wl-hal/x/logx"
)

type LED struct {
	Name      string
	Pin       gpio.PinID
	ActiveLow bool
}

type Button struct {
	Name string
	Pin  gpio.PinID
	Pull gpio.Pull
}

// I2CPlan fixes the pins and rate of one I2C bus.
type I2CPlan struct {
	ID        string // e.g. "i2c1"
	SCL       gpio.PinID
	SDA       gpio.PinID
	Frequency physic.Frequency
	// Devices lists the 7-bit addresses populated on the bus.
	Devices map[string]uint8
}

// Layout is the pin map of one board.
type Layout struct {
	Name    string
	LEDs    []LED
	Buttons []Button
	I2C     []I2CPlan
	// SensorPower gates the sensor supply; Port 0 means none.
	SensorPower gpio.PinID
}

func pin(port byte, n uint8) gpio.PinID { return gpio.PinID{Port: port, N: n} }

// NucleoWL55JC is ST's NUCLEO-WL55JC development board.
var NucleoWL55JC = Layout{
	Name: "nucleo-wl55jc",
	LEDs: []LED{
		{Name: "blue", Pin: pin('B', 15)},
		{Name: "green", Pin: pin('B', 9)},
		{Name: "red", Pin: pin('B', 11)},
	},
	Buttons: []Button{
		{Name: "b1", Pin: pin('A', 0), Pull: gpio.PullUp},
		{Name: "b2", Pin: pin('A', 1), Pull: gpio.PullUp},
		{Name: "b3", Pin: pin('C', 6), Pull: gpio.PullUp},
	},
}

// GenericNode is The Things Industries Generic Node SE.
var GenericNode = Layout{
	Name: "generic-node",
	LEDs: []LED{
		{Name: "red", Pin: pin('B', 5)},
		{Name: "green", Pin: pin('B', 6)},
		{Name: "blue", Pin: pin('B', 7)},
	},
	I2C: []I2CPlan{{
		ID:        "i2c1",
		SCL:       pin('A', 9),
		SDA:       pin('A', 10),
		Frequency: 100 * physic.KiloHertz,
		Devices:   map[string]uint8{"lis2dh12": 0x19, "shtc3": 0x70},
	}},
	SensorPower: pin('B', 12),
}

// Layouts lists the known boards by name.
var Layouts = map[string]Layout{
	NucleoWL55JC.Name: NucleoWL55JC,
	GenericNode.Name:  GenericNode,
}

// Lookup returns the layout called name.
func Lookup(name string) (Layout, bool) {
	l, ok := Layouts[name]
	return l, ok
}

// LED returns the LED called name.
func (l Layout) LED(name string) (LED, bool) {
	for _, x := range l.LEDs {
		if x.Name == name {
			return x, true
		}
	}
	return LED{}, false
}

// Bus returns the I2C plan with the given ID.
func (l Layout) Bus(id string) (I2CPlan, bool) {
	for _, b := range l.I2C {
		if b.ID == id {
			return b, true
		}
	}
	return I2CPlan{}, false
}

// RGB is a three colour LED driven by three outputs.
type RGB struct {
	Red, Green, Blue *gpio.Output
}

// NewRGB builds the Generic Node RGB LED on B5, B6 and B7, all off.
func NewRGB(pb *gpio.PortB, tok *cs.Token) *RGB {
	return &RGB{
		Red:   gpio.NewOutput(pb.B5, gpio.Low, tok),
		Green: gpio.NewOutput(pb.B6, gpio.Low, tok),
		Blue:  gpio.NewOutput(pb.B7, gpio.Low, tok),
	}
}

// Set drives the three channels.
func (c *RGB) Set(r, g, b gpio.Level) {
	c.Red.Set(r)
	c.Green.Set(g)
	c.Blue.Set(b)
}

func (c *RGB) Off() { c.Set(gpio.Low, gpio.Low, gpio.Low) }

// Free returns B5, B6 and B7.
func (c *RGB) Free(tok *cs.Token) (r, g, b *gpio.Pin) {
	return c.Red.Free(tok), c.Green.Free(tok), c.Blue.Free(tok)
}

// NucleoLEDs are the three user LEDs of the NUCLEO-WL55JC.
type NucleoLEDs struct {
	Blue, Green, Red *gpio.Output
}

// NewNucleoLEDs builds the LEDs on B15, B9 and B11, all off.
func NewNucleoLEDs(pb *gpio.PortB, tok *cs.Token) *NucleoLEDs {
	return &NucleoLEDs{
		Blue:  gpio.NewOutput(pb.B15, gpio.Low, tok),
		Green: gpio.NewOutput(pb.B9, gpio.Low, tok),
		Red:   gpio.NewOutput(pb.B11, gpio.Low, tok),
	}
}

// NucleoButtons are the three user buttons; pressed reads Low.
type NucleoButtons struct {
	B1, B2, B3 *gpio.Input
}

func NewNucleoButtons(pa *gpio.PortA, pc *gpio.PortC, tok *cs.Token) *NucleoButtons {
	return &NucleoButtons{
		B1: gpio.NewInput(pa.A0, gpio.PullUp, tok),
		B2: gpio.NewInput(pa.A1, gpio.PullUp, tok),
		B3: gpio.NewInput(pc.C6, gpio.PullUp, tok),
	}
}

// Pressed reports whether b reads its active level.
func Pressed(b *gpio.Input) bool { return b.Level() == gpio.Low }

// Sensors is the Generic Node sensor rail: the supply switch on B12 and
// the sensor bus on I2C1 (SCL A9, SDA A10).
type Sensors struct {
	Power *gpio.Output
	Bus   *i2c.I2C
}

// OpenSensors powers the sensors and opens their bus. The caller must let
// the sensors start up (5 ms covers both) before the first transfer.
func OpenSensors(t *pac.I2C1, pa *gpio.PortA, pb *gpio.PortB, r *rcc.RCC, tok *cs.Token) (*Sensors, error) {
	plan := GenericNode.I2C[0]
	bus, err := i2c.NewI2C1(t, pa.A9, pa.A10, i2c.Config{Frequency: plan.Frequency}, r, tok)
	if err != nil {
		return nil, err
	}
	pwr := gpio.NewOutput(pb.B12, gpio.High, tok)
	logx.Info(logx.ComponentBoard, "sensor rail on", "board", GenericNode.Name, "bus", bus.String())
	return &Sensors{Power: pwr, Bus: bus}, nil
}

// Close powers the sensors down and releases the bus and pins.
func (s *Sensors) Close(tok *cs.Token) {
	s.Bus.Free(tok)
	s.Power.Low()
	s.Power.Free(tok)
}
