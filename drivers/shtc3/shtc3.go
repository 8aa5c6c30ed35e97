// Package shtc3 drives the Sensirion SHTC3 humidity and temperature sensor
// with checked transfers. It exposes a two-phase measurement API:
//
//	d.Trigger()              // start a measurement (fast)
//	err := d.Collect(&s)     // fetch when ready; returns ErrNotReady while busy
//
// d.Read() performs trigger plus bounded polling until ready.
//
// Measurements use the non-stretching commands: the sensor NACKs its read
// address until the conversion is done, which Collect reports as
// ErrNotReady. Every word is CRC checked.
//
// The driver avoids floating point; fixed-point helpers return tenths of
// units (deci-°C and deci-%RH).
package shtc3

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"

	"stm32wl-hal/errcode"
)

// I2C address.
const Address = 0x70

// Commands, big-endian 16-bit words.
const (
	cmdWakeup  = 0x3517
	cmdSleep   = 0xB098
	cmdReset   = 0x805D
	cmdReadID  = 0xEFC8
	cmdMeasure = 0x7866 // T first, normal power, no stretching
	cmdMeasLP  = 0x609C // T first, low power, no stretching

	idMask = 0x083F
	idBits = 0x0807
)

// Errors returned by the driver.
var (
	ErrTimeout  = errors.New("shtc3: timeout")
	ErrNotReady = errors.New("shtc3: not ready")
	ErrProtocol = errors.New("shtc3: crc mismatch")
	ErrNotFound = errors.New("shtc3: unexpected id")
)

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// Address defaults to 0x70 if zero.
	Address uint16
	// LowPower selects the low-power measurement (about 1 ms instead of
	// 12 ms, with more noise).
	LowPower bool
	// PollInterval is used by Read() between Collect() attempts. Default 2 ms.
	PollInterval time.Duration
	// CollectTimeout bounds the total wait in Read(). Default 50 ms.
	CollectTimeout time.Duration
}

// Device wraps an I2C connection to an SHTC3.
type Device struct {
	bus     drivers.I2C
	Address uint16

	cfg  Config
	buf  [6]byte
	last Sample
}

// New creates a Device. The I2C bus must already be configured. It does
// not touch the sensor.
func New(bus drivers.I2C) Device {
	return Device{bus: bus, Address: Address}
}

// Configure applies optional config and wakes the sensor.
func (d *Device) Configure(cfgs ...Config) error {
	var c Config
	if len(cfgs) > 0 {
		c = cfgs[0]
	}
	if c.Address != 0 {
		d.Address = c.Address
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Millisecond
	}
	if c.CollectTimeout <= 0 {
		c.CollectTimeout = 50 * time.Millisecond
	}
	d.cfg = c
	return d.WakeUp()
}

func (d *Device) command(c uint16) error {
	return d.bus.Tx(d.Address, []byte{byte(c >> 8), byte(c)}, nil)
}

// WakeUp leaves sleep mode. The sensor needs 240 us before the next command.
func (d *Device) WakeUp() error {
	if err := d.command(cmdWakeup); err != nil {
		return err
	}
	time.Sleep(240 * time.Microsecond)
	return nil
}

// Sleep enters sleep mode; only WakeUp is acknowledged afterwards.
func (d *Device) Sleep() error { return d.command(cmdSleep) }

// Reset issues a soft reset.
func (d *Device) Reset() error { return d.command(cmdReset) }

// ID reads the identification register and checks the product bits.
func (d *Device) ID() (uint16, error) {
	b := d.buf[:3]
	if err := d.bus.Tx(d.Address, []byte{cmdReadID >> 8, cmdReadID & 0xFF}, b); err != nil {
		return 0, err
	}
	id, ok := word(b)
	if !ok {
		return 0, ErrProtocol
	}
	if id&idMask != idBits {
		return id, ErrNotFound
	}
	return id, nil
}

// Trigger starts a measurement without blocking.
func (d *Device) Trigger() error {
	if d.cfg.PollInterval == 0 {
		if err := d.Configure(); err != nil {
			return err
		}
	}
	if d.cfg.LowPower {
		return d.command(cmdMeasLP)
	}
	return d.command(cmdMeasure)
}

// Collect reads a finished measurement into the device cache and out. A
// NACKed read address means the conversion is still running.
func (d *Device) Collect(out *Sample) error {
	b := d.buf[:]
	if err := d.bus.Tx(d.Address, nil, b); err != nil {
		if errors.Is(err, errcode.Nack) {
			return ErrNotReady
		}
		return err
	}
	t, ok1 := word(b[0:3])
	h, ok2 := word(b[3:6])
	if !ok1 || !ok2 {
		return ErrProtocol
	}
	d.last = Sample{RawTemp: t, RawHumidity: h}
	if out != nil {
		*out = d.last
	}
	return nil
}

// Read performs Trigger followed by bounded polling until Collect succeeds
// or the timeout elapses.
func (d *Device) Read() (Sample, error) {
	if err := d.Trigger(); err != nil {
		return Sample{}, err
	}
	deadline := time.Now().Add(d.cfg.CollectTimeout)
	for {
		var s Sample
		err := d.Collect(&s)
		switch err {
		case nil:
			return s, nil
		case ErrNotReady:
			if time.Now().After(deadline) {
				return Sample{}, ErrTimeout
			}
			time.Sleep(d.cfg.PollInterval)
		default:
			return Sample{}, err
		}
	}
}

// Last returns the most recent sample.
func (d *Device) Last() Sample { return d.last }

// Sample holds raw readings.
type Sample struct {
	RawTemp     uint16
	RawHumidity uint16
}

// DeciCelsius returns tenths of °C.
func (s Sample) DeciCelsius() int32 { return int32(uint32(s.RawTemp)*1750>>16) - 450 }

// MilliCelsius returns thousandths of °C.
func (s Sample) MilliCelsius() int32 { return int32(uint32(s.RawTemp)*21875>>13) - 45000 }

// DeciRelHumidity returns tenths of %RH.
func (s Sample) DeciRelHumidity() int32 { return int32(uint32(s.RawHumidity) * 1000 >> 16) }

// word decodes a big-endian word followed by its CRC.
func word(b []byte) (uint16, bool) {
	return uint16(b[0])<<8 | uint16(b[1]), crc8(b[:2]) == b[2]
}

// crc8 is polynomial 0x31, init 0xFF.
func crc8(data []byte) byte {
	crc := byte(0xFF)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x31
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
