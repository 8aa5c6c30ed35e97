package i2c

import (
	"stm32wl-hal/errcode"
	"stm32wl-hal/pac"
	"stm32wl-hal/x/logx"
)

const maxChunk = 255

const errFlags = pac.I2C_ISR_NACKF | pac.I2C_ISR_ARLO | pac.I2C_ISR_BERR | pac.I2C_ISR_OVR

// Write sends w to the target at addr, framed START addr+W w... STOP.
func (d *I2C) Write(addr uint8, w []byte) error {
	if len(w) == 0 {
		return errcode.Wrap(errcode.InvalidParams, "i2c write", "empty buffer")
	}
	return d.transfer("write", addr, w, nil)
}

// Read fills r from the target at addr. The controller ACKs every byte but
// the last, which it NACKs before STOP.
func (d *I2C) Read(addr uint8, r []byte) error {
	if len(r) == 0 {
		return errcode.Wrap(errcode.InvalidParams, "i2c read", "empty buffer")
	}
	return d.transfer("read", addr, nil, r)
}

// WriteRead sends w, then reads r after a repeated START, as register
// indexed devices expect.
func (d *I2C) WriteRead(addr uint8, w, r []byte) error {
	if len(w) == 0 || len(r) == 0 {
		return errcode.Wrap(errcode.InvalidParams, "i2c write_read", "empty buffer")
	}
	return d.transfer("write_read", addr, w, r)
}

// Tx dispatches to Write, Read or WriteRead by which buffers are non-empty.
// It satisfies tinygo.org/x/drivers.I2C and periph's i2c.Bus.
func (d *I2C) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7F {
		return errcode.Wrap(errcode.InvalidParams, "i2c", "10-bit address")
	}
	switch {
	case len(w) > 0 && len(r) > 0:
		return d.WriteRead(uint8(addr), w, r)
	case len(w) > 0:
		return d.Write(uint8(addr), w)
	case len(r) > 0:
		return d.Read(uint8(addr), r)
	}
	return errcode.Wrap(errcode.InvalidParams, "i2c", "empty transaction")
}

// xfer tracks one transaction for error attribution.
type xfer struct {
	op    string
	addr  uint8
	phase Phase
	index int
}

func (x *xfer) fail(c errcode.Code) *Error {
	return &Error{Op: x.op, Phase: x.phase, Addr: x.addr, Index: x.index, Code: c}
}

func (d *I2C) transfer(op string, addr uint8, w, r []byte) error {
	if addr > 0x7F {
		return errcode.Wrap(errcode.InvalidParams, "i2c "+op, "address above 0x7F")
	}
	if d.busy {
		panic("i2c: " + d.inst.name + " re-entered during a transfer")
	}
	d.busy = true
	defer func() { d.busy = false }()

	x := &xfer{op: op, addr: addr}
	if err := d.waitIdle(x); err != nil {
		return d.finish(err)
	}
	if len(w) > 0 {
		if err := d.send(x, w); err != nil {
			return d.finish(err)
		}
	}
	if len(r) > 0 {
		if err := d.receive(x, r); err != nil {
			return d.finish(err)
		}
	}
	return d.finish(d.stop(x))
}

// start issues START (or a repeated START) for a segment of n bytes.
func (d *I2C) start(x *xfer, read bool, n int) {
	x.phase, x.index = PhaseAddress, 0
	cr2 := uint32(x.addr) << 1
	if read {
		cr2 |= pac.I2C_CR2_RD_WRN
	}
	d.reg(pac.I2C_CR2).Set(cr2 | chunk(n) | pac.I2C_CR2_START)
}

// chunk encodes NBYTES and RELOAD for n remaining bytes.
func chunk(n int) uint32 {
	if n > maxChunk {
		return maxChunk<<pac.I2C_CR2_NBYTES_Pos | pac.I2C_CR2_RELOAD
	}
	return uint32(n) << pac.I2C_CR2_NBYTES_Pos
}

// reload programs the next chunk after TCR without a new START.
func (d *I2C) reload(x *xfer, read bool, n int) {
	cr2 := uint32(x.addr) << 1
	if read {
		cr2 |= pac.I2C_CR2_RD_WRN
	}
	d.reg(pac.I2C_CR2).Set(cr2 | chunk(n))
}

// send runs the write segment and leaves the controller at TC.
func (d *I2C) send(x *xfer, w []byte) error {
	d.start(x, false, len(w))
	for i, b := range w {
		if i > 0 && i%maxChunk == 0 {
			if err := d.wait(x, pac.I2C_ISR_TCR); err != nil {
				return err
			}
			d.reload(x, false, len(w)-i)
		}
		if err := d.wait(x, pac.I2C_ISR_TXIS); err != nil {
			return err
		}
		x.phase, x.index = PhaseData, i
		d.reg(pac.I2C_TXDR).Set(uint32(b))
	}
	return d.wait(x, pac.I2C_ISR_TC)
}

// receive runs the read segment and leaves the controller at TC.
func (d *I2C) receive(x *xfer, r []byte) error {
	d.start(x, true, len(r))
	for i := range r {
		if i > 0 && i%maxChunk == 0 {
			if err := d.wait(x, pac.I2C_ISR_TCR); err != nil {
				return err
			}
			d.reload(x, true, len(r)-i)
		}
		x.index = i
		if err := d.wait(x, pac.I2C_ISR_RXNE); err != nil {
			return err
		}
		x.phase = PhaseData
		r[i] = byte(d.reg(pac.I2C_RXDR).Get())
	}
	x.index = len(r) - 1
	return d.wait(x, pac.I2C_ISR_TC)
}

func (d *I2C) stop(x *xfer) error {
	d.reg(pac.I2C_CR2).SetBits(pac.I2C_CR2_STOP)
	if err := d.wait(x, pac.I2C_ISR_STOPF); err != nil {
		return err
	}
	d.reg(pac.I2C_ICR).Set(pac.I2C_ICR_STOPCF)
	return nil
}

// waitIdle waits for another master or a stretched STOP to release the bus.
func (d *I2C) waitIdle(x *xfer) error {
	if d.reg(pac.I2C_ISR).Wait(pac.I2C_ISR_BUSY, 0, d.budget) {
		return nil
	}
	return x.fail(errcode.Timeout)
}

// wait polls ISR until flag is set or an error flag shows up. Clock
// stretching only delays the flag.
func (d *I2C) wait(x *xfer, flag uint32) error {
	isr := d.reg(pac.I2C_ISR)
	for i := uint32(0); i < d.budget; i++ {
		v := isr.Get()
		if v&errFlags != 0 {
			return d.fault(x, v)
		}
		if v&flag != 0 {
			return nil
		}
	}
	return x.fail(errcode.Timeout)
}

// fault clears the error condition and reports it.
func (d *I2C) fault(x *xfer, isr uint32) error {
	switch {
	case isr&pac.I2C_ISR_NACKF != 0:
		// The controller sends STOP on its own after a NACK.
		d.reg(pac.I2C_ISR).Wait(pac.I2C_ISR_STOPF, pac.I2C_ISR_STOPF, d.budget)
		d.reg(pac.I2C_ICR).Set(pac.I2C_ICR_NACKCF | pac.I2C_ICR_STOPCF)
		return x.fail(errcode.Nack)
	case isr&pac.I2C_ISR_ARLO != 0:
		d.reg(pac.I2C_ICR).Set(pac.I2C_ICR_ARLOCF)
		return x.fail(errcode.ArbitrationLost)
	case isr&pac.I2C_ISR_BERR != 0:
		d.reg(pac.I2C_ICR).Set(pac.I2C_ICR_BERRCF)
		return x.fail(errcode.BusError)
	default:
		d.reg(pac.I2C_ICR).Set(pac.I2C_ICR_OVRCF)
		return x.fail(errcode.Overrun)
	}
}

// finish returns the controller to idle after err, if any.
func (d *I2C) finish(err error) error {
	if err == nil {
		return nil
	}
	// Drop anything left in TXDR.
	d.reg(pac.I2C_ISR).Set(pac.I2C_ISR_TXE)
	c := errcode.Of(err)
	if c == errcode.Timeout {
		d.resetController()
	}
	if c == errcode.Nack {
		logx.Debug(logx.ComponentI2C, "nack", "bus", d.inst.name, "err", err)
	} else {
		logx.Warn(logx.ComponentI2C, "transfer failed", "bus", d.inst.name, "err", err)
	}
	return err
}

// resetController pulses PE, which resets the controller state machine and
// releases SCL/SDA from the controller side. PE must stay low for three
// APB cycles; the read-backs cover that.
func (d *I2C) resetController() {
	cr1 := d.reg(pac.I2C_CR1)
	cr1.ClearBits(pac.I2C_CR1_PE)
	for i := 0; i < 3; i++ {
		_ = cr1.Get()
	}
	cr1.SetBits(pac.I2C_CR1_PE)
}
