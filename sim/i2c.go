package sim

import (
	"stm32wl-hal/mmio"
	"stm32wl-hal/pac"
	"stm32wl-hal/x/logx"
)

// Target is a device on a simulated I2C bus.
type Target interface {
	// Start is the address phase; returning false NACKs the address.
	Start(read bool) bool
	// Write receives one byte; returning false NACKs it.
	Write(b byte) bool
	// Read supplies the next byte.
	Read() byte
	// Stop ends the transaction.
	Stop()
}

// Stretcher is implemented by targets that hold SCL low before a byte.
// StretchPolls returns how many status polls the next flag is delayed by.
type Stretcher interface {
	StretchPolls(read bool) int
}

// FaultKind selects an injected bus fault.
type FaultKind uint8

const (
	FaultNone FaultKind = iota
	FaultArbitrationLost
	FaultBusError
)

// Fault injects a bus condition when the controller reaches byte AtByte of
// the next transfer (0 = address phase, 1 = first data byte, ...). It fires
// once.
type Fault struct {
	Kind   FaultKind
	AtByte int
}

// Frame records one START..(repeated START|STOP) segment on the bus.
type Frame struct {
	Addr     uint8
	Read     bool
	Repeated bool // began with a repeated START
	Data     []byte
	Nacked   bool
	Stopped  bool
}

// I2CModel simulates an STM32 I2C controller in master mode with polled
// flags. AUTOEND is not modelled; the driver always issues STOP itself.
type I2CModel struct {
	name string
	base uintptr
	mem  *mmio.Sim

	targets map[uint8]Target

	// Stretch delays every data flag by this many ISR polls.
	Stretch int
	// Stuck keeps SCL low: START never completes and BUSY stays set
	// until Stuck is cleared.
	Stuck bool
	// Fault is consumed by the next transfer that reaches it.
	Fault Fault

	// Frames is the bus trace since the last ClearTrace.
	Frames []Frame

	isr     uint32
	rxdr    uint32
	cur     Target
	read    bool
	nbytes  int
	count   int
	index   int // byte index within the segment, 1-based after address
	reload  bool
	stretch int
	pending uint32
}

func newI2CModel(m *mmio.Sim, base uintptr, name string) *I2CModel {
	c := &I2CModel{name: name, base: base, mem: m, targets: make(map[uint8]Target), isr: pac.I2C_ISR_TXE}
	m.Map(base, pac.BLOCK_SIZE, c)
	return c
}

// Attach places t at 7-bit address addr.
func (c *I2CModel) Attach(addr uint8, t Target) { c.targets[addr&0x7F] = t }

// Detach removes the target at addr.
func (c *I2CModel) Detach(addr uint8) { delete(c.targets, addr&0x7F) }

// ClearTrace discards recorded frames.
func (c *I2CModel) ClearTrace() { c.Frames = nil }

// ISR returns the interrupt and status flags as the controller sees them.
func (c *I2CModel) ISR() uint32 { return c.isr }

// Busy reports the BUSY flag.
func (c *I2CModel) Busy() bool { return c.isr&pac.I2C_ISR_BUSY != 0 }

func (c *I2CModel) enabled() bool {
	return c.mem.Peek32(c.base+pac.I2C_CR1)&pac.I2C_CR1_PE != 0
}

func (c *I2CModel) frame() *Frame {
	if len(c.Frames) == 0 {
		return nil
	}
	return &c.Frames[len(c.Frames)-1]
}

// raise sets flags, after the stretch delay if one applies.
func (c *I2CModel) raise(flags uint32) {
	n := c.Stretch
	if s, ok := c.cur.(Stretcher); ok {
		n += s.StretchPolls(c.read)
	}
	if n <= 0 {
		c.isr |= flags
		return
	}
	c.stretch = n
	c.pending |= flags
}

func (c *I2CModel) reset() {
	c.isr = pac.I2C_ISR_TXE
	c.cur = nil
	c.count, c.nbytes, c.index = 0, 0, 0
	c.stretch, c.pending = 0, 0
}

// release ends the transaction from the controller side with the given
// flags; the bus goes idle.
func (c *I2CModel) release(flags uint32) {
	if c.cur != nil {
		c.cur.Stop()
	}
	c.cur = nil
	c.stretch, c.pending = 0, 0
	c.isr = c.isr&^(pac.I2C_ISR_BUSY|pac.I2C_ISR_TXIS|pac.I2C_ISR_RXNE|pac.I2C_ISR_TC|pac.I2C_ISR_TCR) | flags
}

func (c *I2CModel) nack() {
	if f := c.frame(); f != nil {
		f.Nacked = true
		f.Stopped = true
	}
	// Master mode sends STOP automatically after a NACK.
	c.release(pac.I2C_ISR_NACKF | pac.I2C_ISR_STOPF)
}

func (c *I2CModel) fault(at int) bool {
	if c.Fault.Kind == FaultNone || c.Fault.AtByte != at {
		return false
	}
	k := c.Fault.Kind
	c.Fault = Fault{}
	logx.Debug(logx.ComponentSim, "injected fault", "bus", c.name, "kind", int(k), "byte", at)
	switch k {
	case FaultArbitrationLost:
		c.release(pac.I2C_ISR_ARLO)
	default:
		c.release(pac.I2C_ISR_BERR)
	}
	return true
}

func (c *I2CModel) start(cr2 uint32) {
	addr := uint8((cr2 & pac.I2C_CR2_SADD_Msk) >> 1)
	read := cr2&pac.I2C_CR2_RD_WRN != 0
	repeated := c.cur != nil

	if c.Stuck {
		c.isr |= pac.I2C_ISR_BUSY
		return
	}

	c.Frames = append(c.Frames, Frame{Addr: addr, Read: read, Repeated: repeated})
	c.isr |= pac.I2C_ISR_BUSY
	c.isr &^= pac.I2C_ISR_TC | pac.I2C_ISR_TCR
	c.read = read
	c.nbytes = int((cr2 >> pac.I2C_CR2_NBYTES_Pos) & pac.I2C_CR2_NBYTES_Msk)
	c.reload = cr2&pac.I2C_CR2_RELOAD != 0
	c.count, c.index = 0, 0

	if c.fault(0) {
		return
	}
	t, ok := c.targets[addr]
	if repeated && c.cur != t && c.cur != nil {
		c.cur.Stop()
	}
	if !ok || !t.Start(read) {
		c.cur = nil
		c.nack()
		return
	}
	c.cur = t
	c.next()
}

// next raises the flag for the next byte of the current chunk.
func (c *I2CModel) next() {
	if c.count == c.nbytes {
		if c.reload {
			c.raise(pac.I2C_ISR_TCR)
		} else {
			c.raise(pac.I2C_ISR_TC)
		}
		return
	}
	if c.read {
		c.index++
		if c.fault(c.index) {
			return
		}
		c.rxdr = uint32(c.cur.Read())
		if f := c.frame(); f != nil {
			f.Data = append(f.Data, byte(c.rxdr))
		}
		c.raise(pac.I2C_ISR_RXNE)
		return
	}
	c.raise(pac.I2C_ISR_TXIS)
}

func (c *I2CModel) transmit(b byte) {
	c.isr &^= pac.I2C_ISR_TXIS | pac.I2C_ISR_TXE
	if c.cur == nil || c.read {
		return
	}
	c.index++
	if c.fault(c.index) {
		return
	}
	if f := c.frame(); f != nil {
		f.Data = append(f.Data, b)
	}
	if !c.cur.Write(b) {
		c.nack()
		return
	}
	c.isr |= pac.I2C_ISR_TXE
	c.count++
	c.next()
}

func (c *I2CModel) stop() {
	if c.cur == nil && c.isr&pac.I2C_ISR_BUSY == 0 {
		return
	}
	if c.Stuck {
		return
	}
	if f := c.frame(); f != nil {
		f.Stopped = true
	}
	c.release(pac.I2C_ISR_STOPF)
}

func (c *I2CModel) OnRead(addr uintptr, cur uint32) uint32 {
	switch addr - c.base {
	case pac.I2C_ISR:
		if c.cur == nil && !c.Stuck {
			c.isr &^= pac.I2C_ISR_BUSY
		}
		if c.stretch > 0 {
			c.stretch--
			if c.stretch == 0 {
				c.isr |= c.pending
				c.pending = 0
			}
		}
		return c.isr
	case pac.I2C_RXDR:
		v := c.rxdr
		if c.isr&pac.I2C_ISR_RXNE != 0 {
			c.isr &^= pac.I2C_ISR_RXNE
			c.count++
			c.next()
		}
		return v
	}
	return cur
}

func (c *I2CModel) OnWrite(addr uintptr, old, v uint32) uint32 {
	switch addr - c.base {
	case pac.I2C_CR1:
		if old&pac.I2C_CR1_PE != 0 && v&pac.I2C_CR1_PE == 0 {
			// Clearing PE resets the state machine; a stuck target keeps
			// the line low regardless.
			c.reset()
			if c.Stuck {
				c.isr |= pac.I2C_ISR_BUSY
			}
		}
		return v
	case pac.I2C_CR2:
		if !c.enabled() {
			return v &^ (pac.I2C_CR2_START | pac.I2C_CR2_STOP)
		}
		switch {
		case v&pac.I2C_CR2_START != 0:
			c.start(v)
		case v&pac.I2C_CR2_STOP != 0:
			c.stop()
		case c.isr&pac.I2C_ISR_TCR != 0:
			// NBYTES reload for the next chunk.
			c.isr &^= pac.I2C_ISR_TCR
			c.nbytes = int((v >> pac.I2C_CR2_NBYTES_Pos) & pac.I2C_CR2_NBYTES_Msk)
			c.reload = v&pac.I2C_CR2_RELOAD != 0
			c.count = 0
			c.next()
		}
		return v &^ (pac.I2C_CR2_START | pac.I2C_CR2_STOP)
	case pac.I2C_TXDR:
		if c.enabled() {
			c.transmit(byte(v))
		}
		return v & 0xFF
	case pac.I2C_ICR:
		var clr uint32
		for _, m := range [][2]uint32{
			{pac.I2C_ICR_NACKCF, pac.I2C_ISR_NACKF},
			{pac.I2C_ICR_STOPCF, pac.I2C_ISR_STOPF},
			{pac.I2C_ICR_BERRCF, pac.I2C_ISR_BERR},
			{pac.I2C_ICR_ARLOCF, pac.I2C_ISR_ARLO},
			{pac.I2C_ICR_OVRCF, pac.I2C_ISR_OVR},
		} {
			if v&m[0] != 0 {
				clr |= m[1]
			}
		}
		c.isr &^= clr
		return 0
	case pac.I2C_ISR:
		// Only TXE is writable: setting it flushes TXDR.
		if v&pac.I2C_ISR_TXE != 0 {
			c.isr |= pac.I2C_ISR_TXE
		}
		return 0
	}
	return v
}
