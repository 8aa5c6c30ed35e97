package sim

// RegisterTarget is a register-indexed device: the first byte written after
// an address-for-write sets the register pointer, further bytes are stored
// at the pointer, and reads return bytes from the pointer. The pointer
// auto-increments.
type RegisterTarget struct {
	Regs [256]byte
	// ReadOnly registers ignore writes but still ACK them.
	ReadOnly map[byte]bool
	// NackAfter NACKs the data byte with this 1-based index (0 = never).
	NackAfter int
	// IncBit is stripped from the register pointer byte; devices such as
	// the LIS2DH12 use the MSB to request auto-increment.
	IncBit byte

	ptr     byte
	havePtr bool
	written int
}

func (r *RegisterTarget) Start(read bool) bool {
	if !read {
		r.havePtr = false
		r.written = 0
	}
	return true
}

func (r *RegisterTarget) Write(b byte) bool {
	r.written++
	if r.NackAfter > 0 && r.written == r.NackAfter {
		return false
	}
	if !r.havePtr {
		r.ptr = b &^ r.IncBit
		r.havePtr = true
		return true
	}
	if !r.ReadOnly[r.ptr] {
		r.Regs[r.ptr] = b
	}
	r.ptr++
	return true
}

func (r *RegisterTarget) Read() byte {
	b := r.Regs[r.ptr]
	r.ptr++
	return b
}

func (r *RegisterTarget) Stop() {}

// LIS2DH12 register subset.
const (
	LIS2DH12Address = 0x19 // SA0 high
	LIS2DH12WhoAmI  = 0x0F
	LIS2DH12ID      = 0x33
)

// NewLIS2DH12 returns an accelerometer that answers WHO_AM_I with 0x33.
func NewLIS2DH12() *RegisterTarget {
	t := &RegisterTarget{ReadOnly: map[byte]bool{LIS2DH12WhoAmI: true}, IncBit: 0x80}
	t.Regs[LIS2DH12WhoAmI] = LIS2DH12ID
	t.Regs[0x20] = 0x07 // CTRL_REG1 reset value
	return t
}

// SHTC3 commands.
const (
	SHTC3Address = 0x70

	shtc3Wakeup  = 0x3517
	shtc3Sleep   = 0xB098
	shtc3Reset   = 0x805D
	shtc3ReadID  = 0xEFC8
	shtc3TFirstS = 0x7CA2 // clock stretching
	shtc3HFirstS = 0x5C24 // clock stretching
	shtc3TFirst  = 0x7866
	shtc3HFirst  = 0x58E0
	shtc3TFirstL = 0x609C // low power
	shtc3HFirstL = 0x401A // low power
)

// SHTC3 simulates the Sensirion humidity/temperature sensor: 16-bit command
// words, CRC-8 protected responses, and a sleep state in which only the
// wake-up command is acknowledged.
type SHTC3 struct {
	// RawT, RawRH are the raw measurement words returned.
	RawT, RawRH uint16
	// ID is the identification register.
	ID uint16
	// MeasurePolls is how long a clock-stretching measurement holds SCL.
	MeasurePolls int
	// BusyReads is how many read addresses a non-stretching measurement
	// NACKs while it converts.
	BusyReads int
	// BadCRC corrupts the first CRC byte of every response.
	BadCRC bool

	Asleep bool

	cmd     []byte
	out     []byte
	stretch bool
	busy    int
}

// NewSHTC3 returns an awake sensor reading 25 °C and 50 %RH.
func NewSHTC3() *SHTC3 {
	return &SHTC3{RawT: 0x6666, RawRH: 0x8000, ID: 0x0807, MeasurePolls: 40}
}

func (s *SHTC3) Start(read bool) bool {
	if read && s.busy > 0 {
		s.busy--
		return false
	}
	if !read {
		s.cmd = s.cmd[:0]
	}
	return true
}

func (s *SHTC3) Write(b byte) bool {
	s.cmd = append(s.cmd, b)
	if len(s.cmd) < 2 {
		return true
	}
	if len(s.cmd) > 2 {
		return false
	}
	c := uint16(s.cmd[0])<<8 | uint16(s.cmd[1])
	if s.Asleep && c != shtc3Wakeup {
		return false
	}
	s.out = s.out[:0]
	s.stretch = false
	switch c {
	case shtc3Wakeup:
		s.Asleep = false
	case shtc3Sleep:
		s.Asleep = true
	case shtc3Reset:
	case shtc3ReadID:
		s.out = appendWord(s.out, s.ID)
	case shtc3TFirstS, shtc3TFirst, shtc3TFirstL:
		s.out = appendWord(appendWord(s.out, s.RawT), s.RawRH)
		s.stretch = c == shtc3TFirstS
	case shtc3HFirstS, shtc3HFirst, shtc3HFirstL:
		s.out = appendWord(appendWord(s.out, s.RawRH), s.RawT)
		s.stretch = c == shtc3HFirstS
	default:
		return false
	}
	switch c {
	case shtc3TFirst, shtc3HFirst, shtc3TFirstL, shtc3HFirstL:
		s.busy = s.BusyReads
	}
	if s.BadCRC && len(s.out) > 2 {
		s.out[2] ^= 0xFF
	}
	return true
}

func (s *SHTC3) Read() byte {
	if len(s.out) == 0 {
		return 0xFF
	}
	b := s.out[0]
	s.out = s.out[1:]
	return b
}

func (s *SHTC3) Stop() {}

// StretchPolls holds SCL for the first byte after a stretching measurement.
func (s *SHTC3) StretchPolls(read bool) int {
	if read && s.stretch {
		s.stretch = false
		return s.MeasurePolls
	}
	return 0
}

func appendWord(dst []byte, w uint16) []byte {
	hi, lo := byte(w>>8), byte(w)
	return append(dst, hi, lo, CRC8([]byte{hi, lo}))
}

// CRC8 is the Sensirion CRC: polynomial 0x31, init 0xFF.
func CRC8(data []byte) byte {
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

// Echo ACKs everything and replays written bytes on read.
type Echo struct {
	buf []byte
}

func (e *Echo) Start(bool) bool { return true }

func (e *Echo) Write(b byte) bool {
	e.buf = append(e.buf, b)
	return true
}

func (e *Echo) Read() byte {
	if len(e.buf) == 0 {
		return 0
	}
	b := e.buf[0]
	e.buf = e.buf[1:]
	return b
}

func (e *Echo) Stop() {}

// Received returns the bytes written and not yet read back.
func (e *Echo) Received() []byte { return e.buf }
