package i2c

import (
	"stm32wl-hal/errcode"
	"stm32wl-hal/x/conv"
)

// Phase is the part of a transfer an error occurred in.
type Phase uint8

const (
	PhaseAddress Phase = iota
	PhaseData
)

func (p Phase) String() string {
	if p == PhaseData {
		return "data"
	}
	return "address"
}

// Error is a bus condition reported by a transfer. Code is one of
// errcode.Nack, ArbitrationLost, BusError, Overrun or Timeout, and
// errors.Is matches it. Bytes before Index may have reached the target;
// nothing is rolled back.
type Error struct {
	Op    string // "write", "read" or "write_read"
	Phase Phase
	Addr  uint8
	Index int // byte index within the failing direction, for PhaseData
	Code  errcode.Code
}

func (e *Error) Error() string {
	b := make([]byte, 0, 48)
	b = append(b, "i2c "...)
	b = append(b, e.Op...)
	b = append(b, ' ')
	b = conv.AppendHex(b, uint64(e.Addr), 2)
	b = append(b, ": "...)
	b = append(b, e.Code...)
	if e.Phase == PhaseData {
		b = append(b, " at byte "...)
		b = conv.AppendUint(b, uint64(e.Index))
	} else {
		b = append(b, " at address"...)
	}
	return string(b)
}

func (e *Error) Unwrap() error { return e.Code }
