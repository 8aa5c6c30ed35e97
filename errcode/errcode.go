package errcode

import "errors"

// Code is a stable error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK            Code = "ok"
	Unsupported   Code = "unsupported"
	InvalidParams Code = "invalid_params"
	Unrecognized  Code = "unrecognized"

	// Ownership
	InUse       Code = "in_use"
	InvalidPins Code = "invalid_pins"

	// Clock tree
	UnsupportedFrequency Code = "unsupported_frequency"
	Timeout              Code = "timeout"

	// I²C bus conditions
	Nack            Code = "nack"
	ArbitrationLost Code = "arbitration_lost"
	BusError        Code = "bus_error"
	Overrun         Code = "overrun"

	Error Code = "error" // generic fallback
)

// E wraps a Code with the failing operation and optional context.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}

// Unwrap exposes the cause when present, otherwise the code itself, so that
// errors.Is(err, errcode.Timeout) holds for wrapped codes.
func (e *E) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.C
}

func (e *E) Code() Code { return e.C }

// Wrap builds an *E for op with code c.
func Wrap(c Code, op, msg string) error {
	return &E{C: c, Op: op, Msg: msg}
}

// Of extracts a Code from an error chain, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	type coder interface{ Code() Code }
	for e := err; e != nil; e = errors.Unwrap(e) {
		switch x := e.(type) {
		case Code:
			return x
		case coder:
			return x.Code()
		}
	}
	return Error
}

// Retryable reports whether a caller may sensibly repeat the operation that
// produced err. No code in this module retries on its own.
func Retryable(err error) bool {
	switch Of(err) {
	case Nack, ArbitrationLost, Timeout:
		return true
	}
	return false
}
