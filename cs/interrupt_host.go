//go:build !tinygo

package cs

import "sync/atomic"

// state is the simulated PRIMASK saved on entry.
type state bool

var (
	primask atomic.Bool
	pending []func(*Token)
)

func disableInterrupts() state { return state(primask.Swap(true)) }

func restoreInterrupts(s state) { primask.Store(bool(s)) }

func interruptsMasked() bool { return primask.Load() }

func dispatchPending() {
	for len(pending) > 0 && !primask.Load() {
		isr := pending[0]
		pending = pending[1:]
		With(isr)
	}
}

// SetMasked forces the simulated interrupt mask, standing in for startup
// code that runs with interrupts disabled.
func SetMasked(masked bool) {
	primask.Store(masked)
	if !masked && depth == 0 {
		dispatchPending()
	}
}

// Pend simulates an interrupt request. The handler runs at once, inside its
// own section, when interrupts are enabled; otherwise it waits until the
// mask is lifted by the outermost section.
func Pend(isr func(*Token)) {
	if primask.Load() {
		pending = append(pending, isr)
		return
	}
	With(isr)
}

// Pending reports how many simulated interrupts are waiting.
func Pending() int { return len(pending) }
