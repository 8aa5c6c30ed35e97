//go:build tinygo

package cs

import "runtime/interrupt"

type state = interrupt.State

func disableInterrupts() state { return interrupt.Disable() }

func restoreInterrupts(s state) { interrupt.Restore(s) }

func interruptsMasked() bool { return depth > 0 }

// Real interrupts are pended by the NVIC.
func dispatchPending() {}
