// Package cs provides the critical-section token.
//
// A *Token is proof that interrupts are masked. It only exists for the
// duration of the function passed to With, and every API that touches
// configuration registers shared with interrupt handlers demands one.
//
//	cs.With(func(tok *cs.Token) {
//		led = gpio.NewOutput(pb.B5, gpio.Low, tok)
//	})
//
// Sections nest. Only the outermost section changes the interrupt mask: the
// state saved on entry is restored on every exit path, panics included.
package cs

// Token is the proof-of-exclusion capability. The zero value is not a valid
// token; tokens are handed out by With and expire when it returns.
type Token struct {
	live  bool
	depth int
}

// Depth of the section that produced the token (1 = outermost).
func (t *Token) Depth() int { return t.depth }

// depth is only modified with interrupts masked.
var depth int

// With runs fn inside a critical section.
func With(fn func(*Token)) {
	st := disableInterrupts()
	depth++
	tok := &Token{live: true, depth: depth}
	defer func() {
		tok.live = false
		depth--
		restoreInterrupts(st)
		if depth == 0 {
			dispatchPending()
		}
	}()
	fn(tok)
}

// Do runs fn inside a critical section and returns its results.
func Do[T any](fn func(*Token) (T, error)) (v T, err error) {
	With(func(tok *Token) { v, err = fn(tok) })
	return v, err
}

// Check panics unless tok belongs to a section that is still open.
func Check(tok *Token) {
	if tok == nil || !tok.live {
		panic("cs: token used outside its critical section")
	}
}

// Masked reports whether interrupts are currently masked.
func Masked() bool { return interruptsMasked() }

// Depth reports the current nesting depth; 0 outside any section.
func Depth() int { return depth }
