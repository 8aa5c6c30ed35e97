//go:build !tinygo

package cs

import (
	"errors"
	"testing"
)

func TestWithMasksAndRestores(t *testing.T) {
	for _, before := range []bool{false, true} {
		SetMasked(before)
		With(func(tok *Token) {
			Check(tok)
			if !Masked() {
				t.Fatalf("interrupts not masked inside section")
			}
			if tok.Depth() != 1 || Depth() != 1 {
				t.Fatalf("depth=%d/%d want 1", tok.Depth(), Depth())
			}
		})
		if Masked() != before {
			t.Fatalf("mask after exit=%v want %v", Masked(), before)
		}
	}
	SetMasked(false)
}

func TestNestedOnlyOutermostRestores(t *testing.T) {
	SetMasked(false)
	for depthWanted := 1; depthWanted <= 4; depthWanted++ {
		var nest func(n int)
		nest = func(n int) {
			With(func(tok *Token) {
				if n > 1 {
					nest(n - 1)
				}
				// Inner exits must not unmask while the outer section is open.
				if !Masked() {
					t.Fatalf("unmasked inside section at depth %d", tok.Depth())
				}
			})
		}
		nest(depthWanted)
		if Masked() || Depth() != 0 {
			t.Fatalf("after depth %d: masked=%v depth=%d", depthWanted, Masked(), Depth())
		}
	}
}

func TestRestoreOnPanic(t *testing.T) {
	SetMasked(false)
	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic to propagate")
			}
		}()
		With(func(*Token) {
			With(func(*Token) { panic("boom") })
		})
	}()
	if Masked() || Depth() != 0 {
		t.Fatalf("state leaked after panic: masked=%v depth=%d", Masked(), Depth())
	}
}

func TestDoReturnsValues(t *testing.T) {
	SetMasked(false)
	want := errors.New("early")
	v, err := Do(func(tok *Token) (int, error) {
		Check(tok)
		return 7, want
	})
	if v != 7 || err != want {
		t.Fatalf("Do=(%d,%v)", v, err)
	}
	if Masked() {
		t.Fatalf("early error return left interrupts masked")
	}
}

func TestTokenExpires(t *testing.T) {
	var kept *Token
	With(func(tok *Token) { kept = tok })

	for name, tok := range map[string]*Token{"nil": nil, "zero": {}, "expired": kept} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("%s token accepted", name)
				}
			}()
			Check(tok)
		}()
	}
}

func TestPendDefersUntilOutermostExit(t *testing.T) {
	SetMasked(false)
	var order []string

	With(func(*Token) {
		Pend(func(tok *Token) {
			Check(tok)
			order = append(order, "isr")
		})
		With(func(*Token) { order = append(order, "inner") })
		if Pending() != 1 {
			t.Fatalf("isr ran while masked")
		}
		order = append(order, "outer")
	})

	if len(order) != 3 || order[0] != "inner" || order[1] != "outer" || order[2] != "isr" {
		t.Fatalf("order=%v", order)
	}

	ran := false
	Pend(func(*Token) { ran = true })
	if !ran {
		t.Fatalf("unmasked Pend did not run immediately")
	}
}

func TestPendDispatchedAfterPanic(t *testing.T) {
	SetMasked(false)
	ran := false

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("panic swallowed")
			}
		}()
		With(func(*Token) {
			Pend(func(*Token) { ran = true })
			panic("boom")
		})
	}()

	if !ran {
		t.Fatalf("isr pended before the panic did not run")
	}
	if n := Pending(); n != 0 {
		t.Fatalf("pending=%d after recovery", n)
	}
	if Masked() || Depth() != 0 {
		t.Fatalf("masked=%v depth=%d after recovery", Masked(), Depth())
	}
}

func TestPendWhileStartupMasked(t *testing.T) {
	SetMasked(true)
	ran := false
	Pend(func(*Token) { ran = true })
	With(func(*Token) {})
	if ran {
		t.Fatalf("isr ran while startup mask was still set")
	}
	SetMasked(false)
	if !ran || Pending() != 0 {
		t.Fatalf("isr not dispatched when mask lifted")
	}
}
