package claim

import (
	"errors"
	"testing"

	"stm32wl-hal/errcode"
)

func TestClaimRelease(t *testing.T) {
	s := New("B5")
	if err := s.TryClaim(); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if !s.Claimed() {
		t.Fatalf("Claimed()=false after claim")
	}
	if err := s.TryClaim(); !errors.Is(err, errcode.InUse) {
		t.Fatalf("second claim err=%v want in_use", err)
	}
	s.Release()
	if s.Claimed() {
		t.Fatalf("Claimed()=true after release")
	}
	s.Claim()
}

func TestClaimPanicsTwice(t *testing.T) {
	s := New("I2C1")
	s.Claim()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic on double claim")
		}
		if msg, _ := r.(string); msg != "I2C1 already in use" {
			t.Fatalf("panic=%v", r)
		}
	}()
	s.Claim()
}

func TestNilSlot(t *testing.T) {
	var s *Slot
	if err := s.TryClaim(); !errors.Is(err, errcode.InvalidParams) {
		t.Fatalf("nil slot err=%v", err)
	}
	if s.Claimed() {
		t.Fatalf("nil slot reported claimed")
	}
	s.Release()
}
