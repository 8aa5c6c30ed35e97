package mmio

import "testing"

type w1c struct{}

func (w1c) OnRead(_ uintptr, cur uint32) uint32 { return cur }

// Writing ones clears bits.
func (w1c) OnWrite(_ uintptr, old, v uint32) uint32 { return old &^ v }

func TestRegBitOps(t *testing.T) {
	s := NewSim()
	r := At(s, 0x4000_0000)

	r.Set(0x0000_00F0)
	r.SetBits(0x1)
	r.ClearBits(0x10)
	if got := r.Get(); got != 0xE1 {
		t.Fatalf("Get=%#x", got)
	}
	if !r.HasBits(0x81) || r.HasBits(0x11) {
		t.Fatalf("HasBits wrong")
	}
	r.ReplaceBits(0xB, 0xF, 4)
	if got := r.Get(); got != 0xB1 {
		t.Fatalf("ReplaceBits=%#x", got)
	}
	if got := r.Field(0xF, 4); got != 0xB {
		t.Fatalf("Field=%#x", got)
	}
}

func TestSimHooksAndHalfwords(t *testing.T) {
	s := NewSim()
	s.Map(0x100, 0x10, w1c{})

	s.Poke32(0x104, 0xFF)
	s.Store32(0x104, 0x0F)
	if got := s.Peek32(0x104); got != 0xF0 {
		t.Fatalf("hooked write stored %#x", got)
	}
	s.Store32(0x200, 0x0F)
	if got := s.Load32(0x200); got != 0x0F {
		t.Fatalf("plain memory %#x", got)
	}

	s.Poke16(0x302, 0xBEEF)
	s.Poke16(0x300, 0x0100)
	if got := s.Load16(0x300); got != 0x0100 {
		t.Fatalf("low half=%#x", got)
	}
	if got := s.Load16(0x302); got != 0xBEEF {
		t.Fatalf("high half=%#x", got)
	}
}

func TestDefault(t *testing.T) {
	prev := Default()
	defer SetDefault(prev)

	s := NewSim()
	SetDefault(s)
	if Default() != Bus(s) {
		t.Fatalf("SetDefault not observed")
	}
}

type countdown struct{ n int }

func (c *countdown) OnRead(_ uintptr, cur uint32) uint32 {
	if c.n > 0 {
		c.n--
		return 0
	}
	return cur
}

func (c *countdown) OnWrite(_ uintptr, _, v uint32) uint32 { return v }

func TestWait(t *testing.T) {
	s := NewSim()
	s.Map(0x10, 4, &countdown{n: 5})
	s.Poke32(0x10, 0x2)
	r := At(s, 0x10)
	if r.Wait(0x2, 0x2, 3) {
		t.Fatalf("condition met before the countdown elapsed")
	}
	if !r.Wait(0x2, 0x2, 10) {
		t.Fatalf("condition never met")
	}
}
