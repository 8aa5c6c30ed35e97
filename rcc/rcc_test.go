package rcc

import (
	"errors"
	"strings"
	"testing"

	"periph.io/x/conn/v3/physic"

	"stm32wl-hal/cs"
	"stm32wl-hal/errcode"
	"stm32wl-hal/pac"
	"stm32wl-hal/sim"
)

func newRCC(t *testing.T, o sim.Options) (*RCC, *sim.Board) {
	t.Helper()
	b := sim.NewBoard(o)
	dp := b.Peripherals()
	return New(dp.RCC, dp.FLASH, dp.PWR), b
}

func TestResetClocks(t *testing.T) {
	r, _ := newRCC(t, sim.Options{})
	c := r.Clocks()
	if c.Source != SourceMSI || c.Sysclk != 4*physic.MegaHertz {
		t.Fatalf("reset clocks = %+v", c)
	}
	if c.Pclk1 != c.Sysclk || c.Hclk != c.Sysclk {
		t.Fatalf("reset prescalers not 1: %+v", c)
	}
}

func TestSetSysclkMSIMax(t *testing.T) {
	r, b := newRCC(t, sim.Options{StartInRange2: true})
	var err error
	cs.With(func(tok *cs.Token) { err = r.SetSysclkMSIMax(tok) })
	if err != nil {
		t.Fatalf("SetSysclkMSIMax: %v", err)
	}
	if got := r.SysclkHz(); got != 48_000_000 {
		t.Fatalf("sysclk=%d want 48 MHz", got)
	}
	if got := r.FlashLatency(); got != 2 {
		t.Fatalf("latency=%d want 2", got)
	}
	if r.vos() != pac.PWR_CR1_VOS_R1 {
		t.Fatalf("voltage range not raised")
	}
	if b.Mem.Peek32(pac.RCC_BASE+pac.RCC_CR)&pac.RCC_CR_MSIRGSEL == 0 {
		t.Fatalf("MSIRGSEL not set")
	}
}

func TestSlowDownLowersLatencyAfterSwitch(t *testing.T) {
	cases := []struct {
		name    string
		slow    func(*RCC, *cs.Token) error
		hz      uint32
		latency uint32
	}{
		{"hsi16", (*RCC).SetSysclkHSI16, 16_000_000, 2},
		{"msi 4M", func(r *RCC, tok *cs.Token) error { return r.SetSysclkMSI(MSIRange4M, tok) }, 4_000_000, 0},
		{"msi 8M", func(r *RCC, tok *cs.Token) error { return r.SetSysclkMSI(MSIRange8M, tok) }, 8_000_000, 1},
	}
	for _, c := range cases {
		r, _ := newRCC(t, sim.Options{})
		var err error
		cs.With(func(tok *cs.Token) {
			if err = r.SetSysclkMSIMax(tok); err == nil {
				err = c.slow(r, tok)
			}
		})
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if r.SysclkHz() != c.hz {
			t.Fatalf("%s: hz=%d", c.name, r.SysclkHz())
		}
		if got := r.FlashLatency(); got != c.latency {
			t.Fatalf("%s: latency=%d want %d", c.name, got, c.latency)
		}
		if r.vos() != pac.PWR_CR1_VOS_R2 {
			t.Fatalf("%s: voltage range not lowered, vos=%d", c.name, r.vos())
		}
	}
}

func TestRangeOneKeptAboveSixteenMHz(t *testing.T) {
	r, _ := newRCC(t, sim.Options{})
	var err error
	cs.With(func(tok *cs.Token) {
		if err = r.SetSysclkMSIMax(tok); err == nil {
			err = r.SetSysclkMSI(MSIRange24M, tok)
		}
	})
	if err != nil {
		t.Fatalf("24 MHz: %v", err)
	}
	if r.FlashLatency() != 1 || r.vos() != pac.PWR_CR1_VOS_R1 {
		t.Fatalf("latency=%d vos=%d", r.FlashLatency(), r.vos())
	}
}

func TestMSITimeout(t *testing.T) {
	r, b := newRCC(t, sim.Options{})
	r.PollBudget = 50
	b.RCC.HoldMSI = true
	var err error
	cs.With(func(tok *cs.Token) { err = r.SetSysclkMSI(MSIRange16M, tok) })
	if !errors.Is(err, errcode.Timeout) {
		t.Fatalf("err=%v want timeout", err)
	}
}

func TestSwitchTimeout(t *testing.T) {
	r, b := newRCC(t, sim.Options{})
	r.PollBudget = 50
	b.RCC.HoldSwitch = true
	var err error
	cs.With(func(tok *cs.Token) { err = r.SetSysclkHSI16(tok) })
	if !errors.Is(err, errcode.Timeout) || !strings.Contains(err.Error(), "clock switch") {
		t.Fatalf("err=%v", err)
	}
}

func TestInvalidMSIRange(t *testing.T) {
	r, _ := newRCC(t, sim.Options{})
	var err error
	cs.With(func(tok *cs.Token) { err = r.SetSysclkMSI(MSIRange48M+1, tok) })
	if !errors.Is(err, errcode.InvalidParams) {
		t.Fatalf("err=%v", err)
	}
}

// countingBus counts stores to one address.
type countingBus struct {
	*sim.Board
	addr   uintptr
	stores int
}

func (c *countingBus) Load32(a uintptr) uint32 { return c.Mem.Load32(a) }
func (c *countingBus) Load16(a uintptr) uint16 { return c.Mem.Load16(a) }
func (c *countingBus) Store32(a uintptr, v uint32) {
	if a == c.addr {
		c.stores++
	}
	c.Mem.Store32(a, v)
}

func TestEnableIdempotent(t *testing.T) {
	b := sim.NewBoard(sim.Options{})
	bus := &countingBus{Board: b, addr: pac.RCC_BASE + pac.RCC_AHB2ENR}
	dp := pac.Steal(bus)
	r := New(dp.RCC, dp.FLASH, dp.PWR)

	cs.With(func(tok *cs.Token) {
		r.Enable(GPIOB, tok)
		before := b.Mem.Peek32(pac.RCC_BASE + pac.RCC_AHB2ENR)
		r.Enable(GPIOB, tok)
		if after := b.Mem.Peek32(pac.RCC_BASE + pac.RCC_AHB2ENR); after != before {
			t.Fatalf("second enable changed AHB2ENR %#x -> %#x", before, after)
		}
	})
	if bus.stores != 1 {
		t.Fatalf("AHB2ENR stores=%d want 1", bus.stores)
	}
	if !r.IsEnabled(GPIOB) || r.IsEnabled(GPIOA) {
		t.Fatalf("wrong gates enabled")
	}
}

func TestDisableWhileHeldPanics(t *testing.T) {
	r, _ := newRCC(t, sim.Options{})
	cs.With(func(tok *cs.Token) { r.Acquire(I2C1, tok) })
	if r.Holders(I2C1) != 1 {
		t.Fatalf("holders=%d", r.Holders(I2C1))
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic")
			}
		}()
		cs.With(func(tok *cs.Token) { r.Disable(I2C1, tok) })
	}()
	if cs.Masked() {
		t.Fatalf("mask leaked after panic")
	}

	r.Release(I2C1)
	cs.With(func(tok *cs.Token) { r.Disable(I2C1, tok) })
	if r.IsEnabled(I2C1) {
		t.Fatalf("clock still on")
	}
}

func TestResetPulse(t *testing.T) {
	r, b := newRCC(t, sim.Options{})
	cs.With(func(tok *cs.Token) { r.Reset(I2C2, tok) })
	if b.Mem.Peek32(pac.RCC_BASE+pac.RCC_APB1RSTR1) != 0 {
		t.Fatalf("reset line left asserted")
	}
}

func TestI2CKernelClock(t *testing.T) {
	r, _ := newRCC(t, sim.Options{})
	if got := r.I2CKernelHz(I2C1); got != 4_000_000 {
		t.Fatalf("PCLK kernel=%d", got)
	}
	var err error
	cs.With(func(tok *cs.Token) { err = r.SetI2CClockSource(I2C3, I2CClockHSI16, tok) })
	if err != nil {
		t.Fatalf("SetI2CClockSource: %v", err)
	}
	if got := r.I2CKernelHz(I2C3); got != 16_000_000 {
		t.Fatalf("HSI16 kernel=%d", got)
	}
	if got := r.I2CKernelHz(I2C1); got != 4_000_000 {
		t.Fatalf("I2C1 changed: %d", got)
	}
	cs.With(func(tok *cs.Token) { err = r.SetI2CClockSource(GPIOA, I2CClockPCLK, tok) })
	if !errors.Is(err, errcode.InvalidParams) {
		t.Fatalf("non-I2C periph err=%v", err)
	}
}

func TestFlashLatencyTable(t *testing.T) {
	cases := []struct {
		hz, vos, want uint32
	}{
		{4_000_000, 1, 0},
		{18_000_000, 1, 0},
		{24_000_000, 1, 1},
		{48_000_000, 1, 2},
		{8_000_000, 2, 1},
		{16_000_000, 2, 2},
	}
	for _, c := range cases {
		if got := flashLatency(c.hz, c.vos); got != c.want {
			t.Fatalf("flashLatency(%d,%d)=%d want %d", c.hz, c.vos, got, c.want)
		}
	}
}

func TestTokenRequired(t *testing.T) {
	r, _ := newRCC(t, sim.Options{})
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on nil token")
		}
	}()
	r.Enable(GPIOA, nil)
}
