package pac

import (
	"testing"

	"stm32wl-hal/mmio"
)

func TestTakeOnce(t *testing.T) {
	prev := mmio.Default()
	defer mmio.SetDefault(prev)
	defer resetTaken()

	mmio.SetDefault(mmio.NewSim())
	resetTaken()

	p := Take()
	if p == nil || p.I2C1 == nil || p.GPIOB == nil {
		t.Fatalf("Take returned incomplete set: %+v", p)
	}
	if _, ok := TryTake(); ok {
		t.Fatalf("second TryTake succeeded")
	}
	defer func() {
		if r := recover(); r != "peripherals already taken" {
			t.Fatalf("second Take panic=%v", r)
		}
	}()
	Take()
}

func TestTakeWithoutBusPanics(t *testing.T) {
	prev := mmio.Default()
	defer mmio.SetDefault(prev)
	mmio.SetDefault(nil)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic without a bus")
		}
	}()
	TryTake()
}

func TestConsume(t *testing.T) {
	p := Steal(mmio.NewSim())
	if p.I2C1.Base() != I2C1_BASE || p.GPIOH.Base() != GPIOH_BASE {
		t.Fatalf("bad base addresses")
	}

	p.I2C1.Consume()
	if !p.I2C1.InUse() {
		t.Fatalf("InUse=false after Consume")
	}
	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("double consume accepted")
			}
		}()
		p.I2C1.Consume()
	}()
	p.I2C1.Release()
	p.I2C1.Consume()

	forged := &I2C2{}
	defer func() {
		if r := recover(); r != "pac: invalid peripheral token" {
			t.Fatalf("forged token panic=%v", r)
		}
	}()
	forged.Consume()
}

func TestRegAddressing(t *testing.T) {
	s := mmio.NewSim()
	p := Steal(s)
	p.GPIOB.Reg(GPIO_BSRR).Set(1 << 5)
	if got := s.Peek32(GPIOB_BASE + GPIO_BSRR); got != 1<<5 {
		t.Fatalf("write landed elsewhere: %#x", got)
	}
}
