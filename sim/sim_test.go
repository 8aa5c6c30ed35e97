package sim

import (
	"testing"

	"stm32wl-hal/mmio"
	"stm32wl-hal/pac"
)

func TestBoardResetState(t *testing.T) {
	b := NewBoard(Options{})
	if got := b.Mem.Load16(pac.FLASHSIZE_ADDR); got != 256 {
		t.Fatalf("flash size=%d", got)
	}
	if got := b.Mem.Load32(pac.UID64_ADDR + 4); got != 0x0080_E115 {
		t.Fatalf("uid low=%#x", got)
	}
	cr := mmio.At(b.Bus(), pac.RCC_BASE+pac.RCC_CR)
	if !cr.HasBits(pac.RCC_CR_MSION | pac.RCC_CR_MSIRDY) {
		t.Fatalf("MSI not running at reset: %#x", cr.Get())
	}
}

func TestRCCReadyFollowsEnable(t *testing.T) {
	b := NewBoard(Options{})
	cr := mmio.At(b.Bus(), pac.RCC_BASE+pac.RCC_CR)
	if cr.HasBits(pac.RCC_CR_HSIRDY) {
		t.Fatalf("HSI ready before enable")
	}
	cr.SetBits(pac.RCC_CR_HSION)
	if !cr.HasBits(pac.RCC_CR_HSIRDY) {
		t.Fatalf("HSI not ready after enable")
	}
	b.RCC.HoldHSI = true
	if cr.HasBits(pac.RCC_CR_HSIRDY) {
		t.Fatalf("HoldHSI ignored")
	}

	cfgr := mmio.At(b.Bus(), pac.RCC_BASE+pac.RCC_CFGR)
	cfgr.ReplaceBits(1, pac.RCC_CFGR_SW_Msk, pac.RCC_CFGR_SW_Pos)
	if got := cfgr.Field(pac.RCC_CFGR_SWS_Msk, pac.RCC_CFGR_SWS_Pos); got != 1 {
		t.Fatalf("SWS=%d", got)
	}
}

func TestPWRSettles(t *testing.T) {
	b := NewBoard(Options{StartInRange2: true})
	cr1 := mmio.At(b.Bus(), pac.PWR_BASE+pac.PWR_CR1)
	sr2 := mmio.At(b.Bus(), pac.PWR_BASE+pac.PWR_SR2)
	cr1.ReplaceBits(pac.PWR_CR1_VOS_R1, pac.PWR_CR1_VOS_Msk, pac.PWR_CR1_VOS_Pos)
	for i := 0; i < b.PWR.SettleReads; i++ {
		if !sr2.HasBits(pac.PWR_SR2_VOSF) {
			t.Fatalf("VOSF dropped after %d reads", i)
		}
	}
	if sr2.HasBits(pac.PWR_SR2_VOSF) {
		t.Fatalf("VOSF never settled")
	}
}

func TestGPIOSetReset(t *testing.T) {
	b := NewBoard(Options{})
	g := b.Port(pac.GPIOB_BASE)
	bsrr := mmio.At(b.Bus(), pac.GPIOB_BASE+pac.GPIO_BSRR)
	moder := mmio.At(b.Bus(), pac.GPIOB_BASE+pac.GPIO_MODER)
	idr := mmio.At(b.Bus(), pac.GPIOB_BASE+pac.GPIO_IDR)

	bsrr.Set(1<<5 | 1<<(16+5))
	if !g.Output(5) {
		t.Fatalf("set did not win over reset")
	}
	if bsrr.Get() != 0 {
		t.Fatalf("BSRR reads non-zero")
	}
	g.Drive(5, false)
	if idr.Get()&(1<<5) != 0 {
		t.Fatalf("analog pin should read the external level")
	}
	moder.ReplaceBits(1, 0x3, 10)
	if idr.Get()&(1<<5) == 0 {
		t.Fatalf("output pin should read ODR")
	}
	mmio.At(b.Bus(), pac.GPIOB_BASE+pac.GPIO_BRR).Set(1 << 5)
	if g.Output(5) {
		t.Fatalf("BRR did not clear")
	}
}

// master drives an I2C model through its registers the way a polled driver
// would, with a fixed poll budget.
type master struct {
	t   *testing.T
	bus mmio.Bus
}

func (m master) reg(off uintptr) mmio.Reg { return mmio.At(m.bus, pac.I2C1_BASE+off) }

func (m master) waitISR(mask uint32) uint32 {
	m.t.Helper()
	for i := 0; i < 1000; i++ {
		isr := m.reg(pac.I2C_ISR).Get()
		if isr&(mask|pac.I2C_ISR_NACKF|pac.I2C_ISR_ARLO|pac.I2C_ISR_BERR) != 0 {
			return isr
		}
	}
	m.t.Fatalf("ISR wait for %#x timed out", mask)
	return 0
}

func (m master) start(addr uint8, read bool, n int) {
	v := uint32(addr)<<1 | uint32(n)<<pac.I2C_CR2_NBYTES_Pos | pac.I2C_CR2_START
	if read {
		v |= pac.I2C_CR2_RD_WRN
	}
	m.reg(pac.I2C_CR2).Set(v)
}

func TestI2CWriteReadFrames(t *testing.T) {
	b := NewBoard(Options{})
	b.I2C1.Attach(LIS2DH12Address, NewLIS2DH12())
	m := master{t: t, bus: b.Bus()}
	m.reg(pac.I2C_CR1).Set(pac.I2C_CR1_PE)

	m.start(LIS2DH12Address, false, 1)
	m.waitISR(pac.I2C_ISR_TXIS)
	m.reg(pac.I2C_TXDR).Set(LIS2DH12WhoAmI)
	m.waitISR(pac.I2C_ISR_TC)
	m.start(LIS2DH12Address, true, 1)
	m.waitISR(pac.I2C_ISR_RXNE)
	if got := m.reg(pac.I2C_RXDR).Get(); got != LIS2DH12ID {
		t.Fatalf("WHO_AM_I=%#x", got)
	}
	m.waitISR(pac.I2C_ISR_TC)
	m.reg(pac.I2C_CR2).SetBits(pac.I2C_CR2_STOP)
	m.waitISR(pac.I2C_ISR_STOPF)

	if len(b.I2C1.Frames) != 2 || !b.I2C1.Frames[1].Repeated || !b.I2C1.Frames[1].Stopped {
		t.Fatalf("frames=%+v", b.I2C1.Frames)
	}
	if b.I2C1.Busy() {
		t.Fatalf("bus still busy")
	}
}

func TestI2CAddressNack(t *testing.T) {
	b := NewBoard(Options{})
	m := master{t: t, bus: b.Bus()}
	m.reg(pac.I2C_CR1).Set(pac.I2C_CR1_PE)
	m.start(0x42, false, 1)
	isr := m.waitISR(pac.I2C_ISR_TXIS)
	if isr&pac.I2C_ISR_NACKF == 0 || isr&pac.I2C_ISR_STOPF == 0 {
		t.Fatalf("isr=%#x want NACKF|STOPF", isr)
	}
	m.reg(pac.I2C_ICR).Set(pac.I2C_ICR_NACKCF | pac.I2C_ICR_STOPCF)
	if m.reg(pac.I2C_ISR).Get()&(pac.I2C_ISR_NACKF|pac.I2C_ISR_STOPF) != 0 {
		t.Fatalf("ICR did not clear flags")
	}
}

func TestI2CStretchDelaysFlags(t *testing.T) {
	b := NewBoard(Options{})
	b.I2C1.Attach(0x10, &Echo{})
	b.I2C1.Stretch = 5
	m := master{t: t, bus: b.Bus()}
	m.reg(pac.I2C_CR1).Set(pac.I2C_CR1_PE)
	m.start(0x10, false, 1)
	for i := 0; i < 4; i++ {
		if m.reg(pac.I2C_ISR).Get()&pac.I2C_ISR_TXIS != 0 {
			t.Fatalf("TXIS raised during stretch (poll %d)", i)
		}
	}
	if m.reg(pac.I2C_ISR).Get()&pac.I2C_ISR_TXIS == 0 {
		t.Fatalf("TXIS not raised after stretch")
	}
}

func TestI2CFaults(t *testing.T) {
	b := NewBoard(Options{})
	b.I2C1.Attach(0x10, &Echo{})
	b.I2C1.Fault = Fault{Kind: FaultArbitrationLost, AtByte: 1}
	m := master{t: t, bus: b.Bus()}
	m.reg(pac.I2C_CR1).Set(pac.I2C_CR1_PE)
	m.start(0x10, false, 2)
	m.waitISR(pac.I2C_ISR_TXIS)
	m.reg(pac.I2C_TXDR).Set(0xAA)
	if isr := m.reg(pac.I2C_ISR).Get(); isr&pac.I2C_ISR_ARLO == 0 {
		t.Fatalf("isr=%#x want ARLO", isr)
	}
	if b.I2C1.Fault.Kind != FaultNone {
		t.Fatalf("fault not consumed")
	}

	b.I2C1.Stuck = true
	m.start(0x10, false, 1)
	if !b.I2C1.Busy() {
		t.Fatalf("stuck bus not busy")
	}
	m.reg(pac.I2C_CR1).Set(0)
	if !b.I2C1.Busy() {
		t.Fatalf("PE reset cleared a stuck bus")
	}
	b.I2C1.Stuck = false
	m.reg(pac.I2C_CR1).Set(pac.I2C_CR1_PE)
	if m.reg(pac.I2C_ISR).Get()&pac.I2C_ISR_BUSY != 0 {
		t.Fatalf("bus not released")
	}
}

func TestSHTC3(t *testing.T) {
	s := NewSHTC3()
	write := func(cmd uint16) bool {
		s.Start(false)
		return s.Write(byte(cmd>>8)) && s.Write(byte(cmd))
	}
	if !write(shtc3Sleep) || !s.Asleep {
		t.Fatalf("sleep not accepted")
	}
	if write(shtc3ReadID) {
		t.Fatalf("asleep sensor acknowledged a command")
	}
	if !write(shtc3Wakeup) || s.Asleep {
		t.Fatalf("wake-up failed")
	}
	if !write(shtc3HFirstS) {
		t.Fatalf("measure rejected")
	}
	if got := s.StretchPolls(true); got != s.MeasurePolls {
		t.Fatalf("stretch=%d", got)
	}
	var out [6]byte
	for i := range out {
		out[i] = s.Read()
	}
	if out[0] != 0x80 || out[1] != 0x00 || out[2] != CRC8(out[:2]) {
		t.Fatalf("humidity word %x", out[:3])
	}
	if out[3] != 0x66 || out[5] != CRC8(out[3:5]) {
		t.Fatalf("temperature word %x", out[3:])
	}
}

func TestCRC8(t *testing.T) {
	// Datasheet example: 0xBEEF -> 0x92.
	if got := CRC8([]byte{0xBE, 0xEF}); got != 0x92 {
		t.Fatalf("CRC8=%#x", got)
	}
}
