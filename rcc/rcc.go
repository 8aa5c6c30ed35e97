// Package rcc configures the reset and clock controller.
//
// The RCC handle owns the RCC, FLASH and PWR register blocks because a
// system clock change touches all three in a fixed order: voltage range,
// flash wait states, oscillator, source switch. Every mutating call takes a
// critical-section token since low-power wake-up handlers also write
// RCC_CR.
package rcc

import (
	"stm32wl-hal/cs"
	"stm32wl-hal/errcode"
	"stm32wl-hal/mmio"
	"stm32wl-hal/pac"
	"stm32wl-hal/x/logx"
)

// DefaultPollBudget bounds every wait on an oscillator or regulator flag.
const DefaultPollBudget = 100_000

// RCC is the clock tree handle. Peripheral drivers keep a pointer to it for
// the lifetime of their handle.
type RCC struct {
	regs  *pac.RCC
	flash *pac.FLASH
	pwr   *pac.PWR

	// live driver handles per peripheral
	holders [numPeriph]int

	// PollBudget bounds ready-flag waits; zero means DefaultPollBudget.
	PollBudget uint32
}

// New consumes the RCC, FLASH and PWR tokens.
func New(r *pac.RCC, flash *pac.FLASH, pwr *pac.PWR) *RCC {
	r.Consume()
	flash.Consume()
	pwr.Consume()
	return &RCC{regs: r, flash: flash, pwr: pwr}
}

func (r *RCC) reg(off uintptr) mmio.Reg { return r.regs.Reg(off) }

func (r *RCC) budget() uint32 {
	if r.PollBudget == 0 {
		return DefaultPollBudget
	}
	return r.PollBudget
}

func (r *RCC) wait(reg mmio.Reg, mask, want uint32, what string) error {
	if !reg.Wait(mask, want, r.budget()) {
		logx.Error(logx.ComponentRCC, "flag wait timed out", "flag", what)
		return errcode.Wrap(errcode.Timeout, "rcc", what)
	}
	return nil
}

// ---- clock tree state ----

// Source returns the system clock source reported by SWS.
func (r *RCC) Source() Source {
	return Source(r.reg(pac.RCC_CFGR).Field(pac.RCC_CFGR_SWS_Msk, pac.RCC_CFGR_SWS_Pos))
}

func (r *RCC) msiRange() MSIRange {
	cr := r.reg(pac.RCC_CR)
	if !cr.HasBits(pac.RCC_CR_MSIRGSEL) {
		// Range comes from the standby register; it resets to 4 MHz.
		return MSIRange4M
	}
	return MSIRange(cr.Field(pac.RCC_CR_MSIRANGE_Msk, pac.RCC_CR_MSIRANGE_Pos))
}

// SysclkHz returns the current system clock frequency.
func (r *RCC) SysclkHz() uint32 {
	switch r.Source() {
	case SourceMSI:
		return r.msiRange().Hz()
	case SourceHSI16:
		return hsi16Hz
	case SourceHSE32:
		return hse32Hz
	}
	// PLL is never selected by this package.
	return 0
}

// Clocks returns a snapshot of the clock tree.
func (r *RCC) Clocks() Clocks {
	cfgr := r.reg(pac.RCC_CFGR)
	sys := r.SysclkHz()
	hclk := sys / ahbDiv(cfgr.Field(pac.RCC_CFGR_HPRE_Msk, pac.RCC_CFGR_HPRE_Pos))
	return Clocks{
		Source: r.Source(),
		Sysclk: hz(sys),
		Hclk:   hz(hclk),
		Pclk1:  hz(hclk / apbDiv(cfgr.Field(pac.RCC_CFGR_PPRE1_Msk, pac.RCC_CFGR_PPRE1_Pos))),
		Pclk2:  hz(hclk / apbDiv(cfgr.Field(pac.RCC_CFGR_PPRE2_Msk, pac.RCC_CFGR_PPRE2_Pos))),
	}
}

func (r *RCC) pclk1Hz() uint32 {
	cfgr := r.reg(pac.RCC_CFGR)
	hclk := r.SysclkHz() / ahbDiv(cfgr.Field(pac.RCC_CFGR_HPRE_Msk, pac.RCC_CFGR_HPRE_Pos))
	return hclk / apbDiv(cfgr.Field(pac.RCC_CFGR_PPRE1_Msk, pac.RCC_CFGR_PPRE1_Pos))
}

// FlashLatency returns the programmed flash wait states.
func (r *RCC) FlashLatency() uint32 {
	return r.flash.Reg(pac.FLASH_ACR).Field(pac.FLASH_ACR_LATENCY_Msk, 0)
}

func (r *RCC) vos() uint32 {
	return r.pwr.Reg(pac.PWR_CR1).Field(pac.PWR_CR1_VOS_Msk, pac.PWR_CR1_VOS_Pos)
}

// ---- system clock ----

func (r *RCC) setLatency(ws uint32) error {
	acr := r.flash.Reg(pac.FLASH_ACR)
	acr.ReplaceBits(ws, pac.FLASH_ACR_LATENCY_Msk, 0)
	// The new value only takes effect once it reads back.
	return r.wait(acr, pac.FLASH_ACR_LATENCY_Msk, ws, "flash latency")
}

func (r *RCC) setRange(vos uint32) error {
	if r.vos() == vos {
		return nil
	}
	r.pwr.Reg(pac.PWR_CR1).ReplaceBits(vos, pac.PWR_CR1_VOS_Msk, pac.PWR_CR1_VOS_Pos)
	return r.wait(r.pwr.Reg(pac.PWR_SR2), pac.PWR_SR2_VOSF, 0, "voltage scaling")
}

func (r *RCC) selectSource(src Source) error {
	cfgr := r.reg(pac.RCC_CFGR)
	cfgr.ReplaceBits(uint32(src), pac.RCC_CFGR_SW_Msk, pac.RCC_CFGR_SW_Pos)
	return r.wait(cfgr, pac.RCC_CFGR_SWS_Msk<<pac.RCC_CFGR_SWS_Pos, uint32(src)<<pac.RCC_CFGR_SWS_Pos, "clock switch")
}

// switchTo runs the legal sequence around enable, which starts the
// oscillator and leaves it ready. Wait states only grow before the switch
// and only shrink after it. Range 2 is entered last, once the latency for
// it is in place.
func (r *RCC) switchTo(src Source, target uint32, enable func() error) error {
	vos := uint32(pac.PWR_CR1_VOS_R2)
	if target > hsi16Hz {
		vos = pac.PWR_CR1_VOS_R1
		if err := r.setRange(vos); err != nil {
			return err
		}
	}
	ws := flashLatency(target, vos)
	if ws > r.FlashLatency() {
		if err := r.setLatency(ws); err != nil {
			return err
		}
	}
	if err := enable(); err != nil {
		return err
	}
	if err := r.selectSource(src); err != nil {
		return err
	}
	if ws < r.FlashLatency() {
		if err := r.setLatency(ws); err != nil {
			return err
		}
	}
	if err := r.setRange(vos); err != nil {
		return err
	}
	logx.Debug(logx.ComponentRCC, "sysclk switched", "source", src.String(), "hz", target, "latency", ws, "vos", vos)
	return nil
}

// SetSysclkMSI selects MSI at the given range as the system clock.
// Call it before constructing drivers whose timing depends on the clock.
func (r *RCC) SetSysclkMSI(rng MSIRange, tok *cs.Token) error {
	cs.Check(tok)
	if rng > MSIRange48M {
		return errcode.Wrap(errcode.InvalidParams, "rcc", "msi range")
	}
	return r.switchTo(SourceMSI, rng.Hz(), func() error {
		cr := r.reg(pac.RCC_CR)
		if !cr.HasBits(pac.RCC_CR_MSION) {
			cr.SetBits(pac.RCC_CR_MSION)
		}
		// MSIRANGE must not change while MSI is not ready.
		if err := r.wait(cr, pac.RCC_CR_MSIRDY, pac.RCC_CR_MSIRDY, "msi ready"); err != nil {
			return err
		}
		v := cr.Get()
		v &^= pac.RCC_CR_MSIRANGE_Msk << pac.RCC_CR_MSIRANGE_Pos
		v |= uint32(rng)<<pac.RCC_CR_MSIRANGE_Pos | pac.RCC_CR_MSIRGSEL
		cr.Set(v)
		return r.wait(cr, pac.RCC_CR_MSIRDY, pac.RCC_CR_MSIRDY, "msi ready")
	})
}

// SetSysclkMSIMax runs the core from MSI at 48 MHz.
func (r *RCC) SetSysclkMSIMax(tok *cs.Token) error {
	return r.SetSysclkMSI(MSIRange48M, tok)
}

// SetSysclkHSI16 selects the 16 MHz internal oscillator.
func (r *RCC) SetSysclkHSI16(tok *cs.Token) error {
	cs.Check(tok)
	return r.switchTo(SourceHSI16, hsi16Hz, func() error {
		cr := r.reg(pac.RCC_CR)
		cr.SetBits(pac.RCC_CR_HSION)
		return r.wait(cr, pac.RCC_CR_HSIRDY, pac.RCC_CR_HSIRDY, "hsi16 ready")
	})
}

// ---- peripheral clocks ----

// Enable turns on the peripheral clock. Enabling an enabled clock does not
// write the register.
func (r *RCC) Enable(p Periph, tok *cs.Token) {
	cs.Check(tok)
	g := gates[p]
	enr := r.reg(g.enr)
	if enr.HasBits(g.bit) {
		return
	}
	enr.SetBits(g.bit)
	// Read back so the enable has landed before the peripheral is touched.
	_ = enr.Get()
	logx.Debug(logx.ComponentRCC, "clock enabled", "periph", g.name)
}

// Disable turns off the peripheral clock. Disabling a clock while a driver
// still holds the peripheral is a programming error and panics.
func (r *RCC) Disable(p Periph, tok *cs.Token) {
	cs.Check(tok)
	if r.holders[p] > 0 {
		panic("rcc: " + p.String() + " clock disabled while in use")
	}
	g := gates[p]
	r.reg(g.enr).ClearBits(g.bit)
}

// IsEnabled reports whether the peripheral clock is on.
func (r *RCC) IsEnabled(p Periph) bool {
	g := gates[p]
	return r.reg(g.enr).HasBits(g.bit)
}

// Reset pulses the peripheral reset line.
func (r *RCC) Reset(p Periph, tok *cs.Token) {
	cs.Check(tok)
	g := gates[p]
	rst := r.reg(g.rstr)
	rst.SetBits(g.bit)
	rst.ClearBits(g.bit)
}

// Acquire enables the clock for a driver and records the driver as a
// holder until Release.
func (r *RCC) Acquire(p Periph, tok *cs.Token) {
	r.Enable(p, tok)
	r.holders[p]++
}

// Release drops a holder recorded by Acquire. The clock stays on.
func (r *RCC) Release(p Periph) {
	if r.holders[p] > 0 {
		r.holders[p]--
	}
}

// Holders reports how many live handles hold p.
func (r *RCC) Holders(p Periph) int { return r.holders[p] }

// ---- I2C kernel clock ----

// SetI2CClockSource selects the kernel clock of an I2C peripheral. Select
// it before constructing the driver; timing is derived once at construction.
func (r *RCC) SetI2CClockSource(p Periph, src I2CClockSource, tok *cs.Token) error {
	cs.Check(tok)
	pos, ok := i2cSelPos(p)
	if !ok || src > I2CClockHSI16 {
		return errcode.Wrap(errcode.InvalidParams, "rcc", "i2c clock source")
	}
	if src == I2CClockHSI16 {
		cr := r.reg(pac.RCC_CR)
		cr.SetBits(pac.RCC_CR_HSION)
		if err := r.wait(cr, pac.RCC_CR_HSIRDY, pac.RCC_CR_HSIRDY, "hsi16 ready"); err != nil {
			return err
		}
	}
	r.reg(pac.RCC_CCIPR).ReplaceBits(uint32(src), pac.RCC_CCIPR_I2CSEL_Msk, pos)
	return nil
}

// I2CKernelHz returns the kernel clock frequency of an I2C peripheral.
func (r *RCC) I2CKernelHz(p Periph) uint32 {
	pos, ok := i2cSelPos(p)
	if !ok {
		return 0
	}
	switch I2CClockSource(r.reg(pac.RCC_CCIPR).Field(pac.RCC_CCIPR_I2CSEL_Msk, pos)) {
	case I2CClockSYSCLK:
		return r.SysclkHz()
	case I2CClockHSI16:
		return hsi16Hz
	default:
		return r.pclk1Hz()
	}
}
