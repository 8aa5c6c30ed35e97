package sim

import (
	"stm32wl-hal/mmio"
	"stm32wl-hal/pac"
)

// RCCModel makes oscillator ready flags follow their enable bits and the
// switch status follow the switch request.
type RCCModel struct {
	// HoldMSI, HoldHSI keep the ready flag low, modelling a dead oscillator.
	HoldMSI, HoldHSI bool
	// HoldSwitch keeps SWS at its old value.
	HoldSwitch bool
}

func newRCCModel(m *mmio.Sim) *RCCModel {
	r := &RCCModel{}
	m.Poke32(pac.RCC_BASE+pac.RCC_CR, pac.RCC_CR_MSION|pac.RCC_CR_MSIRDY|6<<pac.RCC_CR_MSIRANGE_Pos)
	m.Map(pac.RCC_BASE, pac.BLOCK_SIZE, r)
	return r
}

func (r *RCCModel) OnRead(addr uintptr, cur uint32) uint32 {
	if addr == pac.RCC_BASE+pac.RCC_CR {
		cur &^= pac.RCC_CR_MSIRDY | pac.RCC_CR_HSIRDY
		if cur&pac.RCC_CR_MSION != 0 && !r.HoldMSI {
			cur |= pac.RCC_CR_MSIRDY
		}
		if cur&pac.RCC_CR_HSION != 0 && !r.HoldHSI {
			cur |= pac.RCC_CR_HSIRDY
		}
	}
	return cur
}

func (r *RCCModel) OnWrite(addr uintptr, old, v uint32) uint32 {
	switch addr {
	case pac.RCC_BASE + pac.RCC_CR:
		// Ready flags are read-only; OnRead derives them.
		v &^= pac.RCC_CR_MSIRDY | pac.RCC_CR_HSIRDY
	case pac.RCC_BASE + pac.RCC_CFGR:
		sws := old & (pac.RCC_CFGR_SWS_Msk << pac.RCC_CFGR_SWS_Pos)
		if !r.HoldSwitch {
			sws = (v & pac.RCC_CFGR_SW_Msk) << pac.RCC_CFGR_SWS_Pos
		}
		v = v&^(pac.RCC_CFGR_SWS_Msk<<pac.RCC_CFGR_SWS_Pos) | sws
	}
	return v
}

// PWRModel raises VOSF for a few reads after a voltage range change.
type PWRModel struct {
	// SettleReads is how many SR2 reads report VOSF after a change.
	SettleReads int
	settling    int
}

func newPWRModel(m *mmio.Sim, range2 bool) *PWRModel {
	p := &PWRModel{SettleReads: 3}
	vos := uint32(pac.PWR_CR1_VOS_R1)
	if range2 {
		vos = pac.PWR_CR1_VOS_R2
	}
	m.Poke32(pac.PWR_BASE+pac.PWR_CR1, vos<<pac.PWR_CR1_VOS_Pos)
	m.Map(pac.PWR_BASE, pac.BLOCK_SIZE, p)
	return p
}

func (p *PWRModel) OnRead(addr uintptr, cur uint32) uint32 {
	if addr == pac.PWR_BASE+pac.PWR_SR2 {
		if p.settling > 0 {
			p.settling--
			return cur | pac.PWR_SR2_VOSF
		}
		return cur &^ pac.PWR_SR2_VOSF
	}
	return cur
}

func (p *PWRModel) OnWrite(addr uintptr, old, v uint32) uint32 {
	if addr == pac.PWR_BASE+pac.PWR_CR1 {
		mask := uint32(pac.PWR_CR1_VOS_Msk << pac.PWR_CR1_VOS_Pos)
		if old&mask != v&mask {
			p.settling = p.SettleReads
		}
	}
	return v
}
