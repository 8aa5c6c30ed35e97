package rcc

import "periph.io/x/conn/v3/physic"

// Source is the system clock source.
type Source uint8

const (
	SourceMSI   Source = 0
	SourceHSI16 Source = 1
	SourceHSE32 Source = 2
	SourcePLL   Source = 3
)

func (s Source) String() string {
	switch s {
	case SourceMSI:
		return "MSI"
	case SourceHSI16:
		return "HSI16"
	case SourceHSE32:
		return "HSE32"
	default:
		return "PLL"
	}
}

// MSIRange selects the multi-speed internal oscillator frequency.
type MSIRange uint8

const (
	MSIRange100k MSIRange = iota
	MSIRange200k
	MSIRange400k
	MSIRange800k
	MSIRange1M
	MSIRange2M
	MSIRange4M // reset value
	MSIRange8M
	MSIRange16M
	MSIRange24M
	MSIRange32M
	MSIRange48M
)

var msiHz = [...]uint32{
	100_000, 200_000, 400_000, 800_000,
	1_000_000, 2_000_000, 4_000_000, 8_000_000,
	16_000_000, 24_000_000, 32_000_000, 48_000_000,
}

// Hz returns the nominal frequency of the range.
func (r MSIRange) Hz() uint32 {
	if int(r) >= len(msiHz) {
		return 0
	}
	return msiHz[r]
}

const hsi16Hz = 16_000_000

// HSE32 is the radio TCXO; only its frequency matters here.
const hse32Hz = 32_000_000

// Clocks is a snapshot of the clock tree.
type Clocks struct {
	Source Source
	Sysclk physic.Frequency
	Hclk   physic.Frequency
	Pclk1  physic.Frequency
	Pclk2  physic.Frequency
}

func hz(v uint32) physic.Frequency { return physic.Frequency(v) * physic.Hertz }

// ahbDiv decodes HPRE.
func ahbDiv(hpre uint32) uint32 {
	if hpre&0x8 == 0 {
		return 1
	}
	return [...]uint32{2, 4, 8, 16, 64, 128, 256, 512}[hpre&0x7]
}

// apbDiv decodes PPRE1/PPRE2.
func apbDiv(ppre uint32) uint32 {
	if ppre&0x4 == 0 {
		return 1
	}
	return 2 << (ppre & 0x3)
}

// flashLatency returns the wait states needed at sysclk for the voltage range.
func flashLatency(sysclk uint32, vos uint32) uint32 {
	if vos == 2 {
		switch {
		case sysclk <= 6_000_000:
			return 0
		case sysclk <= 12_000_000:
			return 1
		default:
			return 2
		}
	}
	switch {
	case sysclk <= 18_000_000:
		return 0
	case sysclk <= 36_000_000:
		return 1
	default:
		return 2
	}
}
