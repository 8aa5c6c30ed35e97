package i2c

import (
	"periph.io/x/conn/v3/physic"

	"stm32wl-hal/errcode"
	"stm32wl-hal/pac"
	"stm32wl-hal/x/mathx"
)

// Mode is the I2C speed grade. It fixes the SCL duty cycle and the data
// setup/hold times.
type Mode uint8

const (
	ModeAuto Mode = iota // chosen from the frequency
	ModeStandard
	ModeFast
	ModeFastPlus
)

func (m Mode) String() string {
	switch m {
	case ModeStandard:
		return "standard"
	case ModeFast:
		return "fast"
	case ModeFastPlus:
		return "fast-plus"
	}
	return "auto"
}

type modeSpec struct {
	maxHz   uint64
	lowNum  uint64 // SCL low share numerator over lowDen
	lowDen  uint64
	setupNs uint64 // tSU;DAT
	holdNs  uint64 // data hold inserted after SCL falls
}

var modes = [...]modeSpec{
	ModeStandard: {100_000, 3, 5, 250, 0},
	ModeFast:     {400_000, 2, 3, 100, 300},
	ModeFastPlus: {1_000_000, 2, 3, 50, 0},
}

// minCounts is the shortest SCL period, in prescaled kernel clocks, left
// once the synchronisation delays are taken out.
const minCounts = 8

// filterNs is the minimum analog filter delay tAF.
const filterNs = 50

// syncClocks is tSYNC1 + tSYNC2 in kernel clocks. Each edge is delayed by
// the analog filter plus two kernel clocks before the peripheral sees it.
func syncClocks(k uint64) uint64 {
	return 2 * (mathx.CeilDiv(filterNs*k, 1_000_000_000) + 2)
}

// DefaultTolerance is the accepted rate error in parts per thousand.
const DefaultTolerance = 10

// TimingConfig is a derived TIMINGR setting.
type TimingConfig struct {
	Mode   Mode
	Presc  uint8
	SCLDEL uint8
	SDADEL uint8
	SCLH   uint8
	SCLL   uint8
	// Actual is the SCL rate the setting produces.
	Actual physic.Frequency
}

// Register encodes the setting for TIMINGR.
func (t TimingConfig) Register() uint32 {
	return uint32(t.Presc)<<pac.I2C_TIMINGR_PRESC_Pos |
		uint32(t.SCLDEL)<<pac.I2C_TIMINGR_SCLDEL_Pos |
		uint32(t.SDADEL)<<pac.I2C_TIMINGR_SDADEL_Pos |
		uint32(t.SCLH)<<pac.I2C_TIMINGR_SCLH_Pos |
		uint32(t.SCLL)<<pac.I2C_TIMINGR_SCLL_Pos
}

func resolveMode(m Mode, hz uint64) (Mode, error) {
	if m == ModeAuto {
		switch {
		case hz <= modes[ModeStandard].maxHz:
			return ModeStandard, nil
		case hz <= modes[ModeFast].maxHz:
			return ModeFast, nil
		default:
			m = ModeFastPlus
		}
	}
	if m > ModeFastPlus {
		return 0, errcode.Wrap(errcode.InvalidParams, "i2c", "mode")
	}
	if hz > modes[m].maxHz {
		return 0, errcode.Wrap(errcode.UnsupportedFrequency, "i2c", "above "+m.String()+" mode limit")
	}
	return m, nil
}

// Timing derives TIMINGR for the requested bus rate from an I2C kernel
// clock of kernelHz. The SCL period is
//
//	tSYNC1 + tSYNC2 + ((SCLH+1) + (SCLL+1)) * (PRESC+1) * tI2CCLK
//
// and the smallest prescaler whose divider lands within the tolerance is
// chosen. It fails with errcode.UnsupportedFrequency when the
// kernel clock cannot produce the rate.
func Timing(kernelHz uint32, c Config) (TimingConfig, error) {
	hz := uint64(c.Frequency / physic.Hertz)
	if hz == 0 || kernelHz == 0 {
		return TimingConfig{}, errcode.Wrap(errcode.InvalidParams, "i2c", "zero frequency")
	}
	mode, err := resolveMode(c.Mode, hz)
	if err != nil {
		return TimingConfig{}, err
	}
	tol := uint64(c.Tolerance)
	if tol == 0 {
		tol = DefaultTolerance
	}
	ms := modes[mode]
	k := uint64(kernelHz)
	sync := syncClocks(k)
	if k <= sync*hz {
		return TimingConfig{}, errcode.Wrap(errcode.UnsupportedFrequency, "i2c", "kernel clock too slow")
	}

	for p := uint64(0); p < 16; p++ {
		counts := mathx.RoundDiv(k-sync*hz, (p+1)*hz)
		if counts < minCounts {
			break
		}
		low := counts * ms.lowNum / ms.lowDen
		high := counts - low
		if low > 256 || high > 256 {
			continue
		}
		actual := k / (sync + (p+1)*counts)
		if mathx.PerMille(actual, hz) > tol {
			continue
		}
		scldel := mathx.CeilDiv(ms.setupNs*k, 1_000_000_000*(p+1))
		if scldel > 0 {
			scldel--
		}
		sdadel := mathx.CeilDiv(ms.holdNs*k, 1_000_000_000*(p+1))
		return TimingConfig{
			Mode:   mode,
			Presc:  uint8(p),
			SCLDEL: uint8(mathx.Clamp(scldel, 0, 15)),
			SDADEL: uint8(mathx.Clamp(sdadel, 0, 15)),
			SCLH:   uint8(high - 1),
			SCLL:   uint8(low - 1),
			Actual: physic.Frequency(actual) * physic.Hertz,
		}, nil
	}
	return TimingConfig{}, errcode.Wrap(errcode.UnsupportedFrequency, "i2c", "no divider within tolerance")
}
