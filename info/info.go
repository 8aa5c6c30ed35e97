// Package info reads the device electronic signature: flash size, package
// and the 64-bit unique ID. The values are factory programmed and read-only.
package info

import (
	"stm32wl-hal/errcode"
	"stm32wl-hal/mmio"
	"stm32wl-hal/pac"
	"stm32wl-hal/x/conv"
	"stm32wl-hal/x/logx"
)

// Package is the physical package code.
type Package uint8

const (
	UFBGA73  Package = 0b00000
	WLCSP59  Package = 0b00010
	UFQFPN48 Package = 0b01010
)

func (p Package) String() string {
	switch p {
	case UFBGA73:
		return "UFBGA73"
	case WLCSP59:
		return "WLCSP59"
	case UFQFPN48:
		return "UFQFPN48"
	}
	return string(conv.AppendHex([]byte("Package("), uint64(p), 2)) + ")"
}

// UnknownPackageError carries a reserved package code. errors.Is matches
// errcode.Unrecognized.
type UnknownPackageError struct {
	Code uint8
}

func (e *UnknownPackageError) Error() string {
	return string(conv.AppendHex([]byte("info: unrecognized package code "), uint64(e.Code), 2))
}

func (e *UnknownPackageError) Unwrap() error { return errcode.Unrecognized }

// UID64 is the IEEE 64-bit unique device ID.
type UID64 uint64

// DevNum is the sequential per-device number.
func (u UID64) DevNum() uint32 { return uint32(u >> 32) }

// CompanyID is 0x0080E1 for STMicroelectronics. Only 24 bits are used.
func (u UID64) CompanyID() uint32 { return (uint32(u) & 0xFFFF_FF00) >> 8 }

// DevID is 0x15 on this family.
func (u UID64) DevID() uint8 { return uint8(u) }

func (u UID64) Uint64() uint64 { return uint64(u) }

func (u UID64) String() string { return string(conv.AppendHex(nil, uint64(u), 16)) }

// Reader reads the signature over a register bus.
type Reader struct {
	Bus mmio.Bus
}

// FlashSizeKibibyte returns the flash size in KiB.
func (r Reader) FlashSizeKibibyte() uint16 { return r.Bus.Load16(pac.FLASHSIZE_ADDR) }

// FlashSize returns the flash size in bytes.
func (r Reader) FlashSize() uint32 { return uint32(r.FlashSizeKibibyte()) << 10 }

// Package decodes the package field. Reserved codes are reported as
// *UnknownPackageError with the raw value.
func (r Reader) Package() (Package, error) {
	raw := uint8(r.Bus.Load16(pac.PACKAGE_ADDR) & 0xF)
	switch p := Package(raw); p {
	case UFBGA73, WLCSP59, UFQFPN48:
		return p, nil
	}
	logx.Debug(logx.ComponentInfo, "reserved package code", "code", raw)
	return 0, &UnknownPackageError{Code: raw}
}

// UID64 returns the unique ID. The high word is at the lower address.
func (r Reader) UID64() UID64 {
	hi := r.Bus.Load32(pac.UID64_ADDR)
	lo := r.Bus.Load32(pac.UID64_ADDR + 4)
	return UID64(uint64(hi)<<32 | uint64(lo))
}

func def() Reader { return Reader{Bus: mmio.Default()} }

// FlashSizeKibibyte reads the default bus. On the NUCLEO-WL55JC it is 256.
func FlashSizeKibibyte() uint16 { return def().FlashSizeKibibyte() }

// FlashSize reads the default bus.
func FlashSize() uint32 { return def().FlashSize() }

// ReadPackage reads the default bus.
func ReadPackage() (Package, error) { return def().Package() }

// ReadUID64 reads the default bus.
func ReadUID64() UID64 { return def().UID64() }
