//go:build tinygo

package mmio

import (
	"runtime/volatile"
	"unsafe"
)

// Hardware accesses physical memory-mapped registers.
type Hardware struct{}

func (Hardware) Load32(addr uintptr) uint32 {
	return volatile.LoadUint32((*uint32)(unsafe.Pointer(addr)))
}

func (Hardware) Store32(addr uintptr, v uint32) {
	volatile.StoreUint32((*uint32)(unsafe.Pointer(addr)), v)
}

func (Hardware) Load16(addr uintptr) uint16 {
	return volatile.LoadUint16((*uint16)(unsafe.Pointer(addr)))
}

func init() { def = Hardware{} }
