// Package mmio is the register access substrate shared by every driver.
//
// Drivers never dereference addresses themselves; they go through a Bus so
// the same code runs against real memory-mapped I/O on firmware builds and
// against a simulated register file on the host.
package mmio

import "sync"

// Bus performs volatile register accesses at absolute addresses.
type Bus interface {
	Load32(addr uintptr) uint32
	Store32(addr uintptr, v uint32)
	Load16(addr uintptr) uint16
}

// Reg is a 32-bit register on a Bus.
type Reg struct {
	bus  Bus
	addr uintptr
}

// At returns the register at addr on bus.
func At(bus Bus, addr uintptr) Reg { return Reg{bus: bus, addr: addr} }

func (r Reg) Addr() uintptr { return r.addr }
func (r Reg) Get() uint32   { return r.bus.Load32(r.addr) }
func (r Reg) Set(v uint32)  { r.bus.Store32(r.addr, v) }

// SetBits is a read-modify-write setting every bit in m.
func (r Reg) SetBits(m uint32) { r.Set(r.Get() | m) }

// ClearBits is a read-modify-write clearing every bit in m.
func (r Reg) ClearBits(m uint32) { r.Set(r.Get() &^ m) }

// HasBits reports whether every bit in m is set.
func (r Reg) HasBits(m uint32) bool { return r.Get()&m == m }

// ReplaceBits writes value into the field described by the unshifted mask
// at bit position pos, leaving the other bits intact.
func (r Reg) ReplaceBits(value, mask uint32, pos uint8) {
	r.Set(r.Get()&^(mask<<pos) | (value&mask)<<pos)
}

// Field reads the field described by the unshifted mask at pos.
func (r Reg) Field(mask uint32, pos uint8) uint32 { return (r.Get() >> pos) & mask }

var (
	mu  sync.RWMutex
	def Bus
)

// Default returns the process bus: real memory on firmware builds, the
// installed simulation on the host, or nil when none is installed.
func Default() Bus {
	mu.RLock()
	defer mu.RUnlock()
	return def
}

// SetDefault installs b as the process bus.
func SetDefault(b Bus) {
	mu.Lock()
	def = b
	mu.Unlock()
}

// Wait polls until r&mask == want, at most budget reads. It reports
// whether the condition was met.
func (r Reg) Wait(mask, want uint32, budget uint32) bool {
	for i := uint32(0); i < budget; i++ {
		if r.Get()&mask == want {
			return true
		}
	}
	return false
}
