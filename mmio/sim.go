package mmio

// Hook models the side effects of a peripheral on its register window.
// OnRead returns the value the CPU observes; OnWrite returns the value that
// gets stored.
type Hook interface {
	OnRead(addr uintptr, cur uint32) uint32
	OnWrite(addr uintptr, old, v uint32) uint32
}

type window struct {
	base, size uintptr
	h          Hook
}

// Sim is a word-addressed simulated register file. Unmapped addresses
// behave as plain memory. Sim is not safe for concurrent use; like the
// hardware it stands in for, it is driven by one thread of execution.
type Sim struct {
	words   map[uintptr]uint32
	windows []window
}

// NewSim returns an empty register file.
func NewSim() *Sim {
	return &Sim{words: make(map[uintptr]uint32)}
}

// Map routes accesses in [base, base+size) through h.
func (s *Sim) Map(base, size uintptr, h Hook) {
	s.windows = append(s.windows, window{base: base, size: size, h: h})
}

func (s *Sim) hook(addr uintptr) Hook {
	for _, w := range s.windows {
		if addr >= w.base && addr < w.base+w.size {
			return w.h
		}
	}
	return nil
}

func (s *Sim) Load32(addr uintptr) uint32 {
	v := s.words[addr]
	if h := s.hook(addr); h != nil {
		v = h.OnRead(addr, v)
	}
	return v
}

func (s *Sim) Store32(addr uintptr, v uint32) {
	if h := s.hook(addr); h != nil {
		v = h.OnWrite(addr, s.words[addr], v)
	}
	s.words[addr] = v
}

// Load16 reads the half-word at addr from its containing word (little endian).
func (s *Sim) Load16(addr uintptr) uint16 {
	w := s.Load32(addr &^ 3)
	return uint16(w >> ((addr & 2) * 8))
}

// Peek32 reads storage without invoking hooks.
func (s *Sim) Peek32(addr uintptr) uint32 { return s.words[addr] }

// Poke32 writes storage without invoking hooks.
func (s *Sim) Poke32(addr uintptr, v uint32) { s.words[addr] = v }

// Poke16 writes the half-word at addr without invoking hooks.
func (s *Sim) Poke16(addr uintptr, v uint16) {
	a := addr &^ 3
	sh := (addr & 2) * 8
	s.words[a] = s.words[a]&^(0xFFFF<<sh) | uint32(v)<<sh
}
