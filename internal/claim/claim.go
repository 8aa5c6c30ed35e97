// Package claim tracks exclusive ownership of physical resources.
//
// Each peripheral and each pin is backed by one Slot. Converting a resource
// into a typed handle checks the slot out; a second checkout of the same
// slot is a programmer error and panics, mirroring what a move-only type
// would reject at build time.
package claim

import (
	"sync/atomic"

	"stm32wl-hal/errcode"
)

// Slot is a named, single-owner resource slot. The zero value is unusable;
// construct with New.
type Slot struct {
	name  string
	taken atomic.Bool
}

func New(name string) *Slot { return &Slot{name: name} }

func (s *Slot) Name() string {
	if s == nil {
		return "<nil>"
	}
	return s.name
}

// TryClaim checks the slot out, or returns errcode.InUse.
func (s *Slot) TryClaim() error {
	if s == nil {
		return errcode.Wrap(errcode.InvalidParams, "claim", "nil resource")
	}
	if !s.taken.CompareAndSwap(false, true) {
		return errcode.Wrap(errcode.InUse, "claim", s.name)
	}
	return nil
}

// Claim checks the slot out and panics if it is already checked out.
func (s *Slot) Claim() {
	if err := s.TryClaim(); err != nil {
		panic(s.Name() + " already in use")
	}
}

// Release returns the slot. Releasing a free slot is a no-op.
func (s *Slot) Release() {
	if s != nil {
		s.taken.Store(false)
	}
}

func (s *Slot) Claimed() bool { return s != nil && s.taken.Load() }
