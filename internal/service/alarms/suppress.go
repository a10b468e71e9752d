package alarms

import (
	"sync"

	domain "github.com/oshokin/olt-alarms/internal/domain/alarm"
)

type suppressionKey struct {
	kind   domain.FaultKind
	intfID uint32
}

// Suppressor drops repeated clears of guarded fault kinds.
//
// Some OLT firmware keeps reporting a cleared condition long after the last
// raise. For a guarded kind only the first clear after a raise is let
// through per interface; the rest are dropped until the next raise.
// Other kinds always pass.
type Suppressor struct {
	// guarded lists the fault kinds subject to suppression.
	guarded map[domain.FaultKind]struct{}

	// mu protects enabled and clears.
	mu sync.Mutex
	// enabled turns the policy into a pass-through when false.
	enabled bool
	// clears is 1 once a clear has been let through since the last raise.
	clears map[suppressionKey]uint32
}

// NewSuppressor creates a policy for the given fault kinds.
func NewSuppressor(enabled bool, guarded ...domain.FaultKind) *Suppressor {
	s := &Suppressor{
		guarded: make(map[domain.FaultKind]struct{}, len(guarded)),
		enabled: enabled,
		clears:  make(map[suppressionKey]uint32),
	}

	for _, kind := range guarded {
		s.guarded[kind] = struct{}{}
	}

	return s
}

// Allow records decision for (kind, intfID) and reports whether it should be emitted.
// NoChange is never allowed.
func (s *Suppressor) Allow(kind domain.FaultKind, intfID uint32, decision domain.Decision) bool {
	if decision == domain.NoChange {
		return false
	}

	if _, ok := s.guarded[kind]; !ok {
		return true
	}

	key := suppressionKey{kind: kind, intfID: intfID}

	s.mu.Lock()
	defer s.mu.Unlock()

	if decision == domain.Raise {
		delete(s.clears, key)

		return true
	}

	if !s.enabled {
		return true
	}

	if s.clears[key] > 0 {
		return false
	}

	s.clears[key] = 1

	return true
}

// SetEnabled switches the policy on or off.
func (s *Suppressor) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enabled = enabled
}

// Enabled reports whether redundant clears are being dropped.
func (s *Suppressor) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.enabled
}

// Guards reports whether kind is subject to suppression.
func (s *Suppressor) Guards(kind domain.FaultKind) bool {
	_, ok := s.guarded[kind]

	return ok
}
