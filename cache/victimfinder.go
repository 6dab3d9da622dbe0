package cache

import (
	"errors"
	"fmt"
)

// ErrPolicyInvariant reports that the LRU ranks of a set are no longer a
// permutation, so no unique victim exists. It is an internal consistency
// failure and is never recovered from.
var ErrPolicyInvariant = errors.New("replacement policy invariant violated")

// VictimReason tells why a slot was chosen as the victim.
type VictimReason int

const (
	// VictimEmpty is a never-filled slot. Nothing is evicted.
	VictimEmpty VictimReason = iota
	// VictimInvalid is an occupied line in the Invalid state.
	VictimInvalid
	// VictimLRU is the least recently used line.
	VictimLRU
)

func (r VictimReason) String() string {
	switch r {
	case VictimEmpty:
		return "empty"
	case VictimInvalid:
		return "invalid"
	case VictimLRU:
		return "lru"
	default:
		return fmt.Sprintf("VictimReason(%d)", int(r))
	}
}

// A Victim is the slot picked to receive a new fill.
type Victim struct {
	Slot   int
	Reason VictimReason
}

// Evicts returns true if filling the victim slot discards an occupied line.
func (v Victim) Evicts() bool {
	return v.Reason != VictimEmpty
}

// A VictimFinder decides which line of a set receives a new fill.
type VictimFinder interface {
	FindVictim(set *Set) (Victim, error)
}

// LRUVictimFinder prefers empty lines, then Invalid lines, then the least
// recently used line.
type LRUVictimFinder struct {
}

// NewLRUVictimFinder returns a newly constructed LRU victim finder.
func NewLRUVictimFinder() *LRUVictimFinder {
	return new(LRUVictimFinder)
}

// FindVictim returns the slot to fill. The lowest slot wins among empty or
// Invalid candidates.
func (e *LRUVictimFinder) FindVictim(set *Set) (Victim, error) {
	for i, line := range set.Lines {
		if !line.Occupied {
			return Victim{Slot: i, Reason: VictimEmpty}, nil
		}
	}

	for i, line := range set.Lines {
		if line.State == Invalid {
			return Victim{Slot: i, Reason: VictimInvalid}, nil
		}
	}

	return e.findLRU(set)
}

func (e *LRUVictimFinder) findLRU(set *Set) (Victim, error) {
	oldest := set.Ways() - 1
	slot := -1

	for i, line := range set.Lines {
		if line.Age != oldest {
			continue
		}

		if slot >= 0 {
			return Victim{}, fmt.Errorf(
				"%w: slots %d and %d both have age %d",
				ErrPolicyInvariant, slot, i, oldest)
		}

		slot = i
	}

	if slot < 0 {
		return Victim{}, fmt.Errorf("%w: no line has age %d",
			ErrPolicyInvariant, oldest)
	}

	return Victim{Slot: slot, Reason: VictimLRU}, nil
}
