package cache

import (
	"fmt"
)

// State is the MESI coherence state of a cache line.
type State int

// MESI states. The zero value is Invalid.
const (
	Invalid State = iota
	Shared
	Exclusive
	Modified
)

func (s State) String() string {
	switch s {
	case Invalid:
		return "I"
	case Shared:
		return "S"
	case Exclusive:
		return "E"
	case Modified:
		return "M"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// A Line is the metadata kept for one way of a set.
type Line struct {
	// Occupied is false until the line is first filled. An unoccupied line
	// is Invalid whatever State holds.
	Occupied bool
	Tag      uint32
	State    State
	// Age is the LRU rank, 0 being the most recently used.
	Age int
	// Address is the full address last installed or hit. Diagnostic only.
	Address uint32
}

// A Set is a fixed number of lines sharing one LRU ordering.
type Set struct {
	Lines []Line
}

// NewSet creates a set with the given number of ways, all empty.
func NewSet(ways int) *Set {
	s := &Set{Lines: make([]Line, ways)}
	s.Reset()

	return s
}

// Ways returns the associativity of the set.
func (s *Set) Ways() int {
	return len(s.Lines)
}

// Reset empties every line and restores the identity rank permutation.
func (s *Set) Reset() {
	for i := range s.Lines {
		s.Lines[i] = Line{
			Occupied: false,
			State:    Invalid,
			Age:      i,
		}
	}
}

// Lookup returns the slot of the occupied line holding tag.
func (s *Set) Lookup(tag uint32) (slot int, found bool) {
	for i, line := range s.Lines {
		if line.Occupied && line.Tag == tag {
			return i, true
		}
	}

	return -1, false
}

// Touch makes slot the most recently used line. Lines that were more recent
// than slot age by one; older lines keep their rank.
func (s *Set) Touch(slot int) {
	prev := s.Lines[slot].Age

	for i := range s.Lines {
		if i != slot && s.Lines[i].Age <= prev {
			s.Lines[i].Age++
		}
	}

	s.Lines[slot].Age = 0
}

// CheckRanks verifies that the line ages form a permutation of 0..ways-1.
func (s *Set) CheckRanks() error {
	seen := make([]bool, len(s.Lines))

	for i, line := range s.Lines {
		if line.Age < 0 || line.Age >= len(s.Lines) {
			return fmt.Errorf("%w: slot %d has age %d outside 0..%d",
				ErrPolicyInvariant, i, line.Age, len(s.Lines)-1)
		}

		if seen[line.Age] {
			return fmt.Errorf("%w: age %d appears more than once",
				ErrPolicyInvariant, line.Age)
		}

		seen[line.Age] = true
	}

	return nil
}

// Snapshot returns a copy of the lines in slot order.
func (s *Set) Snapshot() []Line {
	lines := make([]Line, len(s.Lines))
	copy(lines, s.Lines)

	return lines
}
