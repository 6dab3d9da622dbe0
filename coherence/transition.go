package coherence

import (
	"github.com/sarchlab/mesisim/cache"
)

// FillState returns the state a line is installed in after a miss.
func FillState(op Op) cache.State {
	if op == OpWrite {
		return cache.Modified
	}

	return cache.Exclusive
}

// NextState returns the state of a line after a local hit.
//
// The table is not textbook MESI. A read hit on Exclusive drops to Shared,
// and a write hit on Shared or Invalid moves to Exclusive rather than
// Modified.
func NextState(op Op, current cache.State) cache.State {
	switch op {
	case OpRead, OpFetch:
		switch current {
		case cache.Modified:
			return cache.Modified
		case cache.Exclusive, cache.Shared, cache.Invalid:
			return cache.Shared
		}
	case OpWrite:
		switch current {
		case cache.Modified, cache.Exclusive:
			return cache.Modified
		case cache.Shared, cache.Invalid:
			return cache.Exclusive
		}
	}

	// Other ops and out-of-range states leave the line unchanged.
	return current
}

// SnoopState returns the state of a matching line after a snoop or
// invalidate, and whether the line changed.
func SnoopState(current cache.State) (next cache.State, changed bool) {
	switch current {
	case cache.Modified:
		return cache.Invalid, true
	case cache.Exclusive:
		return cache.Invalid, true
	case cache.Shared:
		return cache.Invalid, true
	case cache.Invalid:
		return cache.Invalid, false
	default:
		// Out-of-range state.
		return current, false
	}
}
