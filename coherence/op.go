// Package coherence implements the MESI controller that drives the split L1
// instruction and data caches.
package coherence

import (
	"errors"
	"fmt"
)

// Op is a trace operation. The numeric values are the trace opcodes.
type Op int

// Trace operations.
const (
	// OpRead is an L1 data cache read.
	OpRead Op = 0
	// OpWrite is an L1 data cache write.
	OpWrite Op = 1
	// OpFetch is an L1 instruction fetch.
	OpFetch Op = 2
	// OpInvalidate is an invalidate command from the L2.
	OpInvalidate Op = 3
	// OpSnoop is a data request from the L2 in response to a snoop.
	OpSnoop Op = 4
	// OpReset clears the caches and the statistics.
	OpReset Op = 8
	// OpPrint dumps the cache contents.
	OpPrint Op = 9
)

// ErrUnknownOp is returned for opcodes outside the trace format.
var ErrUnknownOp = errors.New("unknown opcode")

// OpFromCode converts a trace opcode into an Op.
func OpFromCode(code int) (Op, error) {
	op := Op(code)

	switch op {
	case OpRead, OpWrite, OpFetch, OpInvalidate, OpSnoop, OpReset, OpPrint:
		return op, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownOp, code)
	}
}

func (o Op) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpFetch:
		return "fetch"
	case OpInvalidate:
		return "invalidate"
	case OpSnoop:
		return "snoop"
	case OpReset:
		return "reset"
	case OpPrint:
		return "print"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// IsAccess returns true for the local accesses that are counted as hits or
// misses.
func (o Op) IsAccess() bool {
	return o == OpRead || o == OpWrite || o == OpFetch
}

// IsExternal returns true for the L2-originated snoop and invalidate events.
func (o Op) IsExternal() bool {
	return o == OpSnoop || o == OpInvalidate
}
