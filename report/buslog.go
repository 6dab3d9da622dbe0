package report

import (
	"fmt"
	"sync"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/mesisim/cache"
	"github.com/sarchlab/mesisim/coherence"
)

// BusLog is a hook that records the messages the L1 caches would exchange
// with the L2. It is cleared when the controller resets.
type BusLog struct {
	mu       sync.Mutex
	messages []string
}

// NewBusLog creates an empty bus log.
func NewBusLog() *BusLog {
	return &BusLog{}
}

// Func records the messages implied by one controller event.
func (b *BusLog) Func(ctx sim.HookCtx) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch ctx.Pos {
	case coherence.HookPosReset:
		b.messages = nil
	case coherence.HookPosEvict:
		replaced := ctx.Detail.(cache.Line)
		if replaced.State == cache.Modified {
			b.add("Write to L2", replaced.Address)
		}
	case coherence.HookPosAccess:
		b.access(ctx.Item.(coherence.Outcome))
	}
}

func (b *BusLog) access(outcome coherence.Outcome) {
	switch outcome.Op {
	case coherence.OpRead, coherence.OpFetch:
		if !outcome.Hit {
			b.add("Read from L2", outcome.Address)
		}
	case coherence.OpWrite:
		if !outcome.Hit {
			b.add("Read for Ownership from L2", outcome.Address)
		}
	case coherence.OpSnoop:
		if outcome.Hit && outcome.PrevState == cache.Modified {
			b.add("Return data to L2", outcome.Address)
		}
	}
}

func (b *BusLog) add(what string, addr uint32) {
	b.messages = append(b.messages, fmt.Sprintf("%s %08x", what, addr))
}

// Messages returns the recorded messages in order.
func (b *BusLog) Messages() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	messages := make([]string, len(b.messages))
	copy(messages, b.messages)

	return messages
}
