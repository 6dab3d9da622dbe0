package report

import (
	"io"
	"log"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/mesisim/coherence"
)

// EventLogger is a hook that writes one line per controller event.
type EventLogger struct {
	sim.LogHookBase
}

// NewEventLogger creates an EventLogger that writes to w.
func NewEventLogger(w io.Writer) *EventLogger {
	h := new(EventLogger)
	h.Logger = log.New(w, "", 0)

	return h
}

// Func logs the event.
func (h *EventLogger) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case coherence.HookPosReset:
		h.Print("reset")
	case coherence.HookPosAccess:
		o := ctx.Item.(coherence.Outcome)

		result := "miss"
		if o.Hit {
			result = "hit"
		}

		if o.Op.IsExternal() && !o.Hit {
			h.Printf("%-10s %08x %s cache: no match", o.Op, o.Address, o.Target)
			return
		}

		h.Printf("%-10s %08x %s cache: %s slot %d %s -> %s",
			o.Op, o.Address, o.Target, result, o.Slot, o.PrevState, o.State)

		if o.Evicted {
			h.Printf("%-10s %08x evicted tag %03x (%s, %s)",
				"", o.EvictedAddress, o.EvictedTag, o.EvictedState, o.Victim)
		}
	}
}
