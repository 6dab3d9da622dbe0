// Package report renders cache contents, statistics and L2 bus messages.
package report

import (
	"fmt"
	"io"

	"github.com/sarchlab/mesisim/cache"
	"github.com/sarchlab/mesisim/coherence"
)

// Mode selects how much a dump shows.
type Mode int

const (
	// ModeSummary prints the cache contents and the statistics.
	ModeSummary Mode = 0
	// ModeBusMessages also prints the L2 bus messages.
	ModeBusMessages Mode = 1
)

// ModeFromValue converts a trace or flag value to a Mode.
func ModeFromValue(v uint64) (Mode, bool) {
	switch Mode(v) {
	case ModeSummary, ModeBusMessages:
		return Mode(v), true
	default:
		return ModeSummary, false
	}
}

// Reporter writes dumps of a controller snapshot.
type Reporter struct {
	w      io.Writer
	busLog *BusLog
}

// NewReporter creates a Reporter writing to w. busLog may be nil, in which
// case ModeBusMessages prints no messages.
func NewReporter(w io.Writer, busLog *BusLog) *Reporter {
	return &Reporter{
		w:      w,
		busLog: busLog,
	}
}

// Print writes the dump for the given snapshot.
func (r *Reporter) Print(snapshot coherence.Snapshot, mode Mode) error {
	p := &printer{w: r.w}

	p.cache("Instruction Cache", snapshot.Instruction)
	p.cache("Data Cache", snapshot.Data)
	p.stats(snapshot.Stats)

	if mode == ModeBusMessages {
		p.header("L2 Bus Messages")

		var messages []string
		if r.busLog != nil {
			messages = r.busLog.Messages()
		}

		if len(messages) == 0 {
			p.printf("(none)\n")
		}

		for _, m := range messages {
			p.printf("%s\n", m)
		}
	}

	return p.err
}

// printer remembers the first write error so the dump can be written without
// checking every call.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}

	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) header(title string) {
	p.printf("\n---------------- %s ----------------\n", title)
}

func (p *printer) cache(title string, lines []cache.Line) {
	p.header(title)
	p.printf("%-4s %-8s %-4s %-3s %s\n", "Way", "Address", "Tag", "LRU", "MESI")

	for way, line := range lines {
		if !line.Occupied {
			p.printf("%-4d %-8s %-4s %-3d %s\n", way, "-", "-", line.Age, cache.Invalid)
			continue
		}

		p.printf("%-4d %08x %03x  %-3d %s\n",
			way, line.Address, line.Tag, line.Age, line.State)
	}
}

func (p *printer) stats(stats coherence.Statistics) {
	p.header("Statistics")
	p.printf("Cache Hits:   %d\n", stats.Hits)
	p.printf("Cache Misses: %d\n", stats.Misses)
	p.printf("Hit Ratio:    %.2f%%\n", 100*stats.HitRatio())
}
