// Package replay drives a controller with the events of a trace.
package replay

import (
	"errors"
	"fmt"
	"io"

	"github.com/sarchlab/mesisim/coherence"
	"github.com/sarchlab/mesisim/report"
	"github.com/sarchlab/mesisim/trace"
)

// EventSource yields trace events until it returns io.EOF.
type EventSource interface {
	Next() (trace.Event, error)
}

// Summary counts what a replay did.
type Summary struct {
	// Events is the number of events read without error.
	Events int
	// Applied is the number of events handled by the controller.
	Applied int
	Resets  int
	Prints  int
}

// Runner replays traces against a controller.
type Runner struct {
	controller *coherence.Controller
	reporter   *report.Reporter
	mode       report.Mode
}

// NewRunner creates a Runner. Print events are written through reporter;
// their address selects the mode, falling back to mode for other values.
func NewRunner(
	controller *coherence.Controller,
	reporter *report.Reporter,
	mode report.Mode,
) *Runner {
	return &Runner{
		controller: controller,
		reporter:   reporter,
		mode:       mode,
	}
}

// Run applies every event of source in order. It stops at the first error;
// everything applied before the error stays in the controller.
func (r *Runner) Run(source EventSource) (Summary, error) {
	var summary Summary

	for {
		event, err := source.Next()
		if errors.Is(err, io.EOF) {
			return summary, nil
		}

		if err != nil {
			return summary, err
		}

		summary.Events++

		if err := r.handle(event, &summary); err != nil {
			return summary, fmt.Errorf("trace line %d: %w", event.Line, err)
		}
	}
}

func (r *Runner) handle(event trace.Event, summary *Summary) error {
	switch event.Op {
	case coherence.OpReset:
		r.controller.Reset()
		summary.Resets++
	case coherence.OpPrint:
		if err := r.print(event.Address); err != nil {
			return err
		}
		summary.Prints++
	default:
		if _, err := r.controller.Apply(event.Op, event.Address); err != nil {
			return err
		}
		summary.Applied++
	}

	return nil
}

func (r *Runner) print(value uint32) error {
	mode, ok := report.ModeFromValue(uint64(value))
	if !ok {
		mode = r.mode
	}

	return r.Print(mode)
}

// Print dumps the controller state in the given mode.
func (r *Runner) Print(mode report.Mode) error {
	if err := r.reporter.Print(r.controller.Snapshot(), mode); err != nil {
		return fmt.Errorf("failed to print report: %w", err)
	}

	return nil
}
