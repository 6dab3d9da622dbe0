package replay_test

import (
	"bytes"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mesisim/cache"
	"github.com/sarchlab/mesisim/coherence"
	"github.com/sarchlab/mesisim/replay"
	"github.com/sarchlab/mesisim/report"
	"github.com/sarchlab/mesisim/trace"
)

var _ = Describe("Runner", func() {
	var (
		controller *coherence.Controller
		out        *bytes.Buffer
		runner     *replay.Runner
	)

	BeforeEach(func() {
		controller = coherence.NewController()
		busLog := report.NewBusLog()
		controller.AcceptHook(busLog)
		out = new(bytes.Buffer)
		runner = replay.NewRunner(controller, report.NewReporter(out, busLog), report.ModeSummary)
	})

	run := func(text string) (replay.Summary, error) {
		return runner.Run(trace.NewReader(strings.NewReader(text)))
	}

	It("should apply accesses and count them", func() {
		summary, err := run("1 40\n0 40\n2 408ed4\n4 40\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(summary).To(Equal(replay.Summary{Events: 4, Applied: 4}))
		Expect(controller.Stats()).To(Equal(coherence.Statistics{Hits: 1, Misses: 2}))
		Expect(controller.Snapshot().Data[0].State).To(Equal(cache.Invalid))
	})

	It("should reset mid-trace", func() {
		summary, err := run("1 40\n0 40\n8 0\n0 80\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Resets).To(Equal(1))
		Expect(controller.Stats()).To(Equal(coherence.Statistics{Misses: 1}))
	})

	It("should print with the mode given by the address", func() {
		summary, err := run("0 40\n9 0\n9 1\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Prints).To(Equal(2))
		Expect(strings.Count(out.String(), "Statistics")).To(Equal(2))
		Expect(strings.Count(out.String(), "L2 Bus Messages")).To(Equal(1))
	})

	It("should fall back to the default mode for other print values", func() {
		runner = replay.NewRunner(controller,
			report.NewReporter(out, report.NewBusLog()), report.ModeBusMessages)

		_, err := run("9 ffff\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(out.String()).To(ContainSubstring("L2 Bus Messages"))
	})

	It("should stop at an unknown opcode and keep earlier state", func() {
		summary, err := run("1 40\n1 80\n7 40\n0 c0\n")
		Expect(err).To(MatchError(trace.ErrUnknownOpcode))

		var parseErr *trace.ParseError
		Expect(errors.As(err, &parseErr)).To(BeTrue())
		Expect(parseErr.Line).To(Equal(3))

		Expect(summary.Events).To(Equal(2))
		Expect(controller.Stats()).To(Equal(coherence.Statistics{Hits: 1, Misses: 1}))
	})

	It("should stop on a policy violation", func() {
		controller = coherence.NewController(
			coherence.WithVictimFinder(failingVictimFinder{}))
		runner = replay.NewRunner(controller, report.NewReporter(out, nil), report.ModeSummary)

		_, err := run("0 40\n")
		Expect(err).To(MatchError(cache.ErrPolicyInvariant))
		Expect(err).To(MatchError(ContainSubstring("trace line 1")))
	})

	It("should print on demand", func() {
		Expect(runner.Print(report.ModeSummary)).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Cache Hits:   0"))
	})
})

type failingVictimFinder struct{}

func (failingVictimFinder) FindVictim(*cache.Set) (cache.Victim, error) {
	return cache.Victim{}, cache.ErrPolicyInvariant
}
