package trace_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mesisim/coherence"
	"github.com/sarchlab/mesisim/trace"
)

func readAll(r *trace.Reader) ([]trace.Event, error) {
	var events []trace.Event
	for {
		event, err := r.Next()
		if err != nil {
			return events, err
		}
		events = append(events, event)
	}
}

var _ = Describe("Reader", func() {
	It("should parse every opcode", func() {
		r := trace.NewReader(strings.NewReader(
			"0 10019d94\n1 0x10019d88\n2 408ed4\n3 ABCDEF00\n4 0\n8 0\n9 1\n"))

		events, err := readAll(r)
		Expect(err).To(Equal(io.EOF))
		Expect(events).To(Equal([]trace.Event{
			{Op: coherence.OpRead, Address: 0x10019d94, Line: 1},
			{Op: coherence.OpWrite, Address: 0x10019d88, Line: 2},
			{Op: coherence.OpFetch, Address: 0x408ed4, Line: 3},
			{Op: coherence.OpInvalidate, Address: 0xABCDEF00, Line: 4},
			{Op: coherence.OpSnoop, Address: 0, Line: 5},
			{Op: coherence.OpReset, Address: 0, Line: 6},
			{Op: coherence.OpPrint, Address: 1, Line: 7},
		}))
	})

	It("should skip blank lines and comments but keep line numbers", func() {
		r := trace.NewReader(strings.NewReader("# warm up\n\n   \n2\t408ed4\n"))

		event, err := r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(event.Line).To(Equal(4))
		Expect(event.Address).To(Equal(uint32(0x408ed4)))

		_, err = r.Next()
		Expect(err).To(Equal(io.EOF))
	})

	It("should report unknown opcodes with the line number", func() {
		r := trace.NewReader(strings.NewReader("0 40\n5 40\n0 80\n"))

		_, err := r.Next()
		Expect(err).NotTo(HaveOccurred())

		_, err = r.Next()
		Expect(err).To(MatchError(trace.ErrUnknownOpcode))

		var parseErr *trace.ParseError
		Expect(errors.As(err, &parseErr)).To(BeTrue())
		Expect(parseErr.Line).To(Equal(2))
		Expect(parseErr.Text).To(Equal("5 40"))
	})

	DescribeTable("malformed lines",
		func(line string) {
			_, err := trace.NewReader(strings.NewReader(line)).Next()
			Expect(err).To(MatchError(trace.ErrMalformedLine))
		},
		Entry("missing address", "0"),
		Entry("extra field", "0 40 80"),
		Entry("non-numeric opcode", "r 40"),
		Entry("non-hex address", "0 xyz"),
		Entry("address wider than 32 bits", "0 123456789"),
	)

	Describe("Open", func() {
		It("should read a trace file", func() {
			path := filepath.Join(GinkgoT().TempDir(), "trace.txt")
			Expect(os.WriteFile(path, []byte("1 40\n"), 0644)).To(Succeed())

			r, err := trace.Open(path)
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = r.Close() }()

			event, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(event.Op).To(Equal(coherence.OpWrite))
		})

		It("should fail on a missing file", func() {
			_, err := trace.Open("/nonexistent/trace.txt")
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
		})
	})
})
