// Package trace reads memory-access traces. Each line holds a decimal
// opcode followed by a hexadecimal address, for example "2 408ed4".
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/mesisim/coherence"
)

// ErrMalformedLine is reported for lines that are not "<opcode> <address>".
var ErrMalformedLine = errors.New("malformed trace line")

// ErrUnknownOpcode is reported for opcodes outside the trace format.
var ErrUnknownOpcode = errors.New("unknown trace opcode")

// Event is one parsed trace line.
type Event struct {
	Op      coherence.Op
	Address uint32
	// Line is the 1-based line number in the trace.
	Line int
}

// ParseError describes a trace line that could not be parsed.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("trace line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Reader produces trace events lazily. It cannot be rewound.
type Reader struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Open creates a Reader over the trace file at path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}

	r := NewReader(f)
	r.closer = f

	return r, nil
}

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}

	return r.closer.Close()
}

// Next returns the next event, or io.EOF once the trace is exhausted. Blank
// lines and lines starting with '#' are skipped.
func (r *Reader) Next() (Event, error) {
	for r.scanner.Scan() {
		r.line++

		text := strings.TrimSpace(r.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		return r.parse(text)
	}

	if err := r.scanner.Err(); err != nil {
		return Event{}, fmt.Errorf("failed to read trace: %w", err)
	}

	return Event{}, io.EOF
}

func (r *Reader) parse(text string) (Event, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return Event{}, r.errorf(text, ErrMalformedLine)
	}

	code, err := strconv.Atoi(fields[0])
	if err != nil {
		return Event{}, r.errorf(text, ErrMalformedLine)
	}

	op, err := coherence.OpFromCode(code)
	if err != nil {
		return Event{}, r.errorf(text, ErrUnknownOpcode)
	}

	hex := strings.TrimPrefix(strings.TrimPrefix(fields[1], "0x"), "0X")

	addr, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Event{}, r.errorf(text, ErrMalformedLine)
	}

	return Event{
		Op:      op,
		Address: uint32(addr),
		Line:    r.line,
	}, nil
}

func (r *Reader) errorf(text string, err error) *ParseError {
	return &ParseError{
		Line: r.line,
		Text: text,
		Err:  err,
	}
}
