// Package trace reads and writes branch traces.
//
// A trace is a text file with one resolved branch per line:
//
//	<pc> <C|U> <T|N> [target]
//
// pc and target are hexadecimal with an optional 0x prefix. C marks a
// conditional branch, U an unconditional one. T and N are the resolved
// direction. Blank lines and lines starting with # are ignored.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/bpsim/predictor"
)

// ErrMalformedRecord is returned for a trace line that cannot be parsed.
var ErrMalformedRecord = errors.New("malformed trace record")

// Event is one resolved branch.
type Event struct {
	Branch predictor.BranchRecord
	Taken  bool
}

// Source yields events in order. Next returns io.EOF after the last event.
type Source interface {
	Next() (Event, error)
}

// ParseLine parses a single non-comment trace line.
func ParseLine(line string) (Event, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 && len(fields) != 4 {
		return Event{}, fmt.Errorf("%w: want 3 or 4 fields, got %d",
			ErrMalformedRecord, len(fields))
	}

	pc, err := parseHex(fields[0])
	if err != nil {
		return Event{}, fmt.Errorf("%w: bad pc %q", ErrMalformedRecord, fields[0])
	}

	var ev Event
	ev.Branch.PC = pc

	switch strings.ToUpper(fields[1]) {
	case "C":
		ev.Branch.Conditional = true
	case "U":
	default:
		return Event{}, fmt.Errorf("%w: bad kind %q", ErrMalformedRecord, fields[1])
	}

	switch strings.ToUpper(fields[2]) {
	case "T":
		ev.Taken = true
	case "N":
	default:
		return Event{}, fmt.Errorf("%w: bad outcome %q", ErrMalformedRecord, fields[2])
	}

	if len(fields) == 4 {
		ev.Branch.Target, err = parseHex(fields[3])
		if err != nil {
			return Event{}, fmt.Errorf("%w: bad target %q", ErrMalformedRecord, fields[3])
		}
	}

	return ev, nil
}

func parseHex(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return strconv.ParseUint(s, 16, 64)
}

// FormatLine renders an event in trace syntax.
func FormatLine(ev Event) string {
	kind := "U"
	if ev.Branch.Conditional {
		kind = "C"
	}
	outcome := "N"
	if ev.Taken {
		outcome = "T"
	}

	if ev.Branch.Target != 0 {
		return fmt.Sprintf("0x%x %s %s 0x%x", ev.Branch.PC, kind, outcome, ev.Branch.Target)
	}
	return fmt.Sprintf("0x%x %s %s", ev.Branch.PC, kind, outcome)
}

// Reader parses a trace stream.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next returns the next event, or io.EOF at the end of the stream.
func (r *Reader) Next() (Event, error) {
	for r.scanner.Scan() {
		r.line++
		text := strings.TrimSpace(r.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		ev, err := ParseLine(text)
		if err != nil {
			return Event{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		return ev, nil
	}

	if err := r.scanner.Err(); err != nil {
		return Event{}, fmt.Errorf("failed to read trace: %w", err)
	}

	return Event{}, io.EOF
}

// ReadAll reads every event from r.
func ReadAll(r io.Reader) ([]Event, error) {
	reader := NewReader(r)
	var events []Event
	for {
		ev, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
}

// Writer writes events in trace syntax.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a Writer over w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteComment writes a # comment line.
func (w *Writer) WriteComment(text string) error {
	_, err := fmt.Fprintf(w.w, "# %s\n", text)
	return err
}

// Write writes one event.
func (w *Writer) Write(ev Event) error {
	_, err := fmt.Fprintln(w.w, FormatLine(ev))
	return err
}

// Flush writes any buffered data.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// SliceSource replays a fixed list of events.
type SliceSource struct {
	events []Event
	next   int
}

// NewSliceSource creates a Source over events.
func NewSliceSource(events []Event) *SliceSource {
	return &SliceSource{events: events}
}

// Next returns the next event, or io.EOF once all events are consumed.
func (s *SliceSource) Next() (Event, error) {
	if s.next >= len(s.events) {
		return Event{}, io.EOF
	}
	ev := s.events[s.next]
	s.next++
	return ev, nil
}
