// Package feed parses progress readings from line-oriented text such as the
// output of another command piped into gaeta.
//
// Each line carries a current and a total counter separated by whitespace, a
// slash or a comma:
//
//	120 4096
//	120/4096
//	120,4096
//
// Blank lines and lines starting with '#' are ignored.
package feed

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrEmptyLine is returned by Parse for blank and comment lines.
var ErrEmptyLine = errors.New("empty line")

// Reading is one progress report.
type Reading struct {
	Current uint64
	Max     uint64
}

// Done reports whether the reading marks the operation as complete.
func (r Reading) Done() bool {
	return r.Max > 0 && r.Current >= r.Max
}

// ParseError describes a malformed feed line.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("feed line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse decodes a single line into a Reading.
func Parse(line string) (Reading, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Reading{}, ErrEmptyLine
	}

	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == '/' || r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) != 2 {
		return Reading{}, fmt.Errorf("expected 2 fields, got %d", len(fields))
	}
	cur, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return Reading{}, fmt.Errorf("parse current: %w", err)
	}
	total, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return Reading{}, fmt.Errorf("parse max: %w", err)
	}
	return Reading{Current: cur, Max: total}, nil
}

// Scanner reads successive readings from an io.Reader.
type Scanner struct {
	sc      *bufio.Scanner
	line    int
	reading Reading
	err     error
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{sc: bufio.NewScanner(r)}
}

// Scan advances to the next reading, skipping blank and comment lines. It
// returns false at end of input or on the first malformed line.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	for s.sc.Scan() {
		s.line++
		text := s.sc.Text()
		reading, err := Parse(text)
		if errors.Is(err, ErrEmptyLine) {
			continue
		}
		if err != nil {
			s.err = &ParseError{Line: s.line, Text: text, Err: err}
			return false
		}
		s.reading = reading
		return true
	}
	if err := s.sc.Err(); err != nil {
		s.err = fmt.Errorf("read feed: %w", err)
	}
	return false
}

// Reading returns the reading produced by the last successful Scan.
func (s *Scanner) Reading() Reading {
	return s.reading
}

// Line returns the number of lines consumed so far.
func (s *Scanner) Line() int {
	return s.line
}

// Err returns the first error encountered, or nil at a clean end of input.
func (s *Scanner) Err() error {
	return s.err
}
