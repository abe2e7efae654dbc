// Package svgpath parses SVG path data and enforces the spline grammar used by
// card drawings.
//
// A spline is a single open curve:
//
//	m x,y  (c|s|q|t relative segments){1,MaxSegments}
//
// The first command is one moveto, absolute or relative, with exactly one
// coordinate pair. Every following segment must be a relative cubic (c, s) or
// quadratic (q, t) Bezier command; implicit repetition ("c ... ... " with twelve
// numbers) counts as two segments. Straight lines (l, h, v), arcs (a), closepath
// (z), further movetos and absolute commands after the first are rejected.
package svgpath

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultMaxSegments bounds the number of curve segments in a spline.
const DefaultMaxSegments = 16

// Command is one path command with its arguments. Implicit repetitions are
// expanded into separate commands sharing the offset of their letter.
type Command struct {
	Letter   byte
	Args     []float64
	Offset   int  // byte offset of the letter in the path data
	Implicit bool // true when the letter was not written, e.g. the l after "m 1,2 3,4"
}

// Relative reports whether the command uses relative coordinates.
func (c Command) Relative() bool {
	return c.Letter >= 'a' && c.Letter <= 'z'
}

func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, string(c.Letter))
	for _, a := range c.Args {
		parts = append(parts, strconv.FormatFloat(a, 'g', -1, 64))
	}
	return strings.Join(parts, " ")
}

// argCounts is the number of arguments per command letter (lowercase).
var argCounts = map[byte]int{
	'm': 2, 'l': 2, 't': 2,
	'h': 1, 'v': 1,
	'c': 6,
	's': 4, 'q': 4,
	'a': 7,
	'z': 0,
}

// Parse splits path data into commands.
func Parse(d string) ([]Command, error) {
	var cmds []Command
	s := &scanner{src: d}

	for {
		s.skipSeparators()
		if s.done() {
			return cmds, nil
		}

		letter := s.peek()
		if !isLetter(letter) {
			return nil, fmt.Errorf("offset %d: expected a command, found %q", s.pos, letter)
		}
		lower := letter | 0x20
		n, ok := argCounts[lower]
		if !ok {
			return nil, fmt.Errorf("offset %d: unknown command %q", s.pos, letter)
		}
		offset := s.pos
		s.pos++

		if n == 0 {
			cmds = append(cmds, Command{Letter: letter, Offset: offset})
			continue
		}

		current := letter
		implicit := false
		for first := true; ; first = false {
			s.skipSeparators()
			if !first && (s.done() || isLetter(s.peek())) {
				break
			}
			args := make([]float64, 0, n)
			for i := 0; i < n; i++ {
				s.skipSeparators()
				v, err := s.number()
				if err != nil {
					return nil, fmt.Errorf("command %q at offset %d: %w", letter, offset, err)
				}
				args = append(args, v)
			}
			cmds = append(cmds, Command{Letter: current, Args: args, Offset: offset, Implicit: implicit})

			// Extra pairs after a moveto are linetos.
			if lower == 'm' {
				if letter == 'm' {
					current = 'l'
				} else {
					current = 'L'
				}
			}
			implicit = true
		}
	}
}

// ParseNumber parses a whole attribute value as one SVG number. Surrounding
// whitespace is ignored. NaN, infinities, hex floats and trailing units are
// rejected.
func ParseNumber(v string) (float64, error) {
	s := &scanner{src: strings.TrimSpace(v)}
	if s.done() {
		return 0, fmt.Errorf("empty number")
	}
	n, err := s.number()
	if err != nil {
		return 0, err
	}
	if !s.done() {
		return 0, fmt.Errorf("%q is not a number", v)
	}
	return n, nil
}

type scanner struct {
	src string
	pos int
}

func (s *scanner) done() bool { return s.pos >= len(s.src) }

func (s *scanner) peek() byte { return s.src[s.pos] }

func (s *scanner) skipSeparators() {
	for !s.done() {
		switch s.peek() {
		case ' ', '\t', '\n', '\r', '\f', ',':
			s.pos++
		default:
			return
		}
	}
}

// number scans an SVG number: sign? digits? ('.' digits)? exponent?
// "1.5.5" yields 1.5 then .5, and "-1-2" yields -1 then -2.
func (s *scanner) number() (float64, error) {
	start := s.pos
	if !s.done() && (s.peek() == '+' || s.peek() == '-') {
		s.pos++
	}
	digits := s.digits()
	if !s.done() && s.peek() == '.' {
		s.pos++
		digits += s.digits()
	}
	if digits == 0 {
		s.pos = start
		if s.done() {
			return 0, fmt.Errorf("missing number at end of data")
		}
		return 0, fmt.Errorf("offset %d: expected a number, found %q", start, s.peek())
	}
	if !s.done() && (s.peek() == 'e' || s.peek() == 'E') {
		mark := s.pos
		s.pos++
		if !s.done() && (s.peek() == '+' || s.peek() == '-') {
			s.pos++
		}
		if s.digits() == 0 {
			// Not an exponent.
			s.pos = mark
		}
	}
	v, err := strconv.ParseFloat(s.src[start:s.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("offset %d: %w", start, err)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("offset %d: %s is out of range", start, s.src[start:s.pos])
	}
	return v, nil
}

func (s *scanner) digits() int {
	n := 0
	for !s.done() && s.peek() >= '0' && s.peek() <= '9' {
		s.pos++
		n++
	}
	return n
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
