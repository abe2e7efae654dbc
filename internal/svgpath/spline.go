package svgpath

import "fmt"

// Problem is one breach of the spline grammar.
type Problem struct {
	Command string // offending command, empty for whole-path problems
	Offset  int
	Msg     string
}

func (p Problem) String() string {
	if p.Command == "" {
		return p.Msg
	}
	return fmt.Sprintf("%s (%q at offset %d)", p.Msg, p.Command, p.Offset)
}

// Policy configures CheckSpline.
type Policy struct {
	// MaxSegments bounds the number of curve segments. Zero means DefaultMaxSegments.
	MaxSegments int
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{MaxSegments: DefaultMaxSegments}
}

// allowedCurves are the relative curve commands a spline may use.
var allowedCurves = map[byte]bool{'c': true, 's': true, 'q': true, 't': true}

// CheckSpline returns every grammar problem in d, in path order.
// A nil result means d is a valid spline.
func (p Policy) CheckSpline(d string) []Problem {
	maxSegments := p.MaxSegments
	if maxSegments <= 0 {
		maxSegments = DefaultMaxSegments
	}

	cmds, err := Parse(d)
	if err != nil {
		return []Problem{{Msg: fmt.Sprintf("malformed path data: %v", err)}}
	}
	if len(cmds) == 0 {
		return []Problem{{Msg: "empty path data"}}
	}

	var problems []Problem
	add := func(c Command, msg string) {
		problems = append(problems, Problem{Command: c.String(), Offset: c.Offset, Msg: msg})
	}

	rest := cmds[1:]
	if first := cmds[0]; first.Letter|0x20 != 'm' {
		add(first, "spline must start with a moveto")
		rest = cmds
	}

	segments := 0
	for _, c := range rest {
		lower := c.Letter | 0x20
		switch {
		case lower == 'm':
			add(c, "curve is not continuous")
		case lower == 'z':
			add(c, "curve is closed")
		case lower == 'l' || lower == 'h' || lower == 'v':
			if c.Implicit {
				add(c, "moveto carries extra coordinates, i.e. a straight line")
			} else {
				add(c, "curve contains a straight line")
			}
		case lower == 'a':
			add(c, "curve contains an arc")
		case !allowedCurves[lower]:
			add(c, "command not allowed in a spline")
		case !c.Relative():
			add(c, "curve contains an absolute command")
		default:
			segments++
		}
	}

	if segments == 0 {
		problems = append(problems, Problem{Msg: "spline has no curve segment"})
	}
	if segments > maxSegments {
		problems = append(problems, Problem{Msg: fmt.Sprintf("spline has %d segments, at most %d allowed", segments, maxSegments)})
	}
	return problems
}
