package validator

import "fmt"

// Kind classifies a violation.
type Kind string

// Violation kinds.
const (
	// MalformedInput means the card or the configuration could not be parsed.
	// It is always the only violation of a result.
	MalformedInput          Kind = "MalformedInput"
	StructuralViolation     Kind = "StructuralViolation"
	UnknownLabelReference   Kind = "UnknownLabelReference"
	LabelColorMismatch      Kind = "LabelColorMismatch"
	UnknownSegmentReference Kind = "UnknownSegmentReference"
	DisallowedSvgConstruct  Kind = "DisallowedSvgConstruct"
	IdentifierMismatch      Kind = "IdentifierMismatch"
)

// Kinds lists every violation kind in a fixed order.
var Kinds = []Kind{
	MalformedInput,
	StructuralViolation,
	UnknownLabelReference,
	LabelColorMismatch,
	UnknownSegmentReference,
	DisallowedSvgConstruct,
	IdentifierMismatch,
}

// Violation is one rule breach found in a card.
type Violation struct {
	Kind     Kind   `json:"kind" yaml:"kind"`
	Location string `json:"location" yaml:"location"`
	Value    string `json:"value,omitempty" yaml:"value,omitempty"`
	Message  string `json:"message" yaml:"message"`
}

func (v Violation) String() string {
	if v.Value != "" {
		return fmt.Sprintf("%s at %s: %s (%q)", v.Kind, v.Location, v.Message, v.Value)
	}
	return fmt.Sprintf("%s at %s: %s", v.Kind, v.Location, v.Message)
}

// Result is the outcome of validating a card.
type Result struct {
	Accepted   bool        `json:"accepted" yaml:"accepted"`
	Violations []Violation `json:"violations" yaml:"violations"`
}

// Count returns the number of violations of kind k.
func (r Result) Count(k Kind) int {
	n := 0
	for _, v := range r.Violations {
		if v.Kind == k {
			n++
		}
	}
	return n
}

// Malformed builds the result for input that could not be parsed.
func Malformed(location string, err error) Result {
	return Result{
		Accepted: false,
		Violations: []Violation{{
			Kind:     MalformedInput,
			Location: location,
			Message:  err.Error(),
		}},
	}
}

func newResult(violations []Violation) Result {
	if violations == nil {
		violations = []Violation{}
	}
	return Result{Accepted: len(violations) == 0, Violations: violations}
}
