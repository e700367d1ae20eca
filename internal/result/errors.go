package result

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can tell tool problems apart from
// problems with the files the tool produced.
type Kind int

const (
	// ExternalTool means the audit binary was missing or exited non-zero.
	ExternalTool Kind = iota + 1
	// IO means a result file could not be opened or read.
	IO
	// Parse means a result file was not valid JSON.
	Parse
	// Schema means a structurally required field had the wrong shape.
	Schema
)

func (k Kind) String() string {
	switch k {
	case ExternalTool:
		return "external tool failure"
	case IO:
		return "io failure"
	case Parse:
		return "parse failure"
	case Schema:
		return "schema violation"
	default:
		return "unknown failure"
	}
}

// Error is returned by the runner and the aggregator. Path names the result
// file involved; Run is the 1-based iteration, or 0 when not applicable.
type Error struct {
	Kind Kind
	Path string
	Run  int
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Run > 0 {
		msg += fmt.Sprintf(" (run %d)", e.Run)
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether any error in err's chain is a *Error of kind k.
func IsKind(err error, k Kind) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind == k
	}
	return false
}
