// Package red defines the closed set of outcomes a lattice reduction can
// report, shared by the LLL, enumeration and BKZ layers. A Status is set at
// the point of detection and propagates upward unchanged; wrapping a *Error
// with fmt.Errorf("...: %w", err) preserves it for StatusOf.
package red

import (
	"errors"
	"fmt"
)

// Status is the outcome of a reduction call.
type Status int

const (
	Success Status = iota
	GSOFailure
	BabaiFailure
	LLLFailure
	EnumFailure
	BKZFailure
	BKZTimeLimit
	BKZLoopsLimit
)

// String returns the description of s. Unknown values map to the generic
// BKZ failure text.
func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case GSOFailure:
		return "infinite number in GSO"
	case BabaiFailure:
		return "infinite loop in babai"
	case LLLFailure:
		return "infinite loop in LLL"
	case EnumFailure:
		return "error in SVP solver"
	case BKZTimeLimit:
		return "time limit exceeded in BKZ"
	case BKZLoopsLimit:
		return "loops limit exceeded in BKZ"
	}
	return "error in BKZ"
}

// IsLimit reports whether s is a limit-exceeded termination. Limit statuses
// are successful partial terminations, not defects.
func (s Status) IsLimit() bool {
	return s == BKZTimeLimit || s == BKZLoopsLimit
}

// Error is an error carrying the Status of the layer that detected it.
type Error struct {
	Status Status
	Msg    string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Status.String()
	}
	return e.Msg
}

// NewError returns an *Error with the given status and formatted message.
func NewError(s Status, format string, args ...interface{}) *Error {
	return &Error{Status: s, Msg: fmt.Sprintf(format, args...)}
}

// StatusOf extracts the Status carried by err. A nil error is Success; an
// error with no embedded *Error is reported as the generic BKZFailure.
func StatusOf(err error) Status {
	if err == nil {
		return Success
	}
	var re *Error
	if errors.As(err, &re) {
		return re.Status
	}
	return BKZFailure
}
