package rethinkbench

import (
	"fmt"
)

type StatusType uint8

const (
	StatusOK StatusType = 1 + iota
	StatusError
	StatusNotFound
	StatusNotImplemented
	StatusUnexpectedState
	StatusBadRequest
)

func (self StatusType) String() string {
	switch self {
	case StatusOK:
		return "OK"
	case StatusError:
		return "ERROR"
	case StatusNotFound:
		return "NOT_FOUND"
	case StatusNotImplemented:
		return "NOT_IMPLEMENTED"
	case StatusUnexpectedState:
		return "UNEXPECTED_STATE"
	case StatusBadRequest:
		return "BAD_REQUEST"
	default:
		return "UNKNOWN_STATUS"
	}
}

// Status is the outcome of a single database operation. Non-OK outcomes
// other than NotFound carry the underlying cause, so a failure is never
// reduced to a bare code on its way back to the harness.
type Status struct {
	Type  StatusType
	cause error
}

func OK() Status {
	return Status{Type: StatusOK}
}

func NotFound() Status {
	return Status{Type: StatusNotFound}
}

func Errored(cause error) Status {
	return Status{Type: StatusError, cause: cause}
}

func BadRequest(cause error) Status {
	return Status{Type: StatusBadRequest, cause: cause}
}

// Unexpected marks an operation that the store acknowledged without error
// but whose applied count disagrees with the request.
func Unexpected(cause error) Status {
	return Status{Type: StatusUnexpectedState, cause: cause}
}

func (self Status) IsOK() bool {
	return self.Type == StatusOK
}

func (self Status) Cause() error {
	return self.cause
}

func (self Status) String() string {
	if self.cause != nil {
		return fmt.Sprintf("%s: %s", self.Type, self.cause)
	}
	return self.Type.String()
}
