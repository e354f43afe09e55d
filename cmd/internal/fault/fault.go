// Package fault defines the error taxonomy shared by the fenster backend:
// NotFound, Conflict, Unauthorized, and Internal.
//
// Internal errors carry a subsystem + sequence pair that renders to a stable
// numeric correlation code. The code is the only detail ever shown to a
// client; the original cause stays server-side (logs only).
package fault

import (
	"errors"
	"fmt"
)

// Sentinel kinds (stable for errors.Is and for mapping to HTTP status codes).
var (
	ErrNotFound     = errors.New("not_found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal")
)

// Correlation code bases per subsystem. Values are load-bearing: support
// tooling matches on them, so they must never be renumbered.
const (
	SubsystemGeneral  uint16 = 111
	SubsystemPostgres uint16 = 222
	SubsystemCodec    uint16 = 333
	SubsystemRedis    uint16 = 444
)

// Error is a typed operation error with a stable Op + Kind contract.
// Msg may include human-readable context; never secrets or store internals.
type Error struct {
	Op   string
	Kind error
	Msg  string

	// Subsystem and Seq are set for Internal errors only and combine into
	// the user-facing correlation code.
	Subsystem uint16
	Seq       uint16

	// Err is the original cause. Logged, never serialized to clients.
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Msg)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Code returns the numeric correlation code (subsystem*10 + seq),
// or 0 when the error carries no subsystem.
func (e *Error) Code() int {
	if e.Subsystem == 0 {
		return 0
	}
	return int(e.Subsystem)*10 + int(e.Seq)
}

// Internal wraps a subsystem failure (store unreachable, serialization,
// clock read) into an opaque Internal error with a correlation code.
func Internal(subsystem, seq uint16, op string, cause error) *Error {
	return &Error{Op: op, Kind: ErrInternal, Subsystem: subsystem, Seq: seq, Err: cause}
}

// Unauthorized reports a failed authentication (unknown token, expired
// token, password mismatch).
func Unauthorized(op, msg string) *Error {
	return &Error{Op: op, Kind: ErrUnauthorized, Msg: msg}
}

// NotFound reports a missing referenced entity.
func NotFound(op, msg string) *Error {
	return &Error{Op: op, Kind: ErrNotFound, Msg: msg}
}

// Conflict reports a uniqueness violation.
func Conflict(op, msg string) *Error {
	return &Error{Op: op, Kind: ErrConflict, Msg: msg}
}

// CodeOf extracts the correlation code from err, or 0 when err carries none.
func CodeOf(err error) int {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code()
	}
	return 0
}
