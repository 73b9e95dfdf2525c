package session

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionActive means another sender already holds the session slot.
	ErrSessionActive = errors.New("blocked by another session")
	// ErrDeclined means the user rejected the offer.
	ErrDeclined = errors.New("user declined the request")
	// ErrNoSession means an operation arrived with no session in place.
	ErrNoSession = errors.New("no active session")
	// ErrUnknownFile means the file id was not part of the accepted set.
	ErrUnknownFile = errors.New("unknown file id")
	// ErrTokenMismatch means the echoed token does not match the minted one.
	ErrTokenMismatch = errors.New("token mismatch")
)

// ReceiveError wraps a failure with the operation and file it belongs to.
type ReceiveError struct {
	Op   string
	File string
	Err  error
}

func (e *ReceiveError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.File, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ReceiveError) Unwrap() error {
	return e.Err
}

func newError(op string, err error) *ReceiveError {
	return &ReceiveError{Op: op, Err: err}
}

func newFileError(op, file string, err error) *ReceiveError {
	return &ReceiveError{Op: op, File: file, Err: err}
}
