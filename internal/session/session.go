// Package session owns the at-most-one active receive session: the
// acceptance round-trip with the UI, per-file capability tokens, and the
// streamed ingestion of file bodies.
package session

import (
	"time"

	"github.com/landrop/landrop/internal/protocol"
)

// Status tracks a file or the session as a whole.
type Status int

const (
	StatusWaiting Status = iota
	StatusReceiving
	StatusFinished
	StatusFinishedWithErrors
)

func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusReceiving:
		return "receiving"
	case StatusFinished:
		return "finished"
	case StatusFinishedWithErrors:
		return "finished-with-errors"
	default:
		return "unknown"
	}
}

// terminal reports whether no further transitions are possible.
func (s Status) terminal() bool {
	return s == StatusFinished || s == StatusFinishedWithErrors
}

// ReceiveSession is the authoritative record for one sender's transfer
// attempt. Files, FileStatus and Tokens always hold exactly the accepted
// subset of the offer, under the same keys.
type ReceiveSession struct {
	Sender         protocol.DeviceInfo
	Files          map[string]protocol.FileInfo
	FileStatus     map[string]Status
	Tokens         map[string]string
	DestinationDir string
	StartTime      time.Time
	Status         Status
}

// allFinished reports whether every accepted file reached a terminal state.
func (s *ReceiveSession) allFinished() bool {
	for _, st := range s.FileStatus {
		if !st.terminal() {
			return false
		}
	}
	return true
}
