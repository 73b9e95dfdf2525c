// Package bus carries messages between the HTTPS handlers and the UI task.
// Two independent one-way FIFO queues break the lifetime cycle between the
// two sides: neither holds a reference to the other.
package bus

import "github.com/landrop/landrop/internal/protocol"

// ServerMessage flows from the HTTPS handlers to the UI task.
type ServerMessage interface{ serverMessage() }

// SendRequest asks the UI to prompt the user about an incoming offer.
type SendRequest struct {
	Request protocol.SendRequest
}

// FileProgress reports bytes newly written for one file. Bytes is the size
// of the last chunk, not a cumulative total; a Bytes of zero marks the
// start of the file.
type FileProgress struct {
	FileID string
	Bytes  int64
}

// FileFailed reports that a file ended in error and will never complete.
type FileFailed struct {
	FileID string
	Reason string
}

// SessionCancelled tells the UI to tear down any progress display.
type SessionCancelled struct{}

func (SendRequest) serverMessage()      {}
func (FileProgress) serverMessage()     {}
func (FileFailed) serverMessage()       {}
func (SessionCancelled) serverMessage() {}

// ClientMessage flows from the UI task back to the HTTPS handlers.
type ClientMessage interface{ clientMessage() }

// Allow accepts the offer for the listed file ids.
type Allow struct {
	FileIDs []string
}

// Decline rejects the offer outright.
type Decline struct{}

func (Allow) clientMessage()   {}
func (Decline) clientMessage() {}

// Bus is the pair of queues. The UI task is the sole consumer of server
// messages and the sole producer of client messages.
type Bus struct {
	toUI     *queue[ServerMessage]
	toServer *queue[ClientMessage]
}

// New creates a bus with both queues running.
func New() *Bus {
	return &Bus{
		toUI:     newQueue[ServerMessage](),
		toServer: newQueue[ClientMessage](),
	}
}

// Publish enqueues a message for the UI task. It never blocks.
func (b *Bus) Publish(msg ServerMessage) {
	b.toUI.push(msg)
}

// Reply enqueues a user decision for the waiting handler. It never blocks.
func (b *Bus) Reply(msg ClientMessage) {
	b.toServer.push(msg)
}

// Messages is the UI task's receive side.
func (b *Bus) Messages() <-chan ServerMessage {
	return b.toUI.out
}

// Replies is the handlers' receive side. A closed channel reads as a
// missing reply, which callers treat as Decline.
func (b *Bus) Replies() <-chan ClientMessage {
	return b.toServer.out
}

// Close shuts down both queues. Pending messages are still delivered.
func (b *Bus) Close() {
	b.toUI.close()
	b.toServer.close()
}
