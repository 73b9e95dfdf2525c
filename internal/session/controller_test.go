package session_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/landrop/landrop/internal/bus"
	"github.com/landrop/landrop/internal/protocol"
	"github.com/landrop/landrop/internal/session"
)

// newTestController wires a controller to a fresh bus and temp directory.
func newTestController(t *testing.T) (*session.Controller, *bus.Bus) {
	t.Helper()
	b := bus.New()
	t.Cleanup(b.Close)
	return session.NewController(b, t.TempDir(), slog.Default()), b
}

// offer builds a SendRequest carrying the given file ids, 5 bytes each.
func offer(ids ...string) protocol.SendRequest {
	files := make(map[string]protocol.FileInfo, len(ids))
	for _, id := range ids {
		files[id] = protocol.FileInfo{
			ID:       id,
			Size:     5,
			FileName: id + ".txt",
			FileType: protocol.FileTypeText,
		}
	}
	return protocol.SendRequest{
		Info:  protocol.DeviceInfo{Alias: "peer", DeviceType: "mobile"},
		Files: files,
	}
}

// replyOnce consumes the next SendRequest on the bus and answers it.
func replyOnce(t *testing.T, b *bus.Bus, reply bus.ClientMessage) {
	t.Helper()
	go func() {
		select {
		case <-b.Messages():
			b.Reply(reply)
		case <-time.After(5 * time.Second):
		}
	}()
}

func TestSendRequestDeclined(t *testing.T) {
	ctrl, b := newTestController(t)
	replyOnce(t, b, bus.Decline{})

	_, err := ctrl.HandleSendRequest(offer("f1"))
	if !errors.Is(err, session.ErrDeclined) {
		t.Fatalf("err = %v, want ErrDeclined", err)
	}
	if ctrl.Active() {
		t.Error("no session should exist after a decline")
	}
}

func TestAllowMintsOneTokenPerAcceptedFile(t *testing.T) {
	ctrl, b := newTestController(t)
	// "ghost" was never offered and must be skipped silently.
	replyOnce(t, b, bus.Allow{FileIDs: []string{"f1", "f3", "ghost"}})

	tokens, err := ctrl.HandleSendRequest(offer("f1", "f2", "f3"))
	if err != nil {
		t.Fatalf("HandleSendRequest: %v", err)
	}

	if len(tokens) != 2 {
		t.Fatalf("want tokens for exactly f1 and f3, got %v", tokens)
	}
	seen := make(map[string]bool)
	for _, id := range []string{"f1", "f3"} {
		tok, ok := tokens[id]
		if !ok {
			t.Fatalf("missing token for %s", id)
		}
		if _, err := uuid.Parse(tok); err != nil {
			t.Errorf("token for %s is not a UUID: %q", id, tok)
		}
		if seen[tok] {
			t.Errorf("token %q reused", tok)
		}
		seen[tok] = true
	}
	if !ctrl.Active() {
		t.Error("session should exist after an allow")
	}
}

func TestAllowWithNoValidFilesIsDecline(t *testing.T) {
	ctrl, b := newTestController(t)
	replyOnce(t, b, bus.Allow{FileIDs: []string{"ghost"}})

	_, err := ctrl.HandleSendRequest(offer("f1"))
	if !errors.Is(err, session.ErrDeclined) {
		t.Fatalf("err = %v, want ErrDeclined", err)
	}
	if ctrl.Active() {
		t.Error("no session should exist")
	}
}

func TestSecondRequestBlockedWhilePending(t *testing.T) {
	ctrl, b := newTestController(t)

	firstSeen := make(chan struct{})
	release := make(chan struct{})
	go func() {
		<-b.Messages()
		close(firstSeen)
		<-release
		b.Reply(bus.Allow{FileIDs: []string{"f1"}})
	}()

	firstErr := make(chan error, 1)
	go func() {
		_, err := ctrl.HandleSendRequest(offer("f1"))
		firstErr <- err
	}()

	<-firstSeen
	// The first request is still waiting on the user; the slot is taken.
	_, err := ctrl.HandleSendRequest(offer("f2"))
	if !errors.Is(err, session.ErrSessionActive) {
		t.Fatalf("second request: err = %v, want ErrSessionActive", err)
	}

	close(release)
	if err := <-firstErr; err != nil {
		t.Fatalf("first request: %v", err)
	}
}

func TestRequestBlockedWhileSessionActive(t *testing.T) {
	ctrl, b := newTestController(t)
	replyOnce(t, b, bus.Allow{FileIDs: []string{"f1"}})

	if _, err := ctrl.HandleSendRequest(offer("f1")); err != nil {
		t.Fatalf("first request: %v", err)
	}

	_, err := ctrl.HandleSendRequest(offer("f2"))
	if !errors.Is(err, session.ErrSessionActive) {
		t.Fatalf("err = %v, want ErrSessionActive", err)
	}
}

func TestCancelWithoutSession(t *testing.T) {
	ctrl, _ := newTestController(t)

	if err := ctrl.HandleCancel(); !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
}

func TestCancelClearsSessionAndNotifiesUI(t *testing.T) {
	ctrl, b := newTestController(t)
	replyOnce(t, b, bus.Allow{FileIDs: []string{"f1"}})

	if _, err := ctrl.HandleSendRequest(offer("f1")); err != nil {
		t.Fatalf("HandleSendRequest: %v", err)
	}

	if err := ctrl.HandleCancel(); err != nil {
		t.Fatalf("HandleCancel: %v", err)
	}
	if ctrl.Active() {
		t.Error("session should be gone after cancel")
	}

	select {
	case msg := <-b.Messages():
		if _, ok := msg.(bus.SessionCancelled); !ok {
			t.Errorf("got %T, want SessionCancelled", msg)
		}
	case <-time.After(time.Second):
		t.Error("no SessionCancelled published")
	}

	// A second cancel has nothing to tear down.
	if err := ctrl.HandleCancel(); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("second cancel: err = %v, want ErrNoSession", err)
	}
}

func TestClosedBusTreatedAsDecline(t *testing.T) {
	b := bus.New()
	ctrl := session.NewController(b, t.TempDir(), slog.Default())
	b.Close()

	_, err := ctrl.HandleSendRequest(offer("f1"))
	if !errors.Is(err, session.ErrDeclined) {
		t.Fatalf("err = %v, want ErrDeclined", err)
	}
}
