package session_test

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/landrop/landrop/internal/bus"
	"github.com/landrop/landrop/internal/protocol"
	"github.com/landrop/landrop/internal/session"
)

// acceptSession opens a session for the given files and returns its tokens
// plus the destination directory.
func acceptSession(t *testing.T, allowIDs []string, fileIDs ...string) (*session.Controller, *bus.Bus, map[string]string, string) {
	t.Helper()
	b := bus.New()
	t.Cleanup(b.Close)
	dir := t.TempDir()
	ctrl := session.NewController(b, dir, slog.Default())

	replyOnce(t, b, bus.Allow{FileIDs: allowIDs})
	tokens, err := ctrl.HandleSendRequest(offer(fileIDs...))
	if err != nil {
		t.Fatalf("HandleSendRequest: %v", err)
	}
	drainMessages(t, b)
	return ctrl, b, tokens, dir
}

// drainMessages discards anything already queued for the UI.
func drainMessages(t *testing.T, b *bus.Bus) {
	t.Helper()
	for {
		select {
		case <-b.Messages():
		case <-time.After(50 * time.Millisecond):
			return
		}
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestIngestHappyPath(t *testing.T) {
	ctrl, b, tokens, dir := acceptSession(t, []string{"f1"}, "f1")

	err := ctrl.Ingest(protocol.SendInfo{FileID: "f1", Token: tokens["f1"]}, strings.NewReader("HELLO"))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if got := readFile(t, filepath.Join(dir, "f1.txt")); got != "HELLO" {
		t.Errorf("file content = %q, want HELLO", got)
	}
	if ctrl.Active() {
		t.Error("session should close once its only file finishes")
	}

	// One start event plus per-chunk deltas summing to the file size.
	var sum int64
	sawStart := false
	for {
		select {
		case msg := <-b.Messages():
			fp, ok := msg.(bus.FileProgress)
			if !ok {
				continue
			}
			if fp.Bytes == 0 {
				sawStart = true
				continue
			}
			sum += fp.Bytes
		case <-time.After(100 * time.Millisecond):
			if !sawStart {
				t.Error("no start event published")
			}
			if sum != 5 {
				t.Errorf("progress deltas sum to %d, want 5", sum)
			}
			return
		}
	}
}

func TestIngestTokenMismatch(t *testing.T) {
	ctrl, _, _, dir := acceptSession(t, []string{"f1"}, "f1")

	err := ctrl.Ingest(protocol.SendInfo{FileID: "f1", Token: "wrong"}, strings.NewReader("HELLO"))
	if !errors.Is(err, session.ErrTokenMismatch) {
		t.Fatalf("err = %v, want ErrTokenMismatch", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "f1.txt")); !os.IsNotExist(statErr) {
		t.Error("no file should be created on a token mismatch")
	}
}

func TestIngestUnknownFile(t *testing.T) {
	ctrl, _, _, _ := acceptSession(t, []string{"f1"}, "f1")

	err := ctrl.Ingest(protocol.SendInfo{FileID: "nope", Token: "x"}, strings.NewReader("HELLO"))
	if !errors.Is(err, session.ErrUnknownFile) {
		t.Fatalf("err = %v, want ErrUnknownFile", err)
	}
}

func TestIngestWithoutSession(t *testing.T) {
	ctrl, _ := newTestController(t)

	err := ctrl.Ingest(protocol.SendInfo{FileID: "f1", Token: "x"}, strings.NewReader("HELLO"))
	if !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
}

func TestRenameOnCollision(t *testing.T) {
	ctrl, _, tokens, dir := acceptSession(t, []string{"f1"}, "f1")
	if err := os.WriteFile(filepath.Join(dir, "f1.txt"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := ctrl.Ingest(protocol.SendInfo{FileID: "f1", Token: tokens["f1"]}, strings.NewReader("HELLO"))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if got := readFile(t, filepath.Join(dir, "f1.txt")); got != "old" {
		t.Errorf("existing file was overwritten: %q", got)
	}
	if got := readFile(t, filepath.Join(dir, "f1 (1).txt")); got != "HELLO" {
		t.Errorf("renamed file content = %q, want HELLO", got)
	}
}

// gatedReader yields a prefix, then blocks until released, then reports
// the configured tail result.
type gatedReader struct {
	prefix []byte
	gate   chan struct{}
	tail   error
	done   bool
}

func (r *gatedReader) Read(p []byte) (int, error) {
	if !r.done {
		r.done = true
		return copy(p, r.prefix), nil
	}
	<-r.gate
	return 0, r.tail
}

func TestCancelMidStreamKeepsPartialFile(t *testing.T) {
	ctrl, b, tokens, dir := acceptSession(t, []string{"f1"}, "f1")

	gate := make(chan struct{})
	body := &gatedReader{prefix: []byte("HEL"), gate: gate, tail: io.EOF}

	errCh := make(chan error, 1)
	go func() {
		errCh <- ctrl.Ingest(protocol.SendInfo{FileID: "f1", Token: tokens["f1"]}, body)
	}()

	// Wait until the first chunk is on the wire, then cancel.
	deadline := time.After(5 * time.Second)
	for seen := false; !seen; {
		select {
		case msg := <-b.Messages():
			if fp, ok := msg.(bus.FileProgress); ok && fp.Bytes == 3 {
				seen = true
			}
		case <-deadline:
			t.Fatal("never saw the first chunk")
		}
	}
	if err := ctrl.HandleCancel(); err != nil {
		t.Fatalf("HandleCancel: %v", err)
	}
	close(gate)

	if err := <-errCh; !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession after cancel", err)
	}
	if got := readFile(t, filepath.Join(dir, "f1.txt")); got != "HEL" {
		t.Errorf("partial file = %q, want HEL preserved", got)
	}
}

func TestBodyReadErrorSurfacedAndSessionCloses(t *testing.T) {
	ctrl, b, tokens, dir := acceptSession(t, []string{"f1"}, "f1")

	gate := make(chan struct{})
	close(gate)
	body := &gatedReader{prefix: []byte("HE"), gate: gate, tail: errors.New("connection reset")}

	err := ctrl.Ingest(protocol.SendInfo{FileID: "f1", Token: tokens["f1"]}, body)
	if err == nil {
		t.Fatal("want an error for a broken body read")
	}
	if errors.Is(err, session.ErrNoSession) {
		t.Fatalf("err = %v, should not be ErrNoSession", err)
	}

	if got := readFile(t, filepath.Join(dir, "f1.txt")); got != "HE" {
		t.Errorf("partial file = %q, want HE preserved", got)
	}
	if ctrl.Active() {
		t.Error("single-file session should close even when the file errored")
	}

	// The UI is told the file will never complete its bar.
	deadline := time.After(time.Second)
	for {
		select {
		case msg := <-b.Messages():
			if ff, ok := msg.(bus.FileFailed); ok {
				if ff.FileID != "f1" || ff.Reason == "" {
					t.Errorf("FileFailed = %+v", ff)
				}
				return
			}
		case <-deadline:
			t.Fatal("no FileFailed published for the errored file")
		}
	}
}
