package bus

import (
	"testing"
	"time"
)

func recvServer(t *testing.T, b *Bus) ServerMessage {
	t.Helper()
	select {
	case msg, ok := <-b.Messages():
		if !ok {
			t.Fatal("server message channel closed early")
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for server message")
		return nil
	}
}

func TestPublishNeverBlocksWithoutConsumer(t *testing.T) {
	b := New()

	// Far more than any channel buffer; must return promptly.
	for i := range 10_000 {
		b.Publish(FileProgress{FileID: "f1", Bytes: int64(i)})
	}

	for i := range 10_000 {
		msg := recvServer(t, b)
		fp, ok := msg.(FileProgress)
		if !ok {
			t.Fatalf("message %d: got %T, want FileProgress", i, msg)
		}
		if fp.Bytes != int64(i) {
			t.Fatalf("message %d out of order: bytes=%d", i, fp.Bytes)
		}
	}
}

func TestFIFOAcrossMessageKinds(t *testing.T) {
	b := New()

	b.Publish(SendRequest{})
	b.Publish(FileProgress{FileID: "f1", Bytes: 0})
	b.Publish(FileProgress{FileID: "f1", Bytes: 7})
	b.Publish(FileFailed{FileID: "f2", Reason: "disk full"})
	b.Publish(SessionCancelled{})

	if _, ok := recvServer(t, b).(SendRequest); !ok {
		t.Error("first message should be SendRequest")
	}
	for _, want := range []int64{0, 7} {
		fp, ok := recvServer(t, b).(FileProgress)
		if !ok || fp.Bytes != want {
			t.Errorf("expected FileProgress(%d), got %+v", want, fp)
		}
	}
	if ff, ok := recvServer(t, b).(FileFailed); !ok || ff.FileID != "f2" {
		t.Errorf("expected FileFailed for f2, got %+v", ff)
	}
	if _, ok := recvServer(t, b).(SessionCancelled); !ok {
		t.Error("last message should be SessionCancelled")
	}
}

func TestCloseDrainsThenCloses(t *testing.T) {
	b := New()
	b.Reply(Decline{})
	b.Close()

	// The queued reply survives the close.
	reply, ok := <-b.Replies()
	if !ok {
		t.Fatal("pending reply lost on close")
	}
	if _, isDecline := reply.(Decline); !isDecline {
		t.Fatalf("got %T, want Decline", reply)
	}

	if _, ok := <-b.Replies(); ok {
		t.Error("replies channel should be closed after drain")
	}
}

func TestPublishAfterCloseIsNoOp(t *testing.T) {
	b := New()
	b.Close()

	// Must not panic or block.
	b.Publish(SessionCancelled{})
	b.Reply(Decline{})
}
