package session

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/landrop/landrop/internal/bus"
	"github.com/landrop/landrop/internal/protocol"
)

// Controller serializes all access to the single optional ReceiveSession.
// The lock is not held across the user-consent round-trip; a pending flag
// reserves the slot instead, and the no-session invariant is re-checked on
// resume.
type Controller struct {
	mu      sync.Mutex
	session *ReceiveSession
	pending bool

	bus     *bus.Bus
	destDir string
	logger  *slog.Logger
}

// NewController creates a controller writing into destDir.
func NewController(b *bus.Bus, destDir string, logger *slog.Logger) *Controller {
	return &Controller{
		bus:     b,
		destDir: destDir,
		logger:  logger,
	}
}

// HandleSendRequest runs the acceptance protocol for one offer: reserve the
// session slot, ask the UI, and on Allow mint one token per accepted file.
// The returned map holds exactly the accepted ids.
func (c *Controller) HandleSendRequest(req protocol.SendRequest) (map[string]string, error) {
	c.mu.Lock()
	if c.session != nil || c.pending {
		c.mu.Unlock()
		return nil, ErrSessionActive
	}
	c.pending = true
	c.mu.Unlock()

	c.bus.Publish(bus.SendRequest{Request: req})
	reply, ok := <-c.bus.Replies()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = false

	if !ok {
		// Bus closed: shutdown counts as a decline.
		return nil, ErrDeclined
	}

	allow, isAllow := reply.(bus.Allow)
	if !isAllow {
		return nil, ErrDeclined
	}

	if err := os.MkdirAll(c.destDir, 0o755); err != nil {
		return nil, newError("create destination directory", err)
	}

	sess := &ReceiveSession{
		Sender:         req.Info,
		Files:          make(map[string]protocol.FileInfo),
		FileStatus:     make(map[string]Status),
		Tokens:         make(map[string]string),
		DestinationDir: c.destDir,
		StartTime:      time.Now(),
		Status:         StatusWaiting,
	}

	tokens := make(map[string]string)
	for _, fileID := range allow.FileIDs {
		info, offered := req.Files[fileID]
		if !offered {
			// Ids the UI invented are skipped silently.
			continue
		}
		token := uuid.NewString()
		sess.Files[fileID] = info
		sess.FileStatus[fileID] = StatusWaiting
		sess.Tokens[fileID] = token
		tokens[fileID] = token
	}

	if len(tokens) == 0 {
		// Accepting none of the offered files is a decline.
		return nil, ErrDeclined
	}

	c.session = sess
	c.logger.Info("session accepted",
		"sender", req.Info.Alias,
		"files", len(tokens),
		"dir", c.destDir)
	return tokens, nil
}

// HandleCancel tears down the session, if any, and tells the UI.
func (c *Controller) HandleCancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ErrNoSession
	}
	c.bus.Publish(bus.SessionCancelled{})
	c.session = nil
	c.logger.Info("session cancelled")
	return nil
}

// Active reports whether a session currently exists.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}
