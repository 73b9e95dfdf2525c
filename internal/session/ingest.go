package session

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/landrop/landrop/internal/bus"
	"github.com/landrop/landrop/internal/protocol"
	"github.com/landrop/landrop/internal/utils"
)

// chunkSize is the read granularity of the ingestion loop. Each successful
// chunk raises one progress event.
const chunkSize = 16 * 1024

// Ingest streams one file body to disk. The lock is held only for the
// pre-flight checks and the post-flight bookkeeping, never across the
// network read loop.
func (c *Controller) Ingest(info protocol.SendInfo, body io.Reader) error {
	// Pre-flight, under lock.
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return ErrNoSession
	}
	c.bus.Publish(bus.FileProgress{FileID: info.FileID, Bytes: 0})

	file, known := c.session.Files[info.FileID]
	if !known {
		c.mu.Unlock()
		return newFileError("ingest", info.FileID, ErrUnknownFile)
	}
	if c.session.Tokens[info.FileID] != info.Token {
		c.mu.Unlock()
		return newFileError("ingest", file.FileName, ErrTokenMismatch)
	}

	c.session.Status = StatusReceiving
	c.session.FileStatus[info.FileID] = StatusReceiving
	path := utils.UniquePath(filepath.Join(c.session.DestinationDir, file.FileName))
	c.mu.Unlock()

	streamErr := c.stream(info.FileID, path, body)

	// Post-flight, under lock. A concurrent cancel may have dropped the
	// session while we streamed.
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return newFileError("ingest", file.FileName, ErrNoSession)
	}

	status := StatusFinished
	if streamErr != nil {
		status = StatusFinishedWithErrors
		c.bus.Publish(bus.FileFailed{FileID: info.FileID, Reason: streamErr.Error()})
		c.logger.Warn("file finished with errors", "file", file.FileName, "err", streamErr)
	}
	c.session.FileStatus[info.FileID] = status

	if c.session.allFinished() {
		c.session.Status = StatusFinished
		for _, st := range c.session.FileStatus {
			if st == StatusFinishedWithErrors {
				c.session.Status = StatusFinishedWithErrors
				break
			}
		}
		elapsed := time.Since(c.session.StartTime)
		c.logger.Info("session finished",
			"status", c.session.Status.String(),
			"elapsed", elapsed)
		c.session = nil
	}

	// A broken body read means the sender is gone; surface it. Local disk
	// trouble is already recorded in the file status and the partial file
	// stays on disk.
	if streamErr != nil && errors.Is(streamErr, errBodyRead) {
		return streamErr
	}
	return nil
}

// errBodyRead tags network-side read failures apart from disk-side ones.
var errBodyRead = errors.New("read request body")

// stream copies body to path in fixed-size chunks, raising one progress
// event per chunk. Partial files are never deleted.
func (c *Controller) stream(fileID, path string, body io.Reader) error {
	out, err := os.Create(path)
	if err != nil {
		return newFileError("create", path, err)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	// Flush on every exit path: bytes already received stay on disk even
	// when the stream breaks mid-transfer.
	defer w.Flush()
	buf := make([]byte, chunkSize)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				return newFileError("write", path, writeErr)
			}
			c.bus.Publish(bus.FileProgress{FileID: fileID, Bytes: int64(n)})
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return newFileError("read", path, errors.Join(errBodyRead, readErr))
		}
	}
	if err := w.Flush(); err != nil {
		return newFileError("flush", path, err)
	}
	return nil
}
