// Package frontend is the UI task: the sole consumer of server messages on
// the coordination bus and the sole producer of user decisions. It prompts
// on incoming offers and hands progress rendering to a bubbletea program
// while bodies stream.
package frontend

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/landrop/landrop/internal/bus"
	"github.com/landrop/landrop/internal/protocol"
	"github.com/landrop/landrop/internal/ui"
	"github.com/landrop/landrop/internal/utils"
)

// Frontend drives the interactive terminal session.
type Frontend struct {
	bus    *bus.Bus
	input  *bufio.Reader
	logger *slog.Logger

	live    *ui.ProgressUI
	started time.Time
}

// New creates a frontend reading decisions from stdin.
func New(b *bus.Bus, logger *slog.Logger) *Frontend {
	return &Frontend{
		bus:    b,
		input:  bufio.NewReader(os.Stdin),
		logger: logger,
	}
}

// Run consumes the bus until it closes or ctx is cancelled. Blocking
// terminal reads happen here, on the UI task, never in an HTTP handler.
func (f *Frontend) Run(ctx context.Context) {
	defer f.stopLive()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-f.bus.Messages():
			if !ok {
				return
			}
			switch m := msg.(type) {
			case bus.SendRequest:
				f.handleOffer(m.Request)
			case bus.FileProgress:
				f.handleProgress(m)
			case bus.FileFailed:
				f.handleFailed(m)
			case bus.SessionCancelled:
				f.handleCancelled()
			}
		}
	}
}

// handleOffer shows the offer, asks the user, and replies on the bus.
func (f *Frontend) handleOffer(req protocol.SendRequest) {
	files := sortedFiles(req.Files)

	fmt.Println()
	ui.PrintInfof("%s %s wants to send you %d file(s)",
		ui.IconPeer, req.Info.Alias, len(files))

	items := make([]ui.FileTableItem, len(files))
	for i, file := range files {
		items[i] = ui.FileTableItem{
			Index: i + 1,
			Name:  file.FileName,
			Size:  file.Size,
			Type:  string(file.FileType),
		}
	}
	ui.RenderFileTable(items)

	accepted := f.promptConsent(files)
	if len(accepted) == 0 {
		f.bus.Reply(bus.Decline{})
		ui.PrintWarning("Declined")
		return
	}

	ids := make([]string, 0, len(accepted))
	entries := make([]ui.FileEntry, 0, len(accepted))
	for _, file := range accepted {
		ids = append(ids, file.ID)
		entries = append(entries, ui.FileEntry{
			ID:   file.ID,
			Name: file.FileName,
			Size: file.Size,
		})
	}

	f.bus.Reply(bus.Allow{FileIDs: ids})
	fmt.Println()
	f.live = ui.NewProgressUI(entries)
	f.started = time.Now()
	f.live.Start()
}

// promptConsent reads one decision: empty or "y" accepts everything, "n"
// declines, and a comma-separated index list picks a subset.
func (f *Frontend) promptConsent(files []protocol.FileInfo) []protocol.FileInfo {
	fmt.Printf("\n%s Receive these files? [Y/n, or indices like 1,3] ", "❓")

	line, err := f.input.ReadString('\n')
	if err != nil && err != io.EOF {
		f.logger.Debug("read consent", "err", err)
		return nil
	}
	line = strings.TrimSpace(line)

	switch strings.ToLower(line) {
	case "", "y", "yes":
		return files
	case "n", "no":
		return nil
	}

	var picked []protocol.FileInfo
	for _, tok := range strings.Split(line, ",") {
		idx, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil || idx < 1 || idx > len(files) {
			continue
		}
		picked = append(picked, files[idx-1])
	}
	return picked
}

func (f *Frontend) handleProgress(m bus.FileProgress) {
	if f.live == nil {
		return
	}
	f.live.Advance(m.FileID, m.Bytes)

	if f.live.AllComplete() {
		f.finish()
	}
}

func (f *Frontend) handleFailed(m bus.FileFailed) {
	if f.live == nil {
		return
	}
	f.live.MarkFailed(m.FileID, m.Reason)

	if f.live.AllComplete() {
		f.finish()
	}
}

func (f *Frontend) finish() {
	live := f.live
	f.live = nil
	live.Stop()

	current, total := live.Totals()
	elapsed := time.Since(f.started)
	seconds := elapsed.Seconds()
	var speed float64
	if seconds > 0 {
		speed = float64(current) / seconds
	}

	status := ui.IconComplete + " Complete"
	if live.HasErrors() {
		status = ui.IconWarning + " Completed with errors"
	}

	fmt.Println()
	ui.RenderTransferSummary(ui.TransferSummary{
		Status:    status,
		Files:     live.Files(),
		TotalSize: utils.FormatSize(total),
		Duration:  utils.FormatTimeDuration(elapsed),
		Speed:     utils.FormatSpeed(speed),
	})
}

func (f *Frontend) handleCancelled() {
	if f.live == nil {
		return
	}
	f.stopLive()
	fmt.Println()
	ui.PrintWarning("Transfer cancelled by sender")
}

// stopLive tears down any running progress program.
func (f *Frontend) stopLive() {
	if f.live == nil {
		return
	}
	f.live.Stop()
	f.live = nil
}

// sortedFiles orders an offer map for stable display.
func sortedFiles(files map[string]protocol.FileInfo) []protocol.FileInfo {
	out := make([]protocol.FileInfo, 0, len(files))
	for _, f := range files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FileName < out[j].FileName })
	return out
}
