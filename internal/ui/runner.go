package ui

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

// ProgressUI runs a ProgressModel under a bubbletea program so the bars
// animate while file bodies stream. The tracker is safe for concurrent use,
// so progress flows in from the caller's goroutine while the program owns
// the terminal.
type ProgressUI struct {
	program *tea.Program
	tracker *ProgressModel
	wg      sync.WaitGroup
}

// NewProgressUI creates a UI tracking the given files.
func NewProgressUI(files []FileEntry) *ProgressUI {
	return &ProgressUI{tracker: NewProgressModel(files)}
}

// Start launches the program in a goroutine. Inline mode, no alt screen, so
// previous terminal output stays visible.
func (u *ProgressUI) Start() {
	u.program = tea.NewProgram(&liveReceiveModel{tracker: u.tracker})
	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		if _, err := u.program.Run(); err != nil {
			fmt.Printf("UI error: %v\n", err)
		}
	}()
}

// Advance adds delta bytes to the named file.
func (u *ProgressUI) Advance(id string, delta int64) {
	u.tracker.Advance(id, delta)
}

// MarkFailed flags the named file; its bar stops and renders the error icon.
func (u *ProgressUI) MarkFailed(id, errMsg string) {
	u.tracker.MarkError(id, errMsg)
}

// AllComplete reports whether every file is complete or failed.
func (u *ProgressUI) AllComplete() bool {
	return u.tracker.AllComplete()
}

// HasErrors reports whether any file failed.
func (u *ProgressUI) HasErrors() bool {
	return u.tracker.HasErrors()
}

// Files reports how many files are tracked.
func (u *ProgressUI) Files() int {
	return u.tracker.Lines()
}

// Totals returns the transferred and expected byte counts.
func (u *ProgressUI) Totals() (current, total int64) {
	return u.tracker.Totals()
}

// Stop quits the program and waits for the final frame to land.
func (u *ProgressUI) Stop() {
	if u.program != nil {
		u.program.Quit()
	}
	u.wg.Wait()
}

// liveReceiveModel adapts a ProgressModel to the tea.Model interface and
// quits on its own once every bar reached a terminal state.
type liveReceiveModel struct {
	tracker *ProgressModel
}

func (m *liveReceiveModel) Init() tea.Cmd {
	return m.tracker.Init()
}

func (m *liveReceiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case TickMsg:
		if m.tracker.AllComplete() {
			return m, tea.Quit
		}
		tracker, cmd := m.tracker.Update(msg)
		m.tracker = tracker
		return m, cmd

	case progress.FrameMsg:
		tracker, cmd := m.tracker.Update(msg)
		m.tracker = tracker
		return m, cmd
	}

	return m, nil
}

func (m *liveReceiveModel) View() string {
	return m.tracker.View()
}
