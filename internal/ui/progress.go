package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/landrop/landrop/internal/utils"
)

// ProgressItem tracks one file's transfer progress.
type ProgressItem struct {
	ID         string
	Name       string
	Total      int64
	Current    int64
	StartTime  time.Time
	Started    bool    // timing starts on the first byte, not at creation
	Speed      float64 // bytes per second
	IsComplete bool
	HasError   bool
	ErrorMsg   string
}

// ProgressModel renders one bar per file, addressed by file id.
type ProgressModel struct {
	items      []*ProgressItem
	progresses []progress.Model
	index      map[string]int
	mu         sync.RWMutex
}

// FileEntry names one file to track.
type FileEntry struct {
	ID   string
	Name string
	Size int64
}

// NewProgressModel creates a multi-file progress model.
func NewProgressModel(files []FileEntry) *ProgressModel {
	items := make([]*ProgressItem, len(files))
	progresses := make([]progress.Model, len(files))
	index := make(map[string]int, len(files))

	for i, f := range files {
		items[i] = &ProgressItem{
			ID:    f.ID,
			Name:  f.Name,
			Total: f.Size,
		}
		index[f.ID] = i

		progresses[i] = progress.New(
			progress.WithGradient(ProgressStart, ProgressEnd),
			progress.WithWidth(30),
			progress.WithoutPercentage(),
		)
	}

	return &ProgressModel{
		items:      items,
		progresses: progresses,
		index:      index,
	}
}

func (m *ProgressModel) Init() tea.Cmd {
	return tickCmd()
}

// TickMsg is sent periodically to update the progress display
type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Advance adds delta bytes to the named file's progress.
func (m *ProgressModel) Advance(id string, delta int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[id]
	if !ok {
		return
	}
	item := m.items[i]
	if !item.Started && delta > 0 {
		item.Started = true
		item.StartTime = time.Now()
	}
	item.Current += delta
	if item.Started {
		elapsed := time.Since(item.StartTime).Seconds()
		if elapsed > 0 {
			item.Speed = float64(item.Current) / elapsed
		}
	}
	if item.Current >= item.Total {
		item.IsComplete = true
	}
}

// MarkError flags the named file as failed.
func (m *ProgressModel) MarkError(id, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i, ok := m.index[id]; ok {
		m.items[i].HasError = true
		m.items[i].ErrorMsg = errMsg
	}
}

// AllComplete returns true once every file is complete or failed.
func (m *ProgressModel) AllComplete() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, item := range m.items {
		if !item.IsComplete && !item.HasError {
			return false
		}
	}
	return true
}

// HasErrors returns true if any file failed.
func (m *ProgressModel) HasErrors() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, item := range m.items {
		if item.HasError {
			return true
		}
	}
	return false
}

// Lines reports how many terminal lines View occupies.
func (m *ProgressModel) Lines() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *ProgressModel) Update(msg tea.Msg) (*ProgressModel, tea.Cmd) {
	switch msg := msg.(type) {
	case TickMsg:
		if !m.AllComplete() {
			return m, tickCmd()
		}
		return m, nil

	case progress.FrameMsg:
		var cmds []tea.Cmd
		for i := range m.progresses {
			newModel, cmd := m.progresses[i].Update(msg)
			m.progresses[i] = newModel.(progress.Model)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *ProgressModel) View() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var b strings.Builder

	for i, item := range m.items {
		var icon string
		var nameStyle lipgloss.Style

		switch {
		case item.HasError:
			icon = IconError
			nameStyle = ErrorStyle
		case item.IsComplete:
			icon = IconSuccess
			nameStyle = SuccessStyle
		default:
			icon = IconFile
			nameStyle = lipgloss.NewStyle()
		}

		name := utils.TruncateString(item.Name, 30)
		b.WriteString(fmt.Sprintf("%s %s ", icon, nameStyle.Render(name)))

		if item.Total > 0 {
			percent := float64(item.Current) / float64(item.Total)
			b.WriteString(m.progresses[i].ViewAs(percent))
			b.WriteString(fmt.Sprintf(" %5.1f%%", percent*100))
		}

		if !item.IsComplete && !item.HasError && item.Speed > 0 {
			b.WriteString(MutedStyle.Render(" " + utils.FormatSpeed(item.Speed)))
		}

		b.WriteString(MutedStyle.Render(fmt.Sprintf(" (%s/%s)",
			utils.FormatSize(item.Current),
			utils.FormatSize(item.Total))))

		b.WriteString("\n")
	}

	return b.String()
}

// Totals returns the transferred and expected byte counts.
func (m *ProgressModel) Totals() (current, total int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, item := range m.items {
		current += item.Current
		total += item.Total
	}
	return current, total
}
