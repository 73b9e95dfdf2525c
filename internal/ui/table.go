package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/landrop/landrop/internal/utils"
)

// FileTableItem represents one offered file in the consent table.
type FileTableItem struct {
	Index int
	Name  string
	Size  int64
	Type  string
}

// FileTable renders the incoming offer using lipgloss/table
type FileTable struct {
	items []FileTableItem
}

// NewFileTable creates a new file table
func NewFileTable(items []FileTableItem) *FileTable {
	return &FileTable{items: items}
}

// View renders the table as a string
func (t *FileTable) View() string {
	if len(t.items) == 0 {
		return MutedStyle.Render("No files")
	}

	headers := []string{"#", "Name", "Size", "Type"}

	var rows [][]string
	for _, item := range t.items {
		rows = append(rows, []string{
			fmt.Sprintf("%d", item.Index),
			utils.TruncateString(item.Name, 50),
			utils.FormatSize(item.Size),
			utils.TruncateString(item.Type, 20),
		})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		})

	return tbl.Render()
}

// Render outputs the table directly to stdout
func (t *FileTable) Render() {
	fmt.Println(t.View())
}

func RenderFileTable(items []FileTableItem) {
	fmt.Println(NewFileTable(items).View())
}
