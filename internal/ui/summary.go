package ui

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/landrop/landrop/internal/protocol"
)

// TransferSummary holds the end-of-session stats.
type TransferSummary struct {
	Status    string
	Files     int
	TotalSize string
	Duration  string
	Speed     string
}

// TransferSummaryView renders the stats as a go-pretty table.
func TransferSummaryView(summary TransferSummary) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Status", summary.Status},
		{"Files", summary.Files},
		{"Total Size", summary.TotalSize},
		{"Duration", summary.Duration},
		{"Avg Speed", summary.Speed},
	})
	return t.Render()
}

func RenderTransferSummary(summary TransferSummary) {
	fmt.Println(TransferSummaryView(summary))
}

// DevicesTableView renders the discovered peer table.
func DevicesTableView(devices []protocol.DeviceInfo) string {
	if len(devices) == 0 {
		return MutedStyle.Render("No devices found")
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Alias", "Type", "Model", "Address"})
	for i, d := range devices {
		t.AppendRow(table.Row{
			i + 1,
			d.Alias,
			d.DeviceType,
			d.DeviceModel,
			fmt.Sprintf("%s:%d", d.IP, d.Port),
		})
	}
	return t.Render()
}

func RenderDevicesTable(devices []protocol.DeviceInfo) {
	fmt.Println(DevicesTableView(devices))
}
