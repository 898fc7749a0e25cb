package main

import (
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// tableColumn describes one column of CLI table output. Numeric columns are
// right-aligned so confidence and signal values line up.
type tableColumn struct {
	header  string
	numeric bool
}

func renderTable(columns []tableColumn, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, 0, len(columns))
	for i, col := range columns {
		header[i] = col.header
		align := text.AlignLeft
		if col.numeric {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	return tw.Render()
}

// confidenceCell renders a correlation confidence with the two-decimal
// precision the daemon reports.
func confidenceCell(confidence float64) string {
	return strconv.FormatFloat(confidence, 'f', 2, 64)
}

// seenCell renders an optional observation timestamp in local time. Live
// candidates carry no timestamp and render empty.
func seenCell(seen *time.Time) string {
	if seen == nil {
		return ""
	}
	return seen.Local().Format("2006-01-02 15:04:05")
}
