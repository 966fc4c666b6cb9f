package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/sensorable/yoloconv"
)

// renderSkipTable renders the skipped item counts as a two-column table: the error kind, left
// aligned, and the count, right aligned.
func renderSkipTable(kinds []yoloconv.KindCount) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Error", "Count"})

	total := 0
	for _, k := range kinds {
		name := "unknown"
		if k.Kind != nil {
			name = k.Kind.Error()
		}
		tw.AppendRow(table.Row{name, strconv.Itoa(k.Count)})
		total += k.Count
	}
	tw.AppendFooter(table.Row{"Total", strconv.Itoa(total)})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft, AlignFooter: text.AlignRight},
	})
	return tw.Render()
}
