package main

import (
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"hopper/internal/queue"
)

// renderRunsTable renders interrupted run queues oldest-first. Ages are
// relative to now so tests can pin the clock.
func renderRunsTable(runs []queue.RunInfo, now time.Time) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	tw.AppendHeader(table.Row{"RUN", "FILES", "SIZE", "AGE"})
	for _, run := range runs {
		tw.AppendRow(table.Row{
			run.ID,
			strconv.Itoa(run.Files),
			humanize.Bytes(uint64(run.Size)),
			humanize.RelTime(run.ModTime, now, "ago", "from now"),
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}
