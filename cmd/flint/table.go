package main

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

func renderTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader(header)
	table.AppendBulk(rows)
	table.Render()
	suffix := "s"
	if len(rows) == 1 {
		suffix = ""
	}
	fmt.Fprintf(w, "(%d row%s)\n", len(rows), suffix)
}
