package exporter

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/saucepet/product-research/pkg/contracts/domain"
)

// Preview renders the last n rows of table as an aligned text table.
// n <= 0 renders every row.
func Preview(out io.Writer, table *domain.Table, n int) {
	rows := records(table)
	skipped := 0
	if n > 0 && len(rows) > n {
		skipped = len(rows) - n
		rows = rows[skipped:]
	}

	tw := tablewriter.NewWriter(out)
	tw.SetHeader(table.Header())
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_RIGHT)
	tw.SetBorder(false)
	if skipped > 0 {
		tw.SetCaption(true, fmt.Sprintf("%d earlier rows not shown", skipped))
	}
	tw.AppendBulk(rows)
	tw.Render()
}
