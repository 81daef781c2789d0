package exporter

import (
	"strconv"
	"time"

	"github.com/saucepet/product-research/pkg/contracts/domain"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// dateFormat picks the layout for table. Hourly timeframes need the time of day.
func dateFormat(table *domain.Table) string {
	if table.HasTimeOfDay() {
		return dateTimeLayout
	}
	return dateLayout
}

// formatDate formats a date in UTC with layout
func formatDate(t time.Time, layout string) string {
	return t.UTC().Format(layout)
}

// formatCell formats a score, or an empty string for an empty cell
func formatCell(c domain.Cell) string {
	if !c.Valid {
		return ""
	}
	return strconv.Itoa(c.Score)
}

// records converts table rows into string records aligned with table.Header()
func records(table *domain.Table) [][]string {
	layout := dateFormat(table)
	out := make([][]string, 0, len(table.Rows))
	for _, r := range table.Rows {
		record := make([]string, 1+len(table.Columns))
		record[0] = formatDate(r.Date, layout)
		for j := range table.Columns {
			if j < len(r.Values) {
				record[j+1] = formatCell(r.Values[j])
			}
		}
		out = append(out, record)
	}
	return out
}
