package testutil

import (
	"time"

	"github.com/saucepet/product-research/pkg/contracts/domain"
)

// Empty marks an empty cell in Row
const Empty = -1

// Date parses a 2006-01-02 date in UTC and panics on malformed input
func Date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// Row builds a row for date. Scores equal to Empty become empty cells.
func Row(date string, scores ...int) domain.Row {
	values := make([]domain.Cell, len(scores))
	for i, s := range scores {
		if s != Empty {
			values[i] = domain.Score(s)
		}
	}
	return domain.Row{Date: Date(date), Values: values}
}

// Table builds a table from columns and rows
func Table(columns []string, rows ...domain.Row) *domain.Table {
	return &domain.Table{Columns: columns, Rows: rows}
}

// Weekly builds a table with n weekly rows starting at start. Each column
// scores its index plus the row number.
func Weekly(columns []string, start string, n int) *domain.Table {
	t := &domain.Table{Columns: columns}
	d := Date(start)
	for i := range n {
		values := make([]domain.Cell, len(columns))
		for j := range columns {
			values[j] = domain.Score(j + i)
		}
		t.Rows = append(t.Rows, domain.Row{Date: d.AddDate(0, 0, 7*i), Values: values})
	}
	return t
}
