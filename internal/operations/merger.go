package operations

import (
	"fmt"
	"slices"
	"time"

	"github.com/saucepet/product-research/pkg/contracts/domain"
)

// Merge outer-joins tables on their date axis. Columns appear in input order,
// every distinct date gets exactly one row and rows are sorted ascending.
// Cells with no contributing value stay empty. The inputs are not modified.
func Merge(tables []*domain.Table) (*domain.Table, error) {
	if len(tables) == 0 {
		return nil, NewMergeError("no tables to merge")
	}
	for i, t := range tables {
		if t == nil {
			return nil, NewMergeError(fmt.Sprintf("table %d is nil", i))
		}
	}

	// Seeding with an empty table normalizes the first input the same way
	// as the rest: UTC dates and duplicate dates collapsed.
	merged := &domain.Table{}
	for _, t := range tables {
		merged = outerJoin(merged, t)
	}
	merged.SortByDate()
	return merged, nil
}

// outerJoin returns a new table with right's columns appended to left's and
// one row per date present in either side.
func outerJoin(left, right *domain.Table) *domain.Table {
	offset := len(left.Columns)
	out := &domain.Table{
		Columns: append(slices.Clone(left.Columns), right.Columns...),
		Rows:    make([]domain.Row, 0, len(left.Rows)+len(right.Rows)),
	}
	width := len(out.Columns)
	index := make(map[time.Time]int, cap(out.Rows))

	rowFor := func(date time.Time) []domain.Cell {
		key := dateKey(date)
		if i, ok := index[key]; ok {
			return out.Rows[i].Values
		}
		index[key] = len(out.Rows)
		out.Rows = append(out.Rows, domain.Row{Date: key, Values: make([]domain.Cell, width)})
		return out.Rows[len(out.Rows)-1].Values
	}

	for _, r := range left.Rows {
		fill(rowFor(r.Date)[:offset], r.Values)
	}
	for _, r := range right.Rows {
		fill(rowFor(r.Date)[offset:], r.Values)
	}
	return out
}

// fill copies the valid cells of src into dst
func fill(dst, src []domain.Cell) {
	for i := range min(len(dst), len(src)) {
		if src[i].Valid {
			dst[i] = src[i]
		}
	}
}

// dateKey normalizes a date for use as a map key
func dateKey(t time.Time) time.Time {
	return t.UTC().Round(0)
}
