package domain

import (
	"slices"
	"time"
)

// PartialColumn is the indicator column the upstream source appends when the
// most recent period is still incomplete.
const PartialColumn = "isPartial"

// DateColumn is the header name of the shared time axis.
const DateColumn = "date"

// Keyword is a single search term. Keywords are passed through verbatim,
// duplicates included.
type Keyword = string

// Batch is an ordered, non-empty group of keywords fetched in one request
type Batch []Keyword

// QueryParams holds the per-request filters sent alongside a batch
type QueryParams struct {
	Geo       string `json:"geo" yaml:"geo"`
	Timeframe string `json:"timeframe" yaml:"timeframe" validate:"required"`
	Category  int    `json:"cat" yaml:"category" validate:"min=0"`
	Property  string `json:"gprop" yaml:"property" validate:"omitempty,oneof=images news youtube froogle"`
}

// Cell is a single interest score. A cell that is not Valid is empty.
type Cell struct {
	Score int
	Valid bool
}

// Score returns a valid cell holding v
func Score(v int) Cell {
	return Cell{Score: v, Valid: true}
}

// Row is one point on the time axis with values aligned to Table.Columns
type Row struct {
	Date   time.Time
	Values []Cell
}

// Table is a date-keyed time series with one value column per keyword.
// It represents both a single batch response and the merged result.
type Table struct {
	Columns []string
	Rows    []Row
}

// Header returns the output header: the date column followed by every value column.
func (t *Table) Header() []string {
	header := make([]string, 0, len(t.Columns)+1)
	header = append(header, DateColumn)
	return append(header, t.Columns...)
}

// ColumnIndex returns the position of name in Columns, or -1
func (t *Table) ColumnIndex(name string) int {
	return slices.Index(t.Columns, name)
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: slices.Clone(t.Columns),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		out.Rows[i] = Row{Date: r.Date, Values: slices.Clone(r.Values)}
	}
	return out
}

// DropColumn returns a copy of the table without the named column.
// The table is returned unchanged when the column is absent.
func (t *Table) DropColumn(name string) *Table {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return t
	}
	out := &Table{
		Columns: slices.Delete(slices.Clone(t.Columns), idx, idx+1),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		values := slices.Clone(r.Values)
		if idx < len(values) {
			values = slices.Delete(values, idx, idx+1)
		}
		out.Rows[i] = Row{Date: r.Date, Values: values}
	}
	return out
}

// SortByDate orders rows by date ascending in place
func (t *Table) SortByDate() {
	slices.SortStableFunc(t.Rows, func(a, b Row) int {
		return a.Date.Compare(b.Date)
	})
}

// HasTimeOfDay reports whether any row carries a time component, which
// happens for hourly timeframes such as "now 7-d".
func (t *Table) HasTimeOfDay() bool {
	for _, r := range t.Rows {
		d := r.Date.UTC()
		if d.Hour() != 0 || d.Minute() != 0 || d.Second() != 0 {
			return true
		}
	}
	return false
}
