package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func TestTable_Header(t *testing.T) {
	table := &Table{Columns: []string{"a", "b"}}
	assert.Equal(t, []string{"date", "a", "b"}, table.Header())
}

func TestTable_DropColumn(t *testing.T) {
	table := &Table{
		Columns: []string{"a", PartialColumn, "b"},
		Rows: []Row{
			{Date: day(1), Values: []Cell{Score(1), Score(0), Score(2)}},
			{Date: day(8), Values: []Cell{Score(3), Score(1), {}}},
		},
	}

	t.Run("drops present column", func(t *testing.T) {
		out := table.DropColumn(PartialColumn)
		assert.Equal(t, []string{"a", "b"}, out.Columns)
		require.Len(t, out.Rows, 2)
		assert.Equal(t, []Cell{Score(1), Score(2)}, out.Rows[0].Values)
		assert.Equal(t, []Cell{Score(3), {}}, out.Rows[1].Values)

		// source untouched
		assert.Len(t, table.Columns, 3)
		assert.Len(t, table.Rows[0].Values, 3)
	})

	t.Run("absent column is a no-op", func(t *testing.T) {
		out := table.DropColumn("missing")
		assert.Same(t, table, out)
	})
}

func TestTable_CloneIsDeep(t *testing.T) {
	table := &Table{
		Columns: []string{"a"},
		Rows:    []Row{{Date: day(1), Values: []Cell{Score(5)}}},
	}
	clone := table.Clone()
	clone.Columns[0] = "z"
	clone.Rows[0].Values[0] = Score(9)

	assert.Equal(t, "a", table.Columns[0])
	assert.Equal(t, Score(5), table.Rows[0].Values[0])
}

func TestTable_SortByDate(t *testing.T) {
	table := &Table{
		Columns: []string{"a"},
		Rows: []Row{
			{Date: day(15), Values: []Cell{Score(3)}},
			{Date: day(1), Values: []Cell{Score(1)}},
			{Date: day(8), Values: []Cell{Score(2)}},
		},
	}
	table.SortByDate()
	assert.Equal(t, day(1), table.Rows[0].Date)
	assert.Equal(t, day(8), table.Rows[1].Date)
	assert.Equal(t, day(15), table.Rows[2].Date)
}

func TestTable_HasTimeOfDay(t *testing.T) {
	daily := &Table{Rows: []Row{{Date: day(1)}, {Date: day(2)}}}
	assert.False(t, daily.HasTimeOfDay())

	hourly := &Table{Rows: []Row{{Date: day(1)}, {Date: day(1).Add(3 * time.Hour)}}}
	assert.True(t, hourly.HasTimeOfDay())
}
