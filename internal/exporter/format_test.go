package exporter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/saucepet/product-research/pkg/contracts/domain"
)

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "", formatCell(domain.Cell{}))
	assert.Equal(t, "0", formatCell(domain.Score(0)))
	assert.Equal(t, "100", formatCell(domain.Score(100)))
}

func TestRecords_DailyDates(t *testing.T) {
	table := &domain.Table{
		Columns: []string{"a", "b"},
		Rows: []domain.Row{
			{Date: time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), Values: []domain.Cell{domain.Score(5), {}}},
			{Date: time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC), Values: []domain.Cell{{}, domain.Score(0)}},
		},
	}

	assert.Equal(t, [][]string{
		{"2024-01-07", "5", ""},
		{"2024-01-14", "", "0"},
	}, records(table))
}

func TestRecords_HourlyDates(t *testing.T) {
	table := &domain.Table{
		Columns: []string{"a"},
		Rows: []domain.Row{
			{Date: time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), Values: []domain.Cell{domain.Score(1)}},
			{Date: time.Date(2024, 1, 7, 1, 0, 0, 0, time.UTC), Values: []domain.Cell{domain.Score(2)}},
		},
	}

	assert.Equal(t, [][]string{
		{"2024-01-07 00:00:00", "1"},
		{"2024-01-07 01:00:00", "2"},
	}, records(table))
}

func TestRecords_ShortRowPadded(t *testing.T) {
	table := &domain.Table{
		Columns: []string{"a", "b", "c"},
		Rows:    []domain.Row{{Date: time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), Values: []domain.Cell{domain.Score(1)}}},
	}
	assert.Equal(t, [][]string{{"2024-01-07", "1", "", ""}}, records(table))
}
