package exporter

import (
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/saucepet/product-research/pkg/contracts/domain"
)

// Point is one non-empty cell of a table in tidy form
type Point struct {
	Date    string `parquet:"date,dict"`
	Keyword string `parquet:"keyword,dict"`
	Score   int32  `parquet:"score"`
}

// Points flattens table into tidy rows ordered by date then column
func Points(table *domain.Table) []Point {
	layout := dateFormat(table)
	points := make([]Point, 0, len(table.Rows)*len(table.Columns))
	for _, r := range table.Rows {
		date := formatDate(r.Date, layout)
		for j, v := range r.Values {
			if !v.Valid || j >= len(table.Columns) {
				continue
			}
			points = append(points, Point{Date: date, Keyword: table.Columns[j], Score: int32(v.Score)})
		}
	}
	return points
}

// writeParquet writes table in tidy form
func writeParquet(out io.Writer, table *domain.Table) error {
	w := parquet.NewGenericWriter[Point](out)
	if _, err := w.Write(Points(table)); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}
