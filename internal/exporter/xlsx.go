package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/saucepet/product-research/pkg/contracts/domain"
)

// SheetName is the worksheet that holds the table
const SheetName = "trends"

// writeXLSX writes table as a workbook with a single sheet
func writeXLSX(out io.Writer, table *domain.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := table.Header()
	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &row); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	layout := dateFormat(table)
	for i, r := range table.Rows {
		excelRow := i + 2
		cell, err := excelize.CoordinatesToCellName(1, excelRow)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(SheetName, cell, formatDate(r.Date, layout)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}

		for j, v := range r.Values {
			if !v.Valid || j >= len(table.Columns) {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+2, excelRow)
			if err != nil {
				return err
			}
			if err := f.SetCellInt(SheetName, cell, int64(v.Score)); err != nil {
				return fmt.Errorf("failed to write row %d: %w", i, err)
			}
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	return f.Write(out)
}
