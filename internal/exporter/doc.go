// Package exporter writes merged trends tables to flat files.
//
// The output format follows the file extension:
//
//   - .csv and .tsv: a header row "date,<kw1>,<kw2>,..." then one row per date.
//     Empty cells are written as empty fields.
//   - .xlsx: the same layout on a sheet named "trends".
//   - .parquet: a tidy layout with one row per non-empty (date, keyword, score).
//
// Every format is written to a temporary file in the destination directory
// and renamed into place, so a failed write never leaves a partial file.
//
// Example usage:
//
//	writer := exporter.NewWriter(cfg.Output, logger)
//	if err := writer.Write(paths.OutputFile, table); err != nil {
//		return err
//	}
package exporter
