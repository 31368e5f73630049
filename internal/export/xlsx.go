// Package export turns Record Browser rows into an xlsx workbook and
// optionally archives each exported workbook in S3.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"intake/internal/core"
)

const (
	// FileName is the download name of every export.
	FileName  = "Portal_Data_v2.xlsx"
	SheetName = "Deposits"
	// ContentType is the xlsx media type.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// WriteXLSX writes rows under the fixed header to w.
func WriteXLSX(w io.Writer, rows []core.ExportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("open stream writer: %w", err)
	}

	header := make([]any, len(core.ExportHeader))
	for i, h := range core.ExportHeader {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, r.Cells()); err != nil {
			return fmt.Errorf("write row %d: %w", r.SrNo, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
