package export

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Activités"

// WriteXLSX writes rows as a workbook with one sheet, a bold header and
// the header row frozen.
func WriteXLSX(w io.Writer, rows []Row) error {
	if len(rows) == 0 {
		return ErrNoData
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		fields := r.Fields()
		values := make([]interface{}, len(fields))
		for j, v := range fields {
			values[j] = v
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func ToXLSX(rows []Row, path string) error {
	if len(rows) == 0 {
		return ErrNoData
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create xlsx file: %w", err)
	}
	defer out.Close()

	if err := WriteXLSX(out, rows); err != nil {
		return err
	}
	return out.Close()
}
