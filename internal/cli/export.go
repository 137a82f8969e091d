package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/anggaran/internal/model"
)

// Sheet names of the XLSX export.
const (
	SummarySheet = "Ringkasan"
	DetailSheet  = "Rincian"
)

// DetailHeader is the column order of the budget detail sheet.
var DetailHeader = []string{"Kode", "Sub Kegiatan", "Status", "Total", "Alokasi", "Perlu Dipilih"}

// WriteCSV writes the export header followed by rows.
func WriteCSV(w io.Writer, rows []model.ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.ExportHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.Record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a workbook with the summary rows and, when details is
// non-empty, a sheet listing each budget.
func WriteXLSX(w io.Writer, period string, rows []model.ExportRow, details []model.BudgetDetail) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	if err := f.SetCellValue(SummarySheet, "A1", "Periode"); err != nil {
		return err
	}
	if err := f.SetCellValue(SummarySheet, "B1", period); err != nil {
		return err
	}
	if err := writeSheetRow(f, SummarySheet, 3, model.ExportHeader); err != nil {
		return err
	}
	for i, r := range rows {
		if err := writeSheetRow(f, SummarySheet, i+4, r.Record()); err != nil {
			return err
		}
	}

	if len(details) > 0 {
		if _, err := f.NewSheet(DetailSheet); err != nil {
			return fmt.Errorf("adding sheet: %w", err)
		}
		if err := writeSheetRow(f, DetailSheet, 1, DetailHeader); err != nil {
			return err
		}
		for i, d := range details {
			cells := []string{
				d.FullCode,
				d.SubActivityName,
				string(d.Status),
				d.Total.String(),
				strconv.Itoa(d.Allocations),
				strconv.Itoa(d.Flagged),
			}
			if err := writeSheetRow(f, DetailSheet, i+2, cells); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// writeSheetRow writes cells to a 1-based row. Numeric text is stored as a
// number except in the first column, which holds labels and dotted codes.
func writeSheetRow(f *excelize.File, sheet string, row int, cells []string) error {
	for i, c := range cells {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		var v any = c
		if i > 0 {
			if n, err := strconv.ParseFloat(c, 64); err == nil {
				v = n
			}
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}
