package export

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/NestCut/internal/model"
)

const (
	placementsSheet = "Placements"
	summarySheet    = "Summary"
	offcutsSheet    = "Offcuts"
)

var placementHeaders = []string{
	"Sheet", "Part ID", "Label", "X (mm)", "Y (mm)", "Angle (deg)",
	"Width (mm)", "Height (mm)", "Net Area (mm2)", "Holes",
}

// ExportReport writes an Excel workbook with one row per placed part and a
// per-sheet summary, plus the reusable offcuts when any remain. X and Y are the placement translation; width and height
// are the placed bounding box. An empty layout writes nothing.
func ExportReport(path string, layout model.SheetLayout, settings model.NestSettings) error {
	if layout.Empty() {
		return nil
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", placementsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeRow(f, placementsSheet, 1, toRow(placementHeaders)); err != nil {
		return err
	}
	row := 2
	for _, sheet := range layout.Sheets {
		for _, p := range sheet.Parts {
			w, h := p.Outline.Size()
			values := []interface{}{
				sheet.Index + 1, p.PartID, p.Label,
				round2(p.Placement.X), round2(p.Placement.Y), round2(p.Placement.Angle),
				round2(w), round2(h), round2(partArea(p)), len(p.Children),
			}
			if err := writeRow(f, placementsSheet, row, values); err != nil {
				return err
			}
			row++
		}
	}
	if err := styleHeader(f, placementsSheet, len(placementHeaders), bold); err != nil {
		return err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("add summary sheet: %w", err)
	}
	summaryHeaders := []string{"Sheet", "Parts", "Holes", "Used Area (mm2)", "Sheet Area (mm2)", "Utilization (%)"}
	if err := writeRow(f, summarySheet, 1, toRow(summaryHeaders)); err != nil {
		return err
	}
	row = 2
	for _, sheet := range layout.Sheets {
		st := statsForSheet(layout, sheet)
		values := []interface{}{
			st.Index + 1, st.Parts, st.Holes, round2(st.UsedArea), round2(st.TotalArea), round2(st.Utilization()),
		}
		if err := writeRow(f, summarySheet, row, values); err != nil {
			return err
		}
		row++
	}
	row++
	totals := [][]interface{}{
		{"Sheets used", len(layout.Sheets)},
		{"Max sheets", settings.MaxSheets},
		{"Overall utilization (%)", round2(layoutUtilization(layout))},
		{"Seed", settings.Seed},
	}
	for _, values := range totals {
		if err := writeRow(f, summarySheet, row, values); err != nil {
			return err
		}
		row++
	}
	if err := styleHeader(f, summarySheet, len(summaryHeaders), bold); err != nil {
		return err
	}

	if offcuts := model.DetectAllOffcuts(layout, settings.ToolDiameter); len(offcuts) > 0 {
		if err := writeOffcuts(f, offcuts, bold); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

func writeOffcuts(f *excelize.File, offcuts []model.Offcut, bold int) error {
	if _, err := f.NewSheet(offcutsSheet); err != nil {
		return fmt.Errorf("add offcuts sheet: %w", err)
	}
	headers := []string{"ID", "Sheet", "X (mm)", "Y (mm)", "Width (mm)", "Height (mm)", "Area (mm2)"}
	if err := writeRow(f, offcutsSheet, 1, toRow(headers)); err != nil {
		return err
	}
	for i, o := range offcuts {
		values := []interface{}{
			o.ID, o.SheetIndex + 1, round2(o.X), round2(o.Y), round2(o.Width), round2(o.Height), round2(o.Area()),
		}
		if err := writeRow(f, offcutsSheet, i+2, values); err != nil {
			return err
		}
	}
	return styleHeader(f, offcutsSheet, len(headers), bold)
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func styleHeader(f *excelize.File, sheet string, cols, style int) error {
	last, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	lastCol, _ := excelize.ColumnNumberToName(cols)
	return f.SetColWidth(sheet, "A", lastCol, 15)
}

func toRow(headers []string) []interface{} {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	return row
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
