package export

import (
	"github.com/piwi3910/NestCut/internal/geometry"
	"github.com/piwi3910/NestCut/internal/model"
)

// sheetStats summarizes the material use of one layout sheet.
type sheetStats struct {
	Index     int
	Parts     int
	Holes     int
	UsedArea  float64 // outline area minus hole area, mm²
	TotalArea float64
}

// Utilization returns the used fraction of the sheet in percent.
func (s sheetStats) Utilization() float64 {
	if s.TotalArea <= 0 {
		return 0
	}
	return 100 * s.UsedArea / s.TotalArea
}

func statsForSheet(layout model.SheetLayout, sheet model.LayoutSheet) sheetStats {
	st := sheetStats{Index: sheet.Index, Parts: len(sheet.Parts), TotalArea: layout.SheetArea()}
	for _, p := range sheet.Parts {
		st.UsedArea += partArea(p)
		st.Holes += len(p.Children)
	}
	return st
}

// partArea is the outline area net of its holes.
func partArea(p model.TransformedPart) float64 {
	a := geometry.Area(p.Outline)
	for _, c := range p.Children {
		a -= geometry.Area(c.Polygon)
	}
	if a < 0 {
		return 0
	}
	return a
}

// layoutUtilization returns used over total area across populated sheets, in percent.
func layoutUtilization(layout model.SheetLayout) float64 {
	if layout.Empty() {
		return 0
	}
	used := 0.0
	for _, s := range layout.Sheets {
		used += statsForSheet(layout, s).UsedArea
	}
	return 100 * used / (layout.SheetArea() * float64(len(layout.Sheets)))
}
