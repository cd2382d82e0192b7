package model

import (
	"fmt"
	"math"
	"sort"
)

// Offcut represents a usable rectangular remnant left on a sheet after the
// placed parts are cut.
type Offcut struct {
	ID         string  `json:"id"`          // "<sheet>-<n>", both 1-based
	SheetIndex int     `json:"sheet_index"` // Layout sheet index
	X          float64 `json:"x"`           // Distance from left edge (mm)
	Y          float64 `json:"y"`           // Distance from bottom edge (mm)
	Width      float64 `json:"width"`       // mm
	Height     float64 `json:"height"`      // mm
}

// Area returns the area of the offcut in square mm.
func (o Offcut) Area() float64 {
	return o.Width * o.Height
}

// MinOffcutDimension is the minimum width or height (in mm) for a remnant
// to be considered a usable offcut. Remnants smaller than this are waste.
const MinOffcutDimension = 50.0

// MinOffcutArea is the minimum area (in sq mm) for a remnant to be considered usable.
const MinOffcutArea = 10000.0 // 100mm x 100mm equivalent

// DetectOffcuts finds the strips of a sheet that no placed part reaches:
// the full-height strip right of every part and the strip above every part
// up to their right edge. clearance (usually the tool diameter) is kept free
// around the parts. An empty sheet is one offcut.
func DetectOffcuts(sheet LayoutSheet, sheetW, sheetH, clearance float64) []Offcut {
	id := func(n int) string { return fmt.Sprintf("%d-%d", sheet.Index+1, n) }

	if len(sheet.Parts) == 0 {
		return []Offcut{{ID: id(1), SheetIndex: sheet.Index, Width: sheetW, Height: sheetH}}
	}

	// Find the bounding box of all placed parts to identify large unused strips
	var maxRight, maxTop float64
	for _, p := range sheet.Parts {
		_, max := p.Outline.BoundingBox()
		maxRight = math.Max(maxRight, max.X+clearance)
		maxTop = math.Max(maxTop, max.Y+clearance)
	}

	var offcuts []Offcut
	usable := func(w, h float64) bool {
		return w >= MinOffcutDimension && h >= MinOffcutDimension && w*h >= MinOffcutArea
	}

	// Right strip: full sheet height
	if rightW := sheetW - maxRight; usable(rightW, sheetH) {
		offcuts = append(offcuts, Offcut{SheetIndex: sheet.Index, X: maxRight, Width: rightW, Height: sheetH})
	}

	// Top strip: only up to the parts' right edge to avoid overlapping the right strip
	topH := sheetH - maxTop
	topW := math.Min(maxRight, sheetW)
	if usable(topW, topH) {
		offcuts = append(offcuts, Offcut{SheetIndex: sheet.Index, Y: maxTop, Width: topW, Height: topH})
	}

	// Sort by area descending (largest offcuts first)
	sort.Slice(offcuts, func(i, j int) bool {
		return offcuts[i].Area() > offcuts[j].Area()
	})
	for i := range offcuts {
		offcuts[i].ID = id(i + 1)
	}
	return offcuts
}

// DetectAllOffcuts finds offcuts across all sheets of a layout.
func DetectAllOffcuts(layout SheetLayout, clearance float64) []Offcut {
	var all []Offcut
	for _, sheet := range layout.Sheets {
		all = append(all, DetectOffcuts(sheet, layout.Width, layout.Height, clearance)...)
	}
	return all
}

// TotalOffcutArea returns the total area of all offcuts in square mm.
func TotalOffcutArea(offcuts []Offcut) float64 {
	var total float64
	for _, o := range offcuts {
		total += o.Area()
	}
	return total
}
