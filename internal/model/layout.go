package model

import "sort"

// TransformedChild is a child shape after its part's pose has been applied.
// Polygon is the closed point sequence downstream consumers draw or cut;
// for circles it approximates the circle and Center/Radius stay exact.
type TransformedChild struct {
	Kind    ShapeKind `json:"kind"`
	Center  Point2D   `json:"center,omitempty"`
	Radius  float64   `json:"radius,omitempty"`
	Polygon Outline   `json:"polygon"`
}

// TransformedPart is a part's outline and children in sheet coordinates.
type TransformedPart struct {
	PartID    int                `json:"part_id"`
	PartIndex int                `json:"part_index"`
	Label     string             `json:"label"`
	Placement Placement          `json:"placement"`
	Outline   Outline            `json:"outline"`
	Children  []TransformedChild `json:"children,omitempty"`
}

// LayoutSheet groups the parts placed on one sheet.
type LayoutSheet struct {
	Index int               `json:"index"`
	Parts []TransformedPart `json:"parts"`
}

// SheetLayout is the per-sheet geometry derived from the best solution.
// Sheets are sorted by index and only populated sheets appear.
type SheetLayout struct {
	Width  float64       `json:"width"`
	Height float64       `json:"height"`
	Sheets []LayoutSheet `json:"sheets"`
}

// Empty reports whether the layout has nothing to render or emit.
func (l SheetLayout) Empty() bool {
	return len(l.Sheets) == 0
}

// Sheet returns the layout sheet with the given index.
func (l SheetLayout) Sheet(index int) (LayoutSheet, bool) {
	i := sort.Search(len(l.Sheets), func(i int) bool { return l.Sheets[i].Index >= index })
	if i < len(l.Sheets) && l.Sheets[i].Index == index {
		return l.Sheets[i], true
	}
	return LayoutSheet{}, false
}

// PartCount returns the number of parts across all sheets.
func (l SheetLayout) PartCount() int {
	n := 0
	for _, s := range l.Sheets {
		n += len(s.Parts)
	}
	return n
}

// SheetArea returns the area of one sheet.
func (l SheetLayout) SheetArea() float64 {
	return l.Width * l.Height
}
