package engine

import (
	"fmt"
	"sort"

	"github.com/piwi3910/NestCut/internal/geometry"
	"github.com/piwi3910/NestCut/internal/model"
)

// circleSegments is the polygon resolution used to draw circular children.
const circleSegments = 24

// BuildLayout applies each placement of sol to its part and groups the
// transformed outlines and children by sheet. Children follow their part's
// pose; pivot selects whether they rotate about the part's centroid or
// their own. The layout is either complete or not returned at all.
func BuildLayout(parts []model.Part, sol model.Solution, sheetW, sheetH float64, pivot model.PivotMode) (model.SheetLayout, error) {
	if len(sol) == 0 {
		return model.SheetLayout{}, fmt.Errorf("%w: empty solution", ErrLayoutBuild)
	}
	if len(sol) != len(parts) {
		return model.SheetLayout{}, fmt.Errorf("%w: %d placements for %d parts", ErrLayoutBuild, len(sol), len(parts))
	}

	ids := make(map[int]bool, len(parts))
	for _, p := range parts {
		if ids[p.ID] {
			return model.SheetLayout{}, fmt.Errorf("%w: duplicate part id %d", ErrLayoutBuild, p.ID)
		}
		ids[p.ID] = true
	}

	placed := make([]bool, len(parts))
	sheets := make(map[int][]model.TransformedPart)
	for i, pl := range sol {
		if pl.PartIndex < 0 || pl.PartIndex >= len(parts) {
			return model.SheetLayout{}, fmt.Errorf("%w: placement %d refers to part %d of %d", ErrLayoutBuild, i, pl.PartIndex, len(parts))
		}
		if placed[pl.PartIndex] {
			return model.SheetLayout{}, fmt.Errorf("%w: part %d placed twice", ErrLayoutBuild, pl.PartIndex)
		}
		placed[pl.PartIndex] = true
		part := parts[pl.PartIndex]
		sheets[pl.SheetIndex] = append(sheets[pl.SheetIndex], transformPart(part, pl, pivot))
	}

	if len(sheets) == 0 {
		return model.SheetLayout{}, fmt.Errorf("%w: no populated sheets", ErrLayoutBuild)
	}

	layout := model.SheetLayout{Width: sheetW, Height: sheetH}
	for idx, placed := range sheets {
		layout.Sheets = append(layout.Sheets, model.LayoutSheet{Index: idx, Parts: placed})
	}
	sort.Slice(layout.Sheets, func(i, j int) bool {
		return layout.Sheets[i].Index < layout.Sheets[j].Index
	})
	return layout, nil
}

func transformPart(part model.Part, pl model.Placement, pivot model.PivotMode) model.TransformedPart {
	center := geometry.Centroid(part.Outline)
	tp := model.TransformedPart{
		PartID:    part.ID,
		PartIndex: pl.PartIndex,
		Label:     part.Label,
		Placement: pl,
		Outline:   geometry.Transform(part.Outline, pl.Angle, center, pl.X, pl.Y),
	}

	for _, child := range part.Children {
		p := center
		if pivot == model.PivotOwn {
			p = geometry.ChildPivot(child)
		}
		moved := geometry.TransformChild(child, pl.Angle, p, pl.X, pl.Y)

		tc := model.TransformedChild{Kind: moved.Kind}
		if moved.Kind == model.ShapeCircle {
			tc.Center = moved.Center
			tc.Radius = moved.Radius
			tc.Polygon = geometry.CirclePolygon(moved.Center, moved.Radius, circleSegments)
		} else {
			tc.Polygon = moved.Points
		}
		tp.Children = append(tp.Children, tc)
	}
	return tp
}
