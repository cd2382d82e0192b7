package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/NestCut/internal/model"
)

func partWithHoles() model.Part {
	p := model.NewRectPart(7, "bracket", 100, 50)
	p.Children = []model.ChildShape{
		model.NewCircle(model.Point2D{X: 10, Y: 25}, 4),
		model.NewPolyline(model.Outline{{X: 60, Y: 20}, {X: 80, Y: 20}, {X: 80, Y: 30}, {X: 60, Y: 30}}),
	}
	return p
}

func TestBuildLayoutGroupsBySheet(t *testing.T) {
	parts := squareParts(50, 50, 50)
	sol := model.Solution{
		{PartIndex: 0, X: 0, Y: 0, SheetIndex: 2},
		{PartIndex: 1, X: 100, Y: 0, SheetIndex: 0},
		{PartIndex: 2, X: 200, Y: 0, SheetIndex: 2},
	}

	layout, err := BuildLayout(parts, sol, 1000, 500, model.PivotParent)
	require.NoError(t, err)

	require.Len(t, layout.Sheets, 2)
	assert.Equal(t, 0, layout.Sheets[0].Index)
	assert.Equal(t, 2, layout.Sheets[1].Index)
	assert.Len(t, layout.Sheets[1].Parts, 2)
	assert.Equal(t, 3, layout.PartCount())
	assert.Equal(t, 1000.0, layout.Width)

	p := layout.Sheets[1].Parts[1]
	assert.Equal(t, 3, p.PartID)
	assert.Equal(t, 2, p.PartIndex)
	assert.Equal(t, model.Point2D{X: 200, Y: 0}, p.Outline[0])
}

func TestBuildLayoutMismatchedLength(t *testing.T) {
	parts := squareParts(50, 50)
	layout, err := BuildLayout(parts, model.Solution{{PartIndex: 0}}, 1000, 500, model.PivotParent)
	assert.ErrorIs(t, err, ErrLayoutBuild)
	assert.True(t, layout.Empty(), "no partial layout on failure")
}

func TestBuildLayoutEmptySolution(t *testing.T) {
	_, err := BuildLayout(squareParts(50), nil, 1000, 500, model.PivotParent)
	assert.ErrorIs(t, err, ErrLayoutBuild)
}

func TestBuildLayoutBadPartIndex(t *testing.T) {
	parts := squareParts(50, 50)
	sol := model.Solution{{PartIndex: 0}, {PartIndex: 5}}
	_, err := BuildLayout(parts, sol, 1000, 500, model.PivotParent)
	assert.ErrorIs(t, err, ErrLayoutBuild)
}

func TestBuildLayoutDuplicateIDs(t *testing.T) {
	parts := squareParts(50, 50)
	parts[1].ID = parts[0].ID
	sol := model.Solution{{PartIndex: 0}, {PartIndex: 1, X: 100}}
	_, err := BuildLayout(parts, sol, 1000, 500, model.PivotParent)
	assert.ErrorIs(t, err, ErrLayoutBuild)
}

func TestBuildLayoutPartPlacedTwice(t *testing.T) {
	parts := squareParts(50, 50)
	sol := model.Solution{{PartIndex: 0}, {PartIndex: 0, X: 100}}
	_, err := BuildLayout(parts, sol, 1000, 500, model.PivotParent)
	assert.ErrorIs(t, err, ErrLayoutBuild)
}

func TestBuildLayoutKeepsPartIdentity(t *testing.T) {
	parts := squareParts(50, 50)
	parts[0].ID, parts[1].ID = 42, 7
	sol := model.Solution{{PartIndex: 0, X: 100}, {PartIndex: 1}}

	layout, err := BuildLayout(parts, sol, 1000, 500, model.PivotParent)
	require.NoError(t, err)
	require.Len(t, layout.Sheets, 1)
	placed := layout.Sheets[0].Parts
	require.Len(t, placed, 2)
	assert.Equal(t, 42, placed[0].PartID)
	assert.Equal(t, 0, placed[0].PartIndex)
	assert.Equal(t, 7, placed[1].PartID)
	assert.Equal(t, 1, placed[1].PartIndex)
}

func TestBuildLayoutChildrenFollowParentPivot(t *testing.T) {
	part := partWithHoles()
	sol := model.Solution{{PartIndex: 0, X: 200, Y: 100, Angle: 180}}

	layout, err := BuildLayout([]model.Part{part}, sol, 1000, 500, model.PivotParent)
	require.NoError(t, err)
	tp := layout.Sheets[0].Parts[0]
	require.Len(t, tp.Children, 2)

	// Half a turn about the outline centroid (50, 25) mirrors the hole
	// to the other end of the part.
	hole := tp.Children[0]
	assert.Equal(t, model.ShapeCircle, hole.Kind)
	assert.InDelta(t, 290, hole.Center.X, 1e-9)
	assert.InDelta(t, 125, hole.Center.Y, 1e-9)
	assert.Equal(t, 4.0, hole.Radius)
	assert.Len(t, hole.Polygon, circleSegments)

	slot := tp.Children[1]
	assert.Equal(t, model.ShapePolyline, slot.Kind)
	require.Len(t, slot.Polygon, 4)
	assert.InDelta(t, 240, slot.Polygon[0].X, 1e-9)
	assert.InDelta(t, 130, slot.Polygon[0].Y, 1e-9)
}

func TestBuildLayoutChildrenOwnPivot(t *testing.T) {
	part := partWithHoles()
	sol := model.Solution{{PartIndex: 0, X: 200, Y: 100, Angle: 180}}

	layout, err := BuildLayout([]model.Part{part}, sol, 1000, 500, model.PivotOwn)
	require.NoError(t, err)
	tp := layout.Sheets[0].Parts[0]

	// Each child turns in place and only the translation moves it.
	hole := tp.Children[0]
	assert.InDelta(t, 210, hole.Center.X, 1e-9)
	assert.InDelta(t, 125, hole.Center.Y, 1e-9)
}

func TestRunLayoutCarriesChildren(t *testing.T) {
	part := partWithHoles()
	n, err := New([]model.Part{part}, testSettings(1200, 1200, 1))
	require.NoError(t, err)

	res, err := n.Run()
	require.NoError(t, err)
	require.Len(t, res.Layout.Sheets, 1)
	tp := res.Layout.Sheets[0].Parts[0]
	assert.Equal(t, 7, tp.PartID)
	assert.Len(t, tp.Children, 2)
}
