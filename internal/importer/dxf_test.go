package importer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/NestCut/internal/geometry"
	"github.com/piwi3910/NestCut/internal/model"
)

func rect(x, y, w, h float64) model.Outline {
	return model.Outline{{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h}}
}

func circleShape(layer string, x, y, r float64) shape {
	c := model.Point2D{X: x, Y: y}
	return shape{layer: layer, outline: geometry.CirclePolygon(c, r, outlineCircleSegments), circle: true, center: c, radius: r}
}

func TestAssemblePartsByOutlineLayer(t *testing.T) {
	shapes := []shape{
		{layer: "CUT_110OO", outline: rect(100, 100, 200, 100)},
		{layer: "CUT_110OO", outline: rect(500, 100, 50, 50)},
		circleShape("HOLES", 150, 150, 10),
		{layer: "POCKETS", outline: rect(200, 120, 40, 20)},
		circleShape("HOLES", 525, 125, 5),
		circleShape("HOLES", 900, 900, 5), // outside every outline
	}

	result := assembleParts(shapes, "")
	require.Empty(t, result.Errors)
	require.Len(t, result.Parts, 2)

	first := result.Parts[0]
	assert.Equal(t, 1, first.ID)
	assert.Equal(t, "DXF Part 1", first.Label)
	min, _ := first.Outline.BoundingBox()
	assert.Equal(t, model.Point2D{}, min, "outline moved to the origin")

	require.Len(t, first.Children, 2)
	assert.Equal(t, model.ShapeCircle, first.Children[0].Kind)
	assert.Equal(t, model.Point2D{X: 50, Y: 50}, first.Children[0].Center, "children move with the outline")
	assert.Equal(t, 10.0, first.Children[0].Radius)
	assert.Equal(t, model.ShapePolyline, first.Children[1].Kind)
	assert.Equal(t, model.Point2D{X: 100, Y: 20}, first.Children[1].Points[0])

	second := result.Parts[1]
	assert.Equal(t, 2, second.ID)
	require.Len(t, second.Children, 1)
	assert.Equal(t, model.Point2D{X: 25, Y: 25}, second.Children[0].Center)

	assert.Contains(t, result.Warnings, "Ignored 1 shapes outside any 110OO outline")
}

func TestAssemblePartsCustomLayer(t *testing.T) {
	shapes := []shape{
		{layer: "OUTER", outline: rect(0, 0, 10, 10)},
		{layer: "110OO", outline: rect(20, 0, 10, 10)},
	}
	result := assembleParts(shapes, "OUTER")
	require.Len(t, result.Parts, 1)
	assert.Len(t, result.Parts[0].Children, 0)
	assert.NotEmpty(t, result.Warnings, "the 110OO square lies outside the OUTER outline")
}

func TestAssemblePartsFallsBackToContainment(t *testing.T) {
	shapes := []shape{
		circleShape("0", 30, 30, 5),
		{layer: "0", outline: rect(0, 0, 100, 60)},
		{layer: "0", outline: rect(200, 0, 40, 40)},
		circleShape("0", 400, 400, 20), // free-standing disc
	}

	result := assembleParts(shapes, "")
	require.Empty(t, result.Errors)
	require.Len(t, result.Parts, 3)

	// Largest first: the plate with its hole, then the square, then the disc.
	plate := result.Parts[0]
	w, h := plate.Outline.Size()
	assert.Equal(t, 100.0, w)
	assert.Equal(t, 60.0, h)
	require.Len(t, plate.Children, 1)
	assert.Equal(t, model.ShapeCircle, plate.Children[0].Kind)

	disc := result.Parts[2]
	assert.Len(t, disc.Outline, outlineCircleSegments)
	assert.InDelta(t, math.Pi*400, geometry.Area(disc.Outline), 20)
}

func TestAssemblePartsSkipsDegenerate(t *testing.T) {
	shapes := []shape{
		{layer: "110OO", outline: model.Outline{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 20, Y: 0}}},
	}
	result := assembleParts(shapes, "")
	assert.Empty(t, result.Parts)
	assert.NotEmpty(t, result.Errors)
	assert.NotEmpty(t, result.Warnings)
}

func TestChainSegmentsClosesLoops(t *testing.T) {
	segs := []segment{
		{start: model.Point2D{X: 0, Y: 0}, end: model.Point2D{X: 10, Y: 0}},
		{start: model.Point2D{X: 10, Y: 10}, end: model.Point2D{X: 10, Y: 0}}, // reversed
		{start: model.Point2D{X: 10, Y: 10}, end: model.Point2D{X: 0, Y: 10}},
		{start: model.Point2D{X: 0, Y: 10}, end: model.Point2D{X: 0, Y: 0.005}},
		// An open stroke that never closes
		{start: model.Point2D{X: 50, Y: 50}, end: model.Point2D{X: 60, Y: 50}},
	}

	outlines := chainSegments(segs, 0.01)
	require.Len(t, outlines, 1)
	assert.Len(t, outlines[0], 4)
	assert.InDelta(t, 100, geometry.Area(outlines[0]), 0.1)
}

func TestBulgeArcPointsSemicircle(t *testing.T) {
	pts := bulgeArcPoints(model.Point2D{X: 0, Y: 0}, model.Point2D{X: 10, Y: 0}, 1, 16)
	require.Len(t, pts, 17)
	assert.InDelta(t, 0, pts[0].X, 1e-9)
	assert.InDelta(t, 10, pts[16].X, 1e-9)
	for _, p := range pts {
		assert.InDelta(t, 5, math.Hypot(p.X-5, p.Y), 1e-9)
	}
}

func TestImportDXFMissingFile(t *testing.T) {
	result := ImportDXF("/nonexistent/part.dxf", "")
	assert.NotEmpty(t, result.Errors)
	assert.Empty(t, result.Parts)
}
