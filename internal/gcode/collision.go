package gcode

import (
	"fmt"
	"math"

	"github.com/piwi3910/NestCut/internal/geometry"
	"github.com/piwi3910/NestCut/internal/model"
)

// ClampWarning reports a placed part whose cutter path reaches into, or
// comes too close to, a clamp zone.
type ClampWarning struct {
	SheetIndex int
	ClampLabel string
	PartID     int
	PartLabel  string
	Distance   float64 // gap between the outline and the zone, 0 when they overlap
}

// CheckClampClearance analyzes the layout and detects parts that would bring
// the cutter into a clamp zone. The tool center runs one tool radius outside
// each outline, so the cutter sweeps a band one tool diameter wide around
// it. A warning is raised when that band touches a zone.
func CheckClampClearance(layout model.SheetLayout, settings model.NestSettings) []ClampWarning {
	if layout.Empty() || len(settings.ClampZones) == 0 {
		return nil
	}

	band := settings.ToolDiameter
	var warnings []ClampWarning

	for _, sheet := range layout.Sheets {
		for _, part := range sheet.Parts {
			for _, cz := range settings.ClampZones {
				dist := outlineToClampZone(part.Outline, cz)
				if dist <= band {
					warnings = append(warnings, ClampWarning{
						SheetIndex: sheet.Index,
						ClampLabel: cz.Label,
						PartID:     part.PartID,
						PartLabel:  part.Label,
						Distance:   dist,
					})
				}
			}
		}
	}

	return warnings
}

// clampOutline returns the zone as a counter-clockwise rectangle.
func clampOutline(cz model.ClampZone) model.Outline {
	return model.Outline{
		{X: cz.X, Y: cz.Y},
		{X: cz.X + cz.Width, Y: cz.Y},
		{X: cz.X + cz.Width, Y: cz.Y + cz.Height},
		{X: cz.X, Y: cz.Y + cz.Height},
	}
}

// outlineToClampZone computes the minimum distance between a polygon and a
// clamp zone rectangle. Returns 0 if they overlap.
func outlineToClampZone(outline model.Outline, cz model.ClampZone) float64 {
	if len(outline) == 0 {
		return math.Inf(1)
	}
	zone := clampOutline(cz)
	if overlaps, err := geometry.Overlaps(outline, zone); err == nil && overlaps {
		return 0
	}

	best := math.Inf(1)
	for _, p := range outline {
		best = math.Min(best, distanceToClampZone(p.X, p.Y, cz))
	}
	// A zone corner can sit closer to an outline edge than any outline vertex.
	n := len(outline)
	for _, c := range zone {
		for i := 0; i < n; i++ {
			best = math.Min(best, distanceToSegment(c, outline[i], outline[(i+1)%n]))
		}
	}
	return best
}

// distanceToClampZone computes the minimum distance from a point (px, py)
// to the boundary of a clamp zone rectangle. Returns 0 if the point is
// inside the zone, positive if outside.
func distanceToClampZone(px, py float64, cz model.ClampZone) float64 {
	// Find the nearest point on the clamp zone rectangle to (px, py)
	nearestX := math.Max(cz.X, math.Min(px, cz.X+cz.Width))
	nearestY := math.Max(cz.Y, math.Min(py, cz.Y+cz.Height))

	dx := px - nearestX
	dy := py - nearestY

	return math.Sqrt(dx*dx + dy*dy)
}

// distanceToSegment returns the distance from p to the segment ab.
func distanceToSegment(p, a, b model.Point2D) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}

// FormatClampWarnings produces human-readable warning messages.
func FormatClampWarnings(warnings []ClampWarning) []string {
	var msgs []string
	for _, w := range warnings {
		if w.Distance == 0 {
			msgs = append(msgs, fmt.Sprintf("Sheet %d: part %q (#%d) overlaps clamp %q",
				w.SheetIndex+1, w.PartLabel, w.PartID, w.ClampLabel))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("Sheet %d: part %q (#%d) is %.1f mm from clamp %q, inside the cutter path",
			w.SheetIndex+1, w.PartLabel, w.PartID, w.Distance, w.ClampLabel))
	}
	return msgs
}
