package gcode

import (
	"fmt"
	"math"
	"strings"

	"github.com/piwi3910/NestCut/internal/geometry"
	"github.com/piwi3910/NestCut/internal/model"
)

// Generator produces GCode from a nested sheet layout.
type Generator struct {
	Settings model.NestSettings
	profile  model.GCodeProfile
}

func New(settings model.NestSettings) *Generator {
	return &Generator{
		Settings: settings,
		profile:  model.GetProfile(settings.GCodeProfile),
	}
}

// Profile returns the controller profile the generator writes for.
func (g *Generator) Profile() model.GCodeProfile {
	return g.profile
}

// GenerateSheet produces GCode for the parts placed on one sheet.
func (g *Generator) GenerateSheet(sheet model.LayoutSheet, width, height float64) string {
	var b strings.Builder

	g.writeHeader(&b, sheet, width, height)

	for i, part := range sheet.Parts {
		g.writePart(&b, part, i+1)
	}

	g.writeFooter(&b)
	return b.String()
}

// GenerateAll produces one GCode program per populated sheet, in sheet order.
// An empty layout yields no programs.
func (g *Generator) GenerateAll(layout model.SheetLayout) []string {
	if layout.Empty() {
		return nil
	}
	codes := make([]string, 0, len(layout.Sheets))
	for _, sheet := range layout.Sheets {
		codes = append(codes, g.GenerateSheet(sheet, layout.Width, layout.Height))
	}
	return codes
}

func (g *Generator) writeHeader(b *strings.Builder, sheet model.LayoutSheet, width, height float64) {
	p := g.profile

	b.WriteString(g.comment(fmt.Sprintf("NestCut GCode - Sheet %d", sheet.Index+1)))
	b.WriteString(g.comment(fmt.Sprintf("Sheet: %.1f x %.1f mm", width, height)))
	b.WriteString(g.comment(fmt.Sprintf("Parts: %d", len(sheet.Parts))))
	b.WriteString(g.comment(fmt.Sprintf("Tool: %.1fmm, Feed: %.0f mm/min, Plunge: %.0f mm/min, Arc: %.0f mm/min",
		g.Settings.ToolDiameter, g.Settings.FeedRate, g.Settings.PlungeRate, g.Settings.ArcFeedRate)))
	b.WriteString(g.comment(fmt.Sprintf("Depth: %.1fmm in %.1fmm passes", g.Settings.CutDepth, g.Settings.PassDepth)))
	b.WriteString(g.comment(fmt.Sprintf("Profile: %s", p.Name)))
	b.WriteString("\n")

	for _, code := range p.StartCode {
		b.WriteString(code + "\n")
	}

	if p.SpindleStart != "" {
		b.WriteString(fmt.Sprintf(p.SpindleStart+"\n", g.Settings.SpindleSpeed))
	}

	// Initial safe Z retract
	b.WriteString(fmt.Sprintf("%s Z%s\n", p.RapidMove, g.format(g.Settings.SafeZ)))
	b.WriteString(fmt.Sprintf("%s X%s Y%s\n", p.RapidMove, g.format(0), g.format(0)))

	b.WriteString("\n")
}

func (g *Generator) writeFooter(b *strings.Builder) {
	p := g.profile

	b.WriteString("\n")
	b.WriteString(g.comment("=== Job complete ==="))

	for _, code := range p.EndCode {
		code = strings.ReplaceAll(code, "[SafeZ]", g.format(g.Settings.SafeZ))
		b.WriteString(code + "\n")
	}

	if p.SpindleStop != "" {
		b.WriteString(p.SpindleStop + "\n")
	}
}

// writePart cuts every child shape first, then the outline, so the part
// stays held by the surrounding sheet while its holes are machined.
func (g *Generator) writePart(b *strings.Builder, part model.TransformedPart, partNum int) {
	w, h := part.Outline.Size()
	b.WriteString(g.comment(fmt.Sprintf("--- Part %d: %s [#%d] %.1f x %.1f mm at %.1f deg ---",
		partNum, part.Label, part.PartID, w, h, part.Placement.Angle)))

	for i, child := range part.Children {
		b.WriteString(g.comment(fmt.Sprintf("Hole %d/%d: %s", i+1, len(part.Children), child.Kind)))
		if child.Kind == model.ShapeCircle {
			g.writeCircle(b, child.Center, child.Radius)
		} else {
			g.writeHole(b, child.Polygon)
		}
	}

	b.WriteString(g.comment("Outline"))
	g.writeOutline(b, part.Outline)
	b.WriteString("\n")
}

// passDepths returns the depth of each pass, the last one at CutDepth.
func (g *Generator) passDepths() []float64 {
	numPasses := 1
	if g.Settings.PassDepth > 0 {
		numPasses = int(math.Ceil(g.Settings.CutDepth/g.Settings.PassDepth - 1e-9))
	}
	if numPasses < 1 {
		numPasses = 1
	}
	depths := make([]float64, numPasses)
	for pass := 1; pass <= numPasses; pass++ {
		depth := float64(pass) * g.Settings.PassDepth
		if depth > g.Settings.CutDepth || pass == numPasses {
			depth = g.Settings.CutDepth
		}
		depths[pass-1] = depth
	}
	return depths
}

// writeCircle cuts a full circle as a single arc per pass. The tool starts on
// the left of the circle and the I word points back to the center.
func (g *Generator) writeCircle(b *strings.Builder, center model.Point2D, radius float64) {
	p := g.profile
	r := radius - g.Settings.ToolDiameter/2.0

	if r <= 0 {
		// The tool is at least as wide as the hole: drill it.
		b.WriteString(g.comment("Hole narrower than tool, drilling"))
		b.WriteString(fmt.Sprintf("%s X%s Y%s\n", p.RapidMove, g.format(center.X), g.format(center.Y)))
		b.WriteString(fmt.Sprintf("%s Z%s F%s\n", p.FeedMove, g.format(-g.Settings.CutDepth), g.format(g.Settings.PlungeRate)))
		b.WriteString(fmt.Sprintf("%s Z%s\n", p.RapidMove, g.format(g.Settings.SafeZ)))
		return
	}

	startX := center.X - r
	depths := g.passDepths()
	b.WriteString(fmt.Sprintf("%s X%s Y%s\n", p.RapidMove, g.format(startX), g.format(center.Y)))
	for _, depth := range depths {
		b.WriteString(fmt.Sprintf("%s Z%s F%s\n", p.FeedMove, g.format(-depth), g.format(g.Settings.PlungeRate)))
		b.WriteString(fmt.Sprintf("%s X%s Y%s I%s J%s F%s\n", p.ArcCW,
			g.format(startX), g.format(center.Y), g.format(r), g.format(0),
			g.format(g.Settings.ArcFeedRate)))
	}
	b.WriteString(fmt.Sprintf("%s Z%s\n", p.RapidMove, g.format(g.Settings.SafeZ)))
}

// writeHole follows a polyline cut-out, offset inward by the tool radius.
func (g *Generator) writeHole(b *strings.Builder, polygon model.Outline) {
	path, err := geometry.Offset(polygon, -g.Settings.ToolDiameter/2.0)
	if err != nil {
		b.WriteString(g.comment(fmt.Sprintf("WARNING: hole skipped, %v", err)))
		return
	}
	g.writeLoop(b, path)
}

// writeOutline follows the part outline, offset outward by the tool radius.
func (g *Generator) writeOutline(b *strings.Builder, outline model.Outline) {
	path, err := geometry.Offset(outline, g.Settings.ToolDiameter/2.0)
	if err != nil {
		b.WriteString(g.comment(fmt.Sprintf("WARNING: offset failed, following outline: %v", err)))
		path = outline
	}
	g.writeLoop(b, path)
}

// writeLoop cuts a closed path once per depth pass.
func (g *Generator) writeLoop(b *strings.Builder, path model.Outline) {
	p := g.profile
	if len(path) < 3 {
		b.WriteString(g.comment("WARNING: path has fewer than 3 points, skipping"))
		return
	}

	depths := g.passDepths()
	for pass, depth := range depths {
		b.WriteString(g.comment(fmt.Sprintf("Pass %d/%d, depth=%.2fmm", pass+1, len(depths), depth)))

		b.WriteString(fmt.Sprintf("%s X%s Y%s\n", p.RapidMove, g.format(path[0].X), g.format(path[0].Y)))
		b.WriteString(fmt.Sprintf("%s Z%s F%s\n", p.FeedMove, g.format(-depth), g.format(g.Settings.PlungeRate)))

		for i := 1; i < len(path); i++ {
			b.WriteString(fmt.Sprintf("%s X%s Y%s F%s\n", p.FeedMove,
				g.format(path[i].X), g.format(path[i].Y), g.format(g.Settings.FeedRate)))
		}
		// Close the loop back to the first point
		b.WriteString(fmt.Sprintf("%s X%s Y%s F%s\n", p.FeedMove,
			g.format(path[0].X), g.format(path[0].Y), g.format(g.Settings.FeedRate)))

		b.WriteString(fmt.Sprintf("%s Z%s\n", p.RapidMove, g.format(g.Settings.SafeZ)))
	}
}

// comment wraps text in the profile's comment syntax.
func (g *Generator) comment(text string) string {
	return g.profile.CommentPrefix + " " + text + g.profile.CommentSuffix + "\n"
}

// format formats a coordinate according to the profile's decimal places.
func (g *Generator) format(v float64) string {
	s := fmt.Sprintf("%.*f", g.profile.DecimalPlaces, v)
	if strings.TrimLeft(s, "-0.") == "" {
		// Avoid "-0.00"
		s = strings.TrimPrefix(s, "-")
	}
	return s
}
