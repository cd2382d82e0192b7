package model

import (
	"strings"

	"github.com/google/uuid"
)

// ToolProfile is a reusable cutter setup. Applying it replaces the tool and
// cutting fields of NestSettings.
type ToolProfile struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	ToolDiameter float64 `json:"tool_diameter"`
	FeedRate     float64 `json:"feed_rate"`
	PlungeRate   float64 `json:"plunge_rate"`
	SpindleSpeed int     `json:"spindle_speed"`
	SafeZ        float64 `json:"safe_z"`
	CutDepth     float64 `json:"cut_depth"`
	PassDepth    float64 `json:"pass_depth"`
}

// NewToolProfile creates a new ToolProfile with a generated ID.
func NewToolProfile(name string, diameter, feedRate, plungeRate float64, spindleSpeed int, safeZ, cutDepth, passDepth float64) ToolProfile {
	return ToolProfile{
		ID:           uuid.New().String()[:8],
		Name:         name,
		ToolDiameter: diameter,
		FeedRate:     feedRate,
		PlungeRate:   plungeRate,
		SpindleSpeed: spindleSpeed,
		SafeZ:        safeZ,
		CutDepth:     cutDepth,
		PassDepth:    passDepth,
	}
}

// ApplyToSettings copies this tool profile's parameters into s.
func (tp ToolProfile) ApplyToSettings(s *NestSettings) {
	s.ToolDiameter = tp.ToolDiameter
	s.FeedRate = tp.FeedRate
	s.PlungeRate = tp.PlungeRate
	s.SpindleSpeed = tp.SpindleSpeed
	s.SafeZ = tp.SafeZ
	s.CutDepth = tp.CutDepth
	s.PassDepth = tp.PassDepth
}

// SheetPreset is a reusable sheet size with its material and price.
type SheetPreset struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	Material      string  `json:"material"`
	PricePerSheet float64 `json:"price_per_sheet,omitempty"`
}

// NewSheetPreset creates a new SheetPreset with a generated ID.
func NewSheetPreset(name string, width, height float64, material string, price float64) SheetPreset {
	return SheetPreset{
		ID:            uuid.New().String()[:8],
		Name:          name,
		Width:         width,
		Height:        height,
		Material:      material,
		PricePerSheet: price,
	}
}

// ApplyToSettings sets the sheet size of s.
func (sp SheetPreset) ApplyToSettings(s *NestSettings) {
	s.SheetWidth = sp.Width
	s.SheetHeight = sp.Height
}

// Inventory holds the user's saved tool profiles and sheet presets.
type Inventory struct {
	Tools  []ToolProfile `json:"tools"`
	Sheets []SheetPreset `json:"sheets"`
}

// DefaultInventory returns an inventory populated with common defaults.
func DefaultInventory() Inventory {
	return Inventory{
		Tools: []ToolProfile{
			NewToolProfile("6mm End Mill", 6.0, 1500, 500, 18000, 5.0, 18.0, 6.0),
			NewToolProfile("3mm End Mill", 3.0, 1000, 300, 20000, 5.0, 12.0, 3.0),
			NewToolProfile("1/4\" End Mill (6.35mm)", 6.35, 1500, 500, 18000, 5.0, 18.0, 6.0),
			NewToolProfile("1/8\" End Mill (3.175mm)", 3.175, 800, 250, 22000, 5.0, 12.0, 3.0),
		},
		Sheets: []SheetPreset{
			NewSheetPreset("Plywood 2440x1220", 2440, 1220, "Plywood", 0),
			NewSheetPreset("MDF 2440x1220", 2440, 1220, "MDF", 0),
			NewSheetPreset("MDF 1220x610", 1220, 610, "MDF", 0),
			NewSheetPreset("Acrylic 600x400", 600, 400, "Acrylic", 0),
			NewSheetPreset("Aluminium 600x300", 600, 300, "Aluminium", 0),
		},
	}
}

// FindTool returns the tool whose name or ID matches, ignoring case.
func (inv *Inventory) FindTool(name string) (ToolProfile, bool) {
	for _, t := range inv.Tools {
		if strings.EqualFold(t.Name, name) || t.ID == name {
			return t, true
		}
	}
	return ToolProfile{}, false
}

// FindSheet returns the sheet preset whose name or ID matches, ignoring case.
func (inv *Inventory) FindSheet(name string) (SheetPreset, bool) {
	for _, s := range inv.Sheets {
		if strings.EqualFold(s.Name, name) || s.ID == name {
			return s, true
		}
	}
	return SheetPreset{}, false
}

// Merge adds the tools and sheets of other whose names are not taken yet
// and returns how many entries were added.
func (inv *Inventory) Merge(other Inventory) int {
	added := 0
	for _, t := range other.Tools {
		if _, ok := inv.FindTool(t.Name); !ok {
			inv.Tools = append(inv.Tools, t)
			added++
		}
	}
	for _, s := range other.Sheets {
		if _, ok := inv.FindSheet(s.Name); !ok {
			inv.Sheets = append(inv.Sheets, s)
			added++
		}
	}
	return added
}
