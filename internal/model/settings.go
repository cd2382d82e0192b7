package model

// PivotMode selects the rotation pivot used for a part's child shapes.
type PivotMode string

const (
	PivotParent PivotMode = "parent" // Children rotate about the parent outline's centroid
	PivotOwn    PivotMode = "own"    // Each child rotates about its own centroid
)

// ClampZone is a rectangular area of the sheet occupied by a clamp or fixture.
type ClampZone struct {
	Label  string  `json:"label" toml:"label" mapstructure:"label"`
	X      float64 `json:"x" toml:"x" mapstructure:"x"`                                // Distance from left edge (mm)
	Y      float64 `json:"y" toml:"y" mapstructure:"y"`                                // Distance from bottom edge (mm)
	Width  float64 `json:"width" toml:"width" mapstructure:"width" validate:"gt=0"`    // mm
	Height float64 `json:"height" toml:"height" mapstructure:"height" validate:"gt=0"` // mm
}

// NestSettings holds sheet, search and CNC configuration for one run.
// All values are fixed for the duration of the run.
type NestSettings struct {
	// Sheet
	SheetWidth  float64 `json:"sheet_width" toml:"sheet_width" mapstructure:"sheet_width" validate:"gt=0"`    // mm
	SheetHeight float64 `json:"sheet_height" toml:"sheet_height" mapstructure:"sheet_height" validate:"gt=0"` // mm
	MaxSheets   int     `json:"max_sheets" toml:"max_sheets" mapstructure:"max_sheets" validate:"min=1"`

	// Multi-part genetic search
	PopulationSize int `json:"population_size" toml:"population_size" mapstructure:"population_size" validate:"min=2"`
	Generations    int `json:"generations" toml:"generations" mapstructure:"generations" validate:"min=0"`

	// Single-part randomized search
	Attempts             int     `json:"attempts" toml:"attempts" mapstructure:"attempts" validate:"min=1"`
	FixedAngleAttempts   int     `json:"fixed_angle_attempts" toml:"fixed_angle_attempts" mapstructure:"fixed_angle_attempts" validate:"min=0"`
	EarlyStopUtilization float64 `json:"early_stop_utilization" toml:"early_stop_utilization" mapstructure:"early_stop_utilization" validate:"gte=0,lte=1"`

	Seed       int64     `json:"seed" toml:"seed" mapstructure:"seed"`
	Workers    int       `json:"workers" toml:"workers" mapstructure:"workers" validate:"min=1"` // Parallel fitness evaluations per generation
	ChildPivot PivotMode `json:"child_pivot" toml:"child_pivot" mapstructure:"child_pivot" validate:"oneof=parent own"`

	// CNC / GCode settings
	ToolDiameter float64 `json:"tool_diameter" toml:"tool_diameter" mapstructure:"tool_diameter" validate:"gte=0"` // 0 follows the geometry exactly
	FeedRate     float64 `json:"feed_rate" toml:"feed_rate" mapstructure:"feed_rate" validate:"gt=0"`             // mm/min
	PlungeRate   float64 `json:"plunge_rate" toml:"plunge_rate" mapstructure:"plunge_rate" validate:"gt=0"`       // mm/min
	ArcFeedRate  float64 `json:"arc_feed_rate" toml:"arc_feed_rate" mapstructure:"arc_feed_rate" validate:"gt=0"` // mm/min for circular holes
	SpindleSpeed int     `json:"spindle_speed" toml:"spindle_speed" mapstructure:"spindle_speed" validate:"gte=0"`
	SafeZ        float64 `json:"safe_z" toml:"safe_z" mapstructure:"safe_z" validate:"gt=0"`
	CutDepth     float64 `json:"cut_depth" toml:"cut_depth" mapstructure:"cut_depth" validate:"gt=0"`
	PassDepth    float64 `json:"pass_depth" toml:"pass_depth" mapstructure:"pass_depth" validate:"gt=0"`
	GCodeProfile string  `json:"gcode_profile" toml:"gcode_profile" mapstructure:"gcode_profile"`

	ClampZones []ClampZone `json:"clamp_zones,omitempty" toml:"clamp_zones,omitempty" mapstructure:"clamp_zones" validate:"dive"`
}

// SheetArea returns the area of one sheet.
func (s NestSettings) SheetArea() float64 {
	return s.SheetWidth * s.SheetHeight
}

func DefaultSettings() NestSettings {
	return NestSettings{
		SheetWidth:           1200,
		SheetHeight:          1200,
		MaxSheets:            10,
		PopulationSize:       100,
		Generations:          50,
		Attempts:             500,
		FixedAngleAttempts:   100,
		EarlyStopUtilization: 0.1,
		Seed:                 42,
		Workers:              1,
		ChildPivot:           PivotParent,
		ToolDiameter:         0,
		FeedRate:             1000.0,
		PlungeRate:           500.0,
		ArcFeedRate:          800.0,
		SpindleSpeed:         18000,
		SafeZ:                5.0,
		CutDepth:             2.0,
		PassDepth:            2.0,
		GCodeProfile:         "Generic",
	}
}

// Overlaps reports whether the rectangle (x, y, w, h) overlaps the zone with
// positive area. Rectangles that only share an edge do not overlap.
func (cz ClampZone) Overlaps(x, y, w, h float64) bool {
	return x < cz.X+cz.Width && x+w > cz.X && y < cz.Y+cz.Height && y+h > cz.Y
}
