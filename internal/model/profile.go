package model

import (
	"errors"
	"fmt"
)

// GCodeProfile defines a post-processor configuration for different CNC controllers.
type GCodeProfile struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Units       string `json:"units"` // "mm" or "inches"
	IsBuiltIn   bool   `json:"is_built_in"`

	// Startup codes
	StartCode    []string `json:"start_code"`
	SpindleStart string   `json:"spindle_start"` // e.g. "M3 S%d"
	SpindleStop  string   `json:"spindle_stop"`

	// Motion words
	RapidMove string `json:"rapid_move"` // G0 or equivalent
	FeedMove  string `json:"feed_move"`  // G1 or equivalent
	ArcCW     string `json:"arc_cw"`     // G2 or equivalent
	ArcCCW    string `json:"arc_ccw"`    // G3 or equivalent

	// End codes; "[SafeZ]" is replaced with the configured safe height
	EndCode []string `json:"end_code"`

	// Comment style
	CommentPrefix string `json:"comment_prefix"` // e.g. ";" or "("
	CommentSuffix string `json:"comment_suffix"` // e.g. ")" for Fanuc-style comments

	DecimalPlaces int `json:"decimal_places"`
}

// GCodeProfiles lists the built-in controller profiles.
var GCodeProfiles = []GCodeProfile{
	{
		Name:          "Grbl",
		Description:   "Standard Grbl configuration (Arduino CNC shields)",
		Units:         "mm",
		IsBuiltIn:     true,
		StartCode:     []string{"G90", "G21", "G17"},
		SpindleStart:  "M3 S%d",
		SpindleStop:   "M5",
		RapidMove:     "G0",
		FeedMove:      "G1",
		ArcCW:         "G2",
		ArcCCW:        "G3",
		EndCode:       []string{"G0 Z[SafeZ]", "G0 X0 Y0", "M2"},
		CommentPrefix: ";",
		DecimalPlaces: 3,
	},
	{
		Name:          "Mach3",
		Description:   "Mach3 CNC control software",
		Units:         "mm",
		IsBuiltIn:     true,
		StartCode:     []string{"G90", "G21", "G17", "G94"},
		SpindleStart:  "M3 S%d",
		SpindleStop:   "M5",
		RapidMove:     "G0",
		FeedMove:      "G1",
		ArcCW:         "G2",
		ArcCCW:        "G3",
		EndCode:       []string{"G0 Z[SafeZ]", "G28 X0 Y0", "M30"},
		CommentPrefix: "(",
		CommentSuffix: ")",
		DecimalPlaces: 4,
	},
	{
		Name:          "LinuxCNC",
		Description:   "LinuxCNC (formerly EMC2)",
		Units:         "mm",
		IsBuiltIn:     true,
		StartCode:     []string{"G90", "G21", "G17", "G94"},
		SpindleStart:  "M3 S%d",
		SpindleStop:   "M5",
		RapidMove:     "G0",
		FeedMove:      "G1",
		ArcCW:         "G2",
		ArcCCW:        "G3",
		EndCode:       []string{"G0 Z[SafeZ]", "G0 X0 Y0", "M2"},
		CommentPrefix: ";",
		DecimalPlaces: 4,
	},
	{
		Name:          "Generic",
		Description:   "Generic metric GCode with two-digit motion words",
		Units:         "mm",
		IsBuiltIn:     true,
		StartCode:     []string{"G21", "G90"},
		RapidMove:     "G00",
		FeedMove:      "G01",
		ArcCW:         "G02",
		ArcCCW:        "G03",
		EndCode:       []string{"G00 Z[SafeZ]", "M2"},
		CommentPrefix: "(",
		CommentSuffix: ")",
		DecimalPlaces: 2,
	},
}

// CustomProfiles holds user-defined profiles loaded at startup.
var CustomProfiles []GCodeProfile

// AllProfiles returns built-in profiles followed by custom ones.
func AllProfiles() []GCodeProfile {
	all := make([]GCodeProfile, 0, len(GCodeProfiles)+len(CustomProfiles))
	all = append(all, GCodeProfiles...)
	return append(all, CustomProfiles...)
}

// GetProfile returns a GCode profile by name, or the Generic profile if not found.
func GetProfile(name string) GCodeProfile {
	for _, p := range AllProfiles() {
		if p.Name == name {
			return p
		}
	}
	return GCodeProfiles[len(GCodeProfiles)-1]
}

// GetProfileNames returns a list of all available profile names.
func GetProfileNames() []string {
	var names []string
	for _, p := range AllProfiles() {
		names = append(names, p.Name)
	}
	return names
}

func isBuiltInName(name string) bool {
	for _, p := range GCodeProfiles {
		if p.Name == name {
			return true
		}
	}
	return false
}

// NewCustomProfile returns a custom profile seeded from the Generic profile.
func NewCustomProfile(name string) GCodeProfile {
	p := GetProfile("Generic")
	p.Name = name
	p.Description = "Custom profile"
	p.IsBuiltIn = false
	p.StartCode = append([]string(nil), p.StartCode...)
	p.EndCode = append([]string(nil), p.EndCode...)
	return p
}

// AddCustomProfile adds p to CustomProfiles, replacing a custom profile with
// the same name. Built-in names cannot be shadowed.
func AddCustomProfile(p GCodeProfile) error {
	if p.Name == "" {
		return errors.New("profile name is required")
	}
	if isBuiltInName(p.Name) {
		return fmt.Errorf("profile %q is built in", p.Name)
	}
	p.IsBuiltIn = false
	for i := range CustomProfiles {
		if CustomProfiles[i].Name == p.Name {
			CustomProfiles[i] = p
			return nil
		}
	}
	CustomProfiles = append(CustomProfiles, p)
	return nil
}

// RemoveCustomProfile deletes the custom profile with the given name.
func RemoveCustomProfile(name string) error {
	if isBuiltInName(name) {
		return fmt.Errorf("profile %q is built in", name)
	}
	for i := range CustomProfiles {
		if CustomProfiles[i].Name == name {
			CustomProfiles = append(CustomProfiles[:i], CustomProfiles[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("profile %q not found", name)
}
