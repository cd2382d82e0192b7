package gcode

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// MoveType represents the type of CNC toolpath movement.
type MoveType int

const (
	MoveRapid   MoveType = iota // G0: rapid positioning (no cutting)
	MoveFeed                    // G1: linear feed (cutting move in XY plane)
	MovePlunge                  // G1 with Z decreasing: plunging into material
	MoveRetract                 // G0/G1 with Z increasing: retracting from material
	MoveArcCW                   // G2: clockwise arc
	MoveArcCCW                  // G3: counter-clockwise arc
)

// GCodeMove represents a single parsed movement from GCode.
// For arcs, CenterX/CenterY hold the absolute arc center.
type GCodeMove struct {
	Type     MoveType
	FromX    float64
	FromY    float64
	FromZ    float64
	ToX      float64
	ToY      float64
	ToZ      float64
	CenterX  float64
	CenterY  float64
	FeedRate float64
}

var coordRe = regexp.MustCompile(`([XYZFIJ])([-]?\d+\.?\d*)`)

// ParseGCode parses a GCode string into a slice of structured moves.
// It tracks absolute position state and classifies each G0-G3 command
// by its movement characteristics (rapid, feed, plunge, retract, arc).
func ParseGCode(code string) []GCodeMove {
	var moves []GCodeMove

	// Current machine state
	curX, curY, curZ := 0.0, 0.0, 0.0
	curFeed := 0.0

	for _, line := range strings.Split(code, "\n") {
		line = stripComments(strings.TrimSpace(line))
		if line == "" {
			continue
		}

		upper := strings.ToUpper(line)
		word := upper
		if idx := strings.IndexByte(upper, ' '); idx >= 0 {
			word = upper[:idx]
		}

		isRapid, isArc := false, false
		var arcType MoveType
		switch word {
		case "G0", "G00":
			isRapid = true
		case "G1", "G01":
		case "G2", "G02":
			isArc, arcType = true, MoveArcCW
		case "G3", "G03":
			isArc, arcType = true, MoveArcCCW
		default:
			continue
		}

		newX, newY, newZ, newFeed := curX, curY, curZ, curFeed
		offI, offJ := 0.0, 0.0
		for _, m := range coordRe.FindAllStringSubmatch(upper[len(word):], -1) {
			val, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				continue
			}
			switch m[1] {
			case "X":
				newX = val
			case "Y":
				newY = val
			case "Z":
				newZ = val
			case "F":
				newFeed = val
			case "I":
				offI = val
			case "J":
				offJ = val
			}
		}

		move := GCodeMove{
			FromX:    curX,
			FromY:    curY,
			FromZ:    curZ,
			ToX:      newX,
			ToY:      newY,
			ToZ:      newZ,
			FeedRate: newFeed,
		}
		if isArc {
			move.Type = arcType
			move.CenterX = curX + offI
			move.CenterY = curY + offJ
		} else {
			move.Type = classifyMove(isRapid, curZ, newZ, curX, curY, newX, newY)
		}
		moves = append(moves, move)

		curX, curY, curZ, curFeed = newX, newY, newZ, newFeed
	}

	return moves
}

// stripComments removes semicolon and parenthetical comments from a line.
func stripComments(line string) string {
	if idx := strings.Index(line, ";"); idx >= 0 {
		line = line[:idx]
	}
	for {
		start := strings.Index(line, "(")
		if start < 0 {
			break
		}
		end := strings.Index(line[start:], ")")
		if end < 0 {
			line = line[:start]
			break
		}
		line = line[:start] + line[start+end+1:]
	}
	return strings.TrimSpace(line)
}

// classifyMove determines the MoveType based on movement characteristics.
func classifyMove(isRapid bool, fromZ, toZ, fromX, fromY, toX, toY float64) MoveType {
	zDelta := toZ - fromZ
	hasXY := fromX != toX || fromY != toY

	switch {
	case isRapid:
		if zDelta > 0 {
			return MoveRetract
		}
		return MoveRapid
	case zDelta < -0.001 && !hasXY:
		// Z going down (more negative) without XY movement = plunge
		return MovePlunge
	case zDelta > 0.001 && !hasXY:
		// Z going up without XY movement = retract
		return MoveRetract
	default:
		return MoveFeed
	}
}

// Summary aggregates the toolpath of a parsed program.
type Summary struct {
	Moves       int
	CutLength   float64 // mm travelled while cutting, arcs included
	RapidLength float64 // mm travelled in rapids and retracts
	Plunges     int
	Arcs        int
}

// EstimatedMinutes approximates the machining time at the given feed and
// rapid rates in mm/min.
func (s Summary) EstimatedMinutes(feedRate, rapidRate float64) float64 {
	var t float64
	if feedRate > 0 {
		t += s.CutLength / feedRate
	}
	if rapidRate > 0 {
		t += s.RapidLength / rapidRate
	}
	return t
}

// Summarize parses code and totals its travel.
func Summarize(code string) Summary {
	var s Summary
	for _, m := range ParseGCode(code) {
		s.Moves++
		switch m.Type {
		case MoveRapid, MoveRetract:
			s.RapidLength += m.length()
		case MovePlunge:
			s.Plunges++
			s.CutLength += m.length()
		case MoveFeed:
			s.CutLength += m.length()
		case MoveArcCW, MoveArcCCW:
			s.Arcs++
			s.CutLength += m.length()
		}
	}
	return s
}

// length returns the distance travelled by the move. Arcs that start and end
// at the same point are full circles.
func (m GCodeMove) length() float64 {
	if m.Type != MoveArcCW && m.Type != MoveArcCCW {
		return math.Sqrt((m.ToX-m.FromX)*(m.ToX-m.FromX) +
			(m.ToY-m.FromY)*(m.ToY-m.FromY) +
			(m.ToZ-m.FromZ)*(m.ToZ-m.FromZ))
	}

	r := math.Hypot(m.FromX-m.CenterX, m.FromY-m.CenterY)
	a0 := math.Atan2(m.FromY-m.CenterY, m.FromX-m.CenterX)
	a1 := math.Atan2(m.ToY-m.CenterY, m.ToX-m.CenterX)
	sweep := a1 - a0
	if m.Type == MoveArcCW {
		sweep = -sweep
	}
	for sweep <= 1e-9 {
		sweep += 2 * math.Pi
	}
	return r * sweep
}
