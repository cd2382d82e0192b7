package engine

import (
	"math/rand"

	"github.com/piwi3910/NestCut/internal/geometry"
	"github.com/piwi3910/NestCut/internal/model"
)

// fixedAngles are tried on every attempt during the first phase of the
// single-part search.
var fixedAngles = []float64{0, 90, 180, 270}

// singleSearch places one part on one sheet by randomized sampling.
type singleSearch struct {
	settings model.NestSettings
	ev       *Evaluator
	part     model.Part
	rng      *rand.Rand
	rec      Recorder
}

// run returns the best placement found, its evaluation and the number of
// evaluations spent. When no sample scores above zero the part is centered
// on the sheet at angle 0.
func (s *singleSearch) run() (model.Solution, Evaluation, int) {
	min, max := s.part.Outline.BoundingBox()
	w, h := max.X-min.X, max.Y-min.Y
	r := s.settings.ToolDiameter / 2
	marginX := s.settings.SheetWidth - w - 2*r
	marginY := s.settings.SheetHeight - h - 2*r

	var (
		best        model.Solution
		bestEval    Evaluation
		evaluations int
	)

	one := make(model.Solution, 1)
	for attempt := 0; attempt < s.settings.Attempts; attempt++ {
		dx := r + sampleOffset(s.rng, marginX) - min.X
		dy := r + sampleOffset(s.rng, marginY) - min.Y

		angles := fixedAngles
		if attempt >= s.settings.FixedAngleAttempts {
			angles = []float64{s.rng.Float64() * 360}
		}

		for _, angle := range angles {
			one[0] = model.Placement{PartIndex: 0, X: dx, Y: dy, Angle: angle, SheetIndex: 0}
			e := s.ev.Evaluate(one)
			evaluations++
			s.rec.ObserveEvaluation(e.Status)
			if e.Fitness() > bestEval.Fitness() {
				best, bestEval = one.Clone(), e
			}
		}

		if bestEval.Fitness() > s.settings.EarlyStopUtilization {
			break
		}
	}

	if bestEval.Fitness() > 0 {
		return best, bestEval, evaluations
	}

	c := geometry.Centroid(s.part.Outline)
	fallback := model.Solution{{
		PartIndex:  0,
		X:          s.settings.SheetWidth/2 - c.X,
		Y:          s.settings.SheetHeight/2 - c.Y,
		Angle:      0,
		SheetIndex: 0,
	}}
	e := s.ev.Evaluate(fallback)
	s.rec.ObserveEvaluation(e.Status)
	return fallback, e, evaluations + 1
}

// sampleOffset draws a position uniformly from [0, margin), or centers the
// part when it does not fit along this axis.
func sampleOffset(rng *rand.Rand, margin float64) float64 {
	if margin <= 0 {
		return margin / 2
	}
	return rng.Float64() * margin
}
