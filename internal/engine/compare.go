package engine

import (
	"fmt"
	"time"

	"github.com/piwi3910/NestCut/internal/model"
)

// ComparisonScenario defines a named set of settings to compare.
type ComparisonScenario struct {
	Name     string
	Settings model.NestSettings
}

// ComparisonResult holds the search result and computed statistics
// for a single scenario.
type ComparisonResult struct {
	Scenario     ComparisonScenario
	Result       Result
	Fitness      float64
	SheetsUsed   int
	Feasible     bool
	WastePercent float64
	Duration     time.Duration
	Err          error
}

// CompareScenarios runs one search per scenario and returns the results in
// scenario order. A scenario whose settings are rejected is reported with
// its error instead of aborting the comparison.
func CompareScenarios(parts []model.Part, scenarios []ComparisonScenario, opts ...Option) []ComparisonResult {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		cr := ComparisonResult{Scenario: scenario}

		n, err := New(parts, scenario.Settings, opts...)
		if err != nil {
			cr.Err = err
			results = append(results, cr)
			continue
		}
		res, err := n.Run()
		if err != nil {
			cr.Err = err
			results = append(results, cr)
			continue
		}

		cr.Result = res
		cr.Fitness = res.Fitness()
		cr.SheetsUsed = res.Evaluation.SheetsUsed
		cr.Feasible = res.Feasible()
		cr.Duration = res.Duration
		if cr.Feasible {
			cr.WastePercent = 100 * (1 - cr.Fitness)
		} else {
			cr.WastePercent = 100
		}
		results = append(results, cr)
	}

	return results
}

// BuildDefaultScenarios generates a set of comparison scenarios based on
// the current settings, varying key parameters to show what-if alternatives.
func BuildDefaultScenarios(base model.NestSettings) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{
			Name:     "Current Settings",
			Settings: base,
		},
	}

	// Scenario: different seed
	reseeded := base
	reseeded.Seed = base.Seed + 1
	scenarios = append(scenarios, ComparisonScenario{
		Name:     fmt.Sprintf("Seed %d", reseeded.Seed),
		Settings: reseeded,
	})

	// Scenario: double population
	bigPop := base
	bigPop.PopulationSize = base.PopulationSize * 2
	scenarios = append(scenarios, ComparisonScenario{
		Name:     fmt.Sprintf("Population %d", bigPop.PopulationSize),
		Settings: bigPop,
	})

	// Scenario: double generations
	longRun := base
	longRun.Generations = base.Generations * 2
	if longRun.Generations == 0 {
		longRun.Generations = 10
	}
	scenarios = append(scenarios, ComparisonScenario{
		Name:     fmt.Sprintf("Generations %d", longRun.Generations),
		Settings: longRun,
	})

	// Scenario: allow more sheets
	moreSheets := base
	moreSheets.MaxSheets = base.MaxSheets * 2
	scenarios = append(scenarios, ComparisonScenario{
		Name:     fmt.Sprintf("Max sheets %d", moreSheets.MaxSheets),
		Settings: moreSheets,
	})

	return scenarios
}
