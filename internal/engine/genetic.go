package engine

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc/iter"

	"github.com/piwi3910/NestCut/internal/model"
)

// population stores size individuals of partCount placements each in one
// contiguous arena. Individual i owns genes[i*partCount : (i+1)*partCount].
type population struct {
	genes     []model.Placement
	scores    []Evaluation
	size      int
	partCount int
}

func newPopulation(size, partCount int) *population {
	return &population{
		genes:     make([]model.Placement, size*partCount),
		scores:    make([]Evaluation, size),
		size:      size,
		partCount: partCount,
	}
}

// individual returns the placements of individual i. The slice aliases the
// arena and must be cloned before it outlives the population.
func (p *population) individual(i int) model.Solution {
	lo := i * p.partCount
	hi := lo + p.partCount
	return model.Solution(p.genes[lo:hi:hi])
}

// geneticSearch evolves placements for two or more parts.
type geneticSearch struct {
	settings model.NestSettings
	ev       *Evaluator
	rng      *rand.Rand
	logger   *log.Logger
	rec      Recorder

	partCount   int
	evaluations int
}

// run evolves the population for the configured number of generations and
// returns the best individual of the final population.
func (g *geneticSearch) run() (model.Solution, Evaluation, error) {
	size := g.settings.PopulationSize
	if size <= 0 || g.partCount == 0 {
		return nil, Evaluation{}, fmt.Errorf("%w: empty population", ErrSearchFault)
	}

	cur := newPopulation(size, g.partCount)
	next := newPopulation(size, g.partCount)
	g.initPopulation(cur)

	parents := size / 2
	if parents < 1 {
		parents = 1
	}
	order := make([]int, size)

	for gen := 0; gen < g.settings.Generations; gen++ {
		if err := g.evaluate(cur); err != nil {
			return nil, Evaluation{}, err
		}
		g.rank(cur, order)

		best := cur.scores[order[0]]
		g.rec.ObserveGeneration(best.Fitness())
		g.logger.Debug("generation", "gen", gen+1, "best", fmt.Sprintf("%.4f", best.Fitness()), "sheets", best.SheetsUsed, "status", best.Status)

		for r := 0; r < parents; r++ {
			copy(next.individual(r), cur.individual(order[r]))
		}
		for k := parents; k < size; k++ {
			g.crossover(next, parents, next.individual(k))
		}
		cur, next = next, cur
	}

	if err := g.evaluate(cur); err != nil {
		return nil, Evaluation{}, err
	}
	bestIdx := 0
	for i := 1; i < cur.size; i++ {
		if cur.scores[i].Fitness() > cur.scores[bestIdx].Fitness() {
			bestIdx = i
		}
	}
	return cur.individual(bestIdx).Clone(), cur.scores[bestIdx], nil
}

// initPopulation fills every individual with uniform random genes.
func (g *geneticSearch) initPopulation(p *population) {
	w := g.settings.SheetWidth * 0.8
	h := g.settings.SheetHeight * 0.8
	for i := range p.genes {
		p.genes[i] = model.Placement{
			PartIndex:  i % p.partCount,
			X:          g.rng.Float64() * w,
			Y:          g.rng.Float64() * h,
			Angle:      g.rng.Float64() * 360,
			SheetIndex: g.rng.Intn(g.settings.MaxSheets),
		}
	}
}

// evaluate scores every individual of p. With more than one worker the
// evaluations run concurrently; the results are identical either way.
func (g *geneticSearch) evaluate(p *population) error {
	if p.size == 0 || len(p.scores) != p.size {
		return fmt.Errorf("%w: no scores for population of %d", ErrSearchFault, p.size)
	}

	if g.settings.Workers <= 1 {
		for i := 0; i < p.size; i++ {
			p.scores[i] = g.ev.Evaluate(p.individual(i))
		}
	} else {
		indices := make([]int, p.size)
		for i := range indices {
			indices[i] = i
		}
		mapper := iter.Mapper[int, Evaluation]{MaxGoroutines: g.settings.Workers}
		copy(p.scores, mapper.Map(indices, func(i *int) Evaluation {
			return g.ev.Evaluate(p.individual(*i))
		}))
	}

	for _, s := range p.scores {
		g.rec.ObserveEvaluation(s.Status)
	}
	g.evaluations += p.size
	return nil
}

// rank writes the individual indices of p into order, best first. Equal
// fitness keeps population order.
func (g *geneticSearch) rank(p *population, order []int) {
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return p.scores[order[a]].Fitness() > p.scores[order[b]].Fitness()
	})
}

// crossover builds child from two distinct parents taken from the first
// parents individuals of p. Every gene field is inherited from either parent
// with equal probability; position and angle are then jittered by up to one
// unit while the sheet index is inherited exactly.
func (g *geneticSearch) crossover(p *population, parents int, child model.Solution) {
	a := g.rng.Intn(parents)
	b := a
	if parents > 1 {
		b = g.rng.Intn(parents - 1)
		if b >= a {
			b++
		}
	}
	pa, pb := p.individual(a), p.individual(b)

	for j := range child {
		x := pick(g.rng, pa[j].X, pb[j].X)
		y := pick(g.rng, pa[j].Y, pb[j].Y)
		angle := pick(g.rng, pa[j].Angle, pb[j].Angle)
		sheet := pa[j].SheetIndex
		if g.rng.Intn(2) == 1 {
			sheet = pb[j].SheetIndex
		}

		child[j] = model.Placement{
			PartIndex:  j,
			X:          x + jitter(g.rng),
			Y:          y + jitter(g.rng),
			Angle:      model.NormalizeAngle(angle + jitter(g.rng)),
			SheetIndex: sheet,
		}
	}
}

func pick(rng *rand.Rand, a, b float64) float64 {
	if rng.Intn(2) == 0 {
		return a
	}
	return b
}

// jitter returns a uniform perturbation in [-1, 1).
func jitter(rng *rand.Rand) float64 {
	return rng.Float64()*2 - 1
}
