// Package solve is the C7 solver driver: it hands a roster.Model to a
// CP-SAT-shaped Solver interface and returns a structured result. The
// interface mirrors what a call to an external CP-SAT service would look
// like (model in, time/seed/worker parameters in, assignment out) so the
// in-process implementation can be swapped for a real solver client without
// touching callers.
package solve

import (
	"context"
	"math/rand"
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/atc-roster/engine/internal/config"
	"github.com/atc-roster/engine/internal/roster"
	"github.com/atc-roster/engine/internal/types"
)

// iterationsPerSecond converts a Params.MaxSeconds budget into a fixed
// iteration count for runAttempt, so the hill-climbing loop's stopping
// point is a deterministic function of (seed, MaxSeconds) rather than of
// real elapsed time.
const iterationsPerSecond = 2000

// Params are the CP-SAT-style controls handed to Solve (spec §4.4/§6).
type Params struct {
	MaxSeconds           int
	Workers              int
	RelativeGap          float64
	Seed                 *int64
	UseRandomization     bool
	UseLNS               bool
	MaxOptimalSolutions  *int
	MaxZeroShortage      *int
	UseManualAssignments bool
}

// Result is one completed solve attempt.
type Result struct {
	Assignment *roster.Assignment
	Status     types.SolutionStatus
	Objective  float64
	Breakdown  roster.Breakdown
	Violations []roster.Violation
	Seed       int64
	Shortage   int // count of uncovered (slot, required-sector) pairs
}

// Solver hands a model to a solving backend and returns the best attempt
// found within the wall-time budget.
type Solver interface {
	Solve(ctx context.Context, m *roster.Model, w config.Weights, p Params, nightWindow func(int) bool) (*Result, error)
}

// LocalSearchSolver is the in-process stand-in for the external CP-SAT
// solver (spec.md's own Design Notes frame persistence and solving as
// external collaborators; no constraint-programming library exists in this
// module's dependency surface, so the same role is filled in-process behind
// this interface). It builds an initial feasible assignment by constructive
// greedy placement honoring the hard rules as it goes, then improves it with
// randomized-restart hill-climbing bounded by a deterministic iteration
// budget derived from the wall-time parameter -- explicitly not simulated
// annealing.
type LocalSearchSolver struct{}

// Solve implements Solver.
func (LocalSearchSolver) Solve(ctx context.Context, m *roster.Model, w config.Weights, p Params, nightWindow func(int) bool) (*Result, error) {
	workers := p.Workers
	if workers <= 0 {
		workers = 1
	}
	maxSeconds := p.MaxSeconds
	if maxSeconds <= 0 {
		maxSeconds = 1
	}

	var baseSeed int64
	if p.Seed != nil {
		baseSeed = *p.Seed
	}

	if !p.UseRandomization {
		workers = 1
	}

	var (
		mu   sync.Mutex
		best *Result
	)

	var wg conc.WaitGroup
	for wi := 0; wi < workers; wi++ {
		workerSeed := baseSeed + int64(wi)
		wg.Go(func() {
			attempt := runAttempt(m, w, p, nightWindow, workerSeed, maxSeconds)
			mu.Lock()
			defer mu.Unlock()
			if best == nil || betterResult(attempt, best) {
				best = attempt
			}
		})
	}
	wg.Wait()

	if best == nil {
		best = runAttempt(m, w, p, nightWindow, baseSeed, maxSeconds)
	}

	return best, nil
}

// betterResult ranks feasible-with-lower-objective above infeasible, and
// fewer violations above more when both are infeasible.
func betterResult(a, b *Result) bool {
	aFeasible := len(a.Violations) == 0
	bFeasible := len(b.Violations) == 0
	if aFeasible != bFeasible {
		return aFeasible
	}
	if aFeasible {
		return a.Objective < b.Objective
	}
	return len(a.Violations) < len(b.Violations)
}

// runAttempt builds one feasible-as-possible assignment and hill-climbs it
// for a fixed, seed-independent number of iterations derived from the
// wall-time budget, or until the configured solution caps are hit. Requests
// have no finer cancellation than that budget (spec §5): a client disconnect
// does not interrupt a run in progress, so this loop never consults ctx or
// the real clock -- the iteration count stands in for the wall-time budget
// and keeps a given seed's trajectory reproducible regardless of machine
// load (spec §8 property 9, scenario S6).
func runAttempt(m *roster.Model, w config.Weights, p Params, nightWindow func(int) bool, seed int64, maxSeconds int) *Result {
	rng := rand.New(rand.NewSource(seed))

	a := construct(m, rng)
	improveCount := 0
	zeroShortageCount := 0

	violations := roster.CheckAll(m, a)
	breakdown := roster.Evaluate(m, a, w, p.UseManualAssignments, nightWindow)
	bestObjective := breakdown.Total
	bestGrid := cloneGrid(a.Grid)

	maxIterations := iterationsPerSecond * maxSeconds
	exhausted := true

	for iter := 0; iter < maxIterations; iter++ {
		if p.UseLNS {
			destroyAndRepair(m, a, rng)
		} else {
			proposeMove(m, a, rng)
		}

		v := roster.CheckAll(m, a)
		b := roster.Evaluate(m, a, w, p.UseManualAssignments, nightWindow)

		accept := false
		switch {
		case len(v) < len(violations):
			accept = true
		case len(v) == len(violations) && len(v) == 0 && b.Total < bestObjective:
			accept = true
		case len(v) == len(violations) && len(v) > 0 && b.Total < bestObjective:
			accept = true
		}

		if accept {
			violations = v
			breakdown = b
			bestObjective = b.Total
			bestGrid = cloneGrid(a.Grid)
			if len(v) == 0 {
				improveCount++
				shortage := countShortage(m, a)
				if shortage == 0 {
					zeroShortageCount++
				}
				if p.MaxZeroShortage != nil && zeroShortageCount >= *p.MaxZeroShortage {
					exhausted = false
					break
				}
				if p.MaxOptimalSolutions != nil && improveCount >= *p.MaxOptimalSolutions {
					exhausted = false
					break
				}
			}
		} else {
			a.Grid = cloneGrid(bestGrid)
		}
	}

	a.Grid = bestGrid
	status := types.StatusOptimal
	if len(violations) > 0 {
		status = types.StatusInfeasible
	} else if exhausted {
		status = types.StatusFeasible
	}

	return &Result{
		Assignment: a,
		Status:     status,
		Objective:  bestObjective,
		Breakdown:  breakdown,
		Violations: violations,
		Seed:       seed,
		Shortage:   countShortage(m, a),
	}
}

func countShortage(m *roster.Model, a *roster.Assignment) int {
	shortage := 0
	for t := range m.Slots {
		for _, s := range m.RequiredSectors[t] {
			covered := false
			for c := range m.Controllers {
				if !m.InShift[c][t] || m.FlagS[c][t] {
					continue
				}
				if sc, ok := a.Grid[c][t].SectorCode(); ok && sc == s {
					covered = true
					break
				}
			}
			if !covered {
				shortage++
			}
		}
	}
	return shortage
}

func cloneGrid(grid [][]types.SectorOrBreak) [][]types.SectorOrBreak {
	out := make([][]types.SectorOrBreak, len(grid))
	for i, row := range grid {
		out[i] = append([]types.SectorOrBreak(nil), row...)
	}
	return out
}
