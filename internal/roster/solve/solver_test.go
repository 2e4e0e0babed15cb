package solve

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atc-roster/engine/internal/config"
	"github.com/atc-roster/engine/internal/roster"
	"github.com/atc-roster/engine/internal/types"
)

func twoControllerFourSlotModel(t *testing.T) *roster.Model {
	t.Helper()
	start := time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)
	slots := roster.BuildSlotVector(start, start.Add(2*time.Hour), 30*time.Minute)

	mk := func(id string) types.Controller {
		return types.Controller{ID: id, Name: id, Role: types.RoleRegular, ShiftCode: "J", ShiftStart: start, ShiftEnd: start.Add(2 * time.Hour)}
	}
	controllers := []types.Controller{mk("C1"), mk("C2")}

	required := [][]string{{"LU E"}, {"LU E"}, {"LU E"}, {"LU E"}}
	inShift := [][]bool{{true, true, true, true}, {true, true, true, true}}
	flagS := [][]bool{{false, false, false, false}, {false, false, false, false}}
	domain := make([][][]types.SectorOrBreak, 2)
	for c := range domain {
		domain[c] = make([][]types.SectorOrBreak, len(slots))
		for ti := range slots {
			domain[c][ti] = []types.SectorOrBreak{types.Break(), types.Sector("LU E")}
		}
	}

	return &roster.Model{
		Slots:           slots,
		Controllers:     controllers,
		RequiredSectors: required,
		InShift:         inShift,
		FlagS:           flagS,
		Domain:          domain,
	}
}

func noNight(int) bool { return false }

func TestLocalSearchSolver_FindsFeasibleCoverageForMinimalScenario(t *testing.T) {
	m := twoControllerFourSlotModel(t)
	w := config.Weights{UncoveredSector: 50_000_000, ExcessController: 100_000}

	result, err := LocalSearchSolver{}.Solve(context.Background(), m, w, Params{
		MaxSeconds: 1,
		Workers:    2,
		Seed:       ptr(int64(1)),
	}, noNight)

	require.NoError(t, err)
	require.Empty(t, result.Violations)
	require.Equal(t, 0, result.Shortage)
}

func TestLocalSearchSolver_IsDeterministicGivenSameSeed(t *testing.T) {
	m1 := twoControllerFourSlotModel(t)
	m2 := twoControllerFourSlotModel(t)
	w := config.Weights{UncoveredSector: 50_000_000, ExcessController: 100_000}
	params := Params{MaxSeconds: 1, Workers: 1, Seed: ptr(int64(42)), UseRandomization: false}

	r1, err := LocalSearchSolver{}.Solve(context.Background(), m1, w, params, noNight)
	require.NoError(t, err)
	r2, err := LocalSearchSolver{}.Solve(context.Background(), m2, w, params, noNight)
	require.NoError(t, err)

	require.Equal(t, gridStrings(r1.Assignment), gridStrings(r2.Assignment))
}

func gridStrings(a *roster.Assignment) [][]string {
	out := make([][]string, len(a.Grid))
	for c, row := range a.Grid {
		out[c] = make([]string, len(row))
		for t, v := range row {
			out[c][t] = v.String()
		}
	}
	return out
}

func ptr[T any](v T) *T { return &v }
