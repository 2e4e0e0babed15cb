package roster

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atc-roster/engine/internal/config"
	"github.com/atc-roster/engine/internal/types"
)

func defaultWeights(t *testing.T) config.Weights {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg.Solver.Weights
}

func alwaysDay(int) bool { return false }

func TestEvaluate_PenalizesUncoveredSectorFarAboveEverythingElse(t *testing.T) {
	slots := fourSlotDay(t)
	controllers := []types.Controller{regularController("C1")}
	m := &Model{
		Slots:           slots,
		Controllers:     controllers,
		RequiredSectors: [][]string{{"LU E"}, {"LU E"}, {"LU E"}, {"LU E"}},
		InShift:         [][]bool{{true, true, true, true}},
		FlagS:           [][]bool{{false, false, false, false}},
	}
	a := NewAssignment(m) // nobody assigned -> every slot uncovered

	w := defaultWeights(t)
	b := Evaluate(m, a, w, false, alwaysDay)

	require.Equal(t, 4*w.UncoveredSector, b.UncoveredSector)
	require.Equal(t, b.UncoveredSector, b.Total)
}

func TestEvaluate_RewardsContinuityAcrossConsecutiveMatchingSectors(t *testing.T) {
	slots := fourSlotDay(t)
	controllers := []types.Controller{regularController("C1")}
	m := &Model{
		Slots:           slots,
		Controllers:     controllers,
		RequiredSectors: [][]string{{"TX1E"}, {"TX1E"}, {"TX1E"}, {"TX1E"}},
		InShift:         [][]bool{{true, true, true, true}},
		FlagS:           [][]bool{{false, false, false, false}},
	}
	a := NewAssignment(m)
	for i := 0; i < 4; i++ {
		a.Grid[0][i] = types.Sector("TX1E")
	}

	w := defaultWeights(t)
	b := Evaluate(m, a, w, false, alwaysDay)

	require.Equal(t, 3*w.ContinuityBonus, b.ContinuityBonus)
}

func TestEvaluate_LastHourWorkPenalizedUnlessPinnedAndExempt(t *testing.T) {
	slots := fourSlotDay(t)
	controllers := []types.Controller{regularController("C1")}
	m := &Model{
		Slots:           slots,
		Controllers:     controllers,
		RequiredSectors: [][]string{{"LU E"}, {"LU E"}, {"LU E"}, {"LU E"}},
		InShift:         [][]bool{{true, true, true, true}},
		FlagS:           [][]bool{{false, false, false, false}},
		Pins:            []Pin{{ControllerIdx: 0, SlotIdx: 3, Value: types.Sector("LU E")}},
	}
	a := NewAssignment(m)
	a.Grid[0][2] = types.Sector("LU E")
	a.Grid[0][3] = types.Sector("LU E")

	w := defaultWeights(t)

	withoutExemption := Evaluate(m, a, w, false, alwaysDay)
	require.Equal(t, 2*w.LastHourWork, withoutExemption.LastHourWork)

	withExemption := Evaluate(m, a, w, true, alwaysDay)
	require.Equal(t, w.LastHourWork, withExemption.LastHourWork)
}

func TestEvaluate_RotationBonusAwardedForAlternatingEPPosition(t *testing.T) {
	slots := fourSlotDay(t)
	controllers := []types.Controller{regularController("C1")}
	m := &Model{
		Slots:           slots,
		Controllers:     controllers,
		RequiredSectors: [][]string{{"TX1E", "TX1P"}, {"TX1E", "TX1P"}, {"TX1E", "TX1P"}, {"TX1E", "TX1P"}},
		InShift:         [][]bool{{true, true, true, true}},
		FlagS:           [][]bool{{false, false, false, false}},
	}
	a := NewAssignment(m)
	a.Grid[0][0] = types.Sector("TX1E")
	a.Grid[0][1] = types.Sector("TX1P")
	a.Grid[0][2] = types.Sector("TX1E")
	a.Grid[0][3] = types.Sector("TX1P")

	w := defaultWeights(t)
	b := Evaluate(m, a, w, false, alwaysDay)

	require.Equal(t, 3*w.PositionRotationBonus, b.RotationBonus)
	require.NotZero(t, b.RotationBonus)
}
