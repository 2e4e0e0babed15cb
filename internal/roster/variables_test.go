package roster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atc-roster/engine/internal/roster/source"
	"github.com/atc-roster/engine/internal/types"
)

func TestBuildVariables_DomainRestrictedToRequiredSectorsPlusBreak(t *testing.T) {
	start := time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	slots := []types.TimeSlot{{Start: start, End: end}}

	rows := []source.ShiftRow{{ControllerID: "C1", Role: "regular", SlotFrom: start, SlotTo: end}}
	staged := StageInput(rows, nil, nil, nil, false)
	demand := SectorDemand{RequiredSectors: [][]string{{"LU E"}}}

	m := BuildVariables(slots, staged.Controllers, staged, demand)

	require.Len(t, m.Domain[0][0], 2)
	require.True(t, m.DomainAllows(0, 0, types.Break()))
	require.True(t, m.DomainAllows(0, 0, types.Sector("LU E")))
	require.False(t, m.DomainAllows(0, 0, types.Sector("TX1E")))
}

func TestBuildVariables_SkipsPinNotInRequiredSectors(t *testing.T) {
	start := time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	slots := []types.TimeSlot{{Start: start, End: end}}

	rows := []source.ShiftRow{{ControllerID: "C1", Role: "regular", SlotFrom: start, SlotTo: end, Sector: "TX1P"}}
	staged := StageInput(rows, nil, nil, nil, true)
	demand := SectorDemand{RequiredSectors: [][]string{{"LU E"}}}

	m := BuildVariables(slots, staged.Controllers, staged, demand)

	require.Empty(t, m.Pins)
	require.Len(t, m.SkippedPins, 1)
	require.Equal(t, "TX1P", m.SkippedPins[0].Sector)
}

func TestBuildVariables_HonorsValidPinAsFixedChoice(t *testing.T) {
	start := time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	slots := []types.TimeSlot{{Start: start, End: end}}

	rows := []source.ShiftRow{{ControllerID: "C1", Role: "regular", SlotFrom: start, SlotTo: end, Sector: "LU E"}}
	staged := StageInput(rows, nil, nil, nil, true)
	demand := SectorDemand{RequiredSectors: [][]string{{"LU E"}}}

	m := BuildVariables(slots, staged.Controllers, staged, demand)

	require.Len(t, m.Pins, 1)
	require.Equal(t, 0, m.Pins[0].SlotIdx)
	require.Equal(t, 0, m.PinnedControllerAt[0]["LU E"])
}

func TestBuildVariables_UnlicensedFlowManagementExcludedFromFMPDomain(t *testing.T) {
	start := time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	slots := []types.TimeSlot{{Start: start, End: end}}

	rows := []source.ShiftRow{{ControllerID: "C1", Role: "flow-management", SlotFrom: start, SlotTo: end}}
	staged := StageInput(rows, map[string]bool{"C1": false}, nil, nil, false)
	demand := SectorDemand{RequiredSectors: [][]string{{"FMP1"}}}

	m := BuildVariables(slots, staged.Controllers, staged, demand)

	require.False(t, m.DomainAllows(0, 0, types.Sector("FMP1")))
	require.True(t, m.DomainAllows(0, 0, types.Break()))
}

func TestBuildVariables_OutOfShiftOrFlagSDomainIsBreakOnly(t *testing.T) {
	start := time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	slots := []types.TimeSlot{{Start: start, End: end}}

	rows := []source.ShiftRow{{ControllerID: "C1", Role: "regular", SlotFrom: start, SlotTo: end, Flag: "S"}}
	staged := StageInput(rows, nil, nil, nil, false)
	demand := SectorDemand{RequiredSectors: [][]string{{"LU E"}}}

	m := BuildVariables(slots, staged.Controllers, staged, demand)

	require.Len(t, m.Domain[0][0], 1)
	require.True(t, m.FlagS[0][0])
}
