package roster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atc-roster/engine/internal/roster/source"
	"github.com/atc-roster/engine/internal/types"
)

func TestStageInput_FiltersByRoleWhitelist(t *testing.T) {
	start := time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	rows := []source.ShiftRow{
		{ControllerID: "C1", Role: "regular", SlotFrom: start, SlotTo: end},
		{ControllerID: "C2", Role: "supervisor", SlotFrom: start, SlotTo: end},
	}

	staged := StageInput(rows, nil, []string{"regular"}, nil, false)

	require.Len(t, staged.Controllers, 1)
	require.Equal(t, "C1", staged.Controllers[0].ID)
}

func TestStageInput_FiltersByControllerWhitelist(t *testing.T) {
	start := time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	rows := []source.ShiftRow{
		{ControllerID: "C1", Role: "regular", SlotFrom: start, SlotTo: end},
		{ControllerID: "C2", Role: "regular", SlotFrom: start, SlotTo: end},
	}

	staged := StageInput(rows, nil, nil, []string{"C2"}, false)

	require.Len(t, staged.Controllers, 1)
	require.Equal(t, "C2", staged.Controllers[0].ID)
}

func TestStageInput_ExtractsManualPinOnlyWhenEnabled(t *testing.T) {
	start := time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	rows := []source.ShiftRow{
		{ControllerID: "C1", Role: "regular", SlotFrom: start, SlotTo: end, Sector: "LU E"},
	}

	withPins := StageInput(rows, nil, nil, nil, true)
	slot := types.TimeSlot{Start: start, End: end}
	val, ok := withPins.PinFor("C1", slot)
	require.True(t, ok)
	sector, isSector := val.SectorCode()
	require.True(t, isSector)
	require.Equal(t, "LU E", sector)

	withoutPins := StageInput(rows, nil, nil, nil, false)
	_, ok = withoutPins.PinFor("C1", slot)
	require.False(t, ok)
}

func TestStageInput_MergesShiftBoundsAcrossMultipleRowsForSameController(t *testing.T) {
	start := time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)
	mid := start.Add(30 * time.Minute)
	end := start.Add(time.Hour)
	rows := []source.ShiftRow{
		{ControllerID: "C1", Role: "regular", SlotFrom: start, SlotTo: mid},
		{ControllerID: "C1", Role: "regular", SlotFrom: mid, SlotTo: end},
	}

	staged := StageInput(rows, nil, nil, nil, false)

	require.Len(t, staged.Controllers, 1)
	require.Equal(t, start, staged.Controllers[0].ShiftStart)
	require.Equal(t, end, staged.Controllers[0].ShiftEnd)
}

func TestStageInput_TracksFlagSRanges(t *testing.T) {
	start := time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	rows := []source.ShiftRow{
		{ControllerID: "C1", Role: "regular", SlotFrom: start, SlotTo: end, Flag: "S"},
	}

	staged := StageInput(rows, nil, nil, nil, false)
	require.Len(t, staged.FlagRanges["C1"], 1)
	require.Equal(t, start, staged.FlagRanges["C1"][0].From)
	require.Equal(t, end, staged.FlagRanges["C1"][0].To)
}
