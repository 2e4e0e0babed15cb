package roster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atc-roster/engine/internal/types"
)

func TestBuildSlotVector_ProducesContiguousHalfOpenSlots(t *testing.T) {
	start := time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)

	slots := BuildSlotVector(start, end, 30*time.Minute)

	require.Len(t, slots, 3)
	require.Equal(t, start, slots[0].Start)
	require.Equal(t, slots[0].End, slots[1].Start)
	require.Equal(t, end, slots[2].End)
}

func TestBuildSlotVector_DropsTrailingPartialSlot(t *testing.T) {
	start := time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)
	end := start.Add(40 * time.Minute) // only one full 30-min slot fits

	slots := BuildSlotVector(start, end, 30*time.Minute)
	require.Len(t, slots, 1)
}

func TestInShift_MShiftTailTrimExcludesLastTwoSlotsWithoutPin(t *testing.T) {
	start := time.Date(2026, 3, 5, 6, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	slots := BuildSlotVector(start, end, 30*time.Minute)
	c := types.Controller{ShiftCode: "M", ShiftStart: start, ShiftEnd: end}

	require.True(t, InShift(c, 0, slots, nil))
	require.True(t, InShift(c, 1, slots, nil))
	require.False(t, InShift(c, 2, slots, nil)) // second-to-last
	require.False(t, InShift(c, 3, slots, nil)) // last
}

func TestInShift_MShiftTailTrimOverriddenByWorkingPin(t *testing.T) {
	start := time.Date(2026, 3, 5, 6, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	slots := BuildSlotVector(start, end, 30*time.Minute)
	c := types.Controller{ShiftCode: "M", ShiftStart: start, ShiftEnd: end}

	pin := types.Sector("LU E")
	require.True(t, InShift(c, 3, slots, &pin))

	breakPin := types.Break()
	require.False(t, InShift(c, 3, slots, &breakPin))
}

func TestInShift_OutsideShiftWindowIsAlwaysFalse(t *testing.T) {
	start := time.Date(2026, 3, 5, 6, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	slots := BuildSlotVector(start.Add(-time.Hour), end.Add(time.Hour), 30*time.Minute)
	c := types.Controller{ShiftCode: "J", ShiftStart: start, ShiftEnd: end}

	require.False(t, InShift(c, 0, slots, nil)) // before shift start
	require.False(t, InShift(c, len(slots)-1, slots, nil)) // after shift end
}

func TestHasFlagS_DetectsSlotWithinReleaseRange(t *testing.T) {
	start := time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)
	slot := types.TimeSlot{Start: start, End: start.Add(30 * time.Minute)}
	ranges := []FlagSRange{{From: start, To: start.Add(time.Hour)}}

	require.True(t, HasFlagS(slot, ranges))

	outside := types.TimeSlot{Start: start.Add(2 * time.Hour), End: start.Add(2*time.Hour + 30*time.Minute)}
	require.False(t, HasFlagS(outside, ranges))
}
