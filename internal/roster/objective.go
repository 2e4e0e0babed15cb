package roster

import (
	"github.com/atc-roster/engine/internal/config"
	"github.com/atc-roster/engine/internal/types"
)

// Breakdown is the per-term contribution to the weighted objective, useful
// for diagnostics and tests; Total is the minimized weighted sum (spec §4.6).
type Breakdown struct {
	UncoveredSector   float64
	ShiftLeaderWork   float64
	SupervisorWork    float64
	LastHourWork      float64
	ShortBreak        float64
	RotationViolation float64
	RotationBonus     float64
	ContinuityBonus   float64
	ExcessController  float64
	NightBreakRegular float64
	NightWorkRegular  float64
	NightLongBreak    float64
	NightLongWork     float64
	NightSpread       float64
	FMPOnFMP          float64
	FMPElsewhere      float64
	UnlicensedFMP     float64
	NonFMPOnFMP       float64
	PreferredBlock    float64
	FragmentedWork    float64
	Total             float64
}

// isPinned reports whether (c,t) is a manual pin, used to exempt pinned
// assignments from soft terms when useManualAssignments is set (spec §4.6,
// §9 Open Question 3).
func isPinned(m *Model, c, t int) bool {
	for _, p := range m.Pins {
		if p.ControllerIdx == c && p.SlotIdx == t {
			return true
		}
	}
	return false
}

// Evaluate computes the weighted objective for a candidate assignment.
// nightWindow reports whether the slot at index t falls in the configured
// night window (spec §4.6 "night window").
func Evaluate(m *Model, a *Assignment, w config.Weights, useManualAssignments bool, nightWindow func(t int) bool) Breakdown {
	var b Breakdown

	lastTwo := map[int]map[int]bool{} // controllerIdx -> set of slot idx in their last two in-shift slots
	for c := range m.Controllers {
		tail := inShiftIndices(m, c)
		set := map[int]bool{}
		if n := len(tail); n > 0 {
			for _, t := range tail[max(0, n-2):] {
				set[t] = true
			}
		}
		lastTwo[c] = set
	}

	for t := range m.Slots {
		for _, s := range m.RequiredSectors[t] {
			covered := false
			excess := 0
			for c := range m.Controllers {
				if !m.InShift[c][t] || m.FlagS[c][t] {
					continue
				}
				if sc, ok := a.Grid[c][t].SectorCode(); ok && sc == s {
					covered = true
					excess++
				}
			}
			if !covered {
				b.UncoveredSector += w.UncoveredSector
			}
			if excess > 1 {
				b.ExcessController += w.ExcessController * float64(excess-1)
			}
		}
	}

	nightRegularWorked := map[int]int{}

	for c, ctrl := range m.Controllers {
		exempt := func(t int) bool { return useManualAssignments && isPinned(m, c, t) }

		for t := range m.Slots {
			if !m.InShift[c][t] || m.FlagS[c][t] {
				continue
			}
			v := a.Grid[c][t]
			sector, works := v.SectorCode()

			if works && lastTwo[c][t] && !exempt(t) {
				b.LastHourWork += w.LastHourWork
			}

			if works {
				if ctrl.Role == types.RoleShiftLeader {
					b.ShiftLeaderWork += w.ShiftLeaderWorking
				}
				if ctrl.Role == types.RoleSupervisor {
					b.SupervisorWork += w.SupervisorWorking
				}

				isFMPSector := types.IsFMP(sector)
				switch {
				case isFMPSector && fmpEligible(ctrl):
					b.FMPOnFMP += w.FMPOnFMP
				case !isFMPSector && ctrl.Role == types.RoleFlowManagement && ctrl.Licensed:
					b.FMPElsewhere += w.FMPElsewhere
				case isFMPSector && !fmpEligible(ctrl):
					b.UnlicensedFMP += w.UnlicensedFMP
				}
				if isFMPSector && !fmpEligible(ctrl) {
					b.NonFMPOnFMP += w.NonFMPOnFMP
				}
			}

			if ctrl.Role == types.RoleRegular && ctrl.ShiftCode == "N" && nightWindow(t) {
				if works {
					b.NightWorkRegular += w.NightWorkRegular
					nightRegularWorked[c]++
				} else {
					b.NightBreakRegular += w.NightBreakRegular
				}
			}

			if t > 0 && m.InShift[c][t-1] {
				prev := a.Grid[c][t-1]
				prevSector, prevWorks := prev.SectorCode()
				if works && prevWorks && types.BasePrefix(prevSector) == types.BasePrefix(sector) {
					b.ContinuityBonus += w.ContinuityBonus
				}
			}
		}

		evaluateBlockShape(m, a, c, w, &b)
		evaluateRotation(m, a, c, w, &b)
		evaluateNightLongRuns(m, a, c, w, nightWindow, &b)
	}

	if len(nightRegularWorked) > 0 {
		minW, maxW := -1, -1
		for _, n := range nightRegularWorked {
			if minW == -1 || n < minW {
				minW = n
			}
			if n > maxW {
				maxW = n
			}
		}
		b.NightSpread += w.NightWorkloadSpread * float64(maxW-minW)
	}

	b.Total = b.UncoveredSector + b.ShiftLeaderWork + b.SupervisorWork + b.LastHourWork +
		b.ShortBreak + b.RotationViolation + b.RotationBonus + b.ContinuityBonus +
		b.ExcessController + b.NightBreakRegular + b.NightWorkRegular + b.NightLongBreak +
		b.NightLongWork + b.NightSpread + b.FMPOnFMP + b.FMPElsewhere + b.UnlicensedFMP +
		b.NonFMPOnFMP + b.PreferredBlock + b.FragmentedWork

	return b
}

// evaluateBlockShape detects short breaks after long blocks, preferred
// 4-slot blocks, and fragmented work-break-work patterns.
func evaluateBlockShape(m *Model, a *Assignment, c int, w config.Weights, b *Breakdown) {
	slots := inShiftIndices(m, c)
	for i := range slots {
		t := slots[i]
		works := !a.Grid[c][t].IsBreak()
		if !works && i > 0 && i+1 < len(slots) {
			before := !a.Grid[c][slots[i-1]].IsBreak()
			after := !a.Grid[c][slots[i+1]].IsBreak()
			if before && after {
				b.FragmentedWork += w.FragmentedWork
			}
		}
	}
	for i := 0; i+4 <= len(slots); i++ {
		window := slots[i : i+4]
		if !allWork(a, c, window) {
			continue
		}
		isExactly4 := true
		if i > 0 && !a.Grid[c][slots[i-1]].IsBreak() {
			isExactly4 = false
		}
		if i+4 < len(slots) && !a.Grid[c][slots[i+4]].IsBreak() {
			isExactly4 = false
		}
		if isExactly4 {
			b.PreferredBlock += w.PreferredBlock
		}
		// Short break detector: a break slot right after the block lasting
		// less than one hour (i.e. a single break slot followed by work)
		// counts as a short break against the §4.6 penalty.
		if i+5 < len(slots) {
			breakSlot := slots[i+4]
			nextSlot := slots[i+5]
			if a.Grid[c][breakSlot].IsBreak() && !a.Grid[c][nextSlot].IsBreak() {
				b.ShortBreak += w.ShortBreak
			}
		}
	}
}

// evaluateRotation detects same-position-three-slots-running patterns
// (rotation violation) and rewards taking the alternate E/P suffix when
// both were required at a slot (position rotation bonus).
func evaluateRotation(m *Model, a *Assignment, c int, w config.Weights, b *Breakdown) {
	slots := inShiftIndices(m, c)
	for i := 0; i+3 <= len(slots); i++ {
		s0, ok0 := a.Grid[c][slots[i]].SectorCode()
		s1, ok1 := a.Grid[c][slots[i+1]].SectorCode()
		s2, ok2 := a.Grid[c][slots[i+2]].SectorCode()
		if ok0 && ok1 && ok2 && s0 == s1 && s1 == s2 {
			t := slots[i+2]
			alt := alternateSuffix(s2)
			if alt != "" && containsSector(m.RequiredSectors[t], alt) {
				b.RotationViolation += w.RotationViolation
			}
		}
	}
	for i := 1; i < len(slots); i++ {
		prevT, t := slots[i-1], slots[i]
		prevSector, prevOk := a.Grid[c][prevT].SectorCode()
		sector, ok := a.Grid[c][t].SectorCode()
		if !prevOk || !ok {
			continue
		}
		if alternateSuffix(prevSector) != sector {
			continue
		}
		if containsSector(m.RequiredSectors[t], prevSector) && containsSector(m.RequiredSectors[t], sector) {
			// switched from the primary to the secondary (or back) position
			// while both were required at this slot
			b.RotationBonus += w.PositionRotationBonus
		}
	}
}

func alternateSuffix(sector string) string {
	if len(sector) == 0 {
		return ""
	}
	last := sector[len(sector)-1]
	switch last {
	case 'E':
		return sector[:len(sector)-1] + "P"
	case 'P':
		return sector[:len(sector)-1] + "E"
	default:
		return ""
	}
}

// evaluateNightLongRuns detects long (>=3 slot) work runs and long (>=4
// slot, i.e. 2h) break runs inside the night window for regular controllers
// on the night shift code.
func evaluateNightLongRuns(m *Model, a *Assignment, c int, w config.Weights, nightWindow func(int) bool, b *Breakdown) {
	ctrl := m.Controllers[c]
	if ctrl.Role != types.RoleRegular || ctrl.ShiftCode != "N" {
		return
	}
	slots := inShiftIndices(m, c)
	var nightSlots []int
	for _, t := range slots {
		if nightWindow(t) {
			nightSlots = append(nightSlots, t)
		}
	}
	runWork, runBreak := 0, 0
	flush := func() {
		if runWork >= 3 {
			b.NightLongWork += w.NightLongWork
		}
		if runBreak >= 4 {
			b.NightLongBreak += w.NightLongBreak
		}
		runWork, runBreak = 0, 0
	}
	for _, t := range nightSlots {
		if a.Grid[c][t].IsBreak() {
			if runWork > 0 {
				flush()
			}
			runBreak++
		} else {
			if runBreak > 0 {
				flush()
			}
			runWork++
		}
	}
	flush()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
