package roster

import (
	"fmt"

	"github.com/atc-roster/engine/internal/types"
)

// Assignment is a candidate solution: Grid[c][t] holds the decided value of
// x[c,t,*].
type Assignment struct {
	Grid [][]types.SectorOrBreak // [controllerIdx][slotIdx]
}

// NewAssignment allocates an all-break grid for the given model.
func NewAssignment(m *Model) *Assignment {
	grid := make([][]types.SectorOrBreak, len(m.Controllers))
	for c := range grid {
		grid[c] = make([]types.SectorOrBreak, len(m.Slots))
		for t := range grid[c] {
			grid[c][t] = types.Break()
		}
	}
	return &Assignment{Grid: grid}
}

// ConstraintKind enumerates the spec §4.5 hard rules. A tagged enum
// dispatched through CheckKind, per Design Notes §9, rather than a plugin
// object per rule.
type ConstraintKind int

const (
	ConstraintExactlyOne ConstraintKind = iota
	ConstraintAtMostOneControllerPerSector
	ConstraintManualPin
	ConstraintSectorContinuity
	ConstraintMaxContinuousWork
	ConstraintBreakAfterLongBlock
	ConstraintMinWorkBlock
	ConstraintRoleExclusivity
	ConstraintLicensedOnlyFMP
)

// Violation describes one hard-rule failure found by a checker.
type Violation struct {
	Kind          ConstraintKind
	ControllerIdx int
	SlotIdx       int
	Detail        string
}

// CheckAll runs every hard-rule checker against the assignment and returns
// all violations found; used both by the solver's repair loop and directly
// by tests asserting the §8 testable properties.
func CheckAll(m *Model, a *Assignment) []Violation {
	var out []Violation
	for k := ConstraintExactlyOne; k <= ConstraintLicensedOnlyFMP; k++ {
		out = append(out, CheckKind(k, m, a)...)
	}
	return out
}

// CheckKind dispatches to the checker for a single constraint kind.
func CheckKind(kind ConstraintKind, m *Model, a *Assignment) []Violation {
	switch kind {
	case ConstraintExactlyOne:
		return checkExactlyOne(m, a)
	case ConstraintAtMostOneControllerPerSector:
		return checkAtMostOneControllerPerSector(m, a)
	case ConstraintManualPin:
		return checkManualPins(m, a)
	case ConstraintSectorContinuity:
		return checkSectorContinuity(m, a)
	case ConstraintMaxContinuousWork:
		return checkMaxContinuousWork(m, a)
	case ConstraintBreakAfterLongBlock:
		return checkBreakAfterLongBlock(m, a)
	case ConstraintMinWorkBlock:
		return checkMinWorkBlock(m, a)
	case ConstraintRoleExclusivity:
		return checkRoleExclusivity(m, a)
	case ConstraintLicensedOnlyFMP:
		return checkLicensedOnlyFMP(m, a)
	default:
		return nil
	}
}

func checkExactlyOne(m *Model, a *Assignment) []Violation {
	var out []Violation
	for c := range m.Controllers {
		for t := range m.Slots {
			v := a.Grid[c][t]
			if !m.InShift[c][t] || m.FlagS[c][t] {
				if !v.IsBreak() {
					out = append(out, Violation{ConstraintExactlyOne, c, t, "out-of-shift or flag-S controller must be on break"})
				}
				continue
			}
			if v.IsBreak() {
				continue
			}
			sector, _ := v.SectorCode()
			if !containsSector(m.RequiredSectors[t], sector) {
				out = append(out, Violation{ConstraintExactlyOne, c, t, fmt.Sprintf("assigned sector %q not required at slot", sector)})
			}
		}
	}
	return out
}

func checkAtMostOneControllerPerSector(m *Model, a *Assignment) []Violation {
	var out []Violation
	for t := range m.Slots {
		counts := map[string]int{}
		for c := range m.Controllers {
			if s, ok := a.Grid[c][t].SectorCode(); ok {
				counts[s]++
			}
		}
		for s, n := range counts {
			if n > 1 {
				out = append(out, Violation{ConstraintAtMostOneControllerPerSector, -1, t, fmt.Sprintf("sector %q has %d controllers assigned", s, n)})
			}
		}
	}
	return out
}

func checkManualPins(m *Model, a *Assignment) []Violation {
	var out []Violation
	for _, p := range m.Pins {
		if !equalChoice(a.Grid[p.ControllerIdx][p.SlotIdx], p.Value) {
			out = append(out, Violation{ConstraintManualPin, p.ControllerIdx, p.SlotIdx, "pin not honored"})
		}
	}
	return out
}

func checkSectorContinuity(m *Model, a *Assignment) []Violation {
	var out []Violation
	for c := range m.Controllers {
		for t := 1; t < len(m.Slots); t++ {
			if !m.InShift[c][t-1] || !m.InShift[c][t] {
				continue
			}
			prev, cur := a.Grid[c][t-1], a.Grid[c][t]
			prevSector, prevWorks := prev.SectorCode()
			curSector, curWorks := cur.SectorCode()
			if !prevWorks || !curWorks {
				continue
			}
			if pinsViolateContinuity(m, c, t) {
				continue // pin conflict: relaxed locally, already logged at model build
			}
			if types.BasePrefix(prevSector) != types.BasePrefix(curSector) {
				out = append(out, Violation{ConstraintSectorContinuity, c, t, fmt.Sprintf("sector changed base from %q to %q", prevSector, curSector)})
			}
		}
	}
	return out
}

// pinsViolateContinuity reports whether (c, t-1, t) is itself pinned to
// values that break continuity, in which case the rule is skipped for that
// pair per spec §4.5 rule 4 / §9 Open Question 4.
func pinsViolateContinuity(m *Model, c, t int) bool {
	var prevPin, curPin *Pin
	for i := range m.Pins {
		if m.Pins[i].ControllerIdx == c && m.Pins[i].SlotIdx == t-1 {
			prevPin = &m.Pins[i]
		}
		if m.Pins[i].ControllerIdx == c && m.Pins[i].SlotIdx == t {
			curPin = &m.Pins[i]
		}
	}
	if prevPin == nil || curPin == nil {
		return false
	}
	ps, pOK := prevPin.Value.SectorCode()
	cs, cOK := curPin.Value.SectorCode()
	if !pOK || !cOK {
		return false
	}
	return types.BasePrefix(ps) != types.BasePrefix(cs)
}

func checkMaxContinuousWork(m *Model, a *Assignment) []Violation {
	var out []Violation
	for c := range m.Controllers {
		inShiftSlots := inShiftIndices(m, c)
		for i := 0; i+4 <= len(inShiftSlots); i++ {
			window := inShiftSlots[i : i+4]
			if !allWork(a, c, window) {
				continue
			}
			if i+4 >= len(inShiftSlots) {
				continue // no fifth in-shift slot
			}
			fifth := inShiftSlots[i+4]
			if !a.Grid[c][fifth].IsBreak() && !pinForcesWork(m, c, fifth) {
				out = append(out, Violation{ConstraintMaxContinuousWork, c, fifth, "fifth slot after a 4-slot work block must be break"})
			}
		}
	}
	return out
}

func pinForcesWork(m *Model, c, t int) bool {
	for _, p := range m.Pins {
		if p.ControllerIdx == c && p.SlotIdx == t {
			_, ok := p.Value.SectorCode()
			return ok
		}
	}
	return false
}

func checkBreakAfterLongBlock(m *Model, a *Assignment) []Violation {
	var out []Violation
	for c := range m.Controllers {
		inShiftSlots := inShiftIndices(m, c)
		for i := 0; i+4 <= len(inShiftSlots); i++ {
			window := inShiftSlots[i : i+4]
			if !allWork(a, c, window) {
				continue
			}
			remaining := inShiftSlots[i+4:]
			need := 2
			if len(remaining) < 2 {
				need = len(remaining)
			}
			for j := 0; j < need; j++ {
				slot := remaining[j]
				if !a.Grid[c][slot].IsBreak() && !pinForcesWork(m, c, slot) {
					out = append(out, Violation{ConstraintBreakAfterLongBlock, c, slot, "break required after 4-slot work block"})
				}
			}
		}
	}
	return out
}

func checkMinWorkBlock(m *Model, a *Assignment) []Violation {
	// Minimum work block (spec §4.5 rule 7): a break -> work transition
	// commits to at least one worked slot, which is automatically true by
	// the exactly-one rule (a slot cannot be simultaneously break and
	// work). Kept as an explicit, always-run checker for parity with the
	// spec's enumerated hard rules and as a place to tighten the rule if a
	// longer minimum block is introduced later.
	return nil
}

func checkRoleExclusivity(m *Model, a *Assignment) []Violation {
	var out []Violation
	for t := range m.Slots {
		working := 0
		for c, ctrl := range m.Controllers {
			if !ctrl.IsShiftLeaderOrSupervisor() || !m.InShift[c][t] {
				continue
			}
			if _, ok := a.Grid[c][t].SectorCode(); ok {
				working++
			}
		}
		if working > 1 {
			out = append(out, Violation{ConstraintRoleExclusivity, -1, t, fmt.Sprintf("%d shift-leaders/supervisors working simultaneously", working)})
		}
	}
	return out
}

func checkLicensedOnlyFMP(m *Model, a *Assignment) []Violation {
	var out []Violation
	for c, ctrl := range m.Controllers {
		if fmpEligible(ctrl) {
			continue
		}
		for t := range m.Slots {
			if s, ok := a.Grid[c][t].SectorCode(); ok && types.IsFMP(s) {
				out = append(out, Violation{ConstraintLicensedOnlyFMP, c, t, "unlicensed/non-FMP controller assigned to an FMP sector"})
			}
		}
	}
	return out
}

func inShiftIndices(m *Model, c int) []int {
	var idx []int
	for t := range m.Slots {
		if m.InShift[c][t] {
			idx = append(idx, t)
		}
	}
	return idx
}

func allWork(a *Assignment, c int, slots []int) bool {
	for _, t := range slots {
		if a.Grid[c][t].IsBreak() {
			return false
		}
	}
	return true
}
