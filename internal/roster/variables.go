package roster

import (
	"github.com/rs/zerolog/log"

	"github.com/atc-roster/engine/internal/types"
)

// Pin is a resolved, validated manual pin: a fixed (controller, slot)
// decision.
type Pin struct {
	ControllerIdx int
	SlotIdx       int
	Value         types.SectorOrBreak
}

// SkippedPin records a manual pin that could not be enforced because its
// sector was not in the slot's required-sector set (spec §4.5 rule 3).
type SkippedPin struct {
	ControllerID string
	SlotIdx      int
	Sector       string
}

// Model bundles everything the solver needs: the per-(controller,slot)
// decision domains (struct-of-arrays, per Design Notes §9), in-shift/flag-S
// classification, resolved pins, and sector demand.
type Model struct {
	Slots           []types.TimeSlot
	Controllers     []types.Controller
	RequiredSectors [][]string // per slot index, sorted

	InShift [][]bool // [controllerIdx][slotIdx]
	FlagS   [][]bool // [controllerIdx][slotIdx]

	// Domain[c][t] is the set of legal choices for (c,t) before relational
	// constraints (continuity, at-most-one-per-sector, role exclusivity,
	// work-span) are enforced by the solver.
	Domain [][][]types.SectorOrBreak

	Pins        []Pin
	SkippedPins []SkippedPin

	// PinnedControllerAt[t][sector] is the controller pinned to that
	// sector at that slot, if any (spec §4.2's pinned_sector_at lookup).
	PinnedControllerAt []map[string]int
}

// BuildVariables implements C4: for every controller and slot, materialize
// the domain of the decision variable, restricted to break-only when the
// controller is out-of-shift or flag-S, and excluding any sector not in
// that slot's required set. Licensed-only-FMP (hard rule 9) is also applied
// here as a per-variable domain restriction, since it does not depend on
// any other variable's value.
func BuildVariables(slots []types.TimeSlot, controllers []types.Controller, staged StagedInput, demand SectorDemand) *Model {
	nc, nt := len(controllers), len(slots)

	inShift := make([][]bool, nc)
	flagS := make([][]bool, nc)
	domain := make([][][]types.SectorOrBreak, nc)

	var pins []Pin
	var skipped []SkippedPin
	pinnedAt := make([]map[string]int, nt)
	for t := range pinnedAt {
		pinnedAt[t] = map[string]int{}
	}

	for ci, c := range controllers {
		inShift[ci] = make([]bool, nt)
		flagS[ci] = make([]bool, nt)
		domain[ci] = make([][]types.SectorOrBreak, nt)

		ranges := staged.FlagRanges[c.ID]

		for t, slot := range slots {
			pinVal, hasPin := staged.PinFor(c.ID, slot)
			var pinPtr *types.SectorOrBreak
			if hasPin {
				pinPtr = &pinVal
			}
			inShift[ci][t] = InShift(c, t, slots, pinPtr)
			flagS[ci][t] = HasFlagS(slot, ranges)

			if !inShift[ci][t] || flagS[ci][t] {
				domain[ci][t] = []types.SectorOrBreak{types.Break()}
				continue
			}

			choices := []types.SectorOrBreak{types.Break()}
			for _, s := range demand.RequiredSectors[t] {
				if types.IsFMP(s) && !fmpEligible(c) {
					continue
				}
				choices = append(choices, types.Sector(s))
			}
			domain[ci][t] = choices

			if hasPin {
				if sector, ok := pinVal.SectorCode(); ok {
					if !containsSector(demand.RequiredSectors[t], sector) {
						skipped = append(skipped, SkippedPin{ControllerID: c.ID, SlotIdx: t, Sector: sector})
						log.Warn().
							Str("controller_id", c.ID).
							Int("slot", t).
							Str("sector", sector).
							Msg("manual pin references a sector not required at this slot; skipping")
						continue
					}
					pinnedAt[t][sector] = ci
				}
				pins = append(pins, Pin{ControllerIdx: ci, SlotIdx: t, Value: pinVal})
			}
		}
	}

	for _, prev := range pins {
		for _, cur := range pins {
			if cur.ControllerIdx != prev.ControllerIdx || cur.SlotIdx != prev.SlotIdx+1 {
				continue
			}
			ps, pOK := prev.Value.SectorCode()
			cs, cOK := cur.Value.SectorCode()
			if pOK && cOK && types.BasePrefix(ps) != types.BasePrefix(cs) {
				log.Warn().Str("controller_id", controllers[cur.ControllerIdx].ID).Int("slot", cur.SlotIdx).
					Str("prev_sector", ps).Str("sector", cs).
					Msg("manual pins break sector continuity; rule relaxed for this slot pair")
			}
		}
	}

	return &Model{
		Slots:              slots,
		Controllers:        controllers,
		RequiredSectors:    demand.RequiredSectors,
		InShift:             inShift,
		FlagS:               flagS,
		Domain:              domain,
		Pins:                pins,
		SkippedPins:         skipped,
		PinnedControllerAt:  pinnedAt,
	}
}

func fmpEligible(c types.Controller) bool {
	return c.Role == types.RoleFlowManagement && c.Licensed
}

func containsSector(sectors []string, s string) bool {
	for _, x := range sectors {
		if x == s {
			return true
		}
	}
	return false
}

// DomainAllows reports whether value is a legal choice for (controllerIdx,
// slotIdx) per the precomputed domain.
func (m *Model) DomainAllows(controllerIdx, slotIdx int, value types.SectorOrBreak) bool {
	for _, v := range m.Domain[controllerIdx][slotIdx] {
		if equalChoice(v, value) {
			return true
		}
	}
	return false
}

func equalChoice(a, b types.SectorOrBreak) bool {
	if a.IsBreak() != b.IsBreak() {
		return false
	}
	if a.IsBreak() {
		return true
	}
	sa, _ := a.SectorCode()
	sb, _ := b.SectorCode()
	return sa == sb
}
