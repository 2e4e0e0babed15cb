package roster

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/atc-roster/engine/internal/types"
)

// CapacityWarning is one per-slot capacity shortfall found by the pre-solve
// analyzer (spec §4.8).
type CapacityWarning struct {
	SlotIdx        int
	Available      int
	Required       int
	AvailableRoles map[types.Role]int
	RequiredSectors []string
}

// InfeasibilityClass is the C8 post-mortem classification emitted when the
// solver reports infeasible.
type InfeasibilityClass struct {
	GlobalUnderCapacity bool
	PerSlotDeficits     []CapacityWarning
	FlagSExcess         []CapacityWarning
	TimeLimitExhausted  bool
}

// AnalyzeCapacity runs the pre-solve per-slot capacity check (spec §4.8,
// first paragraph): for every slot, compare the in-shift/non-flag-S
// controller count against the number of required sectors, logging a
// warning for any shortfall before the solver is ever invoked.
func AnalyzeCapacity(m *Model) []CapacityWarning {
	var warnings []CapacityWarning
	for t := range m.Slots {
		available := 0
		byRole := map[types.Role]int{}
		for c, ctrl := range m.Controllers {
			if m.InShift[c][t] && !m.FlagS[c][t] {
				available++
				byRole[ctrl.Role]++
			}
		}
		required := len(m.RequiredSectors[t])
		if available < required {
			w := CapacityWarning{
				SlotIdx:         t,
				Available:       available,
				Required:        required,
				AvailableRoles:  byRole,
				RequiredSectors: m.RequiredSectors[t],
			}
			warnings = append(warnings, w)
			log.Warn().
				Int("slot", t).
				Int("available", available).
				Int("required", required).
				Strs("required_sectors", m.RequiredSectors[t]).
				Interface("available_by_role", byRole).
				Msg("pre-solve capacity check: insufficient available controllers for this slot")
		}
	}
	return warnings
}

// ClassifyInfeasibility runs the C8 post-mortem when the solver returns
// infeasible or unknown (spec §4.8, second paragraph).
func ClassifyInfeasibility(m *Model, timedOut bool) InfeasibilityClass {
	class := InfeasibilityClass{TimeLimitExhausted: timedOut}

	maxRequired := 0
	for t := range m.Slots {
		if n := len(m.RequiredSectors[t]); n > maxRequired {
			maxRequired = n
		}
	}
	if len(m.Controllers) < maxRequired {
		class.GlobalUnderCapacity = true
		log.Error().
			Int("controllers", len(m.Controllers)).
			Int("max_required_sectors", maxRequired).
			Msg("fundamental under-capacity: not enough controllers to ever cover the busiest slot")
	}

	deficits := AnalyzeCapacity(m)
	class.PerSlotDeficits = deficits

	for _, d := range deficits {
		flagSCount := 0
		for c := range m.Controllers {
			if m.FlagS[c][d.SlotIdx] {
				flagSCount++
			}
		}
		if flagSCount > 0 && d.Available+flagSCount >= d.Required {
			class.FlagSExcess = append(class.FlagSExcess, d)
			log.Warn().
				Int("slot", d.SlotIdx).
				Int("flag_s_controllers", flagSCount).
				Msg("capacity deficit attributable to released (flag-S) controllers")
		}
	}

	if timedOut {
		log.Warn().Msg("solver returned unknown status: time-limit exhausted before a feasible solution was found")
	}

	return class
}

// String renders a short diagnostic summary suitable for the response
// status string (spec §6's "infeasible - see diagnostics", §8 S4).
func (c InfeasibilityClass) String() string {
	if c.GlobalUnderCapacity {
		return "infeasible - see diagnostics: fundamental under-capacity"
	}
	if len(c.PerSlotDeficits) > 0 {
		return fmt.Sprintf("infeasible - see diagnostics: %d slot(s) under capacity", len(c.PerSlotDeficits))
	}
	if c.TimeLimitExhausted {
		return "unknown - see diagnostics: time-limit exhausted"
	}
	return "infeasible - see diagnostics"
}
