package roster

import (
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/atc-roster/engine/internal/roster/source"
	"github.com/atc-roster/engine/internal/types"
)

// StagedInput is the product of C2: raw shift rows filtered by the caller's
// whitelists, with manual pins and release ranges extracted into lookup
// tables keyed by controller id and time; pins are resolved to slot indices
// later, by PinFor against a concrete slot.
type StagedInput struct {
	Controllers []types.Controller
	FlagRanges  map[string][]FlagSRange // controller id -> ranges
	rawPins     map[string][]rawPin     // controller id -> pins by time, resolved to slot index later
}

type rawPin struct {
	at     time.Time
	value  types.SectorOrBreak
}

// StageInput applies the caller's role/controller whitelists and manual-pin
// toggle (spec §4.2), then builds the controller roster and the flag-S /
// pin lookup tables.
func StageInput(rows []source.ShiftRow, licensed map[string]bool, roleWhitelist, controllerWhitelist []string, useManualAssignments bool) StagedInput {
	filtered := rows
	if len(roleWhitelist) > 0 {
		allowed := lo.SliceToMap(roleWhitelist, func(r string) (string, struct{}) { return r, struct{}{} })
		filtered = lo.Filter(filtered, func(r source.ShiftRow, _ int) bool {
			_, ok := allowed[r.Role]
			return ok
		})
	}
	if len(controllerWhitelist) > 0 {
		allowed := lo.SliceToMap(controllerWhitelist, func(id string) (string, struct{}) { return id, struct{}{} })
		filtered = lo.Filter(filtered, func(r source.ShiftRow, _ int) bool {
			_, ok := allowed[r.ControllerID]
			return ok
		})
	}

	controllersByID := map[string]*types.Controller{}
	flagRanges := map[string][]FlagSRange{}
	pins := map[string][]rawPin{}

	for _, r := range filtered {
		c, ok := controllersByID[r.ControllerID]
		if !ok {
			c = &types.Controller{
				ID:         r.ControllerID,
				Name:       r.Name,
				Role:       types.Role(r.Role),
				ShiftCode:  r.Shift,
				Licensed:   licensed[r.ControllerID],
				VremeStart: r.VremeStart,
				Order:      r.Ordering,
				PartnerCode: r.Partner,
			}
			c.ShiftStart = r.SlotFrom
			c.ShiftEnd = r.SlotTo
			controllersByID[r.ControllerID] = c
		} else {
			if r.SlotFrom.Before(c.ShiftStart) {
				c.ShiftStart = r.SlotFrom
			}
			if r.SlotTo.After(c.ShiftEnd) {
				c.ShiftEnd = r.SlotTo
			}
		}

		if r.Flag == "S" {
			flagRanges[r.ControllerID] = append(flagRanges[r.ControllerID], FlagSRange{From: r.SlotFrom, To: r.SlotTo})
		}

		if useManualAssignments && r.Sector != "" {
			var value types.SectorOrBreak
			if r.Sector == "break" {
				value = types.Break()
			} else {
				value = types.Sector(r.Sector)
			}
			pins[r.ControllerID] = append(pins[r.ControllerID], rawPin{at: r.SlotFrom, value: value})
		}
	}

	controllers := make([]types.Controller, 0, len(controllersByID))
	for _, c := range controllersByID {
		controllers = append(controllers, *c)
	}
	sort.Slice(controllers, func(i, j int) bool {
		if controllers[i].Order != controllers[j].Order {
			return controllers[i].Order < controllers[j].Order
		}
		return controllers[i].ID < controllers[j].ID
	})

	log.Debug().
		Int("controllers", len(controllers)).
		Int("flagged_controllers", len(flagRanges)).
		Int("pinned_controllers", len(pins)).
		Msg("staged shift input")

	return StagedInput{Controllers: controllers, FlagRanges: flagRanges, rawPins: pins}
}

// PinFor resolves the manual pin for controller c at slot t, if any.
func (s StagedInput) PinFor(controllerID string, slot types.TimeSlot) (types.SectorOrBreak, bool) {
	for _, p := range s.rawPins[controllerID] {
		if !p.at.Before(slot.Start) && p.at.Before(slot.End) {
			return p.value, true
		}
	}
	return types.SectorOrBreak{}, false
}
