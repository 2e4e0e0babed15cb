package solve

import (
	"math/rand"

	"github.com/atc-roster/engine/internal/roster"
	"github.com/atc-roster/engine/internal/types"
)

// construct builds an initial assignment by greedy placement, slot by slot,
// honoring pins, domain restrictions, at-most-one-controller-per-sector,
// role exclusivity, and the 4-slot work-span rules as it goes. The result is
// feasible in the common case; any residual violations are left for the
// hill-climbing phase to resolve.
func construct(m *roster.Model, rng *rand.Rand) *roster.Assignment {
	a := roster.NewAssignment(m)

	for ci := range m.Pins {
		p := m.Pins[ci]
		a.Grid[p.ControllerIdx][p.SlotIdx] = p.Value
	}

	consecutiveWork := make([]int, len(m.Controllers))
	consecutiveBreak := make([]int, len(m.Controllers))

	for t := range m.Slots {
		takenSectors := map[string]bool{}
		leaderWorking := false

		for ci := range m.Pins {
			p := m.Pins[ci]
			if p.SlotIdx != t {
				continue
			}
			if s, ok := p.Value.SectorCode(); ok {
				takenSectors[s] = true
			}
			if m.Controllers[p.ControllerIdx].IsShiftLeaderOrSupervisor() {
				if _, ok := p.Value.SectorCode(); ok {
					leaderWorking = true
				}
			}
		}

		order := rng.Perm(len(m.Controllers))
		for _, c := range order {
			if isPinnedAt(m, c, t) {
				sector, works := a.Grid[c][t].SectorCode()
				if works {
					consecutiveWork[c]++
					consecutiveBreak[c] = 0
				} else {
					consecutiveBreak[c]++
					consecutiveWork[c] = 0
				}
				_ = sector
				continue
			}

			if !m.InShift[c][t] || m.FlagS[c][t] {
				a.Grid[c][t] = types.Break()
				consecutiveBreak[c]++
				consecutiveWork[c] = 0
				continue
			}

			mustBreak := consecutiveWork[c] >= 4
			ctrl := m.Controllers[c]

			var choice types.SectorOrBreak
			choice = types.Break()

			if !mustBreak {
				prevSector := ""
				if t > 0 && m.InShift[c][t-1] {
					if s, ok := a.Grid[c][t-1].SectorCode(); ok {
						prevSector = types.BasePrefix(s)
					}
				}
				domain := m.Domain[c][t]
				candidates := make([]string, 0, len(domain))
				for _, v := range domain {
					s, ok := v.SectorCode()
					if !ok || takenSectors[s] {
						continue
					}
					if ctrl.IsShiftLeaderOrSupervisor() && leaderWorking {
						continue
					}
					candidates = append(candidates, s)
				}
				if len(candidates) > 0 {
					picked := candidates[0]
					for _, s := range candidates {
						if prevSector != "" && types.BasePrefix(s) == prevSector {
							picked = s
							break
						}
					}
					choice = types.Sector(picked)
				}
			}

			a.Grid[c][t] = choice
			if s, ok := choice.SectorCode(); ok {
				takenSectors[s] = true
				consecutiveWork[c]++
				consecutiveBreak[c] = 0
				if ctrl.IsShiftLeaderOrSupervisor() {
					leaderWorking = true
				}
			} else {
				consecutiveBreak[c]++
				consecutiveWork[c] = 0
			}
		}
	}

	return a
}

func isPinnedAt(m *roster.Model, c, t int) bool {
	for _, p := range m.Pins {
		if p.ControllerIdx == c && p.SlotIdx == t {
			return true
		}
	}
	return false
}

// proposeMove mutates a single non-pinned (controller, slot) cell to a
// random legal domain value, the "move" neighborhood for hill-climbing.
func proposeMove(m *roster.Model, a *roster.Assignment, rng *rand.Rand) {
	c := rng.Intn(len(m.Controllers))
	t := rng.Intn(len(m.Slots))
	if isPinnedAt(m, c, t) {
		return
	}
	if !m.InShift[c][t] || m.FlagS[c][t] {
		return
	}
	domain := m.Domain[c][t]
	if len(domain) == 0 {
		return
	}
	a.Grid[c][t] = domain[rng.Intn(len(domain))]
}

// destroyAndRepair clears a contiguous block of slots for a random
// controller (pinned cells in the block are left untouched) and re-fills
// it with random legal values, the large
// neighborhood search move used when UseLNS is set (spec §6 use-LNS flag).
func destroyAndRepair(m *roster.Model, a *roster.Assignment, rng *rand.Rand) {
	c := rng.Intn(len(m.Controllers))
	width := 2 + rng.Intn(3)
	start := rng.Intn(len(m.Slots))

	takenPerSlot := map[int]map[string]bool{}
	for t := range m.Slots {
		taken := map[string]bool{}
		for other := range m.Controllers {
			if other == c {
				continue
			}
			if s, ok := a.Grid[other][t].SectorCode(); ok {
				taken[s] = true
			}
		}
		takenPerSlot[t] = taken
	}

	for i := 0; i < width; i++ {
		t := (start + i) % len(m.Slots)
		if isPinnedAt(m, c, t) || !m.InShift[c][t] || m.FlagS[c][t] {
			continue
		}
		domain := m.Domain[c][t]
		candidates := make([]types.SectorOrBreak, 0, len(domain))
		for _, v := range domain {
			s, ok := v.SectorCode()
			if !ok {
				candidates = append(candidates, v)
				continue
			}
			if !takenPerSlot[t][s] {
				candidates = append(candidates, v)
			}
		}
		if len(candidates) == 0 {
			a.Grid[c][t] = types.Break()
			continue
		}
		choice := candidates[rng.Intn(len(candidates))]
		a.Grid[c][t] = choice
		if s, ok := choice.SectorCode(); ok {
			takenPerSlot[t][s] = true
		}
	}
}
