package roster

import (
	"github.com/atc-roster/engine/internal/types"
)

// ComputeStatistics derives the §4.7 statistics block from a finished
// assignment grid. Only status comes from the solver; everything else,
// including the shortage/excess slot counts, is read directly off the grid.
func ComputeStatistics(m *Model, a *Assignment, status types.SolutionStatus) types.Statistics {
	totalRequired, totalCovered := 0, 0
	slotsWithShortage, slotsWithExcess := 0, 0
	missingExecutors := 0

	for t := range m.Slots {
		required := len(m.RequiredSectors[t])
		totalRequired += required

		counts := map[string]int{}
		for c := range m.Controllers {
			if !m.InShift[c][t] || m.FlagS[c][t] {
				continue
			}
			if s, ok := a.Grid[c][t].SectorCode(); ok {
				counts[s]++
			}
		}

		covered, excessHere, uncoveredHere := 0, 0, 0
		for _, s := range m.RequiredSectors[t] {
			n := counts[s]
			if n > 0 {
				covered++
			} else {
				uncoveredHere++
			}
			if n > 1 {
				excessHere += n - 1
			}
		}
		totalCovered += covered
		if uncoveredHere > 0 {
			slotsWithShortage++
		}
		if excessHere > 0 {
			slotsWithExcess++
		}
		if uncoveredHere > missingExecutors {
			missingExecutors = uncoveredHere
		}
	}

	successRate := 0.0
	if totalRequired > 0 {
		successRate = float64(totalCovered) / float64(totalRequired)
	}

	workedMinutes := make([]float64, len(m.Controllers))
	workedMinutesE := make([]float64, len(m.Controllers))
	restMinutes := make([]float64, len(m.Controllers))
	shiftMinutes := make([]float64, len(m.Controllers))

	for c := range m.Controllers {
		for t, slot := range m.Slots {
			if !m.InShift[c][t] {
				continue
			}
			width := slot.End.Sub(slot.Start).Minutes()
			shiftMinutes[c] += width
			if m.FlagS[c][t] {
				restMinutes[c] += width
				continue
			}
			if s, ok := a.Grid[c][t].SectorCode(); ok {
				workedMinutes[c] += width
				if len(s) > 0 && s[len(s)-1] == 'E' {
					workedMinutesE[c] += width
				}
			} else {
				restMinutes[c] += width
			}
		}
	}

	maxWorked, minWorked := -1.0, -1.0
	totalWorked := 0.0
	for c := range m.Controllers {
		w := workedMinutes[c]
		totalWorked += w
		if maxWorked < 0 || w > maxWorked {
			maxWorked = w
		}
		if minWorked < 0 || w < minWorked {
			minWorked = w
		}
	}
	maxWorkHourDifference := 0.0
	if maxWorked >= 0 {
		maxWorkHourDifference = (maxWorked - minWorked) / 60.0
	}

	restFraction := 0.0
	totalShift := 0.0
	totalRest := 0.0
	for c := range m.Controllers {
		totalShift += shiftMinutes[c]
		totalRest += restMinutes[c]
	}
	if totalShift > 0 {
		restFraction = totalRest / totalShift
	}
	breakCompliance := (restFraction / 0.25) * 100
	if breakCompliance > 100 {
		breakCompliance = 100
	}

	compliant, eligible := 0, 0
	for c := range m.Controllers {
		if workedMinutes[c] <= 0 {
			continue
		}
		eligible++
		ratio := workedMinutesE[c] / workedMinutes[c]
		if ratio >= 0.4 && ratio <= 0.6 {
			compliant++
		}
	}
	rotationCompliance := 0.0
	if eligible > 0 {
		rotationCompliance = float64(compliant) / float64(eligible)
	}

	averageTarget := 0.0
	if len(m.Controllers) > 0 {
		averageTarget = totalWorked / float64(len(m.Controllers))
	}
	employeesWithShortage := 0
	for c := range m.Controllers {
		if workedMinutes[c] < 0.75*averageTarget {
			employeesWithShortage++
		}
	}

	return types.Statistics{
		SuccessRate:           successRate,
		SlotsWithShortage:     slotsWithShortage,
		SlotsWithExcess:       slotsWithExcess,
		MissingExecutors:      missingExecutors,
		MaxWorkHourDifference: maxWorkHourDifference,
		BreakCompliance:       breakCompliance,
		RotationCompliance:    rotationCompliance,
		EmployeesWithShortage: employeesWithShortage,
		SolutionStatus:        status,
	}
}

// ShortageBySlot builds the §6 "shortage" response map: slot key -> count of
// uncovered required sectors at that slot.
func ShortageBySlot(m *Model, a *Assignment) map[string]int {
	out := make(map[string]int, len(m.Slots))
	for t, slot := range m.Slots {
		counts := map[string]int{}
		for c := range m.Controllers {
			if !m.InShift[c][t] || m.FlagS[c][t] {
				continue
			}
			if s, ok := a.Grid[c][t].SectorCode(); ok {
				counts[s]++
			}
		}
		uncovered := 0
		for _, s := range m.RequiredSectors[t] {
			if counts[s] == 0 {
				uncovered++
			}
		}
		if uncovered > 0 {
			out[slot.Key()] = uncovered
		}
	}
	return out
}
