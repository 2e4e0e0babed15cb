package roster

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"

	"github.com/atc-roster/engine/internal/config"
	"github.com/atc-roster/engine/internal/roster/solve"
	"github.com/atc-roster/engine/internal/roster/source"
	"github.com/atc-roster/engine/internal/types"
)

// ValidationError is the structured input-shape error returned for fail-fast
// validation failures (spec §7, "input-shape errors").
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request field %q: %s", e.Field, e.Reason)
}

// Engine wires C1-C8 into a single request-scoped optimization run. All
// state here is owned by the request; the only shared mutable state in the
// module lives in the session store (C9), not here.
type Engine struct {
	Cfg    config.RosterConfig
	Solver solve.Solver
}

// NewEngine constructs an Engine with the in-process local-search solver.
func NewEngine(cfg config.RosterConfig) *Engine {
	return &Engine{Cfg: cfg, Solver: solve.LocalSearchSolver{}}
}

// Optimize runs a single (date, shift) optimization against the given
// external data sources, recovering from panics at this boundary and
// reporting them to Sentry when configured, mirroring the teacher's janitor
// CaptureError gating on an empty DSN.
func (e *Engine) Optimize(ctx context.Context, sources *source.Sources, req types.OptimizeRequest) (resp *types.OptimizeResponse, err error) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("roster engine panicked during optimization")
			if e.Cfg.Sentry.DSN != "" {
				sentry.CurrentHub().Recover(r)
			}
			resp = &types.OptimizeResponse{Error: fmt.Sprintf("internal error: %v", r)}
			err = nil
		}
	}()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	sd, err := sources.Shift.ShiftDuration(ctx, req.Date, req.Shift)
	if err != nil {
		return nil, fmt.Errorf("resolving shift duration: %w", err)
	}
	if sd == nil {
		return nil, ErrNoShiftData
	}

	rows, err := sources.Shift.InitialSchedule(ctx, sd.Start, sd.End)
	if err != nil {
		return nil, fmt.Errorf("resolving initial schedule: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoShiftData
	}

	configRows, err := sources.Config.ConfigurationTimeline(ctx, sd.Start, sd.End)
	if err != nil {
		return nil, fmt.Errorf("resolving configuration timeline: %w", err)
	}
	if len(configRows) == 0 {
		return nil, ErrNoConfigData
	}

	licensed, err := sources.License.LicensedControllers(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving licensed controllers: %w", err)
	}

	width := timeSlotWidth(e.Cfg.Solver.SlotWidthMinutes)
	slots := BuildSlotVector(sd.Start, sd.End, width)
	intervals := buildConfigIntervals(configRows)
	demand := BuildSectorDemand(slots, intervals)

	staged := StageInput(rows, licensed, req.SelectedWorkplaces, req.SelectedControllers, req.UseManualAssignments)
	model := BuildVariables(slots, staged.Controllers, staged, demand)

	AnalyzeCapacity(model)

	initialAssignments := buildInitialAssignments(rows, req.Date)
	configLabels := demand.Labels

	// A slot demanding more distinct sectors than the roster has controllers
	// can never be fully covered by any assignment: the uncovered-sector
	// penalty alone cannot express that, so this is checked ahead of the
	// solve loop instead of being discovered by it (spec §4.8 "global
	// capacity").
	if preClass := ClassifyInfeasibility(model, false); preClass.GlobalUnderCapacity {
		log.Warn().Str("classification", preClass.String()).Msg("skipping solve: fundamental under-capacity detected pre-solve")
		return &types.OptimizeResponse{
			InitialAssignments:  initialAssignments,
			ConfigurationLabels: configLabels,
			Shortage:            map[string]int{},
			Statistics: types.Statistics{
				SolutionStatus: types.StatusInfeasible,
			},
			WallTime: time.Since(started),
			Error:    preClass.String(),
		}, nil
	}

	nightWindow := nightWindowFunc(slots, e.Cfg.Solver.NightWindowStartHour, e.Cfg.Solver.NightWindowEndHour)

	params := solve.Params{
		MaxSeconds:           req.MaxExecutionSeconds,
		Workers:              e.Cfg.Solver.DefaultWorkers,
		RelativeGap:          e.Cfg.Solver.DefaultRelativeGap,
		Seed:                 req.Seed,
		UseRandomization:     req.UseRandomization,
		UseLNS:               req.UseLNS,
		MaxOptimalSolutions:  req.MaxOptimalSolutions,
		MaxZeroShortage:      req.MaxZeroShortage,
		UseManualAssignments: req.UseManualAssignments,
	}
	if params.MaxSeconds <= 0 {
		params.MaxSeconds = e.Cfg.Solver.DefaultMaxSeconds
	}

	result, err := e.Solver.Solve(ctx, model, e.Cfg.Solver.Weights, params, nightWindow)
	if err != nil {
		return nil, fmt.Errorf("solving roster model: %w", err)
	}

	if result.Status == types.StatusInfeasible || result.Status == types.StatusUnknown {
		class := ClassifyInfeasibility(model, result.Status == types.StatusUnknown)
		log.Warn().Str("classification", class.String()).Msg("optimization finished without a feasible assignment")
		return &types.OptimizeResponse{
			OptimizedResults:    nil,
			InitialAssignments:  initialAssignments,
			ConfigurationLabels: configLabels,
			Shortage:            map[string]int{},
			Statistics: types.Statistics{
				SolutionStatus: result.Status,
			},
			WallTime: time.Since(started),
			Error:    class.String(),
		}, nil
	}

	stats := ComputeStatistics(model, result.Assignment, result.Status)
	shortage := ShortageBySlot(model, result.Assignment)
	optimizedRows := buildOptimizedRows(model, result.Assignment, staged, req.Date)

	return &types.OptimizeResponse{
		OptimizedResults:    optimizedRows,
		InitialAssignments:  initialAssignments,
		ConfigurationLabels: configLabels,
		Shortage:            shortage,
		Statistics:          stats,
		Objective:           result.Objective,
		WallTime:            time.Since(started),
	}, nil
}

func validateRequest(req types.OptimizeRequest) error {
	if req.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "must be set"}
	}
	if req.Shift == "" {
		return &ValidationError{Field: "shift", Reason: "must be set"}
	}
	return nil
}

func timeSlotWidth(minutes int) time.Duration {
	if minutes <= 0 {
		minutes = 30
	}
	return time.Duration(minutes) * time.Minute
}

func nightWindowFunc(slots []types.TimeSlot, startHour, endHour int) func(int) bool {
	return func(idx int) bool {
		h := slots[idx].Start.Hour()
		if startHour <= endHour {
			return h >= startHour && h < endHour
		}
		return h >= startHour || h < endHour
	}
}

// buildConfigIntervals groups the flat (from, to, cluster, code, sector)
// rows returned by ConfigSource into one ConfigInterval per (from, to,
// cluster, code), aggregating their sector positions.
func buildConfigIntervals(rows []source.ConfigRow) []types.ConfigInterval {
	type key struct {
		from, to string
		cluster  string
		code     string
	}
	order := []key{}
	byKey := map[key]*types.ConfigInterval{}

	for _, r := range rows {
		k := key{from: r.From.Format(time.RFC3339), to: r.To.Format(time.RFC3339), cluster: r.Cluster, code: r.Code}
		ci, ok := byKey[k]
		if !ok {
			ci = &types.ConfigInterval{
				From:    r.From,
				To:      r.To,
				Cluster: types.Cluster(r.Cluster),
				Code:    r.Code,
				Order:   r.Ordering,
			}
			byKey[k] = ci
			order = append(order, k)
		}
		if r.Sector != "" {
			ci.Sectors = append(ci.Sectors, r.Sector)
		}
	}

	out := make([]types.ConfigInterval, 0, len(order))
	for _, k := range order {
		out = append(out, *byKey[k])
	}
	return out
}

func buildInitialAssignments(rows []source.ShiftRow, date time.Time) []types.OptimizedRow {
	out := make([]types.OptimizedRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.OptimizedRow{
			ControllerID: r.ControllerID,
			Name:         r.Name,
			ShiftCode:    r.Shift,
			Date:         date,
			SlotFrom:     r.SlotFrom,
			SlotTo:       r.SlotTo,
			Sector:       r.Sector,
			Role:         types.Role(r.Role),
			Flag:         r.Flag,
			Ordering:     r.Ordering,
			Partner:      r.Partner,
			VremeStart:   r.VremeStart,
		})
	}
	return out
}

// buildOptimizedRows composes the §4.7 run record for every controller and
// slot, applying the "M"-tail-trim emission rule: slots trimmed out of
// in-shift status by InShift's tail-trim override still get a row, carrying
// either the honored pin or an empty sector with TrimmedTail set.
func buildOptimizedRows(m *Model, a *Assignment, staged StagedInput, date time.Time) []types.OptimizedRow {
	var out []types.OptimizedRow
	for ci, c := range m.Controllers {
		ranges := staged.FlagRanges[c.ID]
		for t, slot := range m.Slots {
			if slot.Start.Before(c.ShiftStart) || !slot.Start.Before(c.ShiftEnd) {
				continue
			}

			row := types.OptimizedRow{
				ControllerID: c.ID,
				Name:         c.Name,
				ShiftCode:    c.ShiftCode,
				Date:         date,
				SlotFrom:     slot.Start,
				SlotTo:       slot.End,
				Role:         c.Role,
				Ordering:     c.Order,
				Partner:      c.PartnerCode,
				VremeStart:   c.VremeStart,
			}
			if HasFlagS(slot, ranges) {
				row.Flag = "S"
			}

			if m.InShift[ci][t] {
				row.Sector = a.Grid[ci][t].String()
			} else if row.Flag == "" {
				if pinVal, ok := staged.PinFor(c.ID, slot); ok {
					row.Sector = pinVal.String()
				}
				row.TrimmedTail = true
			}

			out = append(out, row)
		}
	}
	return out
}
