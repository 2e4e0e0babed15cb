// Package source declares the external data operations the engine consumes
// (spec §6): abstract contracts over persistence, which is out of scope for
// this module and implemented by a driver elsewhere.
package source

import (
	"context"
	"time"
)

// ShiftDuration reports a controller's shift bounds for a given date and
// shift label, or (nil, nil) if no shift is configured.
type ShiftDuration struct {
	Start time.Time
	End   time.Time
}

// ShiftSource resolves shift metadata and the initial per-controller
// assignment table.
type ShiftSource interface {
	ShiftDuration(ctx context.Context, date time.Time, shift string) (*ShiftDuration, error)
	InitialSchedule(ctx context.Context, from, to time.Time) ([]ShiftRow, error)
}

// ShiftRow mirrors spec §6's "table of (controller, name, shift, role,
// vreme_start, slot-from, slot-to, sector, flag, ordering, partner)".
type ShiftRow struct {
	ControllerID string
	Name         string
	Shift        string
	Role         string
	VremeStart   time.Time
	SlotFrom     time.Time
	SlotTo       time.Time
	Sector       string
	Flag         string
	Ordering     int
	Partner      string
}

// ConfigRow mirrors spec §6's "table of (from, to, cluster, config-code,
// sector, ordering)".
type ConfigRow struct {
	From    time.Time
	To      time.Time
	Cluster string
	Code    string
	Sector  string
	Ordering int
}

// ConfigSource resolves the sector-configuration timeline.
type ConfigSource interface {
	ConfigurationTimeline(ctx context.Context, from, to time.Time) ([]ConfigRow, error)
}

// LicenseSource resolves the set of licensed controllers.
type LicenseSource interface {
	LicensedControllers(ctx context.Context) (map[string]bool, error)
}

// Sources bundles the three external contracts the engine depends on.
type Sources struct {
	Shift   ShiftSource
	Config  ConfigSource
	License LicenseSource
}

// StubSources is a lightweight functional-mock implementation of Sources,
// following the settable-function-field idiom used by several of the
// teacher's own test helpers in place of full mockgen ceremony (see
// SPEC_FULL.md Open Questions decision 6).
type StubSources struct {
	ShiftDurationFunc        func(ctx context.Context, date time.Time, shift string) (*ShiftDuration, error)
	InitialScheduleFunc      func(ctx context.Context, from, to time.Time) ([]ShiftRow, error)
	ConfigurationTimelineFunc func(ctx context.Context, from, to time.Time) ([]ConfigRow, error)
	LicensedControllersFunc  func(ctx context.Context) (map[string]bool, error)
}

func (s *StubSources) ShiftDuration(ctx context.Context, date time.Time, shift string) (*ShiftDuration, error) {
	return s.ShiftDurationFunc(ctx, date, shift)
}

func (s *StubSources) InitialSchedule(ctx context.Context, from, to time.Time) ([]ShiftRow, error) {
	return s.InitialScheduleFunc(ctx, from, to)
}

func (s *StubSources) ConfigurationTimeline(ctx context.Context, from, to time.Time) ([]ConfigRow, error) {
	return s.ConfigurationTimelineFunc(ctx, from, to)
}

func (s *StubSources) LicensedControllers(ctx context.Context) (map[string]bool, error) {
	return s.LicensedControllersFunc(ctx)
}

// AsSources returns a *Sources referencing the stub's own methods.
func (s *StubSources) AsSources() *Sources {
	return &Sources{Shift: s, Config: s, License: s}
}
