// Package config loads the roster engine's runtime configuration from the
// environment, following the same envconfig.Process pattern the teacher
// application uses for its own ServerConfig (api/pkg/config/config.go).
package config

import "github.com/kelseyhightower/envconfig"

// RosterConfig is the top-level configuration for the roster optimization
// engine and its session store.
type RosterConfig struct {
	Solver  Solver
	Session Session
	Sentry  Sentry
}

// Solver configures the default C7 solver-driver parameters and the §4.6
// objective weights. Every field can be overridden without a code change.
type Solver struct {
	SlotWidthMinutes      int     `envconfig:"ROSTER_SLOT_WIDTH_MINUTES" default:"30"`
	DefaultMaxSeconds      int     `envconfig:"ROSTER_DEFAULT_MAX_SECONDS" default:"30"`
	DefaultWorkers         int     `envconfig:"ROSTER_DEFAULT_WORKERS" default:"8"`
	DefaultRelativeGap     float64 `envconfig:"ROSTER_DEFAULT_RELATIVE_GAP" default:"0.02"`
	NightWindowStartHour   int     `envconfig:"ROSTER_NIGHT_WINDOW_START_HOUR" default:"22"`
	NightWindowEndHour     int     `envconfig:"ROSTER_NIGHT_WINDOW_END_HOUR" default:"6"`
	Weights                Weights
}

// Weights is the §4.6 objective weight table, configuration-driven with the
// spec's documented defaults baked in as Go struct-tag defaults.
type Weights struct {
	UncoveredSector       float64 `envconfig:"ROSTER_WEIGHT_UNCOVERED_SECTOR" default:"50000000"`
	ShiftLeaderWorking    float64 `envconfig:"ROSTER_WEIGHT_SHIFT_LEADER_WORKING" default:"50"`
	SupervisorWorking     float64 `envconfig:"ROSTER_WEIGHT_SUPERVISOR_WORKING" default:"30"`
	LastHourWork          float64 `envconfig:"ROSTER_WEIGHT_LAST_HOUR_WORK" default:"500"`
	ShortBreak            float64 `envconfig:"ROSTER_WEIGHT_SHORT_BREAK" default:"300"`
	RotationViolation     float64 `envconfig:"ROSTER_WEIGHT_ROTATION_VIOLATION" default:"200"`
	PositionRotationBonus float64 `envconfig:"ROSTER_WEIGHT_POSITION_ROTATION_BONUS" default:"-100"`
	ContinuityBonus       float64 `envconfig:"ROSTER_WEIGHT_CONTINUITY_BONUS" default:"-200"`
	ExcessController      float64 `envconfig:"ROSTER_WEIGHT_EXCESS_CONTROLLER" default:"100000"`
	NightBreakRegular     float64 `envconfig:"ROSTER_WEIGHT_NIGHT_BREAK_REGULAR" default:"-1000"`
	NightWorkRegular      float64 `envconfig:"ROSTER_WEIGHT_NIGHT_WORK_REGULAR" default:"800"`
	NightLongBreak        float64 `envconfig:"ROSTER_WEIGHT_NIGHT_LONG_BREAK" default:"-2000"`
	NightLongWork         float64 `envconfig:"ROSTER_WEIGHT_NIGHT_LONG_WORK" default:"3000"`
	NightWorkloadSpread    float64 `envconfig:"ROSTER_WEIGHT_NIGHT_WORKLOAD_SPREAD" default:"1000"`
	FMPOnFMP              float64 `envconfig:"ROSTER_WEIGHT_FMP_ON_FMP" default:"-500"`
	FMPElsewhere          float64 `envconfig:"ROSTER_WEIGHT_FMP_ELSEWHERE" default:"200"`
	UnlicensedFMP         float64 `envconfig:"ROSTER_WEIGHT_UNLICENSED_FMP" default:"5000"`
	NonFMPOnFMP           float64 `envconfig:"ROSTER_WEIGHT_NON_FMP_ON_FMP" default:"2000"`
	PreferredBlock        float64 `envconfig:"ROSTER_WEIGHT_PREFERRED_BLOCK" default:"-20"`
	FragmentedWork        float64 `envconfig:"ROSTER_WEIGHT_FRAGMENTED_WORK" default:"30"`
}

// Session configures the C9 session store's idle window and expiry cadence.
type Session struct {
	IdleWindowHours  int `envconfig:"ROSTER_SESSION_IDLE_WINDOW_HOURS" default:"12"`
	SweepIntervalHours int `envconfig:"ROSTER_SESSION_SWEEP_INTERVAL_HOURS" default:"2"`
}

// Sentry optionally enables panic/error reporting from the engine's
// top-level recovery boundary, mirroring api/pkg/janitor/janitor.go's
// Sentry wiring gated on an empty DSN meaning "disabled".
type Sentry struct {
	DSN string `envconfig:"ROSTER_SENTRY_DSN"`
}

// Load reads RosterConfig from the environment.
func Load() (RosterConfig, error) {
	var cfg RosterConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return RosterConfig{}, err
	}
	return cfg, nil
}
