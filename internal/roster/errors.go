package roster

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

var (
	ErrNoShiftData   = errors.New("no shift rows returned for the requested date/shift")
	ErrNoConfigData  = errors.New("no configuration intervals returned for the requested window")
	ErrInfeasible    = errors.New("no assignment satisfies the hard rules within the time budget")
	ErrSolverTimeout = errors.New("solver exhausted its time budget without reaching a feasible solution")
)

// ErrorHandlingStrategy classifies an engine error as retryable or terminal,
// mirroring the teacher scheduler's dispatcher shape: timeouts and transient
// infeasibility are worth a randomized retry with a new seed, while missing
// input data is not (spec §7 recovery policy: "the engine never retries a
// solve internally" -- this is left for a caller wrapping Engine.Optimize to
// act on, not invoked automatically).
func ErrorHandlingStrategy(err error, requestID string) (retry bool, wrapped error) {
	l := log.With().Str("request_id", requestID).Logger()

	if errors.Is(err, ErrSolverTimeout) {
		l.Warn().Err(err).Msg("solver timed out, a retry with a new seed may succeed")
		return true, nil
	}

	if errors.Is(err, ErrInfeasible) {
		l.Warn().Err(err).Msg("no feasible assignment found this attempt, a retry may succeed")
		return true, nil
	}

	if errors.Is(err, ErrNoShiftData) || errors.Is(err, ErrNoConfigData) {
		l.Error().Err(err).Msg("missing input data, failing request")
		return false, fmt.Errorf("optimizing request %s: %w", requestID, err)
	}

	return false, fmt.Errorf("optimizing request %s: %w", requestID, err)
}
