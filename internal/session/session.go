// Package session implements the C9 session store: a thread-safe mapping
// from session id to a sequence of optimization runs, with cursor-based
// navigation and a background expiry sweep. It is the only shared mutable
// state in the module (spec §5); the optimization engine itself is entirely
// request-scoped.
package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog/log"

	"github.com/atc-roster/engine/internal/types"
)

var (
	ErrSessionNotFound = errors.New("session not found or expired")
	ErrRunNotFound     = errors.New("run not found in session history")
	ErrNoRuns          = errors.New("session has no runs to navigate")
	ErrOutOfRange      = errors.New("navigation index out of range")
)

// Run is one completed optimization attached to a session. It embeds the
// request Params that produced it by value rather than pointing back to the
// session, so a Run can be copied and compared freely.
type Run struct {
	ID          int
	Description string
	CreatedAt   time.Time
	Params      types.OptimizeRequest
	Response    types.OptimizeResponse
}

// Session owns its own run history and cursor; all session-local operations
// take the session's mutex so that readers of navigation info never observe
// a torn state mid-append (spec §5).
type Session struct {
	mu sync.RWMutex

	ID           string
	Date         time.Time
	Shift        string
	Runs         []Run
	CurrentIndex int
	CreatedAt    time.Time
	LastAccess   time.Time
	nextRunID    int
}

func (s *Session) touch() {
	s.LastAccess = time.Now()
}

// Store is the C9 concurrent session store.
type Store struct {
	sessions   *xsync.MapOf[string, *Session]
	idleWindow time.Duration
}

// NewStore constructs an empty store with the given idle window; sessions
// whose last access predates the window are eligible for the expiry sweep.
func NewStore(idleWindow time.Duration) *Store {
	return &Store{
		sessions:   xsync.NewMapOf[string, *Session](),
		idleWindow: idleWindow,
	}
}

// Create inserts a new empty session and returns its id.
func (st *Store) Create(date time.Time, shift string) string {
	id := uuid.New().String()
	now := time.Now()
	st.sessions.Store(id, &Session{
		ID:           id,
		Date:         date,
		Shift:        shift,
		CurrentIndex: -1,
		CreatedAt:    now,
		LastAccess:   now,
	})
	log.Debug().Str("session_id", id).Str("shift", shift).Msg("created session")
	return id
}

func (st *Store) get(id string) (*Session, error) {
	s, ok := st.sessions.Load(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// AddRun appends a run, advancing the cursor to the new tail. An empty
// description is synthesized from the run's date/shift (spec §4.9). params
// is stored on the Run by value alongside the response it produced.
func (st *Store) AddRun(id string, params types.OptimizeRequest, resp types.OptimizeResponse, description string) (Run, error) {
	s, err := st.get(id)
	if err != nil {
		return Run{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if description == "" {
		description = fmt.Sprintf("%s shift on %s, run %d", s.Shift, s.Date.Format("2006-01-02"), s.nextRunID+1)
	}

	run := Run{
		ID:          s.nextRunID,
		Description: description,
		CreatedAt:   time.Now(),
		Params:      params,
		Response:    resp,
	}
	s.nextRunID++
	s.Runs = append(s.Runs, run)
	s.CurrentIndex = len(s.Runs) - 1
	s.touch()

	return run, nil
}

// NavigateNext moves the cursor one step toward the tail and returns the
// now-current run.
func (st *Store) NavigateNext(id string) (Run, error) {
	return st.navigate(id, 1)
}

// NavigatePrev moves the cursor one step toward the head.
func (st *Store) NavigatePrev(id string) (Run, error) {
	return st.navigate(id, -1)
}

func (st *Store) navigate(id string, delta int) (Run, error) {
	s, err := st.get(id)
	if err != nil {
		return Run{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Runs) == 0 {
		return Run{}, ErrNoRuns
	}

	next := s.CurrentIndex + delta
	if next < 0 {
		next = 0
	}
	if next > len(s.Runs)-1 {
		next = len(s.Runs) - 1
	}
	s.CurrentIndex = next
	s.touch()

	return s.Runs[s.CurrentIndex], nil
}

// LoadRun sets the cursor directly to the run with the given id.
func (st *Store) LoadRun(id string, runID int) (Run, error) {
	s, err := st.get(id)
	if err != nil {
		return Run{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.Runs {
		if r.ID == runID {
			s.CurrentIndex = i
			s.touch()
			return r, nil
		}
	}
	return Run{}, ErrRunNotFound
}

// NavigationInfo reports the session's current cursor state (spec §4.9,
// §6).
func (st *Store) NavigationInfo(id string) (types.NavigationInfo, error) {
	s, err := st.get(id)
	if err != nil {
		return types.NavigationInfo{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.Runs) == 0 {
		return types.NavigationInfo{CurrentIndex: -1, Total: 0}, nil
	}

	cur := s.Runs[s.CurrentIndex]
	return types.NavigationInfo{
		CurrentIndex:  s.CurrentIndex,
		Total:         len(s.Runs),
		CanGoLeft:     s.CurrentIndex > 0,
		CanGoRight:    s.CurrentIndex < len(s.Runs)-1,
		Description:   cur.Description,
		Timestamp:     cur.CreatedAt,
		Status:        cur.Response.Statistics.SolutionStatus,
		Objective:     cur.Response.Objective,
		SuccessRate:   cur.Response.Statistics.SuccessRate,
		ShortageCount: sumShortage(cur.Response.Shortage),
	}, nil
}

// BestRun returns the run with the highest success rate among optimal or
// feasible runs, tiebroken by lowest total shortage, then fewest shortage
// slots, then lowest objective (spec §4.9).
func (st *Store) BestRun(id string) (Run, error) {
	s, err := st.get(id)
	if err != nil {
		return Run{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := make([]Run, 0, len(s.Runs))
	for _, r := range s.Runs {
		status := r.Response.Statistics.SolutionStatus
		if status == types.StatusOptimal || status == types.StatusFeasible {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return Run{}, ErrNoRuns
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Response.Statistics.SuccessRate != b.Response.Statistics.SuccessRate {
			return a.Response.Statistics.SuccessRate > b.Response.Statistics.SuccessRate
		}
		sa, sb := sumShortage(a.Response.Shortage), sumShortage(b.Response.Shortage)
		if sa != sb {
			return sa < sb
		}
		if a.Response.Statistics.SlotsWithShortage != b.Response.Statistics.SlotsWithShortage {
			return a.Response.Statistics.SlotsWithShortage < b.Response.Statistics.SlotsWithShortage
		}
		return a.Response.Objective < b.Response.Objective
	})

	return candidates[0], nil
}

func sumShortage(shortage map[string]int) int {
	total := 0
	for _, n := range shortage {
		total += n
	}
	return total
}

// Sweep deletes sessions whose last access predates the idle window,
// returning the number removed. Called on a cadence by a scheduler (see
// ExpirySweeper.Start).
func (st *Store) Sweep() int {
	removed := 0
	cutoff := time.Now().Add(-st.idleWindow)
	st.sessions.Range(func(id string, s *Session) bool {
		s.mu.RLock()
		expired := s.LastAccess.Before(cutoff)
		s.mu.RUnlock()
		if expired {
			st.sessions.Delete(id)
			removed++
			log.Debug().Str("session_id", id).Msg("expired session removed")
		}
		return true
	})
	return removed
}
