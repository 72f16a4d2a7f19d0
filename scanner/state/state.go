// Package state implements the scan state shared by all chain pollers: the checked counter, the recent results
// window, the valuable results and the stop signal. All methods are safe for concurrent use and hold the lock only
// while updating or copying.
package state

import (
	"sync"
	"time"

	"github.com/tarancss/chainscan/lib/block/types"
)

// WindowDefault is the default number of recent results kept.
const WindowDefault = 10

// Snapshot is a point-in-time copy of the State. It shares no memory with the State.
type Snapshot struct {
	Checked uint64         `json:"checked"`
	Recent  []types.Result `json:"recent"`
	Best    *types.Result  `json:"best,omitempty"`
	Stopped bool           `json:"stopped"`
	Taken   time.Time      `json:"taken"`
}

// State contains the results of one scan run.
type State struct {
	l       sync.Mutex // l guards all the fields below
	checked uint64
	recent  []types.Result // ring buffer of the last results, next is the oldest once full
	next    int
	full    bool
	profits []types.Result
	best    int // index in profits, -1 when none
	stop    chan struct{}
	once    sync.Once
}

// New returns an empty State keeping the last window results (WindowDefault when window < 1).
func New(window int) *State {
	if window < 1 {
		window = WindowDefault
	}

	return &State{
		recent: make([]types.Result, window),
		best:   -1,
		stop:   make(chan struct{}),
	}
}

// Record adds a successful lookup: the checked counter is incremented, the result enters the recent window and, when
// its USD value is positive, the valuable results.
func (s *State) Record(r types.Result) {
	v := r.ValueUSD()

	s.l.Lock()
	defer s.l.Unlock()

	s.checked++

	s.recent[s.next] = r
	s.next++

	if s.next == len(s.recent) {
		s.next = 0
		s.full = true
	}

	if v.IsPositive() {
		s.profits = append(s.profits, r)
		// strictly greater keeps the first recorded on ties
		if s.best < 0 || v.GreaterThan(s.profits[s.best].ValueUSD()) {
			s.best = len(s.profits) - 1
		}
	}
}

// Best returns the most valuable result recorded so far.
func (s *State) Best() (types.Result, bool) {
	s.l.Lock()
	defer s.l.Unlock()

	if s.best < 0 {
		return types.Result{}, false
	}

	return s.profits[s.best], true
}

// Profits returns a copy of the results with a positive USD value, in recording order.
func (s *State) Profits() []types.Result {
	s.l.Lock()
	defer s.l.Unlock()

	return append([]types.Result(nil), s.profits...)
}

// Checked returns the number of successful lookups.
func (s *State) Checked() uint64 {
	s.l.Lock()
	defer s.l.Unlock()

	return s.checked
}

// Stop signals every poller to stop. It can be called any number of times.
func (s *State) Stop() {
	s.once.Do(func() { close(s.stop) })
}

// ShouldStop reports whether Stop has been called.
func (s *State) ShouldStop() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when Stop is called, so waits can be interrupted.
func (s *State) Done() <-chan struct{} {
	return s.stop
}

// Snapshot returns a copy of the state. Recent results are in recording order, oldest first.
func (s *State) Snapshot() Snapshot {
	s.l.Lock()

	snap := Snapshot{Checked: s.checked, Taken: time.Now()}

	if s.full {
		snap.Recent = make([]types.Result, 0, len(s.recent))
		snap.Recent = append(snap.Recent, s.recent[s.next:]...)
		snap.Recent = append(snap.Recent, s.recent[:s.next]...)
	} else {
		snap.Recent = append(make([]types.Result, 0, s.next), s.recent[:s.next]...)
	}

	if s.best >= 0 {
		b := s.profits[s.best]
		snap.Best = &b
	}

	s.l.Unlock()

	snap.Stopped = s.ShouldStop()

	return snap
}
