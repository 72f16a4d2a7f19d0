// Package memory implements an in-process store, used when no database is configured and in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/tarancss/chainscan/lib/block/types"
	"github.com/tarancss/chainscan/lib/store"
	"github.com/tarancss/chainscan/lib/util"
)

// Memory keeps found records and runs in memory.
type Memory struct {
	l     sync.RWMutex
	found []types.Found
	runs  []store.Run
}

// New returns an empty Memory store.
func New() *Memory {
	return &Memory{}
}

// Close implements io.Closer.
func (m *Memory) Close() error { return nil }

// SaveFound appends f.
func (m *Memory) SaveFound(_ context.Context, f types.Found) error {
	m.l.Lock()
	m.found = append(m.found, f)
	m.l.Unlock()

	return nil
}

// GetFound returns the found records of chains, or of every chain if chains is empty, in the order they were saved.
func (m *Memory) GetFound(_ context.Context, chains []string) ([]types.Found, error) {
	m.l.RLock()
	defer m.l.RUnlock()

	var res []types.Found

	for _, f := range m.found {
		if len(chains) == 0 || util.In(chains, f.Chain) {
			res = append(res, f)
		}
	}

	if len(res) == 0 {
		return nil, store.ErrDataNotFound
	}

	return res, nil
}

// SaveRun saves r, replacing a run with the same ID.
func (m *Memory) SaveRun(_ context.Context, r store.Run) error {
	m.l.Lock()
	defer m.l.Unlock()

	if r.Best != nil {
		b := *r.Best
		r.Best = &b
	}

	r.Chains = append([]string(nil), r.Chains...)

	for i := range m.runs {
		if m.runs[i].ID == r.ID {
			m.runs[i] = r

			return nil
		}
	}

	m.runs = append(m.runs, r)

	return nil
}

// GetRuns returns up to limit runs, most recently started first.
func (m *Memory) GetRuns(_ context.Context, limit int) ([]store.Run, error) {
	m.l.RLock()
	res := append([]store.Run(nil), m.runs...)
	m.l.RUnlock()

	if len(res) == 0 {
		return nil, store.ErrDataNotFound
	}

	sort.SliceStable(res, func(i, j int) bool { return res[i].Started.After(res[j].Started) })

	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}

	return res, nil
}
