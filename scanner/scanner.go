// Package scanner implements the balance scanner. The scanner polls the addresses of every configured chain
// concurrently, one poller per chain, pairing balances with USD prices and recording them in a shared scan state
// (see package scanner/state). When an address is worth at least the configured threshold a found event is sent to
// the configured sinks and, if requested, the whole scan is stopped. In case of graceful termination, the scanner
// waits a bounded time for the pollers to finish their current lookup.
package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/tarancss/chainscan/lib/block"
	"github.com/tarancss/chainscan/lib/config"
	"github.com/tarancss/chainscan/lib/metrics"
	"github.com/tarancss/chainscan/lib/store"
	"github.com/tarancss/chainscan/scanner/state"
)

// FastInterval caps the poll interval in fast mode.
const FastInterval = 300 * time.Millisecond

// Errors returned by the scanner.
var (
	ErrNoRegistry = errors.New("scanner: no chain registry")
	ErrNoPrices   = errors.New("scanner: no price source")
	ErrRunning    = errors.New("scanner: already running")
)

// PriceSource returns USD prices of chain assets.
type PriceSource interface {
	PriceUSD(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Renderer draws snapshots of a running scan.
type Renderer interface {
	Render(snap state.Snapshot)
}

// Config contains the scan settings.
type Config struct {
	Chains          []config.ChainConfig
	Interval        time.Duration
	StopOnValue     bool
	Threshold       decimal.Decimal
	RenderInterval  time.Duration
	RecentWindow    int
	ShutdownTimeout time.Duration
}

// ConfigFrom takes the scan settings from the service configuration. In fast mode the poll interval is capped at
// FastInterval.
func ConfigFrom(c config.ScanConfig, fast bool) Config {
	cfg := Config{
		Chains:          c.Chains,
		Interval:        c.Interval,
		StopOnValue:     c.StopOnValue,
		Threshold:       c.ValueThreshold,
		RenderInterval:  c.RenderInterval,
		RecentWindow:    c.RecentWindow,
		ShutdownTimeout: c.ShutdownTimeout,
	}

	if fast && (cfg.Interval <= 0 || cfg.Interval > FastInterval) {
		cfg.Interval = FastInterval
	}

	return cfg
}

func (c *Config) defaults() {
	if c.Interval <= 0 {
		c.Interval = config.IntervalDefault
	}

	if c.RenderInterval <= 0 {
		c.RenderInterval = config.RenderIntervalDefault
	}

	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = config.ShutdownTimeoutDefault
	}

	if c.RecentWindow <= 0 {
		c.RecentWindow = state.WindowDefault
	}
}

// ChainInfo describes a configured chain.
type ChainInfo struct {
	Symbol    string `json:"symbol"`
	Addresses int    `json:"addresses"`
	Active    bool   `json:"active"` // polled: has addresses and an implementation
}

// Scanner implements a scanner service.
type Scanner struct {
	cfg    Config
	reg    *block.Registry
	prices PriceSource
	render Renderer
	sinks  []Sink
	db     store.DB
	m      *metrics.Metrics

	l       sync.Mutex // l guards st and running
	st      *state.State
	running bool
}

// Option configures Scanner.
type Option func(*Scanner)

// WithRenderer draws the scan state every render interval and once at the end of the run.
func WithRenderer(r Renderer) Option {
	return func(s *Scanner) {
		s.render = r
	}
}

// WithSinks sends found events to sinks.
func WithSinks(sinks ...Sink) Option {
	return func(s *Scanner) {
		s.sinks = append(s.sinks, sinks...)
	}
}

// WithStore saves a summary of every run to db.
func WithStore(db store.DB) Option {
	return func(s *Scanner) {
		s.db = db
	}
}

// WithMetrics records the scan metrics in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scanner) {
		s.m = m
	}
}

// New instantiates a new scanner service.
func New(cfg Config, reg *block.Registry, prices PriceSource, opts ...Option) (*Scanner, error) {
	if reg == nil {
		return nil, ErrNoRegistry
	}

	if prices == nil {
		return nil, ErrNoPrices
	}

	cfg.defaults()

	s := &Scanner{cfg: cfg, reg: reg, prices: prices, st: state.New(cfg.RecentWindow)}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Chains returns the configured chains in configuration order.
func (s *Scanner) Chains() []ChainInfo {
	info := make([]ChainInfo, 0, len(s.cfg.Chains))

	for _, c := range s.cfg.Chains {
		_, ok := s.reg.Resolve(c.Symbol)
		info = append(info, ChainInfo{Symbol: c.Symbol, Addresses: len(c.Addresses), Active: ok && len(c.Addresses) > 0})
	}

	return info
}

// Snapshot returns a snapshot of the current, or last, run.
func (s *Scanner) Snapshot() state.Snapshot {
	return s.state().Snapshot()
}

// Stop asks the current run to stop. Pollers finish their current lookup and exit.
func (s *Scanner) Stop() {
	s.state().Stop()
}

func (s *Scanner) state() *state.State {
	s.l.Lock()
	defer s.l.Unlock()

	return s.st
}

// Run starts a poller for each chain with addresses and a known implementation, and blocks until the scan is stopped
// (by Stop, by a found event when stopping on value, or by cancelling ctx) or every poller has exited. It returns
// the final snapshot. Cancelling ctx is not an error.
func (s *Scanner) Run(ctx context.Context) (state.Snapshot, error) {
	st := state.New(s.cfg.RecentWindow)

	s.l.Lock()
	if s.running {
		s.l.Unlock()

		return state.Snapshot{}, ErrRunning
	}

	s.st, s.running = st, true
	s.l.Unlock()

	defer func() {
		s.l.Lock()
		s.running = false
		s.l.Unlock()
	}()

	started := time.Now()

	// lookups still in flight are cancelled once the run is over
	pctx, cancel := context.WithCancel(ctx)
	defer cancel()

	n := newNotifier(s.sinks, s.m)

	var wg sync.WaitGroup

	chains := make([]string, 0, len(s.cfg.Chains))

	for _, c := range s.cfg.Chains {
		if len(c.Addresses) == 0 {
			log.Debug().Str("chain", c.Symbol).Msg("No addresses to scan. Skipping")

			continue
		}

		if _, ok := s.reg.Resolve(c.Symbol); !ok {
			log.Warn().Str("chain", c.Symbol).Msg("Blockchain interface not defined. Skipping")

			continue
		}

		p := &poller{
			symbol:      c.Symbol,
			addrs:       append([]string(nil), c.Addresses...),
			reg:         s.reg,
			prices:      s.prices,
			st:          st,
			interval:    s.cfg.Interval,
			threshold:   s.cfg.Threshold,
			stopOnValue: s.cfg.StopOnValue,
			found:       n.notify,
			m:           s.m,
		}

		chains = append(chains, c.Symbol)

		wg.Add(1)

		go func() {
			defer wg.Done()
			p.run(pctx)
		}()
	}

	if len(chains) == 0 {
		log.Warn().Msg("Nothing to scan: no chain has addresses")
	}

	// routine to wait for all pollers to complete
	done := make(chan struct{})

	go func() {
		wg.Wait()
		close(done)
	}()

	s.loop(ctx, st, done)

	st.Stop()

	select {
	case <-done:
	case <-time.After(s.cfg.ShutdownTimeout):
		log.Warn().Dur("timeout", s.cfg.ShutdownTimeout).Msg("Pollers did not stop in time. Abandoning them")
	}

	n.close(s.cfg.ShutdownTimeout)

	snap := st.Snapshot()
	if s.render != nil {
		s.render.Render(snap)
	}

	s.saveRun(snap, chains, started, st)

	return snap, nil
}

// loop renders the state until the run is stopped, ctx is cancelled or all pollers are done.
func (s *Scanner) loop(ctx context.Context, st *state.State, done <-chan struct{}) {
	t := time.NewTicker(s.cfg.RenderInterval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			if s.render != nil {
				s.render.Render(st.Snapshot())
			}
		case <-st.Done():
			return
		case <-ctx.Done():
			log.Info().Msg("Scan cancelled")

			return
		case <-done:
			return
		}
	}
}

func (s *Scanner) saveRun(snap state.Snapshot, chains []string, started time.Time, st *state.State) {
	if s.db == nil {
		return
	}

	r := store.Run{
		ID:       uuid.NewString(),
		Started:  started,
		Finished: time.Now(),
		Chains:   chains,
		Checked:  snap.Checked,
		Found:    len(st.Profits()),
	}

	if snap.Best != nil {
		f := snap.Best.Found()
		r.Best = &f
	}

	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()

	if err := s.db.SaveRun(ctx, r); err != nil {
		log.Error().Err(err).Msg("Error saving run to DB")
	}
}
