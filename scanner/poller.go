package scanner

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/tarancss/chainscan/lib/block"
	"github.com/tarancss/chainscan/lib/block/types"
	"github.com/tarancss/chainscan/lib/metrics"
	"github.com/tarancss/chainscan/scanner/state"
)

// poller polls the balances of the addresses of one chain until the scan state is stopped.
type poller struct {
	symbol      string
	addrs       []string
	reg         *block.Registry
	prices      PriceSource
	st          *state.State
	interval    time.Duration
	threshold   decimal.Decimal
	stopOnValue bool
	found       func(types.Found)
	m           *metrics.Metrics
}

// run loops over the chain's addresses every interval. It returns when the state is stopped, the context is
// cancelled or the chain can no longer be resolved.
func (p *poller) run(ctx context.Context) {
	p.m.PollerStarted()
	defer p.m.PollerStopped()

	log.Info().Str("chain", p.symbol).Int("addresses", len(p.addrs)).Msg("Polling")

	for !p.st.ShouldStop() {
		if !p.cycle(ctx) {
			return
		}

		if !p.wait(ctx) {
			break
		}
	}

	log.Info().Str("chain", p.symbol).Msg("Poller stopped")
}

// cycle polls every address once, in configuration order. It returns false when the chain has no implementation.
func (p *poller) cycle(ctx context.Context) bool {
	c, ok := p.reg.Resolve(p.symbol)
	if !ok {
		log.Warn().Str("chain", p.symbol).Msg("Blockchain interface not defined. Stopping poller")

		return false
	}

	// an unavailable price values this cycle's balances at zero
	price, err := p.prices.PriceUSD(ctx, p.symbol)
	if err != nil {
		log.Debug().Err(err).Str("chain", p.symbol).Msg("price unavailable")

		price = decimal.Zero
	}

	for _, addr := range p.addrs {
		if p.st.ShouldStop() {
			return true
		}

		start := time.Now()
		bal, err := c.Balance(ctx, addr)
		p.m.ObserveLookup(p.symbol, time.Since(start), err)

		if err != nil {
			// skipped this cycle, retried on the next one
			log.Debug().Err(err).Str("chain", p.symbol).Str("address", addr).Msg("balance lookup failed")

			continue
		}

		r := types.Result{
			Chain:    p.symbol,
			Address:  addr,
			Balance:  bal,
			PriceUSD: price,
			Time:     time.Now(),
		}
		p.st.Record(r)

		if v := r.ValueUSD(); v.IsPositive() && v.GreaterThanOrEqual(p.threshold) {
			best, _ := p.st.Best()

			log.Info().Str("chain", best.Chain).Str("address", best.Address).
				Str("usd", best.ValueUSD().StringFixed(2)).Msg("Value found")
			p.m.FoundEvent(p.symbol)
			p.found(best.Found())

			if p.stopOnValue {
				p.st.Stop()

				return true
			}
		}
	}

	return true
}

// wait sleeps for the poll interval. It returns false if the state is stopped or ctx is cancelled meanwhile.
func (p *poller) wait(ctx context.Context) bool {
	t := time.NewTimer(p.interval)
	defer t.Stop()

	select {
	case <-p.st.Done():
		return false
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
