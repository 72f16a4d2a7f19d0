// Package price implements the USD price oracle: prices are fetched from a remote Source and cached per symbol for a
// time-to-live. Expiry is checked on read, there is no background sweep, and a failed refresh never touches the
// cached entry.
package price

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/allegro/bigcache"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/tarancss/chainscan/lib/block/types"
	"github.com/tarancss/chainscan/lib/metrics"
)

// TTLDefault is the default time-to-live of a cached price.
const TTLDefault = 60 * time.Second

// Source fetches the current USD price of a chain's asset.
type Source interface {
	Fetch(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Quote is a cached price.
type Quote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Oracle serves USD prices from a TTL cache backed by a Source.
type Oracle struct {
	src   Source
	ttl   time.Duration
	now   func() time.Time
	cache *bigcache.BigCache
	group singleflight.Group
	m     *metrics.Metrics
}

// Option configures Oracle.
type Option func(*Oracle)

// WithTTL sets the time-to-live of cached prices.
func WithTTL(ttl time.Duration) Option {
	return func(o *Oracle) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithClock sets the clock used to stamp and age quotes.
func WithClock(now func() time.Time) Option {
	return func(o *Oracle) {
		o.now = now
	}
}

// WithMetrics records price requests in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Oracle) {
		o.m = m
	}
}

// New creates a new Oracle over src.
func New(src Source, opts ...Option) (*Oracle, error) {
	// entries are only ever replaced, never evicted by age: freshness is decided on read
	c, err := bigcache.NewBigCache(bigcache.Config{
		Shards:             16,
		LifeWindow:         24 * time.Hour,
		CleanWindow:        0,
		MaxEntriesInWindow: 1024,
		MaxEntrySize:       256,
		Verbose:            false,
	})
	if err != nil {
		return nil, errors.Wrap(err, "can not create price cache")
	}

	o := &Oracle{src: src, ttl: TTLDefault, now: time.Now, cache: c}
	for _, opt := range opts {
		opt(o)
	}

	return o, nil
}

// Quote returns the cached quote for symbol regardless of its age.
func (o *Oracle) Quote(symbol string) (Quote, bool) {
	data, err := o.cache.Get(strings.ToUpper(symbol))
	if err != nil {
		return Quote{}, false
	}

	var q Quote
	if err = json.Unmarshal(data, &q); err != nil {
		return Quote{}, false
	}

	return q, true
}

func (o *Oracle) fresh(symbol string) (decimal.Decimal, bool) {
	q, ok := o.Quote(symbol)
	if !ok || o.now().Sub(q.FetchedAt) >= o.ttl {
		return decimal.Zero, false
	}

	return q.Price, true
}

// PriceUSD returns the USD price of symbol. A fresh cached price is returned without fetching; otherwise the price is
// fetched once, concurrent callers for the same symbol sharing the fetch. A failed fetch returns
// types.ErrUnavailable.
func (o *Oracle) PriceUSD(ctx context.Context, symbol string) (decimal.Decimal, error) {
	symbol = strings.ToUpper(symbol)

	if p, ok := o.fresh(symbol); ok {
		o.m.PriceRequest(symbol, metrics.PriceHit)

		return p, nil
	}

	v, err, _ := o.group.Do(symbol, func() (interface{}, error) {
		// another caller may have refreshed it while this one was waiting
		if p, ok := o.fresh(symbol); ok {
			return p, nil
		}

		p, err := o.src.Fetch(ctx, symbol)
		if err != nil {
			return nil, err
		}

		if p.IsNegative() {
			return nil, errors.Errorf("negative price %s", p)
		}

		data, err := json.Marshal(Quote{Symbol: symbol, Price: p, FetchedAt: o.now()})
		if err != nil {
			return nil, err
		}

		if err = o.cache.Set(symbol, data); err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("can not store price in cache")
		}

		o.m.PriceRequest(symbol, metrics.PriceFetch)

		return p, nil
	})
	if err != nil {
		o.m.PriceRequest(symbol, metrics.PriceError)
		log.Debug().Err(err).Str("symbol", symbol).Msg("price fetch failed")

		return decimal.Zero, errors.Wrapf(types.ErrUnavailable, "%s: %v", symbol, err)
	}

	return v.(decimal.Decimal), nil
}
