package price

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarancss/chainscan/lib/block/explorer"
	"github.com/tarancss/chainscan/lib/block/types"
)

// fakeSource counts fetches and returns price, or err when set.
type fakeSource struct {
	mu    sync.Mutex
	calls int32
	price decimal.Decimal
	err   error
	delay time.Duration
}

func (f *fakeSource) Fetch(ctx context.Context, symbol string) (decimal.Decimal, error) {
	atomic.AddInt32(&f.calls, 1)

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return f.price, f.err
}

func (f *fakeSource) set(p decimal.Decimal, err error) {
	f.mu.Lock()
	f.price, f.err = p, err
	f.mu.Unlock()
}

// clock is a manually advanced clock.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newOracle(t *testing.T, src Source, clk *clock) *Oracle {
	t.Helper()

	o, err := New(src, WithTTL(time.Minute), WithClock(clk.Now))
	require.NoError(t, err)

	return o
}

func TestPriceTTL(t *testing.T) {
	src := &fakeSource{price: decimal.NewFromInt(50000)}
	clk := &clock{now: time.Unix(1700000000, 0)}
	o := newOracle(t, src, clk)

	p, err := o.PriceUSD(context.Background(), "btc")
	require.NoError(t, err)
	assert.True(t, p.Equal(decimal.NewFromInt(50000)))

	// within the TTL the cached price is served
	clk.Advance(59 * time.Second)
	src.set(decimal.NewFromInt(60000), nil)

	p, err = o.PriceUSD(context.Background(), "BTC")
	require.NoError(t, err)
	assert.True(t, p.Equal(decimal.NewFromInt(50000)))
	assert.Equal(t, int32(1), atomic.LoadInt32(&src.calls))

	// expired: refreshed once
	clk.Advance(time.Second)

	p, err = o.PriceUSD(context.Background(), "BTC")
	require.NoError(t, err)
	assert.True(t, p.Equal(decimal.NewFromInt(60000)))
	assert.Equal(t, int32(2), atomic.LoadInt32(&src.calls))

	q, ok := o.Quote("btc")
	require.True(t, ok)
	assert.Equal(t, "BTC", q.Symbol)
	assert.True(t, q.FetchedAt.Equal(clk.Now()))
}

func TestPriceFailureKeepsEntry(t *testing.T) {
	src := &fakeSource{price: decimal.NewFromInt(3000)}
	clk := &clock{now: time.Unix(1700000000, 0)}
	o := newOracle(t, src, clk)

	_, err := o.PriceUSD(context.Background(), "ETH")
	require.NoError(t, err)

	before, ok := o.Quote("ETH")
	require.True(t, ok)

	clk.Advance(2 * time.Minute)
	src.set(decimal.Zero, errors.New("coingecko down"))

	_, err = o.PriceUSD(context.Background(), "ETH")
	assert.True(t, errors.Is(err, types.ErrUnavailable), "%v", err)

	after, ok := o.Quote("ETH")
	require.True(t, ok)
	assert.True(t, after.Price.Equal(before.Price))
	assert.True(t, after.FetchedAt.Equal(before.FetchedAt))

	// a stale entry is never served: the next call fetches again
	src.set(decimal.NewFromInt(3100), nil)

	p, err := o.PriceUSD(context.Background(), "ETH")
	require.NoError(t, err)
	assert.True(t, p.Equal(decimal.NewFromInt(3100)))
	assert.Equal(t, int32(3), atomic.LoadInt32(&src.calls))
}

func TestPriceUnknownNeverCached(t *testing.T) {
	src := &fakeSource{err: ErrUnknownSymbol}
	o := newOracle(t, src, &clock{now: time.Unix(0, 0)})

	_, err := o.PriceUSD(context.Background(), "DOGE")
	assert.True(t, errors.Is(err, types.ErrUnavailable))

	_, ok := o.Quote("DOGE")
	assert.False(t, ok)
}

func TestPriceConcurrentRefresh(t *testing.T) {
	src := &fakeSource{price: decimal.NewFromInt(150), delay: 50 * time.Millisecond}
	o := newOracle(t, src, &clock{now: time.Unix(1700000000, 0)})

	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			p, err := o.PriceUSD(context.Background(), "SOL")
			assert.NoError(t, err)
			assert.True(t, p.Equal(decimal.NewFromInt(150)))
		}()
	}

	wg.Wait()

	// the TTL window allows one extra fetch at most
	assert.LessOrEqual(t, atomic.LoadInt32(&src.calls), int32(2))
}

func TestCoinGecko(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))

		switch r.URL.Query().Get("ids") {
		case "bitcoin":
			_, _ = w.Write([]byte(`{"bitcoin":{"usd":50000.5}}`))
		default:
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	g := NewCoinGecko(srv.URL, "USD", explorer.New())

	p, err := g.Fetch(context.Background(), "btc")
	require.NoError(t, err)
	assert.True(t, p.Equal(decimal.RequireFromString("50000.5")))

	_, err = g.Fetch(context.Background(), "ETH")
	assert.Error(t, err)

	_, err = g.Fetch(context.Background(), "DOGE")
	assert.True(t, errors.Is(err, ErrUnknownSymbol))
}
