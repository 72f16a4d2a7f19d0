package price

import (
	"context"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/tarancss/chainscan/lib/block/explorer"
)

// CoinGeckoDefault is the public CoinGecko API.
const CoinGeckoDefault = "https://api.coingecko.com/api/v3"

// CoinIDs maps chain symbols to CoinGecko coin ids.
var CoinIDs = map[string]string{ //nolint:gochecknoglobals // static table
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"BNB":   "binancecoin",
	"SOL":   "solana",
	"AVAX":  "avalanche-2",
	"LTC":   "litecoin",
	"OP":    "optimism",
	"MATIC": "matic-network",
	"TON":   "the-open-network",
	"TRX":   "tron",
}

// ErrUnknownSymbol is returned for symbols without a CoinGecko coin id.
var ErrUnknownSymbol = errors.New("no coin id for symbol")

// CoinGecko implements Source with the CoinGecko simple/price API.
type CoinGecko struct {
	base string
	vs   string
	c    *explorer.Client
}

// NewCoinGecko returns a CoinGecko source quoting in vs (ie. "usd"). An empty base uses the public API.
func NewCoinGecko(base, vs string, c *explorer.Client) *CoinGecko {
	if base == "" {
		base = CoinGeckoDefault
	}

	if vs == "" {
		vs = "usd"
	}

	if c == nil {
		c = explorer.New()
	}

	return &CoinGecko{base: strings.TrimRight(base, "/"), vs: strings.ToLower(vs), c: c}
}

// Fetch returns the current price of symbol.
func (g *CoinGecko) Fetch(ctx context.Context, symbol string) (decimal.Decimal, error) {
	id, ok := CoinIDs[strings.ToUpper(symbol)]
	if !ok {
		return decimal.Zero, errors.Wrapf(ErrUnknownSymbol, "%s", symbol)
	}

	q := url.Values{}
	q.Set("ids", id)
	q.Set("vs_currencies", g.vs)

	var res map[string]map[string]decimal.Decimal
	if err := g.c.GetJSON(ctx, g.base+"/simple/price", q, &res); err != nil {
		return decimal.Zero, err
	}

	p, ok := res[id][g.vs]
	if !ok {
		return decimal.Zero, errors.Errorf("coingecko: no %s price for %s", g.vs, id)
	}

	return p, nil
}
