// Package blockscout implements the chain interface for EVM networks through the blockscout explorer API
// (etherscan compatible "module=account&action=balance" queries).
package blockscout

import (
	"context"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/tarancss/chainscan/lib/block/explorer"
	"github.com/tarancss/chainscan/lib/block/types"
)

// Decimals of the native asset of every EVM network (wei).
const Decimals = 18

// Instances holds the public blockscout instance of each supported network.
var Instances = map[string]string{ //nolint:gochecknoglobals // static table
	"ETH":   "https://eth.blockscout.com",
	"BNB":   "https://bsc.blockscout.com",
	"OP":    "https://optimism.blockscout.com",
	"MATIC": "https://polygon.blockscout.com",
	"AVAX":  "https://avalanche.blockscout.com",
}

// Blockscout implements a connection to a blockscout explorer.
type Blockscout struct {
	symbol string
	base   string
	c      *explorer.Client
}

// New returns a Blockscout adapter for symbol. An empty base uses the public instance for the symbol.
func New(symbol, base string, c *explorer.Client) (*Blockscout, error) {
	symbol = strings.ToUpper(symbol)
	if base == "" {
		var ok bool
		if base, ok = Instances[symbol]; !ok {
			return nil, errors.Errorf("no blockscout instance known for %s", symbol)
		}
	}

	return &Blockscout{symbol: symbol, base: strings.TrimRight(base, "/"), c: c}, nil
}

// Symbol returns the asset symbol of the network.
func (b *Blockscout) Symbol() string {
	return b.symbol
}

type balanceResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

// Balance returns the native balance of address in ether units.
func (b *Blockscout) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	if !common.IsHexAddress(address) {
		return decimal.Zero, errors.Wrapf(types.ErrBadAddress, "[%s] %s", b.symbol, address)
	}

	q := url.Values{}
	q.Set("module", "account")
	q.Set("action", "balance")
	q.Set("address", address)

	var res balanceResponse
	if err := b.c.GetJSON(ctx, b.base+"/api", q, &res); err != nil {
		return decimal.Zero, err
	}

	if res.Status != "" && res.Status != "1" {
		return decimal.Zero, errors.Wrapf(types.ErrProvider, "[%s] %s", b.symbol, res.Message)
	}

	if res.Result == "" {
		return decimal.Zero, errors.Wrapf(types.ErrNoBalance, "[%s] %s", b.symbol, address)
	}

	return types.ParseUnits(res.Result, Decimals)
}
