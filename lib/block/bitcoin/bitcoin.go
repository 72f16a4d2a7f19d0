// Package bitcoin implements the chain interface for bitcoin-like networks: BTC through the mempool.space API and LTC
// through the SoChain API.
package bitcoin

import (
	"context"
	"math/big"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/tarancss/chainscan/lib/block/explorer"
	"github.com/tarancss/chainscan/lib/block/types"
)

// Default explorer urls.
const (
	MempoolDefault = "https://mempool.space/api"
	SoChainDefault = "https://sochain.com/api/v2"
	Decimals       = 8 // satoshi
)

// Mempool implements a connection to a mempool.space (esplora) API.
type Mempool struct {
	symbol string
	base   string
	c      *explorer.Client
}

// NewMempool returns a BTC adapter. An empty base uses the public mempool.space instance.
func NewMempool(base string, c *explorer.Client) *Mempool {
	if base == "" {
		base = MempoolDefault
	}

	return &Mempool{symbol: "BTC", base: strings.TrimRight(base, "/"), c: c}
}

// Symbol returns the asset symbol of the network.
func (m *Mempool) Symbol() string {
	return m.symbol
}

type stats struct {
	Funded *big.Int `json:"funded_txo_sum"`
	Spent  *big.Int `json:"spent_txo_sum"`
}

type addressResponse struct {
	Address    string `json:"address"`
	ChainStats *stats `json:"chain_stats"`
}

// Balance returns the confirmed balance of address (funded minus spent outputs).
func (m *Mempool) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	if address == "" || strings.ContainsAny(address, "/?#") {
		return decimal.Zero, errors.Wrapf(types.ErrBadAddress, "[%s] %q", m.symbol, address)
	}

	var res addressResponse
	if err := m.c.GetJSON(ctx, m.base+"/address/"+url.PathEscape(address), nil, &res); err != nil {
		return decimal.Zero, err
	}

	if res.ChainStats == nil || res.ChainStats.Funded == nil || res.ChainStats.Spent == nil {
		return decimal.Zero, errors.Wrapf(types.ErrNoBalance, "[%s] %s", m.symbol, address)
	}

	return types.FromUnits(new(big.Int).Sub(res.ChainStats.Funded, res.ChainStats.Spent), Decimals), nil
}

// SoChain implements a connection to the SoChain v2 API.
type SoChain struct {
	symbol string
	base   string
	c      *explorer.Client
}

// NewSoChain returns an adapter for network (ie. LTC). An empty base uses the public SoChain instance.
func NewSoChain(network, base string, c *explorer.Client) *SoChain {
	if base == "" {
		base = SoChainDefault
	}

	return &SoChain{symbol: strings.ToUpper(network), base: strings.TrimRight(base, "/"), c: c}
}

// Symbol returns the asset symbol of the network.
func (s *SoChain) Symbol() string {
	return s.symbol
}

type soChainResponse struct {
	Status string `json:"status"`
	Data   struct {
		Confirmed decimal.NullDecimal `json:"confirmed_balance"`
	} `json:"data"`
}

// Balance returns the confirmed balance of address.
func (s *SoChain) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	if address == "" || strings.ContainsAny(address, "/?#") {
		return decimal.Zero, errors.Wrapf(types.ErrBadAddress, "[%s] %q", s.symbol, address)
	}

	var res soChainResponse

	u := s.base + "/get_address_balance/" + s.symbol + "/" + url.PathEscape(address)
	if err := s.c.GetJSON(ctx, u, nil, &res); err != nil {
		return decimal.Zero, err
	}

	if res.Status != "" && res.Status != "success" {
		return decimal.Zero, errors.Wrapf(types.ErrProvider, "[%s] status %s", s.symbol, res.Status)
	}

	if !res.Data.Confirmed.Valid {
		return decimal.Zero, errors.Wrapf(types.ErrNoBalance, "[%s] %s", s.symbol, address)
	}

	return res.Data.Confirmed.Decimal, nil
}
