// Package ton implements the chain interface for The Open Network through the toncenter v2 API.
package ton

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/tarancss/chainscan/lib/block/explorer"
	"github.com/tarancss/chainscan/lib/block/types"
)

// Default configuration values.
const (
	ToncenterDefault = "https://toncenter.com/api/v2"
	Decimals         = 9 // nanotons
)

// Ton implements a connection to a toncenter API.
type Ton struct {
	base string
	c    *explorer.Client
}

// New returns a TON adapter. An empty base uses the public toncenter instance.
func New(base string, c *explorer.Client) *Ton {
	if base == "" {
		base = ToncenterDefault
	}

	return &Ton{base: strings.TrimRight(base, "/"), c: c}
}

// Symbol returns the asset symbol of the network.
func (t *Ton) Symbol() string {
	return "TON"
}

type balanceResponse struct {
	OK     bool        `json:"ok"`
	Result json.Number `json:"result"`
	Error  string      `json:"error"`
}

// Balance returns the balance of address in TON.
func (t *Ton) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	if address == "" {
		return decimal.Zero, errors.Wrap(types.ErrBadAddress, "[TON] empty address")
	}

	var res balanceResponse
	if err := t.c.GetJSON(ctx, t.base+"/getAddressBalance", url.Values{"address": {address}}, &res); err != nil {
		return decimal.Zero, err
	}

	if !res.OK && res.Error != "" {
		return decimal.Zero, errors.Wrapf(types.ErrProvider, "[TON] %s", res.Error)
	}

	if res.Result == "" {
		return decimal.Zero, errors.Wrapf(types.ErrNoBalance, "[TON] %s", address)
	}

	return types.ParseUnits(res.Result.String(), Decimals)
}
