// Package tron implements the chain interface for TRON through the tronscan API.
package tron

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/tarancss/chainscan/lib/block/explorer"
	"github.com/tarancss/chainscan/lib/block/types"
)

// Default configuration values.
const (
	TronscanDefault = "https://apilist.tronscanapi.com/api"
	Decimals        = 6 // sun
	addrLen         = 25
	addrPrefix      = 0x41
)

// Tron implements a connection to a tronscan API.
type Tron struct {
	base string
	c    *explorer.Client
}

// New returns a TRX adapter. An empty base uses the public tronscan instance.
func New(base string, c *explorer.Client) *Tron {
	if base == "" {
		base = TronscanDefault
	}

	return &Tron{base: strings.TrimRight(base, "/"), c: c}
}

// Symbol returns the asset symbol of the network.
func (t *Tron) Symbol() string {
	return "TRX"
}

// ValidAddress reports whether address looks like a base58check TRON address (0x41 prefix, 25 bytes). The checksum is
// left to the explorer.
func ValidAddress(address string) bool {
	b, err := base58.Decode(address)

	return err == nil && len(b) == addrLen && b[0] == addrPrefix
}

type accountResponse struct {
	Address string      `json:"address"`
	Balance json.Number `json:"balance"`
}

// Balance returns the TRX balance of address.
func (t *Tron) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	if !ValidAddress(address) {
		return decimal.Zero, errors.Wrapf(types.ErrBadAddress, "[TRX] %s", address)
	}

	var res accountResponse
	if err := t.c.GetJSON(ctx, t.base+"/account", url.Values{"address": {address}}, &res); err != nil {
		return decimal.Zero, err
	}

	// accounts not yet activated carry no balance
	if res.Balance == "" {
		return decimal.Zero, nil
	}

	return types.ParseUnits(res.Balance.String(), Decimals)
}
