// Package ethereum implements the chain interface for ethereum-type networks through a JSON-RPC node.
package ethereum

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/tarancss/ethcli"

	"github.com/tarancss/chainscan/lib/block/types"
)

// Decimals of ether (wei).
const Decimals = 18

// Ethereum implements a connection to an ethereum-type chain.
type Ethereum struct {
	symbol string
	c      *ethcli.EthCli
}

// Init returns a connection to an ethereum node for the asset symbol, using secret if necessary for authentication.
func Init(symbol, node, secret string) (*Ethereum, error) {
	var c *ethcli.EthCli

	var err error
	if c = ethcli.Init(node, secret); c == nil {
		err = errors.New("Cannot connect to ethereum blockchain in " + node)
	}

	return &Ethereum{symbol: strings.ToUpper(symbol), c: c}, err
}

// Symbol returns the asset symbol of the network.
func (e *Ethereum) Symbol() string {
	return e.symbol
}

// Close ends a connection
func (e *Ethereum) Close() {
	if e.c != nil {
		e.c.End()
	}
}

// Balance returns the native balance of address in ether units. The node client is not context aware, so ctx is
// only checked before the call is made.
func (e *Ethereum) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	if !common.IsHexAddress(address) {
		return decimal.Zero, errors.Wrapf(types.ErrBadAddress, "[%s] %s", e.symbol, address)
	}

	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}

	bal, _, err := e.c.GetBalance(address, "")
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "[%s] GetBalance", e.symbol)
	}

	return types.FromUnits(bal, Decimals), nil
}
