// Package types common blockchain types.
package types

import (
	"math/big"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Result is the outcome of one successful balance lookup: the address balance in the chain's native units paired
// with the USD price of the chain's asset at lookup time. A zero price means the price was unavailable.
type Result struct {
	Chain    string          `json:"chain"`
	Address  string          `json:"address"`
	Balance  decimal.Decimal `json:"balance"`
	PriceUSD decimal.Decimal `json:"price_usd"`
	Time     time.Time       `json:"time"`
}

// ValueUSD returns balance * price.
func (r Result) ValueUSD() decimal.Decimal {
	return r.Balance.Mul(r.PriceUSD)
}

// Found returns the record exported when the result is reported as a find.
func (r Result) Found() Found {
	return Found{
		Chain:   r.Chain,
		Address: r.Address,
		Balance: r.Balance,
		USD:     r.ValueUSD(),
		Time:    r.Time,
	}
}

// Found is the record published, persisted or copied to the clipboard when a valuable address is found. Its JSON
// form is {chain, address, balance, usd}.
type Found struct {
	Chain   string          `json:"chain"`
	Address string          `json:"address"`
	Balance decimal.Decimal `json:"balance"`
	USD     decimal.Decimal `json:"usd"`
	Time    time.Time       `json:"-"`
}

// FromUnits converts an amount expressed in the chain's smallest unit (satoshi, wei, lamport, ...) to a decimal
// amount of the native asset.
func FromUnits(units *big.Int, decimals int32) decimal.Decimal {
	if units == nil {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(units, -decimals)
}

// ParseUnits is FromUnits for amounts received as base 10 strings.
func ParseUnits(units string, decimals int32) (decimal.Decimal, error) {
	i, ok := new(big.Int).SetString(units, 10)
	if !ok {
		return decimal.Zero, errors.Wrapf(ErrBadAmount, "%q", units)
	}

	return FromUnits(i, decimals), nil
}

// Error codes.
var (
	ErrBadAddress  = errors.New("address is not valid for the chain")
	ErrBadAmount   = errors.New("amount returned by the provider cannot be parsed")
	ErrNoBalance   = errors.New("provider response does not contain a balance")
	ErrRateLimited = errors.New("provider is rate limiting requests")
	ErrProvider    = errors.New("provider returned an error")
	ErrUnavailable = errors.New("price not available")
)
