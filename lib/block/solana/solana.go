// Package solana implements the chain interface for Solana using the JSON-RPC 2.0 getBalance method.
package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/tarancss/chainscan/lib/block/explorer"
	"github.com/tarancss/chainscan/lib/block/types"
)

// Default configuration values.
const (
	EndpointDefault = "https://api.mainnet-beta.solana.com"
	Decimals        = 9 // lamports
	pubKeyLen       = 32
)

// Solana implements a connection to a Solana RPC node.
type Solana struct {
	endpoint  string
	c         *explorer.Client
	requestID atomic.Uint64
}

// New returns a Solana adapter. An empty endpoint uses the public mainnet-beta node.
func New(endpoint string, c *explorer.Client) *Solana {
	if endpoint == "" {
		endpoint = EndpointDefault
	}

	return &Solana{endpoint: endpoint, c: c}
}

// Symbol returns the asset symbol of the network.
func (s *Solana) Symbol() string {
	return "SOL"
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

type balanceResult struct {
	Context struct {
		Slot uint64 `json:"slot"`
	} `json:"context"`
	Value *uint64 `json:"value"`
}

// ValidAddress reports whether address is a base58 encoded 32 byte public key.
func ValidAddress(address string) bool {
	b, err := base58.Decode(address)

	return err == nil && len(b) == pubKeyLen
}

// Balance returns the balance of address in SOL.
func (s *Solana) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	if !ValidAddress(address) {
		return decimal.Zero, errors.Wrapf(types.ErrBadAddress, "[SOL] %s", address)
	}

	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      s.requestID.Add(1),
		Method:  "getBalance",
		Params:  []interface{}{address},
	}

	var resp rpcResponse
	if err := s.c.PostJSON(ctx, s.endpoint, req, &resp); err != nil {
		return decimal.Zero, err
	}

	if resp.Error != nil {
		return decimal.Zero, errors.Wrap(types.ErrProvider, resp.Error.Error())
	}

	var res balanceResult
	if len(resp.Result) == 0 || json.Unmarshal(resp.Result, &res) != nil || res.Value == nil {
		return decimal.Zero, errors.Wrapf(types.ErrNoBalance, "[SOL] %s", address)
	}

	return types.FromUnits(new(big.Int).SetUint64(*res.Value), Decimals), nil
}
