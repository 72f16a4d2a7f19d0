// Package block defines the interface required for all blockchain or network balance sources and the registry that
// maps chain symbols to them.
package block

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/tarancss/chainscan/lib/block/bitcoin"
	"github.com/tarancss/chainscan/lib/block/blockscout"
	"github.com/tarancss/chainscan/lib/block/ethereum"
	"github.com/tarancss/chainscan/lib/block/explorer"
	"github.com/tarancss/chainscan/lib/block/solana"
	"github.com/tarancss/chainscan/lib/block/ton"
	"github.com/tarancss/chainscan/lib/block/tron"
	"github.com/tarancss/chainscan/lib/config"
)

// Chain is an interface that contains the required methods to read balances from a blockchain or network. Balance
// returns the native balance of address as a decimal amount of the chain's asset; any failure is returned as an
// error, never as a zero balance.
type Chain interface {
	Symbol() string
	Balance(ctx context.Context, address string) (decimal.Decimal, error)
}

// Closer is implemented by chains that hold connections to be closed at termination time.
type Closer interface {
	Close()
}

// Registry maps chain symbols to Chain implementations. It is populated at startup and read-only afterwards, so it
// needs no locking while pollers read from it.
type Registry struct {
	m map[string]Chain
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{m: make(map[string]Chain)}
}

// Register maps symbol (case insensitive) to c. A later registration for the same symbol replaces the former.
func (r *Registry) Register(symbol string, c Chain) {
	r.m[key(symbol)] = c
}

// Resolve returns the Chain registered for symbol. Unknown symbols are reported with false, there is no default.
func (r *Registry) Resolve(symbol string) (Chain, bool) {
	c, ok := r.m[key(symbol)]

	return c, ok
}

// Symbols returns the registered symbols sorted.
func (r *Registry) Symbols() []string {
	s := make([]string, 0, len(r.m))
	for k := range r.m {
		s = append(s, k)
	}

	sort.Strings(s)

	return s
}

func key(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Options holds the settings shared by all explorer-backed chains.
type Options struct {
	Client *explorer.Client
}

// Init loads the clients for the chains read from the config into a Registry. Chains with a node configured are
// served through it, the others through their default explorer. Chains with no known implementation are ignored.
func Init(cc []config.ChainConfig, o Options) (*Registry, error) {
	if o.Client == nil {
		o.Client = explorer.New()
	}

	r := NewRegistry()

	for _, c := range cc {
		ch, err := newChain(c, o.Client)
		if err != nil {
			End(r)

			return nil, err
		}

		if ch == nil {
			log.Warn().Str("chain", c.Symbol).Msg("Blockchain interface not defined. Ignoring...")

			continue
		}

		r.Register(c.Symbol, ch)
	}

	return r, nil
}

// IsEVM reports whether symbol is served by an EVM chain, where addresses are 20 byte hex strings.
func IsEVM(symbol string) bool {
	switch key(symbol) {
	case "ETH", "BNB", "OP", "MATIC", "AVAX":
		return true
	}

	return false
}

func newChain(c config.ChainConfig, client *explorer.Client) (Chain, error) {
	if IsEVM(c.Symbol) {
		if c.Node != "" {
			return ethereum.Init(c.Symbol, c.Node, c.Secret)
		}

		return blockscout.New(c.Symbol, c.Explorer, client)
	}

	switch key(c.Symbol) {
	case "BTC":
		return bitcoin.NewMempool(c.Explorer, client), nil
	case "LTC":
		return bitcoin.NewSoChain("LTC", c.Explorer, client), nil
	case "SOL":
		endpoint := c.Node
		if endpoint == "" {
			endpoint = c.Explorer
		}

		return solana.New(endpoint, client), nil
	case "TON":
		return ton.New(c.Explorer, client), nil
	case "TRX":
		return tron.New(c.Explorer, client), nil
	}

	return nil, nil
}

// End closes gracefully all the blockchain clients opened.
func End(r *Registry) {
	if r == nil {
		return
	}

	for _, c := range r.m {
		if cl, ok := c.(Closer); ok {
			cl.Close()
		}
	}
}
