package block

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarancss/chainscan/lib/block/bitcoin"
	"github.com/tarancss/chainscan/lib/block/blockscout"
	"github.com/tarancss/chainscan/lib/block/solana"
	"github.com/tarancss/chainscan/lib/config"
)

type fixed struct {
	symbol string
	bal    decimal.Decimal
}

func (f fixed) Symbol() string { return f.symbol }

func (f fixed) Balance(context.Context, string) (decimal.Decimal, error) { return f.bal, nil }

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Resolve("BTC")
	assert.False(t, ok, "empty registry must not resolve")

	r.Register("btc", fixed{"BTC", decimal.NewFromInt(1)})
	r.Register(" ETH ", fixed{"ETH", decimal.NewFromInt(2)})

	c, ok := r.Resolve("BTC")
	require.True(t, ok)
	assert.Equal(t, "BTC", c.Symbol())

	c, ok = r.Resolve("eth")
	require.True(t, ok)
	assert.Equal(t, "ETH", c.Symbol())

	_, ok = r.Resolve("DOGE")
	assert.False(t, ok)

	// last registration wins
	r.Register("BTC", fixed{"BTC", decimal.NewFromInt(3)})

	c, _ = r.Resolve("BTC")
	bal, err := c.Balance(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.NewFromInt(3)))

	assert.Equal(t, []string{"BTC", "ETH"}, r.Symbols())
}

func TestInit(t *testing.T) {
	r, err := Init([]config.ChainConfig{
		{Symbol: "BTC"},
		{Symbol: "LTC"},
		{Symbol: "ETH"},
		{Symbol: "AVAX", Explorer: "http://localhost:1"},
		{Symbol: "SOL"},
		{Symbol: "TON"},
		{Symbol: "TRX"},
		{Symbol: "DOGE"},
	}, Options{})
	require.NoError(t, err)

	defer End(r)

	assert.Equal(t, []string{"AVAX", "BTC", "ETH", "LTC", "SOL", "TON", "TRX"}, r.Symbols())

	c, _ := r.Resolve("BTC")
	assert.IsType(t, &bitcoin.Mempool{}, c)

	c, _ = r.Resolve("LTC")
	assert.IsType(t, &bitcoin.SoChain{}, c)

	c, _ = r.Resolve("ETH")
	assert.IsType(t, &blockscout.Blockscout{}, c)

	c, _ = r.Resolve("SOL")
	assert.IsType(t, &solana.Solana{}, c)

	_, ok := r.Resolve("DOGE")
	assert.False(t, ok)
}

func TestEndNil(t *testing.T) {
	End(nil)
}

func TestIsEVM(t *testing.T) {
	assert.True(t, IsEVM("eth"))
	assert.True(t, IsEVM("MATIC"))
	assert.False(t, IsEVM("BTC"))
	assert.False(t, IsEVM(""))
}
