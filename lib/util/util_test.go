package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIn(t *testing.T) {
	assert.True(t, In([]string{"BTC", "ETH"}, "ETH"))
	assert.False(t, In([]string{"BTC", "ETH"}, "eth"))
	assert.False(t, In(nil, "BTC"))
	assert.True(t, In([]int{1, 2}, 2))
}

func TestSymbols(t *testing.T) {
	assert.Nil(t, Symbols(nil))
	assert.Nil(t, Symbols([]string{"", " , "}))
	assert.Equal(t, []string{"BTC", "ETH", "SOL"}, Symbols([]string{"btc, eth", "SOL", "btc"}))
}
