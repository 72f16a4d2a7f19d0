package main

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarancss/chainscan/lib/config"
	"github.com/tarancss/chainscan/lib/metrics"
	"github.com/tarancss/chainscan/render"
	"github.com/tarancss/chainscan/scanner"
)

func TestScanFlags(t *testing.T) {
	root := newRootCmd()

	cmd, _, err := root.Find([]string{"scan"})
	require.NoError(t, err)
	require.NoError(t, cmd.ParseFlags([]string{"--interval", "0.5", "--stop-on-profit", "--profit-min-usd", "25"}))

	conf := config.ScanConfig{Interval: 3 * time.Second, ValueThreshold: decimal.RequireFromString("0.01")}

	opts := &scanOptions{interval: 0.5, stopOnProfit: true, profitMinUSD: "25"}
	require.NoError(t, opts.apply(cmd, &conf))

	assert.Equal(t, 500*time.Millisecond, conf.Interval)
	assert.True(t, conf.StopOnValue)
	assert.True(t, conf.ValueThreshold.Equal(decimal.NewFromInt(25)))

	opts.profitMinUSD = "-1"
	assert.ErrorIs(t, opts.apply(cmd, &conf), config.ErrBadValue)
}

func TestScanFlagsUnset(t *testing.T) {
	cmd, _, err := newRootCmd().Find([]string{"scan"})
	require.NoError(t, err)
	require.NoError(t, cmd.ParseFlags(nil))

	conf := config.ScanConfig{Interval: 3 * time.Second, StopOnValue: true}
	require.NoError(t, (&scanOptions{}).apply(cmd, &conf))

	assert.Equal(t, 3*time.Second, conf.Interval)
	assert.True(t, conf.StopOnValue, "unset flag keeps the configured value")
}

func TestNewOracle(t *testing.T) {
	_, err := newOracle(config.ScanConfig{PriceSource: "binance"}, nil, metrics.New(nil))
	assert.ErrorIs(t, err, ErrPriceSource)

	o, err := newOracle(config.ScanConfig{PriceSource: "coingecko", QuoteCurrency: "USD"}, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, o)
}

func TestNewBroker(t *testing.T) {
	mb, err := newBroker("", "")
	require.NoError(t, err)
	assert.Nil(t, mb)

	mb, err = newBroker("kafka", "localhost:9092")
	require.NoError(t, err)
	assert.Nil(t, mb)
}

func TestExporter(t *testing.T) {
	ex, err := exporter(config.ScanConfig{ExportDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &render.Exporter{}, ex)
}

func TestNewApp(t *testing.T) {
	conf := config.ScanConfig{
		Chains: []config.ChainConfig{
			{Symbol: "BTC", Addresses: []string{"1BoatSLRHtKNngkdXEeobR76b53LETtpyT"}},
			{Symbol: "DOGE", Addresses: []string{"D"}},
		},
		PriceSource: "coingecko",
		DbType:      "memory",
	}

	a, err := newApp(conf, scanner.ConfigFrom(conf, false), nil)
	require.NoError(t, err)

	defer a.close()

	assert.Equal(t, []string{"BTC"}, a.reg.Symbols())
	assert.NotNil(t, a.db)
	assert.Len(t, a.sinks(), 1)
	assert.Len(t, a.sc.Chains(), 2)
}
