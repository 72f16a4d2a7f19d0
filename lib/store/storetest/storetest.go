// Package storetest checks store.DB implementations behave the same way.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarancss/chainscan/lib/block/types"
	"github.com/tarancss/chainscan/lib/store"
)

// Found records saved by Run, oldest first.
var Found = []types.Found{
	{
		Chain:   "BTC",
		Address: "1BoatSLRHtKNngkdXEeobR76b53LETtpyT",
		Balance: decimal.RequireFromString("0.01"),
		USD:     decimal.RequireFromString("500"),
		Time:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	},
	{
		Chain:   "ETH",
		Address: "0x357dd3856d856197c1a000bbAb4aBCB97Dfc92c4",
		Balance: decimal.RequireFromString("1.61579623043348576"),
		USD:     decimal.RequireFromString("4847.38869130045728"),
		Time:    time.Date(2024, 1, 2, 3, 5, 5, 0, time.UTC),
	},
	{
		Chain:   "BTC",
		Address: "3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy",
		Balance: decimal.RequireFromString("2"),
		USD:     decimal.RequireFromString("100000"),
		Time:    time.Date(2024, 1, 2, 3, 6, 5, 0, time.UTC),
	},
}

// Run saves and reads back found records and runs. db must be empty.
func Run(t *testing.T, db store.DB) {
	t.Helper()

	ctx := context.Background()

	_, err := db.GetFound(ctx, nil)
	assert.ErrorIs(t, err, store.ErrDataNotFound)

	for _, f := range Found {
		require.NoError(t, db.SaveFound(ctx, f))
	}

	all, err := db.GetFound(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)

	for i := range all {
		equalFound(t, Found[i], all[i])
	}

	btc, err := db.GetFound(ctx, []string{"BTC"})
	require.NoError(t, err)
	require.Len(t, btc, 2)
	equalFound(t, Found[0], btc[0])
	equalFound(t, Found[2], btc[1])

	_, err = db.GetFound(ctx, []string{"SOL"})
	assert.ErrorIs(t, err, store.ErrDataNotFound)

	// runs
	_, err = db.GetRuns(ctx, 10)
	assert.ErrorIs(t, err, store.ErrDataNotFound)

	best := Found[2]
	runs := []store.Run{
		{
			ID:       "a6f7a0a2-1b4e-4a8e-9d0e-3f6a4c1f2b01",
			Started:  time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC),
			Finished: time.Date(2024, 1, 2, 3, 10, 0, 0, time.UTC),
			Chains:   []string{"BTC", "ETH"},
			Checked:  120,
			Found:    3,
			Best:     &best,
		},
		{
			ID:       "a6f7a0a2-1b4e-4a8e-9d0e-3f6a4c1f2b02",
			Started:  time.Date(2024, 1, 3, 3, 0, 0, 0, time.UTC),
			Finished: time.Date(2024, 1, 3, 3, 1, 0, 0, time.UTC),
			Chains:   []string{"SOL"},
			Checked:  7,
		},
	}

	for _, r := range runs {
		require.NoError(t, db.SaveRun(ctx, r))
	}

	got, err := db.GetRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// newest first
	equalRun(t, runs[1], got[0])
	equalRun(t, runs[0], got[1])

	got, err = db.GetRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, runs[1].ID, got[0].ID)
}

func equalFound(t *testing.T, want, got types.Found) {
	t.Helper()

	assert.Equal(t, want.Chain, got.Chain)
	assert.Equal(t, want.Address, got.Address)
	assert.True(t, want.Balance.Equal(got.Balance), "balance %s != %s", want.Balance, got.Balance)
	assert.True(t, want.USD.Equal(got.USD), "usd %s != %s", want.USD, got.USD)
	assert.True(t, want.Time.Equal(got.Time), "time %s != %s", want.Time, got.Time)
}

func equalRun(t *testing.T, want, got store.Run) {
	t.Helper()

	assert.Equal(t, want.ID, got.ID)
	assert.True(t, want.Started.Equal(got.Started))
	assert.True(t, want.Finished.Equal(got.Finished))
	assert.Equal(t, want.Chains, got.Chains)
	assert.Equal(t, want.Checked, got.Checked)
	assert.Equal(t, want.Found, got.Found)

	if want.Best == nil {
		assert.Nil(t, got.Best)

		return
	}

	if assert.NotNil(t, got.Best) {
		equalFound(t, *want.Best, *got.Best)
	}
}
