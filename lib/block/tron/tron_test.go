package tron

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarancss/chainscan/lib/block/explorer"
)

const addr = "TLa2f6VPqDgRE67v1736s7bJ8Ray5wYjU7"

func TestBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/account", r.URL.Path)
		assert.Equal(t, addr, r.URL.Query().Get("address"))
		_, _ = w.Write([]byte(`{"address":"` + addr + `","balance":12345678}`))
	}))
	defer srv.Close()

	tr := New(srv.URL, explorer.New())
	assert.Equal(t, "TRX", tr.Symbol())

	bal, err := tr.Balance(context.Background(), addr)
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.RequireFromString("12.345678")), bal.String())
}

func TestInactiveAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	bal, err := New(srv.URL, explorer.New()).Balance(context.Background(), addr)
	require.NoError(t, err)
	assert.True(t, bal.IsZero(), bal.String())
}

func TestValidAddress(t *testing.T) {
	assert.True(t, ValidAddress(addr))
	assert.False(t, ValidAddress("0x357dd3856d856197c1a000bbAb4aBCB97Dfc92c4"))
	assert.False(t, ValidAddress("1BoatSLRHtKNngkdXEeobR76b53LETtpyT"))
	assert.False(t, ValidAddress(""))
}
