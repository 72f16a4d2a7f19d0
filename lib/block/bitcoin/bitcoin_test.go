package bitcoin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarancss/chainscan/lib/block/explorer"
	"github.com/tarancss/chainscan/lib/block/types"
)

func TestMempoolBalance(t *testing.T) {
	cases := []struct {
		body string
		want string
		err  error
	}{
		{`{"address":"a","chain_stats":{"funded_txo_sum":150000000,"spent_txo_sum":50000000}}`, "1", nil},
		{`{"address":"a","chain_stats":{"funded_txo_sum":1000000,"spent_txo_sum":0}}`, "0.01", nil},
		{`{"address":"a","chain_stats":{"funded_txo_sum":0,"spent_txo_sum":0}}`, "0", nil},
		{`{"address":"a"}`, "", types.ErrNoBalance},
	}

	for _, c := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/address/1BoatSLRHtKNngkdXEeobR76b53LETtpyT", r.URL.Path)
			_, _ = w.Write([]byte(c.body))
		}))

		m := NewMempool(srv.URL, explorer.New())
		bal, err := m.Balance(context.Background(), "1BoatSLRHtKNngkdXEeobR76b53LETtpyT")

		if c.err != nil {
			assert.True(t, errors.Is(err, c.err), "%v", err)
		} else {
			require.NoError(t, err)
			assert.True(t, bal.Equal(decimal.RequireFromString(c.want)), "got %s want %s", bal, c.want)
		}

		srv.Close()
	}
}

func TestMempoolBadAddress(t *testing.T) {
	m := NewMempool("", explorer.New())
	assert.Equal(t, "BTC", m.Symbol())

	_, err := m.Balance(context.Background(), "../../etc")
	assert.True(t, errors.Is(err, types.ErrBadAddress))
}

func TestSoChainBalance(t *testing.T) {
	cases := []struct {
		body string
		want string
		err  error
	}{
		{`{"status":"success","data":{"network":"LTC","confirmed_balance":"2.50000000"}}`, "2.5", nil},
		{`{"status":"success","data":{"network":"LTC"}}`, "", types.ErrNoBalance},
		{`{"status":"fail","data":{}}`, "", types.ErrProvider},
	}

	for _, c := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/get_address_balance/LTC/LTCaddr", r.URL.Path)
			_, _ = w.Write([]byte(c.body))
		}))

		s := NewSoChain("ltc", srv.URL, explorer.New())
		assert.Equal(t, "LTC", s.Symbol())

		bal, err := s.Balance(context.Background(), "LTCaddr")
		if c.err != nil {
			assert.True(t, errors.Is(err, c.err), "%v", err)
		} else {
			require.NoError(t, err)
			assert.True(t, bal.Equal(decimal.RequireFromString(c.want)), "got %s want %s", bal, c.want)
		}

		srv.Close()
	}
}
