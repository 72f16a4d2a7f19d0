package ton

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

func TestBalance(t *testing.T) {
	cases := []struct {
		body string
		want string
		err  error
	}{
		{`{"ok":true,"result":"1500000000"}`, "1.5", nil},
		{`{"ok":true,"result":42}`, "0.000000042", nil},
		{`{"ok":false,"error":"Incorrect address","code":416}`, "", types.ErrProvider},
		{`{"ok":true}`, "", types.ErrNoBalance},
	}

	for _, c := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/getAddressBalance", r.URL.Path)
			assert.Equal(t, "EQabc", r.URL.Query().Get("address"))
			_, _ = w.Write([]byte(c.body))
		}))

		bal, err := New(srv.URL, explorer.New()).Balance(context.Background(), "EQabc")
		if c.err != nil {
			assert.True(t, errors.Is(err, c.err), "%s: %v", c.body, err)
		} else {
			require.NoError(t, err)
			assert.True(t, bal.Equal(decimal.RequireFromString(c.want)), "got %s want %s", bal, c.want)
		}

		srv.Close()
	}
}

func TestEmptyAddress(t *testing.T) {
	tn := New("", explorer.New())
	assert.Equal(t, "TON", tn.Symbol())

	_, err := tn.Balance(context.Background(), "")
	assert.True(t, errors.Is(err, types.ErrBadAddress))
}
