// Package derive appends the addresses of the user's own HD wallet to the chains configured to scan them.
package derive

import (
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/tarancss/hd"

	"github.com/tarancss/chainscan/lib/block"
	"github.com/tarancss/chainscan/lib/config"
	"github.com/tarancss/chainscan/lib/util"
)

// MaxCount is the maximum number of addresses derived per chain.
const MaxCount = 1000

// Errors returned.
var (
	ErrBadSeed     = errors.New("HD wallet seed is not valid hex")
	ErrBadCount    = errors.New("number of addresses to derive out of range")
	ErrUnsupported = errors.New("address derivation only available for EVM chains")
)

// Addresses returns the first count external addresses of wallet for the hex encoded seed.
func Addresses(seed string, wallet uint32, count int) ([]string, error) {
	if count < 1 || count > MaxCount {
		return nil, errors.Wrapf(ErrBadCount, "%d", count)
	}

	s, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(seed), "0x"))
	if err != nil || len(s) == 0 {
		return nil, ErrBadSeed
	}

	w, err := hd.Init(s)
	if err != nil {
		return nil, errors.Wrap(err, "initialising HD wallet")
	}

	addrs := make([]string, 0, count)

	for id := 0; id < count; id++ {
		addr, _, _, err := w.Address(wallet, hd.External, uint32(id))
		if err != nil {
			return nil, errors.Wrapf(err, "obtaining HD wallet address %d/%d", wallet, id)
		}

		addrs = append(addrs, "0x"+hex.EncodeToString(addr))
	}

	return addrs, nil
}

// Apply appends the derived addresses to every chain with a derive section, skipping addresses already listed. The
// chains are returned in the same order.
func Apply(cc []config.ChainConfig) ([]config.ChainConfig, error) {
	res := make([]config.ChainConfig, len(cc))

	for i, c := range cc {
		res[i] = c

		if c.Derive == nil {
			continue
		}

		if !block.IsEVM(c.Symbol) {
			return nil, errors.Wrap(ErrUnsupported, c.Symbol)
		}

		addrs, err := Addresses(c.Derive.Seed, c.Derive.Wallet, c.Derive.Count)
		if err != nil {
			return nil, errors.Wrap(err, c.Symbol)
		}

		list := append([]string(nil), c.Addresses...)

		for _, a := range addrs {
			if !util.In(list, a) {
				list = append(list, a)
			}
		}

		res[i].Addresses = list

		log.Info().Str("chain", c.Symbol).Int("derived", len(addrs)).Msg("HD wallet addresses added")
	}

	return res, nil
}
