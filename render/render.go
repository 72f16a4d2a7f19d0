// Package render draws scan snapshots as text tables and exports them.
package render

import (
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/tarancss/chainscan/scanner/state"
)

// clearScreen moves the cursor home and clears the terminal.
const clearScreen = "\033[H\033[2J"

// Terminal draws snapshots to a terminal.
type Terminal struct {
	l     sync.Mutex
	w     io.Writer
	clear bool
}

// NewTerminal returns a Terminal writing to w. When clear is set the screen is cleared before every render.
func NewTerminal(w io.Writer, clear bool) *Terminal {
	return &Terminal{w: w, clear: clear}
}

// Render implements scanner.Renderer.
func (t *Terminal) Render(snap state.Snapshot) {
	t.l.Lock()
	defer t.l.Unlock()

	if t.clear {
		_, _ = io.WriteString(t.w, clearScreen)
	}

	if err := Write(t.w, snap); err != nil {
		log.Debug().Err(err).Msg("render failed")
	}
}

// Write writes snap as text: the checked counter, the recent results table and the best value found.
func Write(w io.Writer, snap state.Snapshot) error {
	if _, err := fmt.Fprintf(w, "Wallet Scanner\nChecked Wallets: %s\n", Count(snap.Checked)); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Chain", "Address", "Balance", "Price USD", "Value USD"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, r := range snap.Recent {
		table.Append([]string{
			r.Chain,
			Short(r.Address),
			r.Balance.StringFixed(8),
			USD(r.PriceUSD),
			USD(r.ValueUSD()),
		})
	}

	table.Render()

	var err error
	if b := snap.Best; b != nil {
		_, err = fmt.Fprintf(w, "Value found! %s %s ~ %s\n%s\n", b.Chain, b.Balance.StringFixed(8), USD(b.ValueUSD()),
			b.Address)
	} else {
		_, err = io.WriteString(w, "No value found yet\n")
	}

	return err
}

// Short abbreviates long addresses to their first 10 characters.
func Short(address string) string {
	r := []rune(address)
	if len(r) <= 13 {
		return address
	}

	return string(r[:10]) + "..."
}

// USD formats v as dollars with thousands separators, e.g. $1,122.87.
func USD(v decimal.Decimal) string {
	s := v.Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-3:]

	var b []byte

	for i := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b = append(b, ',')
		}

		b = append(b, intPart[i])
	}

	sign := ""
	if v.IsNegative() {
		sign = "-"
	}

	return sign + "$" + string(b) + frac
}

// Count formats n with space separated thousands, as shown in the header.
func Count(n uint64) string {
	s := strconv.FormatUint(n, 10)

	var b []byte

	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b = append(b, ' ')
		}

		b = append(b, s[i])
	}

	return string(b)
}
