package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/tarancss/chainscan/lib/config"
	"github.com/tarancss/chainscan/render"
	"github.com/tarancss/chainscan/scanner"
	"github.com/tarancss/chainscan/scanner/state"
)

// scanOptions holds the flags of the scan command.
type scanOptions struct {
	interval     float64
	stopOnProfit bool
	profitMinUSD string
	fast         bool
	monitor      bool
}

func newScanCmd(root *rootOptions) *cobra.Command {
	opts := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the configured addresses until stopped",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := root.load()
			if err != nil {
				return err
			}

			if err = opts.apply(cmd, &conf); err != nil {
				return err
			}

			return runScan(cmd.Context(), conf, opts)
		},
	}

	f := cmd.Flags()
	f.Float64Var(&opts.interval, "interval", 0, "seconds between polls per chain (default from config)")
	f.BoolVar(&opts.stopOnProfit, "stop-on-profit", false, "stop the scan when a value is found")
	f.StringVar(&opts.profitMinUSD, "profit-min-usd", "", "minimum USD value reported as found (default from config)")
	f.BoolVar(&opts.fast, "fast", false, "poll as fast as possible")
	f.BoolVarP(&opts.monitor, "monitor", "m", false, "serve Prometheus metrics")

	return cmd
}

// apply overrides the configuration with the flags set in the command line.
func (o *scanOptions) apply(cmd *cobra.Command, conf *config.ScanConfig) error {
	if o.interval > 0 {
		conf.Interval = time.Duration(o.interval * float64(time.Second))
	}

	if cmd.Flags().Changed("stop-on-profit") {
		conf.StopOnValue = o.stopOnProfit
	}

	if o.profitMinUSD != "" {
		v, err := decimal.NewFromString(o.profitMinUSD)
		if err != nil || v.IsNegative() {
			return errors.Wrapf(config.ErrBadValue, "profit-min-usd %q", o.profitMinUSD)
		}

		conf.ValueThreshold = v
	}

	return nil
}

// signalContext is cancelled on CTRL+C or docker's SIGTERM.
func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}

	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func runScan(ctx context.Context, conf config.ScanConfig, opts *scanOptions) error {
	ctx, stop := signalContext(ctx)
	defer stop()

	a, err := newApp(conf, scanner.ConfigFrom(conf, opts.fast), render.NewTerminal(os.Stdout, true))
	if err != nil {
		return err
	}
	defer a.close()

	a.serve(opts.monitor)

	snap, err := a.sc.Run(ctx)
	if err != nil {
		return err
	}

	summary(snap)

	return nil
}

func summary(snap state.Snapshot) {
	ev := log.Info().Uint64("checked", snap.Checked)

	if b := snap.Best; b != nil {
		ev = ev.Str("chain", b.Chain).Str("address", b.Address).Str("usd", b.ValueUSD().StringFixed(2))
	}

	ev.Msg("Scan finished")
}
