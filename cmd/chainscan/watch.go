package main

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tarancss/chainscan/lib/config"
	"github.com/tarancss/chainscan/lib/notify"
	"github.com/tarancss/chainscan/lib/store/db"
)

// ErrNoBroker is returned by watch when no message broker is configured.
var ErrNoBroker = errors.New("watch requires a message broker (mbtype, mbconn)")

func newWatchCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Consume the found events published by scanners and save them to the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := root.load()
			if err != nil {
				return err
			}

			return runWatch(cmd, conf)
		},
	}
}

func runWatch(cmd *cobra.Command, conf config.ScanConfig) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	mb, err := newBroker(conf.MbType, conf.MbConn)
	if err != nil {
		return err
	}

	if mb == nil {
		return ErrNoBroker
	}
	defer mb.Close()

	var handlers []notify.Handler

	dh, err := db.New(conf.DbType, conf.DbConn)
	if err != nil {
		return err
	}

	if dh != nil {
		defer db.Close(dh)

		handlers = append(handlers, notify.NewStore(dh))
	}

	if conf.Clipboard {
		if c, err := notify.NewClipboard(); err == nil {
			handlers = append(handlers, c)
		}
	}

	chains := make([]string, 0, len(conf.Chains))
	for _, c := range conf.Chains {
		chains = append(chains, c.Symbol)
	}

	log.Info().Strs("chains", chains).Msg("Watching found events")

	if err = notify.Watch(ctx, mb, chains, handlers...); err != nil && !errors.Is(err, ctx.Err()) {
		return err
	}

	return nil
}
