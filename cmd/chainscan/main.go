// package main: chainscan service
package main

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tarancss/chainscan/lib/config"
)

// rootOptions holds the flags shared by all commands.
type rootOptions struct {
	config  string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "chainscan",
		Short: "Multi-chain balance scanner",
		Long: `chainscan polls the balances of the configured addresses on several blockchains, values them in USD
and reports the addresses worth more than a threshold.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&opts.config, "config", "c", "", "YAML or JSON configuration file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newScanCmd(opts), newSnapshotCmd(opts), newWatchCmd(opts))

	return root
}

// load extracts the configuration and sets up logging.
func (o *rootOptions) load() (config.ScanConfig, error) {
	conf, err := config.ExtractConfiguration(o.config)
	if err != nil {
		return conf, err
	}

	setupLogging(conf.LogLevel, o.verbose)

	log.Debug().Int("chains", len(conf.Chains)).Str("dbtype", conf.DbType).Str("mbtype", conf.MbType).
		Msg("Configuration loaded")

	return conf, nil
}

func setupLogging(level string, verbose bool) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if verbose {
		lvl = zerolog.DebugLevel
	}

	zerolog.SetGlobalLevel(lvl)

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("Failed to execute command")
		os.Exit(1)
	}
}
