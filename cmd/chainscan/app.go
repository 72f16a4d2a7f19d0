package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/tarancss/chainscan/api"
	"github.com/tarancss/chainscan/lib/block"
	"github.com/tarancss/chainscan/lib/block/explorer"
	"github.com/tarancss/chainscan/lib/config"
	"github.com/tarancss/chainscan/lib/derive"
	"github.com/tarancss/chainscan/lib/metrics"
	"github.com/tarancss/chainscan/lib/msg"
	"github.com/tarancss/chainscan/lib/msg/amqp"
	"github.com/tarancss/chainscan/lib/notify"
	"github.com/tarancss/chainscan/lib/price"
	"github.com/tarancss/chainscan/lib/store"
	"github.com/tarancss/chainscan/lib/store/db"
	"github.com/tarancss/chainscan/scanner"
)

// ErrPriceSource is returned for unknown price sources.
var ErrPriceSource = errors.New("unknown price source")

// brokerRetry is the wait before trying to connect to the message broker a second time.
const brokerRetry = 10 * time.Second

// app holds the services wired for a scan.
type app struct {
	conf config.ScanConfig
	reg  *block.Registry
	m    *metrics.Metrics
	db   store.DB
	mb   msg.MsgBroker
	sc   *scanner.Scanner
	api  *api.API

	closers []func()
}

// newApp connects the blockchains, price source, database, message broker and sinks, and creates the scanner.
func newApp(conf config.ScanConfig, cfg scanner.Config, r scanner.Renderer) (a *app, err error) {
	a = &app{conf: conf, m: metrics.New(nil)}

	defer func() {
		if err != nil {
			a.close()
		}
	}()

	// add the addresses of the user's HD wallet
	if cfg.Chains, err = derive.Apply(cfg.Chains); err != nil {
		return a, err
	}

	client := explorer.New(explorer.WithTimeout(conf.HTTPTimeout), explorer.WithProxy(conf.Proxy))

	// load all blockchains
	if a.reg, err = block.Init(cfg.Chains, block.Options{Client: client}); err != nil {
		return a, err
	}

	a.closers = append(a.closers, func() { block.End(a.reg) })

	log.Info().Strs("chains", a.reg.Symbols()).Msg("Blockchain clients loaded")

	oracle, err := newOracle(conf, client, a.m)
	if err != nil {
		return a, err
	}

	// connect to database
	if a.db, err = db.New(conf.DbType, conf.DbConn); err != nil {
		return a, err
	}

	if a.db != nil {
		log.Info().Str("dbtype", conf.DbType).Msg("Connected to database")

		a.closers = append(a.closers, func() {
			if err := db.Close(a.db); err != nil {
				log.Error().Err(err).Msg("Error closing database")
			}
		})
	}

	// load message broker
	if a.mb, err = newBroker(conf.MbType, conf.MbConn); err != nil {
		return a, err
	}

	if a.mb != nil {
		a.closers = append(a.closers, func() {
			if err := a.mb.Close(); err != nil {
				log.Error().Err(err).Msg("Error closing message broker")
			}
		})
	}

	opts := []scanner.Option{scanner.WithMetrics(a.m), scanner.WithSinks(a.sinks()...)}
	if r != nil {
		opts = append(opts, scanner.WithRenderer(r))
	}

	if a.db != nil {
		opts = append(opts, scanner.WithStore(a.db))
	}

	a.sc, err = scanner.New(cfg, a.reg, oracle, opts...)

	return a, err
}

func newOracle(conf config.ScanConfig, client *explorer.Client, m *metrics.Metrics) (*price.Oracle, error) {
	var src price.Source

	switch conf.PriceSource {
	case "", config.PriceSourceDefault:
		src = price.NewCoinGecko(conf.PriceURL, strings.ToLower(conf.QuoteCurrency), client)
	default:
		return nil, errors.Wrapf(ErrPriceSource, "%q", conf.PriceSource)
	}

	return price.New(src, price.WithTTL(conf.PriceTTL), price.WithMetrics(m))
}

func newBroker(mbType, mbConn string) (msg.MsgBroker, error) {
	switch mbType {
	case "":
		return nil, nil
	case "amqp":
		mb, err := amqp.New(mbConn)
		if err != nil {
			log.Warn().Err(err).Dur("retry", brokerRetry).Msg("Message broker not ready")
			time.Sleep(brokerRetry) // wait for AMQP to be ready and try to reconnect

			if mb, err = amqp.New(mbConn); err != nil {
				return nil, err
			}
		}

		if err = mb.Setup(); err != nil {
			_ = mb.Close()

			return nil, err
		}

		return mb, nil
	}

	log.Warn().Str("mbtype", mbType).Msg("Unknown message broker type. Ignoring...")

	return nil, nil
}

// sinks returns the destinations of found events.
func (a *app) sinks() []scanner.Sink {
	var sinks []scanner.Sink

	if a.conf.Clipboard {
		c, err := notify.NewClipboard()
		if err != nil {
			log.Warn().Err(err).Msg("Found records will not be copied to the clipboard")
		} else {
			sinks = append(sinks, c)
		}
	}

	if a.mb != nil {
		sinks = append(sinks, notify.NewBroker(a.mb))
	}

	if a.db != nil {
		sinks = append(sinks, notify.NewStore(a.db))
	}

	return sinks
}

// serve starts the API and, if monitor is set, the metrics server.
func (a *app) serve(monitor bool) {
	if a.conf.Port != "" {
		a.api = api.New(a.sc, a.db, a.m)

		go func() {
			log.Info().Msg(a.api.Init(a.conf.Endpoint, a.conf.Port))
		}()

		a.closers = append(a.closers, a.api.Stop)
	}

	if monitor && a.conf.Metrics != "" {
		h := http.NewServeMux()
		h.Handle("/metrics", a.m.Handler())

		s := &http.Server{Addr: a.conf.Metrics, Handler: h, ReadHeaderTimeout: 15 * time.Second}

		go func() {
			log.Info().Str("addr", a.conf.Metrics).Msg("Serving metrics API")

			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("Metrics server failed")
			}
		}()

		a.closers = append(a.closers, func() { _ = s.Shutdown(context.Background()) })
	}
}

// close releases everything opened, in reverse order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}

	a.closers = nil
}
