// Package api implements the RESTful API of the scanner: the configured chains, the live snapshot of the current
// run, the found records saved to the database, a cooperative stop and the Prometheus metrics.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/tarancss/chainscan/lib/metrics"
	"github.com/tarancss/chainscan/lib/store"
	"github.com/tarancss/chainscan/scanner"
	"github.com/tarancss/chainscan/scanner/state"
)

const timeout = 15

// Controller is the part of the scanner served by the API.
type Controller interface {
	Chains() []scanner.ChainInfo
	Snapshot() state.Snapshot
	Stop()
}

// API contains the data necessary to deliver the service
type API struct {
	sc Controller
	db store.DB // optional, found records
	m  *metrics.Metrics
	sd chan struct{} // http server channel used for graceful shutdowns

	l       sync.Mutex // l guards s and stopped
	s       *http.Server
	stopped bool
}

// New returns a pointer to a new API service. db and m may be nil.
func New(sc Controller, db store.DB, m *metrics.Metrics) *API {
	return &API{sc: sc, db: db, m: m, sd: make(chan struct{})}
}

// Router returns the API definition.
func (a *API) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", a.homeHandler)
	r.HandleFunc("/chains", a.chainsHandler).Methods(http.MethodGet)     // configured chains
	r.HandleFunc("/snapshot", a.snapshotHandler).Methods(http.MethodGet) // current scan state
	r.HandleFunc("/found", a.foundHandler).Methods(http.MethodGet)       // found records saved
	r.HandleFunc("/stop", a.stopHandler).Methods(http.MethodPost)        // stop the scan

	if a.m != nil {
		r.Handle("/metrics", a.m.Handler()).Methods(http.MethodGet)
	}

	return r
}

// Init sets up and starts the http server to service the RESTful API on endpoint:port and blocks until Stop is
// called.
func (a *API) Init(endpoint, port string) string {
	s := &http.Server{
		Handler:      a.Router(),
		Addr:         endpoint + ":" + port,
		WriteTimeout: timeout * time.Second,
		ReadTimeout:  timeout * time.Second,
	}

	a.l.Lock()
	if a.stopped {
		a.l.Unlock()

		return "http server not started"
	}

	a.s = s
	a.l.Unlock()

	errc := make(chan error, 1)

	go func() {
		errc <- s.ListenAndServe()
	}()

	log.Info().Str("addr", s.Addr).Msg("Listening to API http requests")

	// wait for server to be shutdown
	select {
	case <-a.sd:
		return fmt.Sprintf("shutdown http server:%v", <-errc)
	case err := <-errc:
		<-a.sd

		if errors.Is(err, http.ErrServerClosed) {
			return fmt.Sprintf("shutdown http server:%v", err)
		}

		return fmt.Sprintf("http server failed:%v", err)
	}
}

// Stop shuts down the http server. It must be called once.
func (a *API) Stop() {
	a.l.Lock()
	s := a.s
	a.stopped = true
	a.l.Unlock()

	if s != nil {
		ctx, cancel := context.WithTimeout(context.Background(), timeout*time.Second)
		defer cancel()

		if err := s.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Error in http server shutdown")
		}
	}

	close(a.sd)
}
