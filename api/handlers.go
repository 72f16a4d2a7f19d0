package api

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/tarancss/chainscan/lib/block/types"
	"github.com/tarancss/chainscan/lib/store"
	"github.com/tarancss/chainscan/lib/util"
)

// Errors returned to client requests.
var ErrNoStore = errors.New("no database configured")

// Response defines the data structure returned to the client making the http request. Body holds the JSON encoded
// result.
type Response struct {
	Body  string `json:"body"`
	Error string `json:"error,omitempty"`
}

// reply encodes v as the body of the response, or err with an error status.
func reply(rw http.ResponseWriter, r *http.Request, status int, v interface{}, err error) {
	var res Response

	if err != nil {
		res.Error = err.Error()
	} else if s, ok := v.(string); ok {
		res.Body = s
	} else {
		tmp, errMar := json.Marshal(v)
		if errMar != nil {
			res.Error, status = errMar.Error(), http.StatusInternalServerError
		}

		res.Body = string(tmp)
	}

	log.Debug().Str("remote", r.RemoteAddr).Str("uri", r.RequestURI).Int("status", status).
		Str("error", res.Error).Msg("httpreq")

	rw.Header().Set("Content-Type", "application/json;charset=utf8")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(&res)
}

// homeHandler just replies a welcome message to the client.
func (a *API) homeHandler(rw http.ResponseWriter, r *http.Request) {
	reply(rw, r, http.StatusOK, "Hello, this is your multi-chain balance scanner!", nil)
}

// chainsHandler replies the chains configured and whether they are being polled.
func (a *API) chainsHandler(rw http.ResponseWriter, r *http.Request) {
	reply(rw, r, http.StatusOK, a.sc.Chains(), nil)
}

// snapshotHandler replies the state of the current, or last, scan run.
func (a *API) snapshotHandler(rw http.ResponseWriter, r *http.Request) {
	reply(rw, r, http.StatusOK, a.sc.Snapshot(), nil)
}

// foundHandler replies the found records saved in the database. The query may select chains with ?chain=<symbol>,
// repeated or comma separated.
func (a *API) foundHandler(rw http.ResponseWriter, r *http.Request) {
	if a.db == nil {
		reply(rw, r, http.StatusServiceUnavailable, nil, ErrNoStore)

		return
	}

	found, err := a.db.GetFound(r.Context(), util.Symbols(r.URL.Query()["chain"]))

	switch {
	case errors.Is(err, store.ErrDataNotFound):
		reply(rw, r, http.StatusOK, []types.Found{}, nil)
	case err != nil:
		log.Error().Err(err).Msg("Error reading found records")
		reply(rw, r, http.StatusInternalServerError, nil, err)
	default:
		reply(rw, r, http.StatusOK, found, nil)
	}
}

// stopHandler asks the running scan to stop.
func (a *API) stopHandler(rw http.ResponseWriter, r *http.Request) {
	a.sc.Stop()

	log.Info().Str("remote", r.RemoteAddr).Msg("Stop requested through the API")

	reply(rw, r, http.StatusAccepted, "stopping", nil)
}
