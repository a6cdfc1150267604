package handlers

import (
	"net/http"

	"github.com/stashspark/stashspark/internal/httpserver/deps"
	"github.com/stashspark/stashspark/internal/logger"
)

type readyzResponse struct {
	Ready    bool `json:"ready"`
	Database bool `json:"database"`
	Sessions bool `json:"sessions"`
}

// Readyz reports whether both backing stores answer. A failing
// dependency turns the endpoint into a 503 so load balancers stop
// routing here.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := readyzResponse{Database: true, Sessions: true}

		if err := d.Store.Ping(r.Context()); err != nil {
			d.Logger.Warn("readiness: database unreachable", logger.Error(err))
			resp.Database = false
		}
		if err := d.Sessions.Ping(r.Context()); err != nil {
			d.Logger.Warn("readiness: session store unreachable", logger.Error(err))
			resp.Sessions = false
		}

		resp.Ready = resp.Database && resp.Sessions
		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}
