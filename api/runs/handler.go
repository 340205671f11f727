// Package runs exposes the run history and on-demand simulation over HTTP.
package runs

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/drivesim/app"
	"github.com/kilianp07/drivesim/infra/runstore"
)

// Simulator runs one request. *app.Service implements it.
type Simulator interface {
	Simulate(ctx context.Context, req app.RunRequest) (*app.RunResult, error)
}

// NewHandler serves GET /api/runs from store and, when sim is non-nil, POST
// /api/runs by simulating the JSON encoded app.RunRequest in the body.
// Requests must include an Authorization header with "Bearer <token>" when
// token is non-empty.
func NewHandler(store runstore.Store, sim Simulator, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		switch {
		case r.Method == http.MethodGet:
			list(w, r, store)
		case r.Method == http.MethodPost && sim != nil:
			simulate(w, r, sim)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

func list(w http.ResponseWriter, r *http.Request, store runstore.Store) {
	params := r.URL.Query()
	q := runstore.Query{
		Vehicle: params.Get("vehicle"),
		Cycle:   params.Get("cycle"),
	}
	if s := params.Get("start"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			q.Start = t
		}
	}
	if s := params.Get("end"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			q.End = t
		}
	}
	if s := params.Get("trace_miss"); s != "" {
		q.TraceMissOnly, _ = strconv.ParseBool(s)
	}
	records, err := store.Query(r.Context(), q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []runstore.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func simulate(w http.ResponseWriter, r *http.Request, sim Simulator) {
	var req app.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}
	res, err := sim.Simulate(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
