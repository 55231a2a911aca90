package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/carbocation/ldsccts/compileinfo"
	"github.com/carbocation/ldsccts/runstore"
	"github.com/gorilla/mux"
)

type handler struct {
	*Global
}

func (h *handler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Site      string
		Endpoints []string
	}{
		Site:      h.Site,
		Endpoints: []string{"/runs", "/runs/{id}", "/runs/{id}/jobs", "/version"},
	})
}

func (h *handler) Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, compileinfo.Get())
}

func (h *handler) Runs(w http.ResponseWriter, r *http.Request) {
	runs, err := h.store.Runs()
	if err != nil {
		JSONError(h, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, runs)
}

func (h *handler) Run(w http.ResponseWriter, r *http.Request) {
	id, err := runID(r)
	if err != nil {
		JSONError(h, w, r, err, http.StatusBadRequest)
		return
	}

	run, err := h.store.Run(id)
	if errors.Is(err, runstore.ErrRunNotFound) {
		JSONError(h, w, r, err, http.StatusNotFound)
		return
	} else if err != nil {
		JSONError(h, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, run)
}

// Jobs lists every recorded job of a run, with a count of failures.
func (h *handler) Jobs(w http.ResponseWriter, r *http.Request) {
	id, err := runID(r)
	if err != nil {
		JSONError(h, w, r, err, http.StatusBadRequest)
		return
	}

	if _, err := h.store.Run(id); errors.Is(err, runstore.ErrRunNotFound) {
		JSONError(h, w, r, err, http.StatusNotFound)
		return
	} else if err != nil {
		JSONError(h, w, r, err)
		return
	}

	jobs, err := h.store.Jobs(id)
	if err != nil {
		JSONError(h, w, r, err)
		return
	}

	failed := 0
	for _, j := range jobs {
		if j.ExitCode != 0 {
			failed++
		}
	}

	writeJSON(w, http.StatusOK, struct {
		RunID  int64
		Failed int
		Jobs   []runstore.JobRecord
	}{id, failed, jobs})
}

func (h *handler) NotFound(w http.ResponseWriter, r *http.Request) {
	JSONError(h, w, r, fmt.Errorf("No route for %s", r.URL.Path), http.StatusNotFound)
}

func runID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("Run id %q is not an integer", raw)
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
