package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/interpose/middleware"
	"github.com/justinas/alice"
)

func router(config *Global) http.Handler {
	router := mux.NewRouter()
	GET := router.Methods("GET", "HEAD").Subrouter()

	h := handler{Global: config}

	GET.HandleFunc("/", h.Index).Name("index")
	GET.HandleFunc("/version", h.Version).Name("version")
	GET.HandleFunc("/runs", h.Runs).Name("runs")
	GET.HandleFunc("/runs/{id:[0-9]+}", h.Run).Name("run")
	GET.HandleFunc("/runs/{id:[0-9]+}/jobs", h.Jobs).Name("jobs")

	router.NotFoundHandler = http.HandlerFunc(h.NotFound)

	standard := alice.New(
		// Log all requests to STDOUT
		middleware.GorillaLog(),
	)

	return standard.Then(router)
}
