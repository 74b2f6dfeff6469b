package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"soc_dvfs/dvfs"
	"soc_dvfs/log"
)

// statusSource is the read-only view served over HTTP.
type statusSource interface {
	Rails() []dvfs.RailSnapshot
	Domains() []dvfs.DomainInfo
	Violations() []string
}

func newRouter(e statusSource, g prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if v := e.Violations(); len(v) > 0 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"violations": v})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/v1", func(r chi.Router) {
		r.Get("/rails", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, e.Rails())
		})
		r.Get("/domains", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, e.Domains())
		})
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("HTTP: encode response: %v", err)
	}
}
