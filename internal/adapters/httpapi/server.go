// Package httpapi est la surface entre le core et ses collaborateurs
// externes: le Site Adapter pousse ses snapshots sur POST /snapshots, les
// notifiers suivent le flux /events, les opérateurs consultent l'état.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/padelwatch/padelwatch/internal/app"
	"github.com/padelwatch/padelwatch/internal/ports"
)

type Server struct {
	logger  zerolog.Logger
	tracker *app.Tracker
	states  ports.StateStore
	dates   ports.DateRegistry
	bus     ports.EventBus
	// auth est optionnel: sans fichier d'identifiants, l'ingestion reste
	// ouverte (usage local).
	auth *BasicAuth
}

func NewServer(logger zerolog.Logger, tracker *app.Tracker, states ports.StateStore, dates ports.DateRegistry, bus ports.EventBus, auth *BasicAuth) *Server {
	return &Server{logger: logger, tracker: tracker, states: states, dates: dates, bus: bus, auth: auth}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(hlog.NewHandler(s.logger))
	r.Use(hlog.RequestIDHandler("request_id", "Request-Id"))
	r.Use(hlog.RemoteAddrHandler("remote_ip"))
	r.Use(hlog.UserAgentHandler("user_agent"))
	r.Use(hlog.AccessHandler(accessLogFn))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/version", s.handleVersion)
		// Pas de timeout sur /events (stream SSE longue durée).
		r.Get("/events", s.handleEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(defaultRequestTimeout))
			r.Get("/state", s.handleState)
			r.Get("/dates", s.handleDates)
			r.Get("/reports/latest", s.handleLatestReport)

			r.Group(func(r chi.Router) {
				if s.auth != nil {
					r.Use(s.auth.Middleware)
				}
				r.Post("/snapshots", s.handleSnapshot)
			})
		})
	})

	return r
}
