package httpapi

import (
	"errors"
	"net/http"

	"github.com/padelwatch/padelwatch/internal/httpjson"
	"github.com/padelwatch/padelwatch/internal/ports"
)

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state, err := s.states.Load(r.Context())
	if err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, state)
}

func (s *Server) handleDates(w http.ResponseWriter, r *http.Request) {
	known, err := s.dates.Load(r.Context())
	if err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, known)
}

func (s *Server) handleLatestReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.tracker.LastReport()
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			httpjson.WriteError(w, http.StatusNotFound, "no report yet")
			return
		}
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, report)
}
