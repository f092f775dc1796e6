package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/padelwatch/padelwatch/internal/domain"
	"github.com/padelwatch/padelwatch/internal/httpjson"
)

// snapshotRequest est le format poussé par le Site Adapter: la grille sous
// forme de clés "11H00|2025-01-06", et toutes les dates listées comme
// réservables.
type snapshotRequest struct {
	Grid  map[string]domain.CourtStatuses `json:"grid"`
	Dates []string                        `json:"dates"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	var req snapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}

	// Une grille absente reste nil: c'est au Tracker de rejeter la violation
	// de contrat, pas à la couche HTTP de la masquer.
	snap := domain.Snapshot{Dates: req.Dates}
	if req.Grid != nil {
		snap.Grid = make(map[domain.GridKey]domain.CourtStatuses, len(req.Grid))
		for raw, courts := range req.Grid {
			key, err := domain.ParseStateKey(raw)
			if err != nil {
				httpjson.WriteError(w, http.StatusBadRequest, err.Error())
				return
			}
			snap.Grid[key] = courts
		}
	}

	report, err := s.tracker.Process(r.Context(), snap)
	if err != nil {
		// Snapshot malformé: cycle rejeté, stores intacts.
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, report)
}
