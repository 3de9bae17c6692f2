package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/talgya/astrowheel/internal/chart"
)

type chartRequest struct {
	Name   string       `json:"name"`
	Config chart.Config `json:"config"`
}

// validate builds the wheel once so that unusable configurations are never stored.
func (s *Server) validate(w http.ResponseWriter, req chartRequest) bool {
	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return false
	}
	if _, err := s.builder.Build(req.Config); err != nil {
		writeError(w, err)
		return false
	}
	return true
}

func (s *Server) handleListCharts(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	charts, err := s.DB.ListCharts(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, charts)
}

func (s *Server) handleCreateChart(w http.ResponseWriter, r *http.Request) {
	var req chartRequest
	if !decodeJSON(w, r, &req) || !s.validate(w, req) {
		return
	}
	rec, err := s.DB.SaveChart(req.Name, req.Config)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/charts/"+rec.ID)
	writeJSONStatus(w, http.StatusCreated, rec)
}

func (s *Server) handleGetChart(w http.ResponseWriter, r *http.Request) {
	rec, err := s.DB.GetChart(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, rec)
}

func (s *Server) handleChartWheel(w http.ResponseWriter, r *http.Request) {
	rec, err := s.DB.GetChart(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	wheel, err := s.builder.Build(rec.Config)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, wheel)
}

func (s *Server) handleUpdateChart(w http.ResponseWriter, r *http.Request) {
	var req chartRequest
	if !decodeJSON(w, r, &req) || !s.validate(w, req) {
		return
	}
	rec, err := s.DB.UpdateChart(r.PathValue("id"), req.Name, req.Config)
	if err != nil {
		writeError(w, err)
		return
	}
	slog.Info("chart updated", "id", rec.ID)
	writeJSON(w, rec)
}

func (s *Server) handleDeleteChart(w http.ResponseWriter, r *http.Request) {
	if err := s.DB.DeleteChart(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
