package api

import (
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jbeda/geom"

	"github.com/talgya/astrowheel/internal/aspects"
	"github.com/talgya/astrowheel/internal/chart"
	"github.com/talgya/astrowheel/internal/houses"
	"github.com/talgya/astrowheel/internal/placement"
	"github.com/talgya/astrowheel/internal/zodiac"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	hits, misses := s.cache.Stats()
	status := map[string]any{
		"name":         "wheelchart",
		"started_at":   s.started.UTC().Format(time.RFC3339),
		"started":      humanize.Time(s.started),
		"store":        s.DB != nil,
		"cache_hits":   hits,
		"cache_misses": misses,
	}
	if s.DB != nil {
		if n, err := s.DB.CountCharts(); err == nil {
			status["charts"] = n
		}
	}
	writeJSON(w, status)
}

func (s *Server) handleSystems(w http.ResponseWriter, r *http.Request) {
	type systemInfo struct {
		Name              string `json:"name"`
		RequiresLatitude  bool   `json:"requires_latitude"`
		RequiresMidheaven bool   `json:"requires_midheaven"`
		Approximated      bool   `json:"approximated"`
	}
	var out []systemInfo
	for _, sys := range houses.Systems() {
		req := sys.Requires()
		out = append(out, systemInfo{
			Name:              sys.Name(),
			RequiresLatitude:  req&houses.NeedsLatitude != 0,
			RequiresMidheaven: req&houses.NeedsMidheaven != 0,
			Approximated:      sys.Approximated(),
		})
	}
	writeJSON(w, out)
}

type cuspInfo struct {
	House     int     `json:"house"`
	Label     string  `json:"label"`
	Longitude float64 `json:"longitude"`
	Sign      string  `json:"sign"`
	DMS       string  `json:"dms"`
}

func (s *Server) handleHouses(w http.ResponseWriter, r *http.Request) {
	var req chart.HouseSettings
	if !decodeJSON(w, r, &req) {
		return
	}
	sys, err := houses.ParseSystem(req.System)
	if err != nil {
		writeError(w, err)
		return
	}
	cusps, err := houses.Calculate(req.Ascendant, sys, req.Params())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]cuspInfo, len(cusps))
	for i, lon := range cusps {
		out[i] = cuspInfo{
			House:     i + 1,
			Label:     houses.Label(i + 1),
			Longitude: lon,
			Sign:      zodiac.SignOf(lon).Name(),
			DMS:       zodiac.FormatDMS(lon),
		}
	}
	writeJSON(w, map[string]any{
		"system":       sys,
		"approximated": sys.Approximated(),
		"monotonic":    cusps.Monotonic(),
		"cusps":        out,
	})
}

func aspectsResponse(found []aspects.Aspect, visibleOnly bool) map[string]any {
	if visibleOnly {
		found = aspects.FilterVisible(found)
	}
	return map[string]any{"count": len(found), "aspects": found}
}

func (s *Server) handleAspects(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Bodies      []aspects.Body   `json:"bodies"`
		Settings    aspects.Settings `json:"settings"`
		VisibleOnly bool             `json:"visible_only"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	found, err := s.detector.Detect(req.Bodies, req.Settings)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, aspectsResponse(found, req.VisibleOnly))
}

func (s *Server) handleSynastry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Primary     []aspects.Body   `json:"primary"`
		Secondary   []aspects.Body   `json:"secondary"`
		Settings    aspects.Settings `json:"settings"`
		VisibleOnly bool             `json:"visible_only"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	found, err := s.cross.DetectCross(req.Primary, req.Secondary, req.Settings)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, aspectsResponse(found, req.VisibleOnly))
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Bodies      []aspects.Body `json:"bodies"`
		MinDistance float64        `json:"min_distance"`
		Radius      float64        `json:"radius"`
		IconRadius  float64        `json:"icon_radius"`
		Center      struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		} `json:"center"`
		Rotation  float64 `json:"rotation"`
		MaxSpread float64 `json:"max_spread"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	center := geom.Coord{X: req.Center.X, Y: req.Center.Y}
	iconRadius := req.IconRadius
	if iconRadius == 0 {
		iconRadius = req.Radius
	}

	projected := placement.Project(req.Bodies, placement.ProjectOptions{
		Center:     center,
		Radius:     req.Radius,
		IconRadius: iconRadius,
		Rotation:   req.Rotation,
	})
	resolved, err := placement.Resolve(projected, placement.Options{
		MinDistance: req.MinDistance,
		Center:      center,
		Radius:      iconRadius,
		Rotation:    req.Rotation,
		MaxSpread:   req.MaxSpread,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"bodies": resolved})
}

func (s *Server) handleWheel(w http.ResponseWriter, r *http.Request) {
	var cfg chart.Config
	if !decodeJSON(w, r, &cfg) {
		return
	}
	wheel, err := s.builder.Build(cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, wheel)
}
