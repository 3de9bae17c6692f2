package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/talgya/astrowheel/internal/persistence"
)

func newTestServer(t *testing.T, s *Server) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func withStore(t *testing.T, s *Server) *Server {
	t.Helper()
	db, err := persistence.Open(filepath.Join(t.TempDir(), "charts.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	s.DB = db
	return s
}

func do(t *testing.T, ts *httptest.Server, method, path, body string, header map[string]string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestStatusAndSystems(t *testing.T) {
	ts := newTestServer(t, &Server{})

	resp := do(t, ts, "GET", "/api/v1/status", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	status := decode[map[string]any](t, resp)
	if status["name"] != "wheelchart" || status["store"] != false {
		t.Errorf("unexpected status %v", status)
	}

	resp = do(t, ts, "GET", "/api/v1/systems", "", nil)
	systems := decode[[]struct {
		Name              string `json:"name"`
		RequiresLatitude  bool   `json:"requires_latitude"`
		RequiresMidheaven bool   `json:"requires_midheaven"`
		Approximated      bool   `json:"approximated"`
	}](t, resp)
	if len(systems) != 9 {
		t.Fatalf("expected 9 systems, got %d", len(systems))
	}
	for _, s := range systems {
		if s.Name == "Placidus" && (!s.RequiresLatitude || !s.RequiresMidheaven || !s.Approximated) {
			t.Errorf("placidus flags wrong: %+v", s)
		}
		if s.Name == "Equal" && (s.RequiresLatitude || s.RequiresMidheaven || s.Approximated) {
			t.Errorf("equal flags wrong: %+v", s)
		}
	}
}

func TestHouses(t *testing.T) {
	ts := newTestServer(t, &Server{})

	tests := []struct {
		name string
		body string
		code int
	}{
		{"equal", `{"ascendant": 45, "system": "equal"}`, http.StatusOK},
		{"porphyry", `{"ascendant": 45, "midheaven": 315, "system": "porphyry"}`, http.StatusOK},
		{"missing midheaven", `{"ascendant": 45, "system": "porphyry"}`, http.StatusBadRequest},
		{"unsupported", `{"ascendant": 45, "system": "vehlow"}`, http.StatusBadRequest},
		{"bad ascendant", `{"ascendant": 400, "system": "equal"}`, http.StatusBadRequest},
		{"bad json", `{"ascendant":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, ts, "POST", "/api/v1/houses", tt.body, nil)
			if resp.StatusCode != tt.code {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.code)
			}
		})
	}

	resp := do(t, ts, "POST", "/api/v1/houses", `{"ascendant": 45, "system": "Whole Sign"}`, nil)
	got := decode[struct {
		System    string `json:"system"`
		Monotonic bool   `json:"monotonic"`
		Cusps     []struct {
			House     int     `json:"house"`
			Label     string  `json:"label"`
			Longitude float64 `json:"longitude"`
			Sign      string  `json:"sign"`
		} `json:"cusps"`
	}](t, resp)
	if got.System != "WholeSign" || !got.Monotonic || len(got.Cusps) != 12 {
		t.Fatalf("unexpected response %+v", got)
	}
	if c := got.Cusps[1]; c.Longitude != 60 || c.Label != "2nd house" || c.Sign != "Gemini" {
		t.Errorf("second cusp = %+v", c)
	}
}

func TestAspectsAndSynastry(t *testing.T) {
	ts := newTestServer(t, &Server{})

	body := `{"bodies": [{"name": "sun", "longitude": 0}, {"name": "moon", "longitude": 182}],
		"settings": {"types": {"opposition": {"orb": 6}}}}`
	resp := do(t, ts, "POST", "/api/v1/aspects", body, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := decode[struct {
		Count   int `json:"count"`
		Aspects []struct {
			Name      string  `json:"name"`
			Deviation float64 `json:"deviation"`
		} `json:"aspects"`
	}](t, resp)
	if got.Count != 1 || got.Aspects[0].Name != "opposition" || got.Aspects[0].Deviation != 2 {
		t.Errorf("unexpected aspects %+v", got)
	}

	dup := `{"bodies": [{"name": "sun", "longitude": 0}, {"name": "sun", "longitude": 1}]}`
	if resp := do(t, ts, "POST", "/api/v1/aspects", dup, nil); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("duplicate names: status = %d", resp.StatusCode)
	}

	syn := `{"primary": [{"name": "sun", "longitude": 10}], "secondary": [{"name": "sun", "longitude": 190}]}`
	resp = do(t, ts, "POST", "/api/v1/synastry", syn, nil)
	cross := decode[struct {
		Aspects []struct {
			Name  string `json:"name"`
			Cross bool   `json:"cross"`
		} `json:"aspects"`
	}](t, resp)
	if len(cross.Aspects) != 1 || cross.Aspects[0].Name != "opposition" || !cross.Aspects[0].Cross {
		t.Errorf("unexpected synastry %+v", cross)
	}
}

func TestResolve(t *testing.T) {
	ts := newTestServer(t, &Server{})

	body := `{"bodies": [{"name": "sun", "longitude": 0}, {"name": "moon", "longitude": 1}],
		"min_distance": 10, "radius": 100, "center": {"x": 150, "y": 150}}`
	resp := do(t, ts, "POST", "/api/v1/resolve", body, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := decode[struct {
		Bodies []struct {
			Name              string   `json:"name"`
			AdjustedLongitude *float64 `json:"adjusted_longitude"`
		} `json:"bodies"`
	}](t, resp)
	if len(got.Bodies) != 2 || got.Bodies[0].AdjustedLongitude == nil || got.Bodies[1].AdjustedLongitude == nil {
		t.Errorf("bodies should have been spread: %+v", got)
	}

	bad := `{"bodies": [{"name": "sun", "longitude": 0}], "min_distance": 10, "radius": 0}`
	if resp := do(t, ts, "POST", "/api/v1/resolve", bad, nil); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("zero radius: status = %d", resp.StatusCode)
	}
}

const wheelConfig = `{"houses": {"ascendant": 100, "midheaven": 10, "latitude": 40, "system": "placidus"},
	"primary": {"sun": {"longitude": 120}, "moon": {"longitude": 240}}}`

func TestWheel(t *testing.T) {
	ts := newTestServer(t, &Server{})
	resp := do(t, ts, "POST", "/api/v1/wheel", wheelConfig, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := decode[struct {
		System    string                       `json:"system"`
		Cusps     []float64                    `json:"cusps"`
		Primary   []json.RawMessage            `json:"primary"`
		Aspects   map[string][]json.RawMessage `json:"aspects"`
		Positions []json.RawMessage            `json:"positions"`
	}](t, resp)
	if got.System != "Placidus" || len(got.Cusps) != 12 || got.Cusps[0] != 100 || got.Cusps[9] != 10 {
		t.Errorf("unexpected cusps %+v", got)
	}
	if len(got.Primary) != 2 || len(got.Positions) != 2 || len(got.Aspects["primary"]) != 1 {
		t.Errorf("unexpected bodies or aspects %+v", got)
	}

	missing := `{"houses": {"ascendant": 100, "system": "placidus"}, "primary": {}}`
	if resp := do(t, ts, "POST", "/api/v1/wheel", missing, nil); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing params: status = %d", resp.StatusCode)
	}
}

func TestChartLifecycle(t *testing.T) {
	ts := newTestServer(t, withStore(t, &Server{AdminKey: "secret"}))

	resp := do(t, ts, "POST", "/api/v1/charts", `{"name": "natal", "config": `+wheelConfig+`}`, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	created := decode[struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}](t, resp)
	if created.ID == "" || resp.Header.Get("Location") != "/api/v1/charts/"+created.ID {
		t.Fatalf("unexpected create response %+v", created)
	}

	if resp := do(t, ts, "GET", "/api/v1/charts/"+created.ID, "", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("get status = %d", resp.StatusCode)
	}
	if resp := do(t, ts, "GET", "/api/v1/charts/"+created.ID+"/wheel", "", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("wheel status = %d", resp.StatusCode)
	}
	resp = do(t, ts, "GET", "/api/v1/charts?limit=10", "", nil)
	if list := decode[[]map[string]any](t, resp); len(list) != 1 {
		t.Errorf("expected one listed chart, got %v", list)
	}

	update := `{"name": "renamed", "config": ` + wheelConfig + `}`
	if resp := do(t, ts, "PUT", "/api/v1/charts/"+created.ID, update, nil); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated update status = %d", resp.StatusCode)
	}
	auth := map[string]string{"Authorization": "Bearer secret"}
	resp = do(t, ts, "PUT", "/api/v1/charts/"+created.ID, update, auth)
	if renamed := decode[map[string]any](t, resp); renamed["name"] != "renamed" {
		t.Errorf("update not applied: %v", renamed)
	}

	wrong := map[string]string{"Authorization": "Bearer nope"}
	if resp := do(t, ts, "DELETE", "/api/v1/charts/"+created.ID, "", wrong); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong token delete status = %d", resp.StatusCode)
	}
	if resp := do(t, ts, "DELETE", "/api/v1/charts/"+created.ID, "", auth); resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
	if resp := do(t, ts, "GET", "/api/v1/charts/"+created.ID, "", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete status = %d", resp.StatusCode)
	}
}

func TestCreateChartRejectsInvalid(t *testing.T) {
	ts := newTestServer(t, withStore(t, &Server{}))
	tests := []struct {
		name string
		body string
	}{
		{"no name", `{"config": ` + wheelConfig + `}`},
		{"bad system", `{"name": "x", "config": {"houses": {"ascendant": 1, "system": "nope"}}}`},
		{"bad body", `{"name": "x", "config": {"houses": {"ascendant": 1, "system": "equal"}, "primary": {"sun": {"longitude": 361}}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if resp := do(t, ts, "POST", "/api/v1/charts", tt.body, nil); resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
	resp := do(t, ts, "GET", "/api/v1/charts", "", nil)
	if list := decode[[]map[string]any](t, resp); len(list) != 0 {
		t.Errorf("invalid charts were stored: %v", list)
	}
}

func TestAdminDisabledAndNoStore(t *testing.T) {
	ts := newTestServer(t, &Server{})
	if resp := do(t, ts, "GET", "/api/v1/charts", "", nil); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("no store: status = %d", resp.StatusCode)
	}
	if resp := do(t, ts, "DELETE", "/api/v1/charts/x", "", nil); resp.StatusCode != http.StatusForbidden {
		t.Errorf("no admin key: status = %d", resp.StatusCode)
	}
}

func TestComputeRateLimited(t *testing.T) {
	ts := newTestServer(t, &Server{RateLimit: 2})
	body := `{"ascendant": 45, "system": "equal"}`
	for i := 0; i < 2; i++ {
		if resp := do(t, ts, "POST", "/api/v1/houses", body, nil); resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d status = %d", i, resp.StatusCode)
		}
	}
	resp := do(t, ts, "POST", "/api/v1/houses", body, nil)
	if resp.StatusCode != http.StatusTooManyRequests || resp.Header.Get("Retry-After") == "" {
		t.Errorf("expected 429 with Retry-After, got %d", resp.StatusCode)
	}
	if resp := do(t, ts, "GET", "/api/v1/status", "", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("status endpoint should not be limited, got %d", resp.StatusCode)
	}
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, &Server{})
	resp := do(t, ts, "OPTIONS", "/api/v1/wheel", "", map[string]string{"Origin": "http://localhost:5173"})
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("preflight status = %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Error("allowed origin not echoed")
	}
	if got := resp.Header.Get("Access-Control-Allow-Methods"); got != "GET, POST, PUT, DELETE, OPTIONS" {
		t.Errorf("allowed methods = %q, want the registered ones", got)
	}
	resp = do(t, ts, "GET", "/api/v1/status", "", map[string]string{"Origin": "https://evil.example"})
	if resp.Header.Get("Access-Control-Allow-Origin") != "" {
		t.Error("unknown origin should not be allowed")
	}
}
