// Package client talks to a running wheelchart API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/talgya/astrowheel/internal/chart"
	"github.com/talgya/astrowheel/internal/persistence"
)

// Status mirrors GET /api/v1/status.
type Status struct {
	Name        string `json:"name"`
	StartedAt   string `json:"started_at"`
	Started     string `json:"started"`
	Store       bool   `json:"store"`
	Charts      int    `json:"charts"`
	CacheHits   int    `json:"cache_hits"`
	CacheMisses int    `json:"cache_misses"`
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Client calls the API at BaseURL. AdminKey is sent as a bearer token when set.
type Client struct {
	BaseURL    string
	AdminKey   string
	HTTPClient *http.Client
}

// New creates a Client targeting the given API base URL.
func New(baseURL, adminKey string) *Client {
	return &Client{
		BaseURL:  baseURL,
		AdminKey: adminKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Status fetches the server status.
func (c *Client) Status() (*Status, error) {
	var s Status
	if err := c.do("GET", "/api/v1/status", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Wheel builds cfg on the server.
func (c *Client) Wheel(cfg chart.Config) (*chart.Wheel, error) {
	var w chart.Wheel
	if err := c.do("POST", "/api/v1/wheel", cfg, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// SaveChart stores cfg under name and returns the stored record.
func (c *Client) SaveChart(name string, cfg chart.Config) (*persistence.Record, error) {
	req := struct {
		Name   string       `json:"name"`
		Config chart.Config `json:"config"`
	}{name, cfg}
	var rec persistence.Record
	if err := c.do("POST", "/api/v1/charts", req, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ChartWheel builds a stored chart on the server.
func (c *Client) ChartWheel(id string) (*chart.Wheel, error) {
	var w chart.Wheel
	if err := c.do("GET", "/api/v1/charts/"+id+"/wheel", nil, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// DeleteChart removes a stored chart. Needs AdminKey.
func (c *Client) DeleteChart(id string) error {
	return c.do("DELETE", "/api/v1/charts/"+id, nil, nil)
}

// do sends body as JSON when non-nil and decodes the response into target when
// non-nil.
func (c *Client) do(method, path string, body, target any) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.AdminKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.AdminKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(resp.Body)
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
