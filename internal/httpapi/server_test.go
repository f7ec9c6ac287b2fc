package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/mosaic/internal/auth"
	"horse.fit/mosaic/internal/report"
)

func sampleReport() report.Report {
	return report.Report{
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Summary: report.Summary{
			TotalStories:  3,
			StoryClusters: 1,
			Singletons:    1,
		},
		Clusters:    []report.ClusterView{},
		Connections: map[string][]report.ConnectionView{},
		Timeline:    []report.TimelineEntry{},
		Graph: report.Graph{
			Nodes: []report.Node{{ID: "a", Title: "First story", Source: "Wire", Cluster: 0}},
			Edges: []report.GraphEdge{},
		},
	}
}

func newTestServer(opts Options) *Server {
	return NewServer(zerolog.Nop(), opts)
}

func doRequest(s *Server, method, target string, auth func(*http.Request)) *httptest.ResponseRecorder {
	e := s.buildEcho()
	req := httptest.NewRequest(method, target, nil)
	if auth != nil {
		auth(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth_NoReport(t *testing.T) {
	t.Parallel()

	rec := doRequest(newTestServer(Options{}), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"has_report":false`) {
		t.Fatalf("health body missing has_report=false: %s", rec.Body.String())
	}
}

func TestReportJSON(t *testing.T) {
	t.Parallel()

	s := newTestServer(Options{})

	rec := doRequest(s, http.MethodGet, "/api/v1/report", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before a report is published, got %d", rec.Code)
	}

	s.SetReport(sampleReport())
	rec = doRequest(s, http.MethodGet, "/api/v1/report", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("report status = %d", rec.Code)
	}

	var decoded struct {
		Status string        `json:"status"`
		Data   report.Report `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decoded.Status != "success" {
		t.Fatalf("status = %q", decoded.Status)
	}
	if decoded.Data.Summary.TotalStories != 3 {
		t.Fatalf("summary not round-tripped: %+v", decoded.Data.Summary)
	}
}

func TestGraphEndpoint(t *testing.T) {
	t.Parallel()

	s := newTestServer(Options{})
	s.SetReport(sampleReport())

	rec := doRequest(s, http.MethodGet, "/api/v1/graph", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("graph status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"nodes"`) {
		t.Fatalf("graph body missing nodes: %s", rec.Body.String())
	}
}

func TestReportHTML(t *testing.T) {
	t.Parallel()

	s := newTestServer(Options{})
	s.SetReport(sampleReport())

	rec := doRequest(s, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("html status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Mosaic Correlation Report") {
		t.Fatalf("html body missing report heading")
	}
}

func TestBasicAuth(t *testing.T) {
	t.Parallel()

	hash, err := auth.HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	s := newTestServer(Options{AdminUser: "admin", AdminPasswordHash: hash})
	s.SetReport(sampleReport())

	rec := doRequest(s, http.MethodGet, "/api/v1/summary", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", rec.Code)
	}

	rec = doRequest(s, http.MethodGet, "/api/v1/summary", func(req *http.Request) {
		req.SetBasicAuth("admin", "wrong password")
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong password, got %d", rec.Code)
	}

	rec = doRequest(s, http.MethodGet, "/api/v1/summary", func(req *http.Request) {
		req.SetBasicAuth("admin", "correct horse battery staple")
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid credentials, got %d", rec.Code)
	}
}

func TestUnknownAPIRouteFails(t *testing.T) {
	t.Parallel()

	rec := doRequest(newTestServer(Options{}), http.MethodGet, "/api/v1/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"fail"`) {
		t.Fatalf("API errors must use the jsend envelope: %s", rec.Body.String())
	}
}
