package http

import (
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	phttp "stackscout/internal/platform/net/http"
)

func ok(context.Context) error { return nil }

func get(t *testing.T, d Deps, path string, out any) int {
	t.Helper()
	mux := chi.NewRouter()
	phttp.AdaptChi(mux).Route("/meta", func(r phttp.Router) { Register(r, d) })
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/meta"+path, nil))
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	return rec.Code
}

func TestReady(t *testing.T) {
	down := func(context.Context) error { return errors.New("connection refused") }
	cases := []struct {
		name   string
		checks []Check
		code   int
		status string
	}{
		{"all up", []Check{{Name: "postgres", Required: true, Ping: ok}, {Name: "clickhouse", Ping: ok}}, 200, "ok"},
		{"optional down", []Check{{Name: "postgres", Required: true, Ping: ok}, {Name: "clickhouse", Ping: down}}, 200, "degraded"},
		{"required down", []Check{{Name: "postgres", Required: true, Ping: down}, {Name: "clickhouse", Ping: ok}}, 503, "fail"},
		{"nothing to check", nil, 200, "ok"},
	}
	for _, tc := range cases {
		var out ReadyResponse
		code := get(t, Deps{Checks: tc.checks}, "/ready", &out)
		if code != tc.code || out.Status != tc.status || len(out.Checks) != len(tc.checks) {
			t.Fatalf("%s: code=%d out=%+v", tc.name, code, out)
		}
	}
}

func TestReady_ReportsErrors(t *testing.T) {
	var out ReadyResponse
	get(t, Deps{Checks: []Check{{Name: "postgres", Required: true, Ping: func(context.Context) error {
		return errors.New("connection refused")
	}}}}, "/ready", &out)
	if out.Checks[0].OK || out.Checks[0].Error != "connection refused" || !out.Checks[0].Required {
		t.Fatalf("check = %+v", out.Checks[0])
	}
}

func TestHealthAndVersion(t *testing.T) {
	d := Deps{ServiceName: "stackscout-api", StartedAt: time.Now().Add(-time.Minute)}
	var h HealthResponse
	if code := get(t, d, "/health", &h); code != stdhttp.StatusOK || h.Service != "stackscout-api" || h.Uptime < 59 {
		t.Fatalf("health code=%d %+v", code, h)
	}
	var v struct {
		Service string `json:"service"`
		Version string `json:"version"`
	}
	if get(t, d, "/version", &v); v.Service != "stackscout-api" || v.Version == "" {
		t.Fatalf("version = %+v", v)
	}
}
