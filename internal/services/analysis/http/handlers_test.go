package http

import (
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"stackscout/internal/modkit/httpkit"
	perr "stackscout/internal/platform/errors"
	phttp "stackscout/internal/platform/net/http"
	"stackscout/internal/platform/net/middleware"
	"stackscout/internal/services/analysis/domain"
)

type fakeSvc struct {
	view     domain.JobView
	jobs     []domain.Job
	err      error
	gotID    string
	gotApp   string
	gotLimit int
	sweepErr error
	sweeps   int
}

func (f *fakeSvc) Job(_ context.Context, id string) (domain.JobView, error) {
	f.gotID = id
	return f.view, f.err
}

func (f *fakeSvc) JobsByApp(_ context.Context, appID string, limit int) ([]domain.Job, error) {
	f.gotApp, f.gotLimit = appID, limit
	return f.jobs, f.err
}

func (f *fakeSvc) RunSweep(context.Context) (domain.SweepReport, error) {
	return domain.SweepReport{}, nil
}

func (f *fakeSvc) StartSweep(context.Context) error {
	f.sweeps++
	return f.sweepErr
}

func serve(t *testing.T, s Service, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	return serveAuth(t, s, nil, method, target, "")
}

func serveAuth(t *testing.T, s Service, admin middleware.AuthPort, method, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	mux := chi.NewRouter()
	r := phttp.AdaptChi(mux)
	r.Route("/analysis", func(rr phttp.Router) { Register(rr, s, admin) })

	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestJob_ReturnsViewWithResult(t *testing.T) {
	f := &fakeSvc{view: domain.JobView{
		Job:    domain.Job{ID: "j1", AppID: "a", Status: domain.JobSucceeded},
		Result: &domain.Result{JobID: "j1", StackTags: []string{"go"}},
	}}
	rec := serve(t, f, stdhttp.MethodGet, "/analysis/jobs/j1")
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.gotID != "j1" {
		t.Fatalf("id = %q", f.gotID)
	}
	var env struct {
		Data domain.JobView `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.Status != domain.JobSucceeded || env.Data.Result == nil || env.Data.Result.StackTags[0] != "go" {
		t.Fatalf("unexpected data: %+v", env.Data)
	}
}

func TestJob_NotFoundIs404(t *testing.T) {
	f := &fakeSvc{err: perr.NotFoundf("analysis job x not found")}
	if rec := serve(t, f, stdhttp.MethodGet, "/analysis/jobs/x"); rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestJobsByApp(t *testing.T) {
	f := &fakeSvc{jobs: []domain.Job{{ID: "j1"}}}
	rec := serve(t, f, stdhttp.MethodGet, "/analysis/apps/a1/jobs?limit=5")
	if rec.Code != stdhttp.StatusOK || f.gotApp != "a1" || f.gotLimit != 5 {
		t.Fatalf("code=%d app=%q limit=%d", rec.Code, f.gotApp, f.gotLimit)
	}

	for _, bad := range []string{"0", "101", "x"} {
		f = &fakeSvc{}
		rec = serve(t, f, stdhttp.MethodGet, "/analysis/apps/a1/jobs?limit="+bad)
		if rec.Code != stdhttp.StatusBadRequest || f.gotApp != "" {
			t.Fatalf("limit=%s: code=%d", bad, rec.Code)
		}
	}
}

func TestStartSweep(t *testing.T) {
	f := &fakeSvc{}
	rec := serve(t, f, stdhttp.MethodPost, "/analysis/sweeps")
	if rec.Code != stdhttp.StatusAccepted || f.sweeps != 1 {
		t.Fatalf("code=%d sweeps=%d", rec.Code, f.sweeps)
	}

	f = &fakeSvc{sweepErr: domain.ErrSweepInProgress}
	if rec = serve(t, f, stdhttp.MethodPost, "/analysis/sweeps"); rec.Code != stdhttp.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestStartSweep_AdminToken(t *testing.T) {
	admin := httpkit.NewPortFunc(func(tok string) (string, error) {
		if tok != "letmein" {
			return "", errors.New("nope")
		}
		return "admin", nil
	})
	f := &fakeSvc{}

	if rec := serveAuth(t, f, admin, stdhttp.MethodPost, "/analysis/sweeps", ""); rec.Code != stdhttp.StatusUnauthorized {
		t.Fatalf("missing token: %d", rec.Code)
	}
	if rec := serveAuth(t, f, admin, stdhttp.MethodPost, "/analysis/sweeps", "guess"); rec.Code != stdhttp.StatusUnauthorized {
		t.Fatalf("wrong token: %d", rec.Code)
	}
	if f.sweeps != 0 {
		t.Fatal("unauthorized request started a sweep")
	}
	if rec := serveAuth(t, f, admin, stdhttp.MethodPost, "/analysis/sweeps", "letmein"); rec.Code != stdhttp.StatusAccepted || f.sweeps != 1 {
		t.Fatalf("code=%d sweeps=%d", rec.Code, f.sweeps)
	}
	if rec := serveAuth(t, f, admin, stdhttp.MethodGet, "/analysis/apps/a/jobs", ""); rec.Code != stdhttp.StatusOK {
		t.Fatalf("reads stay public: %d", rec.Code)
	}
}
