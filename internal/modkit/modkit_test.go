package modkit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"stackscout/internal/modkit/httpkit"
	"stackscout/internal/modkit/module"
	"stackscout/internal/platform/events"
	phttp "stackscout/internal/platform/net/http"
)

func serve(t *testing.T, m Mount, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := phttp.AdaptChi(chi.NewRouter())
	m.MountRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func pong(r httpkit.Router) {
	httpkit.Get(r, "/ping", func(*http.Request) (any, error) { return "pong", nil })
}

func TestMount_RoutesUnderPrefix(t *testing.T) {
	m := NewMount("rank", " /rank/ ", pong)
	if m.Name() != "rank" || m.Prefix() != "/rank" {
		t.Fatalf("name=%q prefix=%q", m.Name(), m.Prefix())
	}
	if rec := serve(t, m, "/rank/ping"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "pong") {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}
}

func TestMount_MiddlewaresRunInOrder(t *testing.T) {
	tag := func(v string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Add("X-Module", v)
				next.ServeHTTP(w, r)
			})
		}
	}
	m := NewMount("webhook", "webhooks/", pong, WithMiddlewares(tag("a")), WithMiddlewares(tag("b")))

	if m.Name() != "webhook" || m.Prefix() != "/webhooks" {
		t.Fatalf("name=%q prefix=%q", m.Name(), m.Prefix())
	}
	rec := serve(t, m, "/webhooks/ping")
	if got := rec.Header().Values("X-Module"); rec.Code != http.StatusOK || strings.Join(got, ",") != "a,b" {
		t.Fatalf("got %d headers=%v", rec.Code, got)
	}
}

func TestNewMount_PanicsWithoutNameOrPrefix(t *testing.T) {
	for name, fn := range map[string]func(){
		"no name":   func() { NewMount(" ", "/x", nil) },
		"no prefix": func() { NewMount("x", "/", nil) },
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("%s: expected panic", name)
				}
			}()
			fn()
		}()
	}
}

func TestDeps_Must(t *testing.T) {
	d := Deps{Events: events.NewBus()}
	d.Must("meta")
	d.Must("meta", NeedEvents)

	defer func() {
		r := recover()
		msg, _ := r.(string)
		if !strings.Contains(msg, "analysis module requires PG") {
			t.Fatalf("panic = %v", r)
		}
	}()
	d.Must("analysis", NeedPG, NeedEvents)
}

type rankPort interface{ Rank() int }

type rankImpl struct{}

func (rankImpl) Rank() int { return 1 }

type fakeModule struct {
	Mount
	ports any
}

func (f fakeModule) Ports() any { return f.ports }

func TestPortsOf(t *testing.T) {
	type bundle struct {
		Other string
		Rank  rankPort
	}
	m := fakeModule{Mount: NewMount("rank", "/rank", nil), ports: bundle{Rank: rankImpl{}}}
	if p, ok := module.PortsOf[rankPort](m); !ok || p.Rank() != 1 {
		t.Fatalf("field lookup failed: %v %v", p, ok)
	}
	if _, ok := module.PortsOf[rankPort](fakeModule{Mount: m.Mount, ports: &bundle{}}); ok {
		t.Fatal("nil field must not match")
	}
	if b := module.MustPortsOf[bundle](m); b.Rank == nil {
		t.Fatal("direct lookup failed")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for missing port")
		}
	}()
	module.MustPortsOf[rankPort](fakeModule{Mount: m.Mount})
}
