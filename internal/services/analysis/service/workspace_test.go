package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/language"

	gh "stackscout/internal/adapters/ingest/github"
	perr "stackscout/internal/platform/errors"
	"stackscout/internal/services/analysis/domain"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestReadReadme(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		files  map[string]string
		locale string
		want   string
	}{
		{"localized dot", map[string]string{"README.md": "en", "README.zh-CN.md": "cn"}, "zh-CN", "cn"},
		{"localized underscore", map[string]string{"README.md": "en", "README_zh-CN.md": "cn"}, "zh-CN", "cn"},
		{"case insensitive", map[string]string{"readme.ZH-cn.MD": "cn"}, "zh-CN", "cn"},
		{"language only", map[string]string{"README.md": "en", "README.zh.md": "zh"}, "zh-CN", "zh"},
		{"script tag", map[string]string{"README.md": "en", "README.zh-Hans.md": "hans"}, "zh-Hans", "hans"},
		{"fallback", map[string]string{"Readme.md": "en", "README.ja.md": "ja"}, "zh-CN", "en"},
		{"plain file", map[string]string{"README": "plain"}, "en", "plain"},
		{"none", map[string]string{"main.go": "package main"}, "en", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			writeFiles(t, dir, tc.files)
			if got := ReadReadme(dir, language.MustParse(tc.locale)); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestReadReadme_MissingDir(t *testing.T) {
	t.Parallel()
	if got := ReadReadme(filepath.Join(t.TempDir(), "nope"), language.English); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestReadReadme_Truncates(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"README.md": strings.Repeat("x", maxReadme+10)})
	if got := ReadReadme(dir, language.English); len(got) != maxReadme {
		t.Fatalf("len = %d", len(got))
	}
}

func TestSafeSegment(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"Acme":      "acme",
		"my.repo":   "my.repo",
		"..":        "",
		"../etc":    "-etc",
		"a/b":       "a-b",
		"":          "",
		"---":       "",
		"under_ok-": "under_ok-",
	}
	for in, want := range cases {
		if got := safeSegment(in); got != want {
			t.Errorf("safeSegment(%q) = %q want %q", in, got, want)
		}
	}
}

func TestPrepareWorkdir_ClearsLeftovers(t *testing.T) {
	h := newHarness(t)
	stale := filepath.Join(h.workdir, "acme", "web", "job-1")
	other := filepath.Join(h.workdir, "acme", "web", "job-2")
	for _, d := range []string{stale, other} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
		writeFiles(t, d, map[string]string{"old.txt": "x"})
	}

	dir, err := h.svc.prepareWorkdir("acme", "web", "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if dir != stale {
		t.Fatalf("dir = %s", dir)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("leftover clone not removed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(other, "old.txt")); err != nil {
		t.Fatalf("another job's checkout was touched: %v", err)
	}

	if _, err := h.svc.prepareWorkdir("..", "web", "job-1"); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("got %v", err)
	}
	if _, err := h.svc.prepareWorkdir("acme", "web", ""); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("got %v", err)
	}
}

func TestMetaFromRepo(t *testing.T) {
	t.Parallel()
	m := MetaFromRepo(gh.Repo{
		FullName:   "acme/web",
		Owner:      gh.User{Login: "acme", AvatarURL: "https://avatars/acme"},
		Stargazers: 10,
		ForksCount: 2,
		Topics:     []string{"cli"},
		License:    &gh.License{SPDXID: "NOASSERTION", Name: "Custom"},
	})
	if m.Owner != "acme" || m.OwnerAvatar == "" || m.Stars != 10 || m.Forks != 2 || m.License != "Custom" {
		t.Fatalf("meta = %+v", m)
	}
}

func TestJobsByApp_Limits(t *testing.T) {
	h := newHarness(t)
	seedInFlight(t, h.jobs, "j1", "a", fixedNow)

	if _, err := h.svc.JobsByApp(context.Background(), "", 10); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("got %v", err)
	}
	jobs, err := h.svc.JobsByApp(context.Background(), "a", 0)
	if err != nil || len(jobs) != 1 {
		t.Fatalf("jobs=%+v err=%v", jobs, err)
	}
	if _, err := h.svc.Job(context.Background(), "missing"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("got %v", err)
	}
	v, err := h.svc.Job(context.Background(), "j1")
	if err != nil || v.Result != nil || v.Status != domain.JobInProgress {
		t.Fatalf("view=%+v err=%v", v, err)
	}
}
