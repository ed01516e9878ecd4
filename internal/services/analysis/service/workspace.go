package service

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"

	"stackscout/internal/adapters/analyzer"
	perr "stackscout/internal/platform/errors"
)

// maxReadme caps how much of a README is kept
const maxReadme = 512 << 10

func defaultWorkDir() string { return filepath.Join(os.TempDir(), "stackscout") }

// prepareWorkdir returns an empty-to-be path <WorkDir>/<owner>/<name>/<jobID> with leftovers of that job removed
// jobs on the same repository never share a checkout
func (s *Svc) prepareWorkdir(owner, name, jobID string) (string, error) {
	o, n, j := safeSegment(owner), safeSegment(name), safeSegment(jobID)
	if o == "" || n == "" || j == "" {
		return "", perr.InvalidArgf("repository %s/%s job %s has no usable path segment", owner, name, jobID)
	}
	dir := filepath.Join(s.cfg.WorkDir, o, n, j)
	if err := os.RemoveAll(dir); err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "clear workdir %s", dir)
	}
	_ = os.Remove(analyzer.OutputPath(dir))
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "create workdir parent %s", dir)
	}
	return dir, nil
}

// cleanup removes the clone and the analyzer output next to it
func (s *Svc) cleanup(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		s.log.Warn().Err(err).Str("dir", dir).Msg("remove workdir failed")
	}
	if err := os.Remove(analyzer.OutputPath(dir)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.log.Warn().Err(err).Str("dir", dir).Msg("remove analyzer output failed")
	}
	// drop <name> and <owner> once no other job uses them, Remove fails on non-empty dirs
	repoDir := filepath.Dir(dir)
	if os.Remove(repoDir) == nil {
		_ = os.Remove(filepath.Dir(repoDir))
	}
}

// safeSegment keeps a path segment to [a-z0-9._-] and refuses dot-only names
func safeSegment(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if strings.Trim(out, "-") == "" {
		return ""
	}
	return out
}

// ReadReadme returns the README of dir, preferring a variant localized for locale
// lookups are case insensitive, a missing or unreadable README yields ""
func ReadReadme(dir string, locale language.Tag) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	files := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			files[strings.ToLower(e.Name())] = e.Name()
		}
	}
	for _, cand := range readmeCandidates(locale) {
		name, ok := files[cand]
		if !ok {
			continue
		}
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		b, err := io.ReadAll(io.LimitReader(f, maxReadme))
		_ = f.Close()
		if err != nil {
			continue
		}
		return string(b)
	}
	return ""
}

// readmeCandidates lists lowercase file names in lookup order
func readmeCandidates(locale language.Tag) []string {
	var variants []string
	add := func(v string) {
		v = strings.ToLower(v)
		for _, x := range variants {
			if x == v {
				return
			}
		}
		variants = append(variants, v)
	}
	base, _ := locale.Base()
	region, _ := locale.Region()
	if locale != language.Und {
		add(locale.String())
		if region.String() != "ZZ" {
			add(base.String() + "-" + region.String())
			add(base.String() + "_" + region.String())
		}
	}

	var out []string
	for _, v := range variants {
		out = append(out, "readme."+v+".md", "readme_"+v+".md")
	}
	if locale != language.Und {
		out = append(out, "readme."+strings.ToLower(base.String())+".md")
	}
	return append(out, "readme.md", "readme", "readme.markdown", "readme.txt", "readme.rst")
}
