// Package module wires analysis orchestration, workers and job reads using modkit
package module

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/text/language"

	"stackscout/internal/adapters/analyzer"
	gh "stackscout/internal/adapters/ingest/github"
	"stackscout/internal/adapters/vcs/git"
	modkit "stackscout/internal/modkit"
	"stackscout/internal/modkit/httpkit"
	perr "stackscout/internal/platform/errors"
	"stackscout/internal/platform/net/middleware"
	analysishttp "stackscout/internal/services/analysis/http"
	"stackscout/internal/services/analysis/repo"
	"stackscout/internal/services/analysis/service"
	catrepo "stackscout/internal/services/catalog/repo"
	catsvc "stackscout/internal/services/catalog/service"
)

// Module implements the analysis module
type Module struct {
	modkit.Mount

	opts  Options
	svc   *service.Svc
	ports Ports
}

// New constructs the analysis module, non zero override fields win over env
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	deps.Must("analysis", modkit.NeedPG, modkit.NeedEvents)
	o := merge(FromConfig(deps.Cfg), overrides)

	an, err := analyzer.New(analyzer.Options{Command: o.AnalyzerCommand})
	if err != nil {
		panic(fmt.Sprintf("analysis.Module: %v", err))
	}

	d := service.Deps{
		Jobs:      repo.NewPGStore(deps.PG, repo.NewPG()),
		Publisher: deps.Events,
		Catalog:   catsvc.New(deps.PG, catrepo.NewPG()),
		Pacer:     service.NewIntervalPacer(o.Cooldown),
		Cloner:    &git.Cloner{Bin: o.GitBin},
		Analyzer:  service.ReportAnalyzer{A: an},
		Metadata:  service.GitHubMetadata{C: gh.NewClient(gh.OptionsFromConfig(deps.Cfg))},
	}
	if o.LeaseName != "" {
		d.Lease = repo.NewPGLease(deps.PG, o.LeaseName, o.LeaseOwner, o.LeaseTTL)
	}
	svc := service.New(d, service.Config{
		PageSize:     o.PageSize,
		JobTTL:       o.JobTTL,
		WorkDir:      o.WorkDir,
		TargetLocale: o.TargetLocale,
		Budgets: service.Budgets{
			Clone:    o.CloneTimeout,
			Analyze:  o.AnalyzerTimeout,
			Metadata: o.MetadataTimeout,
		},
		Concurrency: o.Concurrency,
		QueueSize:   o.QueueSize,
	})

	m := &Module{opts: o, svc: svc, ports: Ports{Sweep: svc, Worker: svc, Reader: svc}}
	admin := adminPort(o.AdminToken)
	m.Mount = modkit.NewMount("analysis", "/analysis", func(r httpkit.Router) {
		analysishttp.Register(r, m.svc, admin)
	}, opts...)
	return m
}

// adminPort accepts exactly token as a bearer, nil when no token is configured
func adminPort(token string) middleware.AuthPort {
	if token == "" {
		return nil
	}
	return httpkit.NewPortFunc(func(got string) (string, error) {
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			return "", perr.Unauthorizedf("invalid admin token")
		}
		return "admin", nil
	})
}

// merge overlays the non zero fields of over onto base
func merge(base, over Options) Options {
	if over.PageSize > 0 {
		base.PageSize = over.PageSize
	}
	if over.Cooldown > 0 {
		base.Cooldown = over.Cooldown
	}
	if over.SweepEvery > 0 {
		base.SweepEvery = over.SweepEvery
	}
	if over.JobTTL > 0 {
		base.JobTTL = over.JobTTL
	}
	if over.LeaseName != "" {
		base.LeaseName = over.LeaseName
	}
	if over.LeaseOwner != "" {
		base.LeaseOwner = over.LeaseOwner
	}
	if over.LeaseTTL > 0 {
		base.LeaseTTL = over.LeaseTTL
	}
	if over.WorkDir != "" {
		base.WorkDir = over.WorkDir
	}
	if over.TargetLocale != language.Und {
		base.TargetLocale = over.TargetLocale
	}
	if over.CloneTimeout > 0 {
		base.CloneTimeout = over.CloneTimeout
	}
	if over.AnalyzerTimeout > 0 {
		base.AnalyzerTimeout = over.AnalyzerTimeout
	}
	if over.MetadataTimeout > 0 {
		base.MetadataTimeout = over.MetadataTimeout
	}
	if over.Concurrency > 0 {
		base.Concurrency = over.Concurrency
	}
	if over.QueueSize > 0 {
		base.QueueSize = over.QueueSize
	}
	if len(over.AnalyzerCommand) > 0 {
		base.AnalyzerCommand = over.AnalyzerCommand
	}
	if over.GitBin != "" {
		base.GitBin = over.GitBin
	}
	if over.AdminToken != "" {
		base.AdminToken = over.AdminToken
	}
	return base
}

// Options returns the resolved options
func (m *Module) Options() Options { return m.opts }

// Service exposes the loop and pool entry points to the binaries
func (m *Module) Service() *service.Svc { return m.svc }

// Wait blocks until background sweeps return, used on shutdown
func (m *Module) Wait() { m.svc.Wait() }
