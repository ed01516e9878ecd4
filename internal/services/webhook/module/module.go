// Package module wires the repository webhook using modkit
package module

import (
	modkit "stackscout/internal/modkit"
	"stackscout/internal/modkit/httpkit"
	"stackscout/internal/services/webhook/domain"
	webhookhttp "stackscout/internal/services/webhook/http"
	"stackscout/internal/services/webhook/repo"
	"stackscout/internal/services/webhook/service"
)

// Module implements the webhook module
type Module struct {
	modkit.Mount

	opts  Options
	svc   *service.Svc
	ports Ports
}

// New constructs the webhook module, non zero override fields win over env
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	deps.Must("webhook", modkit.NeedPG)
	o := merge(FromConfig(deps.Cfg), overrides)

	var history domain.HistorySink
	if o.History && deps.CH != nil {
		history = repo.NewCHHistory(deps.CH)
	}
	svc := service.New(repo.NewPGStore(deps.PG, repo.NewPG()), history, service.Config{
		Secret:    o.Secret,
		Tolerance: o.Tolerance,
	})

	m := &Module{opts: o, svc: svc, ports: Ports{Receiver: svc}}
	m.Mount = modkit.NewMount("webhook", "/webhooks", func(r httpkit.Router) {
		webhookhttp.Register(r, m.svc)
	}, opts...)
	return m
}

// Options returns the resolved options
func (m *Module) Options() Options { return m.opts }
