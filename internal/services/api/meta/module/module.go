// Package module wires the meta endpoints into the API
package module

import (
	"context"
	"time"

	"stackscout/internal/modkit"
	"stackscout/internal/modkit/httpkit"
	metahttp "stackscout/internal/services/api/meta/http"
)

// ServiceName is reported by /meta/health and /meta/version
const ServiceName = "stackscout-api"

type pinger interface{ Ping(context.Context) error }

// Module serves health, readiness and build info, it has no ports
type Module struct {
	modkit.Mount
}

// New probes Postgres as required and ClickHouse as optional when they ping
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	d := metahttp.Deps{ServiceName: ServiceName, StartedAt: time.Now()}
	if p, ok := deps.PG.(pinger); ok {
		d.Checks = append(d.Checks, metahttp.Check{Name: "postgres", Required: true, Ping: p.Ping})
	}
	if p, ok := deps.CH.(pinger); ok {
		d.Checks = append(d.Checks, metahttp.Check{Name: "clickhouse", Ping: p.Ping})
	}
	return &Module{Mount: modkit.NewMount("meta", "/meta", func(r httpkit.Router) {
		metahttp.Register(r, d)
	}, opts...)}
}

// Ports returns nil, nothing wires against meta
func (m *Module) Ports() any { return nil }
