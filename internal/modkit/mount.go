package modkit

import (
	"strings"

	"stackscout/internal/modkit/httpkit"
)

// Mount is the routing half every module embeds
// it provides Name, Prefix and MountRoutes, the module adds Ports
type Mount struct {
	cfg    mountCfg
	routes func(httpkit.Router)
}

// NewMount resolves opts over the module defaults
// routes registers the module endpoints relative to the prefix
func NewMount(name, prefix string, routes func(httpkit.Router), opts ...Option) Mount {
	c := mountCfg{name: name, prefix: prefix}
	for _, o := range opts {
		o(&c)
	}
	if strings.TrimSpace(c.name) == "" {
		panic("modkit: module name is required")
	}
	c.prefix = cleanPrefix(c.prefix)
	return Mount{cfg: c, routes: routes}
}

// MountRoutes attaches the module under its prefix
func (m Mount) MountRoutes(r httpkit.Router) {
	r.Route(m.cfg.prefix, func(rr httpkit.Router) {
		if len(m.cfg.mw) > 0 {
			rr.Use(m.cfg.mw...)
		}
		if m.routes != nil {
			m.routes(rr)
		}
	})
}

// Name is the module name
func (m Mount) Name() string { return m.cfg.name }

// Prefix is the normalized route prefix, always one leading slash
func (m Mount) Prefix() string { return m.cfg.prefix }

func cleanPrefix(p string) string {
	p = "/" + strings.Trim(strings.TrimSpace(p), "/")
	if p == "/" {
		panic("modkit: module prefix is required")
	}
	return p
}
