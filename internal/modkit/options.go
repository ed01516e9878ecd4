package modkit

import "net/http"

// Option adjusts how a module is mounted
type Option func(*mountCfg)

type mountCfg struct {
	name   string
	prefix string
	mw     []func(http.Handler) http.Handler
}

// WithMiddlewares runs mw, in order, in front of the module routes only
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(c *mountCfg) { c.mw = append(c.mw, mw...) }
}
