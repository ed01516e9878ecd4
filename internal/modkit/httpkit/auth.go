package httpkit

import (
	"net/http"
	"strings"

	perr "stackscout/internal/platform/errors"
	pnet "stackscout/internal/platform/net"
	phttp "stackscout/internal/platform/net/http"
	"stackscout/internal/platform/net/middleware"
)

// TokenFunc turns a bearer token into a user id
type TokenFunc func(token string) (userID string, err error)

// Port reads the Authorization header and hands the bearer token to a TokenFunc
type Port struct {
	parse TokenFunc
}

var _ middleware.AuthPort = (*Port)(nil)

// NewPortFunc builds an auth port from fn
func NewPortFunc(fn TokenFunc) *Port { return &Port{parse: fn} }

// Parse returns the user behind the request's bearer token
// every failure is the same unauthorized error so callers learn nothing about the token
func (p *Port) Parse(r *http.Request) (string, error) {
	scheme, token, _ := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	token = strings.TrimSpace(token)
	if !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", perr.Unauthorizedf("missing bearer token")
	}
	if p.parse == nil {
		return "", perr.Unauthorizedf("invalid bearer token")
	}
	uid, err := p.parse(token)
	if err != nil || uid == "" {
		return "", perr.Unauthorizedf("invalid bearer token")
	}
	return uid, nil
}

// Protected mounts fn's routes behind bearer auth
func Protected(r Router, p middleware.AuthPort, fn func(Router)) {
	r.Group(func(g Router) {
		g.Use(middleware.Auth(p, phttp.JSON))
		fn(g)
	})
}

// User is the authenticated user of r, set by a Protected group
func User(r *http.Request) (string, error) {
	if uid := pnet.UserID(r.Context()); uid != "" {
		return uid, nil
	}
	return "", perr.Unauthorizedf("missing bearer token")
}
