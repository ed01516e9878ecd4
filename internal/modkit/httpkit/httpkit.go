// Package httpkit is the handler and routing toolkit service modules use
// it re-exports the platform http seam so modules never import chi or the platform packages directly
package httpkit

import (
	"net/http"

	phttp "stackscout/internal/platform/net/http"
)

type (
	// Router is the platform router seam
	Router = phttp.Router

	// Handler is the platform handler func
	Handler = phttp.Handler

	// Response is what return style handlers produce
	Response = phttp.Response
)

// Accepted returns a 202 response
func Accepted(data any) Response { return phttp.Accepted(data) }

// Raw returns a response written without the envelope
func Raw(status int, body any) Response { return phttp.Raw(status, body) }

// Handle adapts a Response returning func
func Handle(fn func(*http.Request) Response) Handler { return phttp.Handle(fn) }

// Call adapts a (value, error) handler: errors go through the envelope,
// a returned Response is written as is, anything else is a 200
func Call(fn func(*http.Request) (any, error)) Handler {
	return phttp.Handle(func(r *http.Request) phttp.Response {
		out, err := fn(r)
		if err != nil {
			return phttp.Error(err)
		}
		if resp, ok := out.(phttp.Response); ok {
			return resp
		}
		return phttp.OK(out)
	})
}

// Get mounts fn under GET
func Get(r Router, path string, fn func(*http.Request) (any, error)) { r.Get(path, Call(fn)) }

// Post mounts fn under POST, fn reads the body itself if it has one
func Post(r Router, path string, fn func(*http.Request) (any, error)) { r.Post(path, Call(fn)) }

// MountAPI mounts the v1 API under /api/v1 behind mw
func MountAPI(r Router, mw []func(http.Handler) http.Handler, mount func(Router)) {
	r.Route("/api/v1", func(api Router) {
		if len(mw) > 0 {
			api.Use(mw...)
		}
		mount(api)
	})
}
