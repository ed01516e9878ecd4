// Package net carries request scoped identity between the http middlewares and handlers
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey struct{ name string }

var userKey = ctxKey{"user"}

// WithUser records the authenticated user on ctx, empty ids are ignored
func WithUser(ctx context.Context, userID string) context.Context {
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, userKey, userID)
}

// UserID is the authenticated user on ctx, empty when the request is anonymous
func UserID(ctx context.Context) string {
	v, _ := ctx.Value(userKey).(string)
	return v
}

// RequestID is the id chi's RequestID middleware put on ctx
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }
