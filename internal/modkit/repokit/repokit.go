// Package repokit binds domain repos to a SQL querier, inside or outside a transaction
package repokit

import (
	"context"

	"stackscout/internal/platform/store"
)

type (
	// Queryer is the SQL surface a bound repo runs against
	Queryer = store.RowQuerier
	// TxRunner opens transactions
	TxRunner = store.TxRunner
)

// Binder builds a repo over a Queryer
type Binder[T any] interface {
	Bind(Queryer) T
}

// BindFunc adapts a function to Binder
type BindFunc[T any] func(Queryer) T

// Bind calls f
func (f BindFunc[T]) Bind(q Queryer) T { return f(q) }

// InTx binds a repo to a fresh transaction and runs fn with it
// fn runs again from scratch when the transaction is retried
func InTx[T any](ctx context.Context, db TxRunner, b Binder[T], fn func(T) error) error {
	return db.Tx(ctx, func(q Queryer) error { return fn(b.Bind(q)) })
}
