// Package tx provides the atomicity boundary for registry mutations.
//
// Every mutating registry operation runs inside Runner.RunInTx: validation,
// the state change, and any companion writes (a transfer's audit record, a
// transaction's counter bump) become visible together or not at all. Read
// operations run inside RunInReadTx so they observe only fully applied
// mutations, never an in-progress one.
package tx

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Runner executes functions as atomic units against the backing store.
// RunInTx is the mutation boundary; RunInReadTx is the read-side counterpart:
// no read observes a partially applied mutation.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	RunInReadTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// memoryRunner guards mutations with the write half of an RWMutex and reads
// with the read half. Paired with the in-memory stores it gives the same
// visibility a serializable database transaction would: a mutation's
// companion writes land before any reader gets in.
type memoryRunner struct {
	mu sync.RWMutex
}

// NewMemory returns a Runner for in-memory stores.
func NewMemory() Runner {
	return &memoryRunner{}
}

func (r *memoryRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx)
}

func (r *memoryRunner) RunInReadTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fn(ctx)
}

// sqlRunner wraps mutations in a serializable SQL transaction carried in the
// context, where SQL-backed stores pick it up via From.
type sqlRunner struct {
	db *sql.DB
}

// NewSQL returns a Runner backed by database transactions.
func NewSQL(db *sql.DB) Runner {
	return &sqlRunner{db: db}
}

func (r *sqlRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	dbTx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(WithTx(ctx, dbTx)); err != nil {
		if rbErr := dbTx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Plain queries already observe committed state only, so the read boundary
// needs no transaction of its own.
func (r *sqlRunner) RunInReadTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
