// Package backend selects and constructs the persistence layer. Two
// implementations exist: the SQLite repository and the flat-file store;
// both satisfy Store and are chosen by configuration.
package backend

import (
	"context"

	"bilancio/internal/core"
)

// Store is the persistence surface the rest of the application depends
// on. Both backends implement it.
type Store interface {
	AppendExpense(ctx context.Context, e core.Expense) (int64, error)
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	ListExpenses(ctx context.Context) ([]core.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error

	UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	ListBudgets(ctx context.Context, year, month int) ([]core.Budget, error)

	CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
	ListGoals(ctx context.Context) ([]core.Goal, error)
}

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result bundles a constructed backend with its cleanup function, which
// may be nil.
type Result struct {
	Store   Store
	Cleanup CleanupFunc
}

// Type names a backend implementation.
type Type string

const (
	SQLiteBackend   Type = "sqlite"
	FlatfileBackend Type = "flatfile"
)

// String implements fmt.Stringer.
func (t Type) String() string {
	return string(t)
}

// IsValid reports whether t names a known backend.
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, FlatfileBackend:
		return true
	default:
		return false
	}
}

// Types returns every valid backend type.
func Types() []Type {
	return []Type{FlatfileBackend, SQLiteBackend}
}
