// Package storage is the SQLite-backed repository for expenses, budgets,
// and goals. The report service reads whole entity sets from here and
// builds its own in-memory indexes; range and ranking queries never go
// through SQL.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bilancio/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// AppendExpense stores e and returns its database id.
func (r *SQLiteRepository) AppendExpense(ctx context.Context, e core.Expense) (int64, error) {
	row, err := r.queries.CreateExpense(ctx, CreateExpenseParams{
		SpentOn:           e.Date.Format(dateLayout),
		Description:       e.Description,
		AmountCents:       e.Amount.Cents,
		PrimaryCategory:   e.Primary,
		SecondaryCategory: e.Secondary,
	})
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", row.ID,
		"spent_on", row.SpentOn,
		"amount_cents", row.AmountCents)

	return row.ID, nil
}

// GetExpense retrieves a single live expense by id.
func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row, err := r.queries.GetExpense(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense by id: %w", err)
	}
	return expenseFromRow(row)
}

// ListExpenses returns every live expense in insertion order.
func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.queries.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		e, err := expenseFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// DeleteExpense soft-deletes an expense.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	err := r.queries.SoftDeleteExpense(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("soft delete expense: %w", err)
	}
	return nil
}

// UpsertBudget creates or replaces the cap for one category-month.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	row, err := r.queries.UpsertBudget(ctx, Budget{
		PrimaryCategory: b.Primary,
		Year:            int64(b.Year),
		Month:           int64(b.Month),
		LimitCents:      b.Limit.Cents,
	})
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}
	return core.Budget{
		ID:      row.ID,
		Primary: row.PrimaryCategory,
		Year:    int(row.Year),
		Month:   int(row.Month),
		Limit:   core.Money{Cents: row.LimitCents},
	}, nil
}

// ListBudgets returns the caps configured for one month.
func (r *SQLiteRepository) ListBudgets(ctx context.Context, year, month int) ([]core.Budget, error) {
	rows, err := r.queries.ListBudgets(ctx, int64(year), int64(month))
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	out := make([]core.Budget, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.Budget{
			ID:      row.ID,
			Primary: row.PrimaryCategory,
			Year:    int(row.Year),
			Month:   int(row.Month),
			Limit:   core.Money{Cents: row.LimitCents},
		})
	}
	return out, nil
}

// CreateGoal stores a goal and its funding edges.
func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	row, err := r.queries.CreateGoal(ctx, g.Name, g.Target.Cents, g.Saved.Cents)
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	for _, fundedBy := range g.FundedBy {
		if err := r.queries.AddGoalFunding(ctx, row.ID, fundedBy); err != nil {
			return core.Goal{}, fmt.Errorf("add goal funding %d<-%d: %w", row.ID, fundedBy, err)
		}
	}
	created := g
	created.ID = row.ID
	return created, nil
}

// ListGoals returns every goal with its funding edges attached.
func (r *SQLiteRepository) ListGoals(ctx context.Context) ([]core.Goal, error) {
	rows, err := r.queries.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	funding, err := r.queries.ListGoalFunding(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goal funding: %w", err)
	}
	out := make([]core.Goal, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.Goal{
			ID:       row.ID,
			Name:     row.Name,
			Target:   core.Money{Cents: row.TargetCents},
			Saved:    core.Money{Cents: row.SavedCents},
			FundedBy: funding[row.ID],
		})
	}
	return out, nil
}

func expenseFromRow(row Expense) (core.Expense, error) {
	spentOn, err := time.Parse(dateLayout, row.SpentOn)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse spent_on %q: %w", row.SpentOn, err)
	}
	return core.Expense{
		ID:          row.ID,
		Date:        core.Date{Time: spentOn},
		Description: row.Description,
		Amount:      core.Money{Cents: row.AmountCents},
		Primary:     row.PrimaryCategory,
		Secondary:   row.SecondaryCategory,
	}, nil
}
