package storage

import (
	"context"
	"database/sql"
	"time"
)

// Queries wraps the raw SQL the repository runs. Rows come back in the
// db-shaped structs below; the repository converts them to core types.
type Queries struct {
	db *sql.DB
}

// New returns a Queries bound to db.
func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

// Expense mirrors one row of the expenses table.
type Expense struct {
	ID                int64
	SpentOn           string // YYYY-MM-DD
	Description       string
	AmountCents       int64
	PrimaryCategory   string
	SecondaryCategory string
	CreatedAt         time.Time
}

// Budget mirrors one row of the budgets table.
type Budget struct {
	ID              int64
	PrimaryCategory string
	Year            int64
	Month           int64
	LimitCents      int64
}

// Goal mirrors one row of the goals table.
type Goal struct {
	ID          int64
	Name        string
	TargetCents int64
	SavedCents  int64
}

// CreateExpenseParams carries the insert values for CreateExpense.
type CreateExpenseParams struct {
	SpentOn           string
	Description       string
	AmountCents       int64
	PrimaryCategory   string
	SecondaryCategory string
}

func (q *Queries) CreateExpense(ctx context.Context, p CreateExpenseParams) (Expense, error) {
	const query = `
		INSERT INTO expenses (spent_on, description, amount_cents, primary_category, secondary_category)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id, spent_on, description, amount_cents, primary_category, secondary_category, created_at`
	var e Expense
	err := q.db.QueryRowContext(ctx, query,
		p.SpentOn, p.Description, p.AmountCents, p.PrimaryCategory, p.SecondaryCategory,
	).Scan(&e.ID, &e.SpentOn, &e.Description, &e.AmountCents, &e.PrimaryCategory, &e.SecondaryCategory, &e.CreatedAt)
	return e, err
}

func (q *Queries) GetExpense(ctx context.Context, id int64) (Expense, error) {
	const query = `
		SELECT id, spent_on, description, amount_cents, primary_category, secondary_category, created_at
		FROM expenses
		WHERE id = ? AND deleted_at IS NULL`
	var e Expense
	err := q.db.QueryRowContext(ctx, query, id).
		Scan(&e.ID, &e.SpentOn, &e.Description, &e.AmountCents, &e.PrimaryCategory, &e.SecondaryCategory, &e.CreatedAt)
	return e, err
}

// ListExpenses returns every live expense ordered by insertion so the
// in-memory indexes can preserve put order for equal dates.
func (q *Queries) ListExpenses(ctx context.Context) ([]Expense, error) {
	const query = `
		SELECT id, spent_on, description, amount_cents, primary_category, secondary_category, created_at
		FROM expenses
		WHERE deleted_at IS NULL
		ORDER BY id`
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.SpentOn, &e.Description, &e.AmountCents, &e.PrimaryCategory, &e.SecondaryCategory, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (q *Queries) SoftDeleteExpense(ctx context.Context, id int64) error {
	const query = `UPDATE expenses SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`
	res, err := q.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (q *Queries) UpsertBudget(ctx context.Context, b Budget) (Budget, error) {
	const query = `
		INSERT INTO budgets (primary_category, year, month, limit_cents)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(primary_category, year, month) DO UPDATE SET limit_cents = excluded.limit_cents
		RETURNING id, primary_category, year, month, limit_cents`
	var out Budget
	err := q.db.QueryRowContext(ctx, query, b.PrimaryCategory, b.Year, b.Month, b.LimitCents).
		Scan(&out.ID, &out.PrimaryCategory, &out.Year, &out.Month, &out.LimitCents)
	return out, err
}

func (q *Queries) ListBudgets(ctx context.Context, year, month int64) ([]Budget, error) {
	const query = `
		SELECT id, primary_category, year, month, limit_cents
		FROM budgets
		WHERE year = ? AND month = ?
		ORDER BY primary_category`
	rows, err := q.db.QueryContext(ctx, query, year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Budget
	for rows.Next() {
		var b Budget
		if err := rows.Scan(&b.ID, &b.PrimaryCategory, &b.Year, &b.Month, &b.LimitCents); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (q *Queries) CreateGoal(ctx context.Context, name string, targetCents, savedCents int64) (Goal, error) {
	const query = `
		INSERT INTO goals (name, target_cents, saved_cents)
		VALUES (?, ?, ?)
		RETURNING id, name, target_cents, saved_cents`
	var g Goal
	err := q.db.QueryRowContext(ctx, query, name, targetCents, savedCents).
		Scan(&g.ID, &g.Name, &g.TargetCents, &g.SavedCents)
	return g, err
}

func (q *Queries) ListGoals(ctx context.Context) ([]Goal, error) {
	const query = `SELECT id, name, target_cents, saved_cents FROM goals ORDER BY id`
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Goal
	for rows.Next() {
		var g Goal
		if err := rows.Scan(&g.ID, &g.Name, &g.TargetCents, &g.SavedCents); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (q *Queries) AddGoalFunding(ctx context.Context, goalID, fundedBy int64) error {
	const query = `INSERT OR IGNORE INTO goal_funding (goal_id, funded_by) VALUES (?, ?)`
	_, err := q.db.ExecContext(ctx, query, goalID, fundedBy)
	return err
}

// ListGoalFunding returns every funding edge as (goal_id, funded_by)
// pairs ordered deterministically.
func (q *Queries) ListGoalFunding(ctx context.Context) (map[int64][]int64, error) {
	const query = `SELECT goal_id, funded_by FROM goal_funding ORDER BY goal_id, funded_by`
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]int64)
	for rows.Next() {
		var goalID, fundedBy int64
		if err := rows.Scan(&goalID, &fundedBy); err != nil {
			return nil, err
		}
		out[goalID] = append(out[goalID], fundedBy)
	}
	return out, rows.Err()
}
