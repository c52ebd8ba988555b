package reports

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilancio/internal/core"
	"bilancio/internal/flatfile"
	"bilancio/internal/log"
)

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	store, err := flatfile.NewFromFiles(t.TempDir())
	require.NoError(t, err)
	return NewService(store, testLogger(), 4, opts...)
}

func expense(year, month, day int, cents int64, primary, desc string) core.Expense {
	return core.Expense{
		Date:        core.NewDate(year, month, day),
		Amount:      core.Money{Cents: cents},
		Primary:     primary,
		Secondary:   "varie",
		Description: desc,
	}
}

func addAll(t *testing.T, s *Service, expenses ...core.Expense) {
	t.Helper()
	for _, e := range expenses {
		_, err := s.AddExpense(context.Background(), e)
		require.NoError(t, err)
	}
}

func descriptions(expenses []core.Expense) []string {
	out := make([]string, len(expenses))
	for i, e := range expenses {
		out[i] = e.Description
	}
	return out
}

func TestExpensesBetween(t *testing.T) {
	s := newTestService(t)
	addAll(t, s,
		expense(2024, 1, 5, 900, "Casa", "A"),
		expense(2024, 1, 1, 700, "Spesa", "B"),
		expense(2024, 1, 10, 1200, "Svago", "C"),
	)

	got, err := s.ExpensesBetween(context.Background(),
		core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 5))
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, descriptions(got))
}

func TestExpensesBetweenInvertedBoundsIsEmpty(t *testing.T) {
	s := newTestService(t)
	addAll(t, s, expense(2024, 1, 5, 900, "Casa", "A"))

	got, err := s.ExpensesBetween(context.Background(),
		core.NewDate(2024, 2, 1), core.NewDate(2024, 1, 1))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExpensesBetweenSameDayKeepsInsertionOrder(t *testing.T) {
	s := newTestService(t)
	addAll(t, s,
		expense(2024, 3, 15, 100, "Spesa", "first"),
		expense(2024, 3, 15, 200, "Spesa", "second"),
		expense(2024, 3, 15, 300, "Spesa", "third"),
	)

	got, err := s.ExpensesBetween(context.Background(),
		core.NewDate(2024, 3, 15), core.NewDate(2024, 3, 15))
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, descriptions(got))
}

func TestAddExpenseInvalidatesCachedRange(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	addAll(t, s, expense(2024, 1, 2, 500, "Casa", "A"))

	got, err := s.ExpensesBetween(ctx, core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 31))
	require.NoError(t, err)
	require.Len(t, got, 1)

	addAll(t, s, expense(2024, 1, 3, 600, "Casa", "B"))

	got, err = s.ExpensesBetween(ctx, core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 31))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, descriptions(got))
}

func TestRemoveExpenseRebuildsIndex(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	a, err := s.AddExpense(ctx, expense(2024, 1, 2, 500, "Casa", "A"))
	require.NoError(t, err)
	addAll(t, s, expense(2024, 1, 3, 600, "Casa", "B"))

	require.NoError(t, s.RemoveExpense(ctx, a.ID))

	got, err := s.ExpensesBetween(ctx, core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 31))
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, descriptions(got))
}

func TestTopExpenses(t *testing.T) {
	s := newTestService(t)
	addAll(t, s,
		expense(2024, 1, 1, 300, "Spesa", "mid"),
		expense(2024, 1, 2, 100, "Spesa", "small"),
		expense(2024, 1, 3, 900, "Casa", "big"),
	)

	got, err := s.TopExpenses(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Rank)
	assert.Equal(t, "big", got[0].Expense.Description)
	assert.Equal(t, 2, got[1].Rank)
	assert.Equal(t, "mid", got[1].Expense.Description)
}

func TestTopExpensesMoreThanAvailable(t *testing.T) {
	s := newTestService(t)
	addAll(t, s, expense(2024, 1, 1, 300, "Spesa", "only"))

	got, err := s.TopExpenses(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMonthMatrix(t *testing.T) {
	s := newTestService(t)
	addAll(t, s,
		expense(2024, 6, 3, 100, "Spesa", "a"),
		expense(2024, 6, 3, 250, "Spesa", "b"), // same cell, accumulates
		expense(2024, 6, 3, 400, "Casa", "c"),
		expense(2024, 6, 10, 50, "Spesa", "d"),
		expense(2024, 7, 1, 999, "Spesa", "other month"),
	)

	got, err := s.MonthMatrix(context.Background(), 2024, 6)
	require.NoError(t, err)

	want := []core.DayCell{
		{Day: 3, Primary: "Casa", Total: core.Money{Cents: 400}},
		{Day: 3, Primary: "Spesa", Total: core.Money{Cents: 350}},
		{Day: 10, Primary: "Spesa", Total: core.Money{Cents: 50}},
	}
	assert.Equal(t, want, got)
}

func TestMonthMatrixInvalidMonth(t *testing.T) {
	s := newTestService(t)
	_, err := s.MonthMatrix(context.Background(), 2024, 13)
	assert.ErrorIs(t, err, core.ErrInvalidMonth)
}

func TestMonthOverview(t *testing.T) {
	s := newTestService(t)
	addAll(t, s,
		expense(2024, 6, 3, 100, "Spesa", "a"),
		expense(2024, 6, 4, 200, "Casa", "b"),
		expense(2024, 6, 5, 300, "Spesa", "c"),
	)

	got, err := s.MonthOverview(context.Background(), 2024, 6)
	require.NoError(t, err)
	assert.Equal(t, int64(600), got.Total.Cents)
	require.Len(t, got.ByCategory, 2)
	assert.Equal(t, core.CategoryAmount{Name: "Casa", Amount: core.Money{Cents: 200}}, got.ByCategory[0])
	assert.Equal(t, core.CategoryAmount{Name: "Spesa", Amount: core.Money{Cents: 400}}, got.ByCategory[1])
}

func TestMonthOverviewComparesBudgets(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	addAll(t, s,
		expense(2024, 6, 3, 100, "Spesa", "a"),
		expense(2024, 6, 4, 200, "Casa", "b"),
		expense(2024, 6, 5, 300, "Spesa", "c"),
	)

	// Casa stays within its cap; Spesa exceeds it; Svago has a cap but
	// no spending and must not appear.
	_, err := s.SetBudget(ctx, core.Budget{Primary: "Casa", Year: 2024, Month: 6, Limit: core.Money{Cents: 500}})
	require.NoError(t, err)
	_, err = s.SetBudget(ctx, core.Budget{Primary: "Spesa", Year: 2024, Month: 6, Limit: core.Money{Cents: 250}})
	require.NoError(t, err)
	_, err = s.SetBudget(ctx, core.Budget{Primary: "Svago", Year: 2024, Month: 6, Limit: core.Money{Cents: 100}})
	require.NoError(t, err)

	got, err := s.MonthOverview(ctx, 2024, 6)
	require.NoError(t, err)
	require.Len(t, got.ByCategory, 2)

	casa := got.ByCategory[0]
	assert.True(t, casa.Budgeted)
	assert.Equal(t, int64(500), casa.Limit.Cents)
	assert.Zero(t, casa.Over.Cents)

	spesa := got.ByCategory[1]
	assert.True(t, spesa.Budgeted)
	assert.Equal(t, int64(250), spesa.Limit.Cents)
	assert.Equal(t, int64(150), spesa.Over.Cents)
}

func TestMonthOverviewWithoutBudgets(t *testing.T) {
	s := newTestService(t)
	addAll(t, s, expense(2024, 6, 3, 100, "Spesa", "a"))

	got, err := s.MonthOverview(context.Background(), 2024, 6)
	require.NoError(t, err)
	require.Len(t, got.ByCategory, 1)
	assert.False(t, got.ByCategory[0].Budgeted)
	assert.Zero(t, got.ByCategory[0].Limit.Cents)
}

func TestSetBudgetValidates(t *testing.T) {
	s := newTestService(t)
	_, err := s.SetBudget(context.Background(),
		core.Budget{Primary: "Casa", Year: 2024, Month: 13, Limit: core.Money{Cents: 100}})
	assert.ErrorIs(t, err, core.ErrInvalidMonth)

	_, err = s.Budgets(context.Background(), 2024, 0)
	assert.ErrorIs(t, err, core.ErrInvalidMonth)
}

func TestGoalCycles(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	store := s.store

	// Goals 1 -> 2 -> 3 -> 1 fund each other in a loop; goal 4 stands
	// alone.
	_, err := store.CreateGoal(ctx, core.Goal{Name: "a", Target: core.Money{Cents: 1}, FundedBy: []int64{3}})
	require.NoError(t, err)
	_, err = store.CreateGoal(ctx, core.Goal{Name: "b", Target: core.Money{Cents: 1}, FundedBy: []int64{1}})
	require.NoError(t, err)
	_, err = store.CreateGoal(ctx, core.Goal{Name: "c", Target: core.Money{Cents: 1}, FundedBy: []int64{2}})
	require.NoError(t, err)
	_, err = store.CreateGoal(ctx, core.Goal{Name: "d", Target: core.Money{Cents: 1}})
	require.NoError(t, err)

	got, err := s.GoalCycles(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []int64{1, 2, 3}, got[0].GoalIDs)
}

func TestGoalCyclesSelfLoop(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.store.CreateGoal(ctx, core.Goal{Name: "ouroboros", Target: core.Money{Cents: 1}, FundedBy: []int64{1}})
	require.NoError(t, err)

	got, err := s.GoalCycles(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []int64{1}, got[0].GoalIDs)
}

func TestGoalCyclesNoneWithoutLoops(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.store.CreateGoal(ctx, core.Goal{Name: "a", Target: core.Money{Cents: 1}})
	require.NoError(t, err)
	_, err = s.store.CreateGoal(ctx, core.Goal{Name: "b", Target: core.Money{Cents: 1}, FundedBy: []int64{1}})
	require.NoError(t, err)

	got, err := s.GoalCycles(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHistoryMostRecentFirst(t *testing.T) {
	for name, opts := range map[string][]Option{
		"xor":    nil,
		"linked": {WithLinkedHistory()},
	} {
		t.Run(name, func(t *testing.T) {
			s := newTestService(t, opts...)
			addAll(t, s,
				expense(2024, 1, 1, 100, "Spesa", "oldest"),
				expense(2024, 1, 2, 200, "Spesa", "middle"),
				expense(2024, 1, 3, 300, "Spesa", "newest"),
			)

			got, err := s.History(context.Background(), 2)
			require.NoError(t, err)
			assert.Equal(t, []string{"newest", "middle"}, descriptions(got))

			all, err := s.History(context.Background(), 10)
			require.NoError(t, err)
			assert.Equal(t, []string{"newest", "middle", "oldest"}, descriptions(all))
		})
	}
}

func TestHistorySingleExpense(t *testing.T) {
	s := newTestService(t)
	addAll(t, s, expense(2024, 1, 1, 100, "Spesa", "only"))

	got, err := s.History(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, descriptions(got))

	// A limit beyond the stored count must not repeat the head element.
	all, err := s.History(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, descriptions(all))
}

func TestHistoryEmpty(t *testing.T) {
	s := newTestService(t)
	got, err := s.History(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

type recordingPublisher struct {
	ids      []int64
	versions []int64
}

func (p *recordingPublisher) PublishExpenseChanged(_ context.Context, id, version int64) error {
	p.ids = append(p.ids, id)
	p.versions = append(p.versions, version)
	return nil
}

func TestWritesArePublished(t *testing.T) {
	pub := &recordingPublisher{}
	s := newTestService(t, WithPublisher(pub))
	ctx := context.Background()

	e, err := s.AddExpense(ctx, expense(2024, 1, 1, 100, "Spesa", "a"))
	require.NoError(t, err)
	require.NoError(t, s.RemoveExpense(ctx, e.ID))

	assert.Equal(t, []int64{e.ID, e.ID}, pub.ids)
	assert.Equal(t, []int64{1, 2}, pub.versions)
}
