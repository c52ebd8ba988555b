package flatfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilancio/internal/core"
)

func testExpense(day int, cents int64, primary string) core.Expense {
	return core.Expense{
		Date:        core.Date{Time: time.Date(2025, 6, day, 0, 0, 0, 0, time.UTC)},
		Amount:      core.Money{Cents: cents},
		Primary:     primary,
		Secondary:   "varie",
		Description: "test expense",
	}
}

func TestAppendAndReloadExpenses(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewFromFiles(dir)
	require.NoError(t, err)

	id1, err := s.AppendExpense(ctx, testExpense(3, 1250, "Spesa"))
	require.NoError(t, err)
	id2, err := s.AppendExpense(ctx, testExpense(7, 4200, "Casa"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id1)
	assert.Equal(t, int64(2), id2)

	// A fresh store over the same directory sees the same records and
	// continues the id sequence.
	s2, err := NewFromFiles(dir)
	require.NoError(t, err)

	got, err := s2.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Spesa", got[0].Primary)
	assert.Equal(t, int64(4200), got[1].Amount.Cents)

	id3, err := s2.AppendExpense(ctx, testExpense(9, 900, "Svago"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), id3)
}

func TestDeleteExpenseRewritesFile(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewFromFiles(dir)
	require.NoError(t, err)

	id1, err := s.AppendExpense(ctx, testExpense(1, 100, "Spesa"))
	require.NoError(t, err)
	_, err = s.AppendExpense(ctx, testExpense(2, 200, "Casa"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteExpense(ctx, id1))

	_, err = s.GetExpense(ctx, id1)
	assert.ErrorIs(t, err, core.ErrNotFound)

	s2, err := NewFromFiles(dir)
	require.NoError(t, err)
	got, err := s2.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Casa", got[0].Primary)
}

func TestAppendExpenseFailedWriteLeavesStateUntouched(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewFromFiles(dir)
	require.NoError(t, err)

	// A directory in the file's place makes the append fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, expensesFile), 0755))

	_, err = s.AppendExpense(ctx, testExpense(1, 100, "Spesa"))
	require.Error(t, err)

	got, err := s.ListExpenses(ctx)
	require.NoError(t, err)
	assert.Empty(t, got, "memory must not record an expense the file rejected")

	// Once writable again, the id sequence resumes from the start.
	require.NoError(t, os.Remove(filepath.Join(dir, expensesFile)))
	id, err := s.AppendExpense(ctx, testExpense(1, 100, "Spesa"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}

func TestDeleteExpenseMissing(t *testing.T) {
	s, err := NewFromFiles(t.TempDir())
	require.NoError(t, err)
	assert.ErrorIs(t, s.DeleteExpense(context.Background(), 99), core.ErrNotFound)
}

func TestUpsertBudgetReplacesSameMonth(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewFromFiles(dir)
	require.NoError(t, err)

	b1, err := s.UpsertBudget(ctx, core.Budget{Primary: "Casa", Year: 2025, Month: 6, Limit: core.Money{Cents: 50000}})
	require.NoError(t, err)
	b2, err := s.UpsertBudget(ctx, core.Budget{Primary: "Casa", Year: 2025, Month: 6, Limit: core.Money{Cents: 60000}})
	require.NoError(t, err)
	assert.Equal(t, b1.ID, b2.ID)

	_, err = s.UpsertBudget(ctx, core.Budget{Primary: "Spesa", Year: 2025, Month: 6, Limit: core.Money{Cents: 30000}})
	require.NoError(t, err)

	s2, err := NewFromFiles(dir)
	require.NoError(t, err)
	got, err := s2.ListBudgets(ctx, 2025, 6)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Casa", got[0].Primary)
	assert.Equal(t, int64(60000), got[0].Limit.Cents)
	assert.Equal(t, "Spesa", got[1].Primary)
}

func TestListBudgetsSortedByPrimary(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewFromFiles(dir)
	require.NoError(t, err)

	for _, primary := range []string{"Svago", "Casa", "Spesa"} {
		_, err := s.UpsertBudget(ctx, core.Budget{Primary: primary, Year: 2025, Month: 6, Limit: core.Money{Cents: 10000}})
		require.NoError(t, err)
	}

	got, err := s.ListBudgets(ctx, 2025, 6)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Casa", got[0].Primary)
	assert.Equal(t, "Spesa", got[1].Primary)
	assert.Equal(t, "Svago", got[2].Primary)
}

func TestGoalsRoundTripFundingRefs(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewFromFiles(dir)
	require.NoError(t, err)

	g1, err := s.CreateGoal(ctx, core.Goal{Name: "Vacanza", Target: core.Money{Cents: 100000}})
	require.NoError(t, err)
	_, err = s.CreateGoal(ctx, core.Goal{Name: "Auto", Target: core.Money{Cents: 500000}, FundedBy: []int64{g1.ID}})
	require.NoError(t, err)

	s2, err := NewFromFiles(dir)
	require.NoError(t, err)
	got, err := s2.ListGoals(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Empty(t, got[0].FundedBy)
	assert.Equal(t, []int64{g1.ID}, got[1].FundedBy)
}

func TestLoadSkipsCommentsAndBlankLines(t *testing.T) {
	dir := t.TempDir()
	content := "# seeded expenses\n\n1|2025-06-03|1250|Spesa|varie|latte\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, expensesFile), []byte(content), 0644))

	s, err := NewFromFiles(dir)
	require.NoError(t, err)
	got, err := s.ListExpenses(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "latte", got[0].Description)
}
