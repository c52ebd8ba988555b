// Package flatfile is the line-delimited text backend. Each entity type
// lives in one file under the data directory, one record per line with
// pipe-separated fields; blank lines and lines starting with '#' are
// ignored. It mirrors the repository surface of the SQLite backend so
// the two are interchangeable.
package flatfile

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"bilancio/internal/core"
)

const (
	expensesFile = "expenses.txt"
	budgetsFile  = "budgets.txt"
	goalsFile    = "goals.txt"

	dateLayout = "2006-01-02"
)

type Store struct {
	mu  sync.Mutex
	dir string

	expenses []core.Expense
	budgets  []core.Budget
	goals    []core.Goal

	nextExpenseID int64
	nextBudgetID  int64
	nextGoalID    int64
}

// NewFromFiles loads the store from dir, creating it when missing.
func NewFromFiles(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	s := &Store{dir: dir, nextExpenseID: 1, nextBudgetID: 1, nextGoalID: 1}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// AppendExpense stores e and returns its id.
func (s *Store) AppendExpense(_ context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Write the line before touching in-memory state so a failed write
	// cannot leave the two out of step.
	e.ID = s.nextExpenseID
	if err := s.appendLine(expensesFile, expenseLine(e)); err != nil {
		return 0, err
	}
	s.nextExpenseID++
	s.expenses = append(s.expenses, e)
	return e.ID, nil
}

// GetExpense retrieves a single expense by id.
func (s *Store) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.expenses {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Expense{}, core.ErrNotFound
}

// ListExpenses returns every expense in insertion order.
func (s *Store) ListExpenses(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.expenses...), nil
}

// DeleteExpense removes an expense and rewrites the expenses file.
func (s *Store) DeleteExpense(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.expenses {
		if e.ID == id {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			return s.rewriteExpenses()
		}
	}
	return core.ErrNotFound
}

// UpsertBudget creates or replaces the cap for one category-month.
func (s *Store) UpsertBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.budgets {
		if existing.Primary == b.Primary && existing.Year == b.Year && existing.Month == b.Month {
			b.ID = existing.ID
			s.budgets[i] = b
			if err := s.rewriteBudgets(); err != nil {
				s.budgets[i] = existing
				return core.Budget{}, err
			}
			return b, nil
		}
	}
	b.ID = s.nextBudgetID
	if err := s.appendLine(budgetsFile, budgetLine(b)); err != nil {
		return core.Budget{}, err
	}
	s.nextBudgetID++
	s.budgets = append(s.budgets, b)
	return b, nil
}

// ListBudgets returns the caps configured for one month, ordered by
// category name.
func (s *Store) ListBudgets(_ context.Context, year, month int) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.Year == year && b.Month == month {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Primary < out[j].Primary })
	return out, nil
}

// CreateGoal stores a goal with its funding edges.
func (s *Store) CreateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	g.ID = s.nextGoalID
	if err := s.appendLine(goalsFile, goalLine(g)); err != nil {
		return core.Goal{}, err
	}
	s.nextGoalID++
	s.goals = append(s.goals, g)
	return g, nil
}

// ListGoals returns every goal in insertion order.
func (s *Store) ListGoals(_ context.Context) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Goal(nil), s.goals...), nil
}

// --- line parsing and formatting ---

// expense line: id|date|cents|primary|secondary|description
func expenseLine(e core.Expense) string {
	return fmt.Sprintf("%d|%s|%d|%s|%s|%s",
		e.ID, e.Date.Format(dateLayout), e.Amount.Cents, e.Primary, e.Secondary, e.Description)
}

func parseExpenseLine(line string) (core.Expense, error) {
	parts := strings.SplitN(line, "|", 6)
	if len(parts) != 6 {
		return core.Expense{}, fmt.Errorf("expense line needs 6 fields, got %d", len(parts))
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense id: %w", err)
	}
	spentOn, err := time.Parse(dateLayout, parts[1])
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense date: %w", err)
	}
	cents, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense amount: %w", err)
	}
	return core.Expense{
		ID:          id,
		Date:        core.Date{Time: spentOn},
		Amount:      core.Money{Cents: cents},
		Primary:     parts[3],
		Secondary:   parts[4],
		Description: parts[5],
	}, nil
}

// budget line: id|year|month|cents|primary
func budgetLine(b core.Budget) string {
	return fmt.Sprintf("%d|%d|%d|%d|%s", b.ID, b.Year, b.Month, b.Limit.Cents, b.Primary)
}

func parseBudgetLine(line string) (core.Budget, error) {
	parts := strings.SplitN(line, "|", 5)
	if len(parts) != 5 {
		return core.Budget{}, fmt.Errorf("budget line needs 5 fields, got %d", len(parts))
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget id: %w", err)
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget year: %w", err)
	}
	month, err := strconv.Atoi(parts[2])
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget month: %w", err)
	}
	cents, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget limit: %w", err)
	}
	return core.Budget{
		ID:      id,
		Year:    year,
		Month:   month,
		Limit:   core.Money{Cents: cents},
		Primary: parts[4],
	}, nil
}

// goal line: id|target|saved|funded_by(comma ids, may be empty)|name
func goalLine(g core.Goal) string {
	refs := make([]string, len(g.FundedBy))
	for i, id := range g.FundedBy {
		refs[i] = strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("%d|%d|%d|%s|%s", g.ID, g.Target.Cents, g.Saved.Cents, strings.Join(refs, ","), g.Name)
}

func parseGoalLine(line string) (core.Goal, error) {
	parts := strings.SplitN(line, "|", 5)
	if len(parts) != 5 {
		return core.Goal{}, fmt.Errorf("goal line needs 5 fields, got %d", len(parts))
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return core.Goal{}, fmt.Errorf("goal id: %w", err)
	}
	target, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return core.Goal{}, fmt.Errorf("goal target: %w", err)
	}
	saved, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return core.Goal{}, fmt.Errorf("goal saved: %w", err)
	}
	var fundedBy []int64
	if parts[3] != "" {
		for _, raw := range strings.Split(parts[3], ",") {
			ref, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return core.Goal{}, fmt.Errorf("goal funding ref %q: %w", raw, err)
			}
			fundedBy = append(fundedBy, ref)
		}
	}
	return core.Goal{
		ID:       id,
		Target:   core.Money{Cents: target},
		Saved:    core.Money{Cents: saved},
		FundedBy: fundedBy,
		Name:     parts[4],
	}, nil
}

// --- file plumbing ---

func (s *Store) load() error {
	if err := readLines(filepath.Join(s.dir, expensesFile), func(line string) error {
		e, err := parseExpenseLine(line)
		if err != nil {
			return err
		}
		s.expenses = append(s.expenses, e)
		if e.ID >= s.nextExpenseID {
			s.nextExpenseID = e.ID + 1
		}
		return nil
	}); err != nil {
		return fmt.Errorf("load %s: %w", expensesFile, err)
	}

	if err := readLines(filepath.Join(s.dir, budgetsFile), func(line string) error {
		b, err := parseBudgetLine(line)
		if err != nil {
			return err
		}
		s.budgets = append(s.budgets, b)
		if b.ID >= s.nextBudgetID {
			s.nextBudgetID = b.ID + 1
		}
		return nil
	}); err != nil {
		return fmt.Errorf("load %s: %w", budgetsFile, err)
	}

	if err := readLines(filepath.Join(s.dir, goalsFile), func(line string) error {
		g, err := parseGoalLine(line)
		if err != nil {
			return err
		}
		s.goals = append(s.goals, g)
		if g.ID >= s.nextGoalID {
			s.nextGoalID = g.ID + 1
		}
		return nil
	}); err != nil {
		return fmt.Errorf("load %s: %w", goalsFile, err)
	}

	return nil
}

func readLines(path string, visit func(line string) error) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := visit(line); err != nil {
			return err
		}
	}
	return sc.Err()
}

func (s *Store) appendLine(name, line string) error {
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("append %s: %w", name, err)
	}
	return nil
}

func (s *Store) rewriteExpenses() error {
	lines := make([]string, len(s.expenses))
	for i, e := range s.expenses {
		lines[i] = expenseLine(e)
	}
	return s.rewrite(expensesFile, lines)
}

func (s *Store) rewriteBudgets() error {
	lines := make([]string, len(s.budgets))
	for i, b := range s.budgets {
		lines[i] = budgetLine(b)
	}
	return s.rewrite(budgetsFile, lines)
}

func (s *Store) rewrite(name string, lines []string) error {
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(tmp, []byte(content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
