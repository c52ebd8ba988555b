// Package reports computes the derived views of the expense data: date
// ranges, rankings, the category-by-day matrix, goal funding cycles and
// the browse history. Results are memoized and invalidated on writes.
package reports

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bilancio/internal/backend"
	"bilancio/internal/btree"
	"bilancio/internal/cache"
	"bilancio/internal/core"
	"bilancio/internal/graph"
	"bilancio/internal/log"
	"bilancio/internal/rank"
	"bilancio/internal/seqlist"
	"bilancio/internal/sparse"
)

const (
	cacheSize = 128
	cacheTTL  = 5 * time.Minute
)

// ChangePublisher notifies other processes that expense data changed.
// Publishing is best effort: a failed publish never fails the write.
type ChangePublisher interface {
	PublishExpenseChanged(ctx context.Context, id, version int64) error
}

// Service answers report queries over a backend store.
type Service struct {
	store     backend.Store
	logger    *log.Logger
	degree    int
	publisher ChangePublisher

	// newSequence builds the history cursor; the XOR variant is the
	// default, the pointer variant is interchangeable.
	newSequence func() seqlist.Sequence[core.Expense]

	mu      sync.RWMutex
	index   *btree.Index[core.Date, core.Expense]
	version int64

	rangeCache  *cache.LRU[[]core.Expense]
	topCache    *cache.LRU[[]core.RankedExpense]
	matrixCache *cache.LRU[[]core.DayCell]
}

// Option customizes a Service.
type Option func(*Service)

// WithPublisher makes the service announce writes on pub.
func WithPublisher(pub ChangePublisher) Option {
	return func(s *Service) { s.publisher = pub }
}

// WithLinkedHistory switches the history cursor to the pointer-linked
// sequence variant.
func WithLinkedHistory() Option {
	return func(s *Service) {
		s.newSequence = func() seqlist.Sequence[core.Expense] { return seqlist.NewLinked[core.Expense]() }
	}
}

// NewService creates a report service over store. indexDegree sets the
// branching factor of the date index.
func NewService(store backend.Store, logger *log.Logger, indexDegree int, opts ...Option) *Service {
	if indexDegree < 2 {
		indexDegree = btree.DefaultDegree
	}
	s := &Service{
		store:  store,
		logger: logger.WithComponent(log.ComponentReports),
		degree: indexDegree,
		newSequence: func() seqlist.Sequence[core.Expense] {
			return seqlist.NewXor[core.Expense]()
		},
		rangeCache:  cache.New[[]core.Expense](cacheSize, cacheTTL),
		topCache:    cache.New[[]core.RankedExpense](cacheSize, cacheTTL),
		matrixCache: cache.New[[]core.DayCell](cacheSize, cacheTTL),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rebuild reloads every expense from the store into a fresh date index
// and drops all memoized results.
func (s *Service) Rebuild(ctx context.Context) error {
	expenses, err := s.store.ListExpenses(ctx)
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}

	idx := btree.NewWithDegree[core.Date, core.Expense](core.Date.Compare, s.degree)
	for _, e := range expenses {
		idx.Put(e.Date, e)
	}

	s.mu.Lock()
	s.index = idx
	s.mu.Unlock()
	s.purgeCaches()

	s.logger.InfoContext(ctx, "rebuilt date index",
		log.FieldOperation, log.OpRebuild, log.FieldCount, len(expenses))
	return nil
}

// AddExpense validates and stores e, keeps the date index current and
// announces the change.
func (s *Service) AddExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	id, err := s.store.AppendExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("append expense: %w", err)
	}
	e.ID = id

	s.mu.Lock()
	if s.index != nil {
		s.index.Put(e.Date, e)
	}
	s.version++
	version := s.version
	s.mu.Unlock()
	s.purgeCaches()

	s.publishChange(ctx, id, version)
	return e, nil
}

// RemoveExpense deletes an expense. The date index has no delete
// operation, so the next query rebuilds it.
func (s *Service) RemoveExpense(ctx context.Context, id int64) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.mu.Lock()
	s.index = nil
	s.version++
	version := s.version
	s.mu.Unlock()
	s.purgeCaches()

	s.publishChange(ctx, id, version)
	return nil
}

// ExpensesBetween returns expenses with from <= date <= to in ascending
// date order; expenses on the same day keep insertion order. Inverted
// bounds yield an empty result.
func (s *Service) ExpensesBetween(ctx context.Context, from, to core.Date) ([]core.Expense, error) {
	key := fmt.Sprintf("range|%s|%s", from.Format(core.DateLayout), to.Format(core.DateLayout))
	if hit, ok := s.rangeCache.Get(key); ok {
		return hit, nil
	}

	idx, err := s.dateIndex(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	result := idx.RangeQuery(from, to)
	s.mu.RUnlock()

	s.rangeCache.Set(key, result)
	s.logger.DebugContext(ctx, "range query",
		log.FieldOperation, log.OpRange,
		log.FieldFrom, from.Format(core.DateLayout),
		log.FieldTo, to.Format(core.DateLayout),
		log.FieldCount, len(result))
	return result, nil
}

// TopExpenses returns the n largest expenses by amount, highest first,
// with 1-based ranks.
func (s *Service) TopExpenses(ctx context.Context, n int) ([]core.RankedExpense, error) {
	key := fmt.Sprintf("top|%d", n)
	if hit, ok := s.topCache.Get(key); ok {
		return hit, nil
	}

	expenses, err := s.store.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	top := rank.TopN(n, expenses, func(a, b core.Expense) bool {
		return a.Amount.Cents < b.Amount.Cents
	})

	ranked := make([]core.RankedExpense, len(top))
	for i, e := range top {
		ranked[i] = core.RankedExpense{Rank: i + 1, Expense: e}
	}

	s.topCache.Set(key, ranked)
	s.logger.DebugContext(ctx, "ranked expenses",
		log.FieldOperation, log.OpRank, log.FieldLimit, n, log.FieldCount, len(ranked))
	return ranked, nil
}

// MonthMatrix accumulates a month's spending into day-by-category cells.
// Cells come back ordered by day, then by category name.
func (s *Service) MonthMatrix(ctx context.Context, year, month int) ([]core.DayCell, error) {
	key := fmt.Sprintf("matrix|%04d-%02d", year, month)
	if hit, ok := s.matrixCache.Get(key); ok {
		return hit, nil
	}

	expenses, err := s.monthExpenses(ctx, year, month)
	if err != nil {
		return nil, err
	}

	// Category names map to column ordinals in sorted order so the
	// Entries walk yields a deterministic report.
	categories := distinctPrimaries(expenses)
	ordinal := make(map[string]int, len(categories))
	for i, name := range categories {
		ordinal[name] = i
	}

	m := sparse.New[int64]()
	for _, e := range expenses {
		m.AddTo(e.Date.Day(), ordinal[e.Primary], e.Amount.Cents)
	}

	cells := make([]core.DayCell, 0, m.Len())
	for _, entry := range m.Entries() {
		cells = append(cells, core.DayCell{
			Day:     entry.Row,
			Primary: categories[entry.Col],
			Total:   core.Money{Cents: entry.Value},
		})
	}

	s.matrixCache.Set(key, cells)
	s.logger.DebugContext(ctx, "month matrix",
		log.FieldOperation, log.OpMatrix,
		log.FieldYear, year, log.FieldMonth, month, log.FieldCount, len(cells))
	return cells, nil
}

// MonthOverview totals one month's spending per category, compared
// against that month's budgets where configured.
func (s *Service) MonthOverview(ctx context.Context, year, month int) (core.MonthOverview, error) {
	expenses, err := s.monthExpenses(ctx, year, month)
	if err != nil {
		return core.MonthOverview{}, err
	}

	totals := make(map[string]int64)
	var total int64
	for _, e := range expenses {
		totals[e.Primary] += e.Amount.Cents
		total += e.Amount.Cents
	}

	budgets, err := s.store.ListBudgets(ctx, year, month)
	if err != nil {
		return core.MonthOverview{}, fmt.Errorf("list budgets: %w", err)
	}
	limits := make(map[string]int64, len(budgets))
	for _, b := range budgets {
		limits[b.Primary] = b.Limit.Cents
	}

	overview := core.MonthOverview{
		Year:  year,
		Month: month,
		Total: core.Money{Cents: total},
	}
	for _, name := range sortedKeys(totals) {
		ca := core.CategoryAmount{
			Name:   name,
			Amount: core.Money{Cents: totals[name]},
		}
		if limit, ok := limits[name]; ok {
			ca.Budgeted = true
			ca.Limit = core.Money{Cents: limit}
			if over := totals[name] - limit; over > 0 {
				ca.Over = core.Money{Cents: over}
			}
		}
		overview.ByCategory = append(overview.ByCategory, ca)
	}
	return overview, nil
}

// SetBudget stores or replaces the monthly cap for one primary
// category; MonthOverview compares spending against it.
func (s *Service) SetBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	saved, err := s.store.UpsertBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}
	s.logger.InfoContext(ctx, "budget set",
		log.FieldOperation, log.OpCreate,
		log.FieldYear, saved.Year, log.FieldMonth, saved.Month, "primary", saved.Primary)
	return saved, nil
}

// Budgets lists the caps configured for one month, ordered by primary
// category.
func (s *Service) Budgets(ctx context.Context, year, month int) ([]core.Budget, error) {
	if month < 1 || month > 12 {
		return nil, core.ErrInvalidMonth
	}
	budgets, err := s.store.ListBudgets(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return budgets, nil
}

// GoalCycles finds sets of goals whose funding references form a loop.
// A strongly connected component of two or more goals is a cycle; a
// single goal is a cycle only when it lists itself as a funder.
func (s *Service) GoalCycles(ctx context.Context) ([]core.FundingCycle, error) {
	goals, err := s.store.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}

	adj := make(map[int][]int, len(goals))
	selfLoop := make(map[int]bool)
	for _, g := range goals {
		id := int(g.ID)
		if _, ok := adj[id]; !ok {
			adj[id] = nil
		}
		for _, funder := range g.FundedBy {
			adj[int(funder)] = append(adj[int(funder)], id)
			if funder == g.ID {
				selfLoop[id] = true
			}
		}
	}

	var cycles []core.FundingCycle
	for _, component := range graph.StronglyConnectedComponents(adj) {
		if len(component) == 1 && !selfLoop[component[0]] {
			continue
		}
		ids := make([]int64, len(component))
		for i, id := range component {
			ids[i] = int64(id)
		}
		cycles = append(cycles, core.FundingCycle{GoalIDs: ids})
	}

	s.logger.DebugContext(ctx, "goal cycle analysis",
		log.FieldOperation, log.OpCycles, log.FieldCount, len(cycles))
	return cycles, nil
}

// History returns up to limit expenses, most recent insertion first,
// by walking the browse cursor backwards from its end.
func (s *Service) History(ctx context.Context, limit int) ([]core.Expense, error) {
	expenses, err := s.store.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	seq := s.newSequence()
	for _, e := range expenses {
		seq.Append(e)
	}
	// The cursor starts on the first element and Next clamps at the
	// tail, so step exactly Len-1 times to reach the last appended one.
	for i := 1; i < seq.Len(); i++ {
		seq.Next()
	}

	if limit < 0 {
		limit = 0
	}
	// Previous clamps at the head as well; cap the walk at Len so a
	// large limit cannot re-collect the head element.
	if limit > seq.Len() {
		limit = seq.Len()
	}
	var out []core.Expense
	if cur, ok := seq.Current(); ok && limit > 0 {
		out = append(out, cur)
		for len(out) < limit {
			prev, ok := seq.Previous()
			if !ok {
				break
			}
			out = append(out, prev)
		}
	}
	return out, nil
}

func (s *Service) monthExpenses(ctx context.Context, year, month int) ([]core.Expense, error) {
	if month < 1 || month > 12 {
		return nil, core.ErrInvalidMonth
	}
	from := core.NewDate(year, month, 1)
	to := core.Date{Time: from.AddDate(0, 1, -1)}
	return s.ExpensesBetween(ctx, from, to)
}

func (s *Service) dateIndex(ctx context.Context) (*btree.Index[core.Date, core.Expense], error) {
	s.mu.RLock()
	idx := s.index
	s.mu.RUnlock()
	if idx != nil {
		return idx, nil
	}
	if err := s.Rebuild(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index, nil
}

func (s *Service) purgeCaches() {
	s.rangeCache.Purge()
	s.topCache.Purge()
	s.matrixCache.Purge()
}

func (s *Service) publishChange(ctx context.Context, id, version int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseChanged(ctx, id, version); err != nil {
		s.logger.WarnContext(ctx, "publish expense change failed",
			log.FieldError, err.Error(), "expense_id", id)
	}
}

func distinctPrimaries(expenses []core.Expense) []string {
	seen := make(map[string]bool)
	for _, e := range expenses {
		seen[e.Primary] = true
	}
	return sortedKeys(seen)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
