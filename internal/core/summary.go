package core

// CategoryAmount represents an amount aggregated by category name,
// compared against that month's budget when one is configured.
type CategoryAmount struct {
	Name     string
	Amount   Money
	Budgeted bool
	Limit    Money // zero unless Budgeted
	Over     Money // spend above Limit, zero while within budget
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year       int
	Month      int // 1-12
	Total      Money
	ByCategory []CategoryAmount
}

// DayCell is one populated cell of the category-by-day spending matrix.
type DayCell struct {
	Day     int // day of month, 1-31
	Primary string
	Total   Money
}

// RankedExpense pairs an expense with its 1-based position in a
// descending ranking by amount.
type RankedExpense struct {
	Rank    int
	Expense Expense
}

// FundingCycle is a set of goal ids that fund each other in a loop; any
// cycle makes the funding rules unsatisfiable and must be surfaced to
// the user.
type FundingCycle struct {
	GoalIDs []int64
}
