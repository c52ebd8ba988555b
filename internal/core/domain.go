package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Date is a calendar day; the time-of-day part is always midnight UTC.
	Date struct {
		time.Time
	}

	// Money is an amount in cents to avoid floating-point drift.
	Money struct {
		Cents int64
	}

	// Expense is a single recorded spend.
	Expense struct {
		ID          int64 // database id, zero before first save
		Date        Date
		Description string
		Amount      Money
		Primary     string // primary category
		Secondary   string // secondary category
	}

	// Budget caps spending for one primary category in one month.
	Budget struct {
		ID      int64
		Primary string
		Year    int
		Month   int // 1-12
		Limit   Money
	}

	// Goal is a savings goal. FundedBy lists the ids of goals whose
	// surplus feeds this one; those references form the directed graph
	// the funding-cycle report analyzes.
	Goal struct {
		ID       int64
		Name     string
		Target   Money
		Saved    Money
		FundedBy []int64
	}
)

// DateLayout is the canonical textual form of a Date.
const DateLayout = "2006-01-02"

var (
	// ErrNotFound is returned by stores when a referenced record does
	// not exist.
	ErrNotFound = errors.New("record not found")

	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyPrimary     = errors.New("empty primary category")
	ErrEmptySecondary   = errors.New("empty secondary category")
	ErrEmptyGoalName    = errors.New("empty goal name")
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// Compare orders dates chronologically: negative when d is earlier than
// other, zero when equal, positive when later. The report index uses
// this as its key ordering.
func (d Date) Compare(other Date) int {
	return d.Time.Compare(other.Time)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Primary) == "" {
		return ErrEmptyPrimary
	}
	if strings.TrimSpace(e.Secondary) == "" {
		return ErrEmptySecondary
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Primary) == "" {
		return ErrEmptyPrimary
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	return b.Limit.Validate()
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyGoalName
	}
	if err := g.Target.Validate(); err != nil {
		return err
	}
	if g.Saved.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}
