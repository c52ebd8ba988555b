package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bilancio/internal/chart"
	"bilancio/internal/core"
	"bilancio/internal/log"
)

type expenseDTO struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Primary     string `json:"primary"`
	Secondary   string `json:"secondary"`
}

func toExpenseDTO(e core.Expense) expenseDTO {
	return expenseDTO{
		ID:          e.ID,
		Date:        e.Date.Format(core.DateLayout),
		Description: e.Description,
		AmountCents: e.Amount.Cents,
		Primary:     e.Primary,
		Secondary:   e.Secondary,
	}
}

func toExpenseDTOs(expenses []core.Expense) []expenseDTO {
	out := make([]expenseDTO, len(expenses))
	for i, e := range expenses {
		out[i] = toExpenseDTO(e)
	}
	return out
}

type createExpenseRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Primary     string `json:"primary"`
	Secondary   string `json:"secondary"`
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	cents, err := core.ParseDecimalToCents(strings.TrimSpace(req.Amount))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	expense := core.Expense{
		Date:        date,
		Description: sanitizeInput(req.Description),
		Amount:      core.Money{Cents: cents},
		Primary:     sanitizeInput(req.Primary),
		Secondary:   sanitizeInput(req.Secondary),
	}

	created, err := s.reports.AddExpense(r.Context(), expense)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "create expense failed", log.FieldError, err.Error())
		writeError(w, http.StatusInternalServerError, "create expense failed")
		return
	}

	writeJSON(w, http.StatusCreated, toExpenseDTO(created))
}

func (s *Server) handleExpenseByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, "DELETE")
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/api/expenses/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid expense id")
		return
	}

	if err := s.reports.RemoveExpense(r.Context(), id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, "expense not found")
			return
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "delete expense failed",
			log.FieldError, err.Error(), "expense_id", id)
		writeError(w, http.StatusInternalServerError, "delete expense failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type budgetDTO struct {
	ID         int64  `json:"id"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	Primary    string `json:"primary"`
	LimitCents int64  `json:"limit_cents"`
}

func toBudgetDTO(b core.Budget) budgetDTO {
	return budgetDTO{
		ID:         b.ID,
		Year:       b.Year,
		Month:      b.Month,
		Primary:    b.Primary,
		LimitCents: b.Limit.Cents,
	}
}

type upsertBudgetRequest struct {
	Year    int    `json:"year"`
	Month   int    `json:"month"`
	Primary string `json:"primary"`
	Limit   string `json:"limit"`
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listBudgets(w, r)
	case http.MethodPut:
		s.upsertBudget(w, r)
	default:
		methodNotAllowed(w, "GET, PUT")
	}
}

func (s *Server) listBudgets(w http.ResponseWriter, r *http.Request) {
	year, month, ok := s.yearMonth(w, r)
	if !ok {
		return
	}

	budgets, err := s.reports.Budgets(r.Context(), year, month)
	if err != nil {
		if errors.Is(err, core.ErrInvalidMonth) {
			writeError(w, http.StatusBadRequest, "invalid month")
			return
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "list budgets failed", log.FieldError, err.Error())
		writeError(w, http.StatusInternalServerError, "list budgets failed")
		return
	}

	out := make([]budgetDTO, len(budgets))
	for i, b := range budgets {
		out[i] = toBudgetDTO(b)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) upsertBudget(w http.ResponseWriter, r *http.Request) {
	var req upsertBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cents, err := core.ParseDecimalToCents(strings.TrimSpace(req.Limit))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid limit")
		return
	}

	budget := core.Budget{
		Year:    req.Year,
		Month:   req.Month,
		Primary: sanitizeInput(req.Primary),
		Limit:   core.Money{Cents: cents},
	}

	saved, err := s.reports.SetBudget(r.Context(), budget)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "upsert budget failed", log.FieldError, err.Error())
		writeError(w, http.StatusInternalServerError, "upsert budget failed")
		return
	}

	writeJSON(w, http.StatusOK, toBudgetDTO(saved))
}

type rangeResponse struct {
	From     string       `json:"from"`
	To       string       `json:"to"`
	Count    int          `json:"count"`
	Expenses []expenseDTO `json:"expenses"`
}

func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	from, err := queryDate(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	expenses, err := s.reports.ExpensesBetween(r.Context(), from, to)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "range report failed", log.FieldError, err.Error())
		writeError(w, http.StatusInternalServerError, "range report failed")
		return
	}

	writeJSON(w, http.StatusOK, rangeResponse{
		From:     from.Format(core.DateLayout),
		To:       to.Format(core.DateLayout),
		Count:    len(expenses),
		Expenses: toExpenseDTOs(expenses),
	})
}

type rankedExpenseDTO struct {
	Rank    int        `json:"rank"`
	Expense expenseDTO `json:"expense"`
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	n, err := queryInt(r, "n", 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ranked, err := s.reports.TopExpenses(r.Context(), n)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "top report failed", log.FieldError, err.Error())
		writeError(w, http.StatusInternalServerError, "top report failed")
		return
	}

	out := make([]rankedExpenseDTO, len(ranked))
	for i, re := range ranked {
		out[i] = rankedExpenseDTO{Rank: re.Rank, Expense: toExpenseDTO(re.Expense)}
	}
	writeJSON(w, http.StatusOK, out)
}

type matrixCellDTO struct {
	Day        int    `json:"day"`
	Primary    string `json:"primary"`
	TotalCents int64  `json:"total_cents"`
}

type matrixResponse struct {
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Cells []matrixCellDTO `json:"cells"`
}

func (s *Server) handleMatrix(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	year, month, ok := s.yearMonth(w, r)
	if !ok {
		return
	}

	cells, err := s.reports.MonthMatrix(r.Context(), year, month)
	if err != nil {
		if errors.Is(err, core.ErrInvalidMonth) {
			writeError(w, http.StatusBadRequest, "invalid month")
			return
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "matrix report failed", log.FieldError, err.Error())
		writeError(w, http.StatusInternalServerError, "matrix report failed")
		return
	}

	out := matrixResponse{Year: year, Month: month, Cells: make([]matrixCellDTO, len(cells))}
	for i, c := range cells {
		out.Cells[i] = matrixCellDTO{Day: c.Day, Primary: c.Primary, TotalCents: c.Total.Cents}
	}
	writeJSON(w, http.StatusOK, out)
}

type categoryAmountDTO struct {
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
	Budgeted    bool   `json:"budgeted"`
	LimitCents  int64  `json:"limit_cents,omitempty"`
	OverCents   int64  `json:"over_cents,omitempty"`
}

type overviewResponse struct {
	Year       int                 `json:"year"`
	Month      int                 `json:"month"`
	TotalCents int64               `json:"total_cents"`
	ByCategory []categoryAmountDTO `json:"by_category"`
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	year, month, ok := s.yearMonth(w, r)
	if !ok {
		return
	}

	ov, err := s.reports.MonthOverview(r.Context(), year, month)
	if err != nil {
		if errors.Is(err, core.ErrInvalidMonth) {
			writeError(w, http.StatusBadRequest, "invalid month")
			return
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "overview report failed", log.FieldError, err.Error())
		writeError(w, http.StatusInternalServerError, "overview report failed")
		return
	}

	out := overviewResponse{
		Year:       ov.Year,
		Month:      ov.Month,
		TotalCents: ov.Total.Cents,
		ByCategory: make([]categoryAmountDTO, len(ov.ByCategory)),
	}
	for i, ca := range ov.ByCategory {
		out.ByCategory[i] = categoryAmountDTO{
			Name:        ca.Name,
			AmountCents: ca.Amount.Cents,
			Budgeted:    ca.Budgeted,
			LimitCents:  ca.Limit.Cents,
			OverCents:   ca.Over.Cents,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleChart serves the month overview as a PNG bar chart.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	year, month, ok := s.yearMonth(w, r)
	if !ok {
		return
	}

	ov, err := s.reports.MonthOverview(r.Context(), year, month)
	if err != nil {
		if errors.Is(err, core.ErrInvalidMonth) {
			writeError(w, http.StatusBadRequest, "invalid month")
			return
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "chart report failed", log.FieldError, err.Error())
		writeError(w, http.StatusInternalServerError, "chart report failed")
		return
	}
	if len(ov.ByCategory) == 0 {
		writeError(w, http.StatusNotFound, "no expenses recorded for that month")
		return
	}

	var buf bytes.Buffer
	if err := chart.WriteMonthTotals(ov, &buf); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "chart render failed", log.FieldError, err.Error())
		writeError(w, http.StatusInternalServerError, "chart render failed")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

type goalCyclesResponse struct {
	Cycles [][]int64 `json:"cycles"`
}

func (s *Server) handleGoalCycles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	cycles, err := s.reports.GoalCycles(r.Context())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "goal cycle report failed", log.FieldError, err.Error())
		writeError(w, http.StatusInternalServerError, "goal cycle report failed")
		return
	}

	out := goalCyclesResponse{Cycles: make([][]int64, len(cycles))}
	for i, c := range cycles {
		out.Cycles[i] = c.GoalIDs
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	expenses, err := s.reports.History(r.Context(), limit)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "history report failed", log.FieldError, err.Error())
		writeError(w, http.StatusInternalServerError, "history report failed")
		return
	}

	writeJSON(w, http.StatusOK, toExpenseDTOs(expenses))
}

func (s *Server) yearMonth(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	year, err := queryInt(r, "year", 0)
	if err != nil || year == 0 {
		writeError(w, http.StatusBadRequest, "missing or invalid \"year\" parameter")
		return 0, 0, false
	}
	month, err := queryInt(r, "month", 0)
	if err != nil || month == 0 {
		writeError(w, http.StatusBadRequest, "missing or invalid \"month\" parameter")
		return 0, 0, false
	}
	return year, month, true
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidDate,
		core.ErrInvalidAmount,
		core.ErrInvalidMonth,
		core.ErrEmptyDescription,
		core.ErrEmptyPrimary,
		core.ErrEmptySecondary,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
