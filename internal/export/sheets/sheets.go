// Package sheets exports monthly report rows to a Google spreadsheet.
// Authentication uses service account credentials taken from the
// environment.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"bilancio/internal/core"
	"bilancio/internal/log"
)

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

// New creates an exporter writing to one sheet of one spreadsheet.
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, sheetName string, logger *log.Logger) (*Exporter, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Bilancio"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Exporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger.WithComponent(log.ComponentExport),
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// AppendMonthReport appends one header row followed by one row per
// category total. Amounts are written as euro decimals.
func (e *Exporter) AppendMonthReport(ctx context.Context, ov core.MonthOverview) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rows := monthReportRows(ov)
	rng := fmt.Sprintf("%s!A:C", e.sheetName)
	_, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append month report to %s: %w", e.sheetName, err)
	}

	e.logger.InfoContext(ctx, "exported month report",
		log.FieldOperation, log.OpExport,
		log.FieldYear, ov.Year, log.FieldMonth, ov.Month,
		log.FieldCount, len(rows))
	return nil
}

// AppendExpenses appends raw expense rows, one per expense, in the
// flat-file column order.
func (e *Exporter) AppendExpenses(ctx context.Context, expenses []core.Expense) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if len(expenses) == 0 {
		return nil
	}

	rows := expenseRows(expenses)
	rng := fmt.Sprintf("%s!A:E", e.sheetName)
	_, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append expenses to %s: %w", e.sheetName, err)
	}

	e.logger.InfoContext(ctx, "exported expenses",
		log.FieldOperation, log.OpExport, log.FieldCount, len(rows))
	return nil
}

func monthReportRows(ov core.MonthOverview) [][]any {
	period := fmt.Sprintf("%04d-%02d", ov.Year, ov.Month)
	rows := [][]any{
		{period, "Totale", float64(ov.Total.Cents) / 100.0},
	}
	for _, ca := range ov.ByCategory {
		rows = append(rows, []any{period, ca.Name, float64(ca.Amount.Cents) / 100.0})
	}
	return rows
}

func expenseRows(expenses []core.Expense) [][]any {
	rows := make([][]any, len(expenses))
	for i, exp := range expenses {
		rows[i] = []any{
			exp.Date.Format(core.DateLayout),
			exp.Description,
			float64(exp.Amount.Cents) / 100.0,
			exp.Primary,
			exp.Secondary,
		}
	}
	return rows
}
