package worker

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/flatfile"
	"bilancio/internal/log"
	"bilancio/internal/reports"
)

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func storeExpense(day int, desc string) core.Expense {
	return core.Expense{
		Date:        core.NewDate(2024, 5, day),
		Amount:      core.Money{Cents: 100},
		Primary:     "Spesa",
		Secondary:   "varie",
		Description: desc,
	}
}

func monthRange(t *testing.T, svc *reports.Service) []core.Expense {
	t.Helper()
	got, err := svc.ExpensesBetween(context.Background(),
		core.NewDate(2024, 5, 1), core.NewDate(2024, 5, 31))
	require.NoError(t, err)
	return got
}

func TestHandleChangeMessageRebuildsIndex(t *testing.T) {
	ctx := context.Background()
	store, err := flatfile.NewFromFiles(t.TempDir())
	require.NoError(t, err)
	svc := reports.NewService(store, testLogger(), 4)
	w := NewRebuildWorker(svc, testLogger(), time.Minute)

	// Write behind the service's back, as another process would.
	_, err = store.AppendExpense(ctx, storeExpense(1, "A"))
	require.NoError(t, err)
	require.Len(t, monthRange(t, svc), 1)

	_, err = store.AppendExpense(ctx, storeExpense(2, "B"))
	require.NoError(t, err)
	// The service has not heard about the write yet.
	require.Len(t, monthRange(t, svc), 1)

	require.NoError(t, w.HandleChangeMessage(ctx, amqp.NewExpenseChangedMessage(2, 1)))
	assert.Len(t, monthRange(t, svc), 2)
}

func TestHandleChangeMessageSkipsStaleVersions(t *testing.T) {
	ctx := context.Background()
	store, err := flatfile.NewFromFiles(t.TempDir())
	require.NoError(t, err)
	svc := reports.NewService(store, testLogger(), 4)
	w := NewRebuildWorker(svc, testLogger(), time.Minute)

	require.NoError(t, w.HandleChangeMessage(ctx, amqp.NewExpenseChangedMessage(1, 5)))

	_, err = store.AppendExpense(ctx, storeExpense(1, "A"))
	require.NoError(t, err)

	// An older version must not trigger a rebuild.
	require.NoError(t, w.HandleChangeMessage(ctx, amqp.NewExpenseChangedMessage(1, 3)))
	assert.Empty(t, monthRange(t, svc))

	require.NoError(t, w.HandleChangeMessage(ctx, amqp.NewExpenseChangedMessage(1, 6)))
	assert.Len(t, monthRange(t, svc), 1)
}

type fakeConsumer struct {
	messages []*amqp.ExpenseChangedMessage
}

func (c *fakeConsumer) ConsumeExpenseChanges(ctx context.Context, handler func(*amqp.ExpenseChangedMessage) error) error {
	for _, msg := range c.messages {
		if err := handler(msg); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

type recordingExporter struct {
	mu        sync.Mutex
	overviews []core.MonthOverview
}

func (e *recordingExporter) AppendMonthReport(ctx context.Context, ov core.MonthOverview) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.overviews = append(e.overviews, ov)
	return nil
}

func (e *recordingExporter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.overviews)
}

func TestRunExportsMonthAfterPeriodicRebuild(t *testing.T) {
	store, err := flatfile.NewFromFiles(t.TempDir())
	require.NoError(t, err)
	svc := reports.NewService(store, testLogger(), 4)

	now := time.Now()
	_, err = store.AppendExpense(context.Background(), core.Expense{
		Date:        core.NewDate(now.Year(), int(now.Month()), 1),
		Amount:      core.Money{Cents: 250},
		Primary:     "Spesa",
		Secondary:   "varie",
		Description: "A",
	})
	require.NoError(t, err)

	exporter := &recordingExporter{}
	w := NewRebuildWorker(svc, testLogger(), 20*time.Millisecond, WithExporter(exporter))

	ctx, cancel := context.WithCancel(context.Background())
	timer := time.AfterFunc(150*time.Millisecond, cancel)
	defer timer.Stop()

	require.NoError(t, w.Run(ctx, &fakeConsumer{}))

	require.Greater(t, exporter.count(), 0)
	exporter.mu.Lock()
	defer exporter.mu.Unlock()
	assert.Equal(t, now.Year(), exporter.overviews[0].Year)
	assert.Equal(t, int(now.Month()), exporter.overviews[0].Month)
	assert.Equal(t, int64(250), exporter.overviews[0].Total.Cents)
}

func TestRunDrainsConsumerAndStopsOnCancel(t *testing.T) {
	store, err := flatfile.NewFromFiles(t.TempDir())
	require.NoError(t, err)
	svc := reports.NewService(store, testLogger(), 4)
	w := NewRebuildWorker(svc, testLogger(), time.Hour)

	_, err = store.AppendExpense(context.Background(), storeExpense(1, "A"))
	require.NoError(t, err)

	consumer := &fakeConsumer{messages: []*amqp.ExpenseChangedMessage{
		amqp.NewExpenseChangedMessage(1, 1),
	}}

	ctx, cancel := context.WithCancel(context.Background())
	timer := time.AfterFunc(100*time.Millisecond, cancel)
	defer timer.Stop()

	require.NoError(t, w.Run(ctx, consumer))
	assert.Len(t, monthRange(t, svc), 1)
}
