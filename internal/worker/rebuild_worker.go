// Package worker keeps the report indexes fresh. The rebuild worker
// consumes expense change notifications and refreshes the report
// service, with a periodic full rebuild as a safety net for missed
// messages.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/reports"
)

// ChangeConsumer is the message source the worker drains; the AMQP
// client satisfies it.
type ChangeConsumer interface {
	ConsumeExpenseChanges(ctx context.Context, handler func(*amqp.ExpenseChangedMessage) error) error
}

// MonthExporter pushes a month overview to an external sink; the
// Sheets exporter satisfies it.
type MonthExporter interface {
	AppendMonthReport(ctx context.Context, ov core.MonthOverview) error
}

type RebuildWorker struct {
	reports  *reports.Service
	logger   *log.Logger
	interval time.Duration
	exporter MonthExporter

	mu          sync.Mutex
	lastVersion int64
}

// Option configures a RebuildWorker.
type Option func(*RebuildWorker)

// WithExporter makes the worker push the current month's overview to
// exp after each periodic rebuild.
func WithExporter(exp MonthExporter) Option {
	return func(w *RebuildWorker) { w.exporter = exp }
}

// NewRebuildWorker creates a worker refreshing svc. interval sets the
// periodic full rebuild cadence.
func NewRebuildWorker(svc *reports.Service, logger *log.Logger, interval time.Duration, opts ...Option) *RebuildWorker {
	w := &RebuildWorker{
		reports:  svc,
		logger:   logger.WithComponent(log.ComponentWorker),
		interval: interval,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// HandleChangeMessage rebuilds the report indexes for one change
// notification. Messages older than the last applied version are
// duplicates or reordered deliveries and are skipped.
func (w *RebuildWorker) HandleChangeMessage(ctx context.Context, msg *amqp.ExpenseChangedMessage) error {
	w.mu.Lock()
	if msg.Version != 0 && msg.Version <= w.lastVersion {
		w.mu.Unlock()
		w.logger.InfoContext(ctx, "skipping stale change message",
			"expense_id", msg.ID, "version", msg.Version)
		return nil
	}
	w.lastVersion = msg.Version
	w.mu.Unlock()

	if err := w.reports.Rebuild(ctx); err != nil {
		return fmt.Errorf("rebuild after change %d: %w", msg.ID, err)
	}
	return nil
}

// Run drains change messages and performs periodic full rebuilds until
// ctx is done. A cancelled context is a clean shutdown.
func (w *RebuildWorker) Run(ctx context.Context, consumer ChangeConsumer) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return consumer.ConsumeExpenseChanges(ctx, func(msg *amqp.ExpenseChangedMessage) error {
			return w.HandleChangeMessage(ctx, msg)
		})
	})

	g.Go(func() error {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := w.reports.Rebuild(ctx); err != nil {
					w.logger.ErrorContext(ctx, "periodic rebuild failed", log.FieldError, err.Error())
					continue
				}
				w.exportCurrentMonth(ctx)
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// exportCurrentMonth ships the running month's overview to the
// configured exporter. Export failures never stop the worker.
func (w *RebuildWorker) exportCurrentMonth(ctx context.Context) {
	if w.exporter == nil {
		return
	}
	now := time.Now()
	ov, err := w.reports.MonthOverview(ctx, now.Year(), int(now.Month()))
	if err != nil {
		w.logger.ErrorContext(ctx, "month overview for export failed", log.FieldError, err.Error())
		return
	}
	if err := w.exporter.AppendMonthReport(ctx, ov); err != nil {
		w.logger.ErrorContext(ctx, "month report export failed",
			log.FieldError, err.Error(), log.FieldYear, ov.Year, log.FieldMonth, ov.Month)
	}
}
