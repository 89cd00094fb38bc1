// Package worker consumes transaction events and forwards them to the
// configured export sink.
package worker

import (
	"context"
	"fmt"

	"spendsight/internal/amqp"
	"spendsight/internal/export"
	"spendsight/internal/log"
)

type ExportWorker struct {
	sink   export.Sink
	logger *log.Logger
}

func NewExportWorker(sink export.Sink) *ExportWorker {
	cfg := log.DefaultConfig()
	cfg.Component = log.ComponentWorker
	return &ExportWorker{sink: sink, logger: log.New(cfg)}
}

// HandleEvent processes a single transaction event. Errors propagate to the
// consumer loop, which requeues the delivery.
func (w *ExportWorker) HandleEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	if event.Op == "" {
		return fmt.Errorf("event has no operation")
	}

	w.logger.InfoContext(ctx, "Processing transaction event",
		log.FieldOperation, event.Op,
		log.FieldKind, event.Kind,
		log.FieldTxnID, event.ID)

	if err := w.sink.AppendTransaction(ctx, event); err != nil {
		return fmt.Errorf("append to sink: %w", err)
	}
	return nil
}
