// Package export delivers ledger events to an external destination. The
// worker consumes the transaction events queue and appends one row per
// event to the configured sink.
package export

import (
	"context"

	"spendsight/internal/amqp"
	"spendsight/internal/log"
)

// Sink receives one row per ledger event.
type Sink interface {
	AppendTransaction(ctx context.Context, event *amqp.TransactionEvent) error
}

// LogSink writes events to the structured log. It is the default sink and
// doubles as a dry-run destination when no spreadsheet is configured.
type LogSink struct {
	logger *log.Logger
}

func NewLogSink() *LogSink {
	cfg := log.DefaultConfig()
	cfg.Component = log.ComponentExport
	return &LogSink{logger: log.New(cfg)}
}

func (s *LogSink) AppendTransaction(ctx context.Context, event *amqp.TransactionEvent) error {
	s.logger.InfoContext(ctx, "Exported transaction event",
		log.FieldOperation, event.Op,
		log.FieldKind, event.Kind,
		log.FieldTxnID, event.ID,
		log.FieldAccountID, event.AccountID,
		log.FieldAmount, event.Amount,
		"date", event.Date)
	return nil
}
