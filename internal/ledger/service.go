// Package ledger orchestrates the balance-mutating operations: it validates
// input, applies the transfer policy and publishes events after successful
// writes. Storage keeps balances and transaction rows consistent; this layer
// keeps the rest of the app honest about what goes in.
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"spendsight/internal/amqp"
	"spendsight/internal/core"
	"spendsight/internal/log"
	"spendsight/internal/storage"
)

// EventPublisher publishes ledger events. *amqp.Client satisfies it.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, event *amqp.TransactionEvent) error
}

type Service struct {
	store          storage.Store
	events         EventPublisher
	allowOverdraft bool
	logger         *log.Logger
}

// New builds a ledger service. events may be nil, which disables publishing.
func New(store storage.Store, events EventPublisher, allowOverdraft bool) *Service {
	cfg := log.DefaultConfig()
	cfg.Component = log.ComponentLedger
	return &Service{
		store:          store,
		events:         events,
		allowOverdraft: allowOverdraft,
		logger:         log.New(cfg),
	}
}

func (s *Service) CreateTransaction(ctx context.Context, params storage.CreateTransactionParams) (core.Transaction, error) {
	shape := core.Transaction{
		Kind:        params.Kind,
		AccountID:   params.AccountID,
		CategoryID:  params.CategoryID,
		Amount:      params.Amount,
		Description: params.Description,
		Date:        params.Date,
	}
	if err := shape.Validate(); err != nil {
		return core.Transaction{}, err
	}

	txn, err := s.store.CreateTransaction(ctx, params)
	if err != nil {
		return core.Transaction{}, err
	}

	s.publish(ctx, amqp.OpCreated, txn)
	return txn, nil
}

func (s *Service) UpdateTransaction(ctx context.Context, kind core.TransactionKind, id int64, params storage.UpdateTransactionParams) (core.Transaction, error) {
	if !kind.Valid() {
		return core.Transaction{}, core.ErrInvalidKind
	}
	if params.Amount != nil {
		if err := core.ValidateAmount(*params.Amount); err != nil {
			return core.Transaction{}, err
		}
	}
	if params.Description != nil && len(*params.Description) > 200 {
		return core.Transaction{}, core.ErrDescriptionTooLong
	}
	if params.Date != nil && params.Date.IsZero() {
		return core.Transaction{}, core.ErrMissingDate
	}

	txn, err := s.store.UpdateTransaction(ctx, kind, id, params)
	if err != nil {
		return core.Transaction{}, err
	}

	s.publish(ctx, amqp.OpUpdated, txn)
	return txn, nil
}

func (s *Service) DeleteTransaction(ctx context.Context, kind core.TransactionKind, id int64) error {
	if !kind.Valid() {
		return core.ErrInvalidKind
	}
	txn, err := s.store.GetTransaction(ctx, kind, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, kind, id); err != nil {
		return err
	}

	s.publish(ctx, amqp.OpDeleted, txn)
	return nil
}

// Transfer moves funds between two accounts. The configured policy decides
// whether the source may overdraw.
func (s *Service) Transfer(ctx context.Context, fromID, toID int64, amount decimal.Decimal, description string) (storage.TransferResult, error) {
	if fromID == toID {
		return storage.TransferResult{}, core.ErrSameAccount
	}
	if err := core.ValidateAmount(amount); err != nil {
		return storage.TransferResult{}, err
	}

	result, err := s.store.Transfer(ctx, storage.TransferParams{
		FromAccountID:  fromID,
		ToAccountID:    toID,
		Amount:         amount,
		Description:    description,
		AllowOverdraft: s.allowOverdraft,
	})
	if err != nil {
		return storage.TransferResult{}, err
	}

	s.publishEvent(ctx, &amqp.TransactionEvent{
		Op:          amqp.OpTransferred,
		AccountID:   result.FromAccountID,
		ToAccountID: result.ToAccountID,
		Amount:      core.FormatAmount(result.Amount),
		Description: description,
		Timestamp:   time.Now(),
	})
	return result, nil
}

func (s *Service) publish(ctx context.Context, op string, txn core.Transaction) {
	s.publishEvent(ctx, &amqp.TransactionEvent{
		Op:          op,
		Kind:        txn.Kind.String(),
		ID:          txn.ID,
		AccountID:   txn.AccountID,
		Amount:      core.FormatAmount(txn.Amount),
		Description: txn.Description,
		Date:        txn.Date.Format("2006-01-02"),
		Timestamp:   time.Now(),
	})
}

// publishEvent is best-effort: the write already committed, so a publish
// failure is logged and swallowed.
func (s *Service) publishEvent(ctx context.Context, event *amqp.TransactionEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTransactionEvent(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			log.FieldOperation, event.Op, log.FieldTxnID, event.ID, log.FieldError, err)
	}
}
