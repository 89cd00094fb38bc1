package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendsight/internal/amqp"
	"spendsight/internal/core"
	"spendsight/internal/storage"
	"spendsight/internal/storage/memory"
)

type capturingPublisher struct {
	events []*amqp.TransactionEvent
	err    error
}

func (p *capturingPublisher) PublishTransactionEvent(_ context.Context, event *amqp.TransactionEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type env struct {
	service   *Service
	store     *memory.Store
	publisher *capturingPublisher
	user      core.User
	checking  core.Account
	savings   core.Account
	grocery   core.Category
}

func newEnv(t *testing.T, allowOverdraft bool) env {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	user, err := store.CreateUser(ctx, "Test", "test@example.com")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	checking, err := store.CreateAccount(ctx, storage.CreateAccountParams{
		UserID: user.ID, Name: "Checking", Type: "checking",
		InitialBalance: decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	savings, err := store.CreateAccount(ctx, storage.CreateAccountParams{
		UserID: user.ID, Name: "Savings", Type: "savings",
		InitialBalance: decimal.NewFromInt(5000),
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	grocery, err := store.CreateCategory(ctx, "Groceries", core.KindExpense)
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	publisher := &capturingPublisher{}
	return env{
		service:   New(store, publisher, allowOverdraft),
		store:     store,
		publisher: publisher,
		user:      user,
		checking:  checking,
		savings:   savings,
		grocery:   grocery,
	}
}

func (e env) createParams(amount string) storage.CreateTransactionParams {
	return storage.CreateTransactionParams{
		Kind:        core.KindExpense,
		UserID:      e.user.ID,
		AccountID:   e.checking.ID,
		CategoryID:  e.grocery.ID,
		Amount:      decimal.RequireFromString(amount),
		Description: "weekly shop",
		Date:        time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateTransactionPublishesEvent(t *testing.T) {
	e := newEnv(t, false)
	txn, err := e.service.CreateTransaction(context.Background(), e.createParams("75.50"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if len(e.publisher.events) != 1 {
		t.Fatalf("published events = %d, want 1", len(e.publisher.events))
	}
	event := e.publisher.events[0]
	if event.Op != amqp.OpCreated || event.Kind != "expense" || event.ID != txn.ID {
		t.Errorf("event = %+v, want created expense %d", event, txn.ID)
	}
	if event.Amount != "75.50" {
		t.Errorf("event amount = %s, want 75.50", event.Amount)
	}
}

func TestCreateTransactionRejectsInvalidShape(t *testing.T) {
	e := newEnv(t, false)

	params := e.createParams("75.50")
	params.Amount = decimal.Zero
	if _, err := e.service.CreateTransaction(context.Background(), params); !errors.Is(err, core.ErrAmountNotPositive) {
		t.Errorf("zero amount error = %v, want %v", err, core.ErrAmountNotPositive)
	}

	params = e.createParams("75.50")
	params.Kind = "refund"
	if _, err := e.service.CreateTransaction(context.Background(), params); !errors.Is(err, core.ErrInvalidKind) {
		t.Errorf("bad kind error = %v, want %v", err, core.ErrInvalidKind)
	}

	if len(e.publisher.events) != 0 {
		t.Errorf("rejected operations published %d events", len(e.publisher.events))
	}
}

func TestUpdateTransactionPublishesEvent(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()
	txn, err := e.service.CreateTransaction(ctx, e.createParams("100.00"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	amount := decimal.RequireFromString("40.00")
	if _, err := e.service.UpdateTransaction(ctx, core.KindExpense, txn.ID, storage.UpdateTransactionParams{Amount: &amount}); err != nil {
		t.Fatalf("update: %v", err)
	}

	last := e.publisher.events[len(e.publisher.events)-1]
	if last.Op != amqp.OpUpdated || last.Amount != "40.00" {
		t.Errorf("last event = %+v, want updated 40.00", last)
	}
}

func TestDeleteTransactionPublishesEvent(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()
	txn, err := e.service.CreateTransaction(ctx, e.createParams("25.00"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := e.service.DeleteTransaction(ctx, core.KindExpense, txn.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	last := e.publisher.events[len(e.publisher.events)-1]
	if last.Op != amqp.OpDeleted || last.ID != txn.ID {
		t.Errorf("last event = %+v, want deleted %d", last, txn.ID)
	}

	if err := e.service.DeleteTransaction(ctx, core.KindExpense, txn.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("double delete error = %v, want not found", err)
	}
}

func TestTransferPolicyReject(t *testing.T) {
	e := newEnv(t, false)
	_, err := e.service.Transfer(context.Background(), e.checking.ID, e.savings.ID,
		decimal.RequireFromString("1500.00"), "too much")
	if !errors.Is(err, core.ErrInsufficientFunds) {
		t.Fatalf("transfer error = %v, want %v", err, core.ErrInsufficientFunds)
	}
	if len(e.publisher.events) != 0 {
		t.Errorf("failed transfer published %d events", len(e.publisher.events))
	}
}

func TestTransferPolicyAllow(t *testing.T) {
	e := newEnv(t, true)
	result, err := e.service.Transfer(context.Background(), e.checking.ID, e.savings.ID,
		decimal.RequireFromString("1500.00"), "overdraft ok")
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if !result.FromBalance.Equal(decimal.RequireFromString("-500.00")) {
		t.Errorf("from balance = %s, want -500.00", result.FromBalance)
	}
	if len(e.publisher.events) != 1 || e.publisher.events[0].Op != amqp.OpTransferred {
		t.Errorf("events = %+v, want one transferred event", e.publisher.events)
	}
}

func TestTransferSameAccount(t *testing.T) {
	e := newEnv(t, false)
	_, err := e.service.Transfer(context.Background(), e.checking.ID, e.checking.ID,
		decimal.NewFromInt(10), "loop")
	if !errors.Is(err, core.ErrSameAccount) {
		t.Errorf("same account error = %v, want %v", err, core.ErrSameAccount)
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	e := newEnv(t, false)
	e.publisher.err = errors.New("broker down")

	txn, err := e.service.CreateTransaction(context.Background(), e.createParams("10.00"))
	if err != nil {
		t.Fatalf("create with failing publisher: %v", err)
	}
	if txn.ID == 0 {
		t.Error("transaction was not created")
	}
	account, err := e.store.GetAccount(context.Background(), e.checking.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !account.Balance.Equal(decimal.RequireFromString("990.00")) {
		t.Errorf("balance = %s, want 990.00", account.Balance)
	}
}

func TestNilPublisher(t *testing.T) {
	e := newEnv(t, false)
	service := New(e.store, nil, false)
	if _, err := service.CreateTransaction(context.Background(), e.createParams("5.00")); err != nil {
		t.Fatalf("create with nil publisher: %v", err)
	}
}
