package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"spendsight/internal/amqp"
)

type fakeSink struct {
	appended []*amqp.TransactionEvent
	err      error
}

func (s *fakeSink) AppendTransaction(_ context.Context, event *amqp.TransactionEvent) error {
	if s.err != nil {
		return s.err
	}
	s.appended = append(s.appended, event)
	return nil
}

func TestHandleEvent(t *testing.T) {
	sink := &fakeSink{}
	w := NewExportWorker(sink)

	event := &amqp.TransactionEvent{
		Op:        amqp.OpCreated,
		Kind:      "expense",
		ID:        7,
		AccountID: 1,
		Amount:    "12.30",
		Timestamp: time.Now(),
	}
	if err := w.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(sink.appended) != 1 || sink.appended[0].ID != 7 {
		t.Errorf("sink received %+v, want one event with id 7", sink.appended)
	}
}

func TestHandleEventSinkFailure(t *testing.T) {
	sink := &fakeSink{err: errors.New("sheets unavailable")}
	w := NewExportWorker(sink)

	err := w.HandleEvent(context.Background(), &amqp.TransactionEvent{Op: amqp.OpCreated})
	if err == nil {
		t.Fatal("expected error from failing sink")
	}
}

func TestHandleEventMissingOp(t *testing.T) {
	w := NewExportWorker(&fakeSink{})
	if err := w.HandleEvent(context.Background(), &amqp.TransactionEvent{}); err == nil {
		t.Fatal("expected error for event without operation")
	}
}
