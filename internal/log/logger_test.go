package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newBufferLogger(component string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Config{
		Component: component,
		Handler:   slog.NewTextHandler(&buf, nil),
	}), &buf
}

func TestLoggerTagsComponent(t *testing.T) {
	logger, buf := newBufferLogger(ComponentLedger)

	logger.Info("Transfer applied", FieldAmount, "100.00")

	out := buf.String()
	if !strings.Contains(out, "component=ledger") {
		t.Errorf("output missing component tag: %s", out)
	}
	if !strings.Contains(out, "amount=100.00") {
		t.Errorf("output missing amount field: %s", out)
	}
}

func TestWithComponent(t *testing.T) {
	logger, buf := newBufferLogger(ComponentApp)

	worker := logger.WithComponent(ComponentWorker)
	if worker.Component() != ComponentWorker {
		t.Errorf("Component() = %q, want %q", worker.Component(), ComponentWorker)
	}

	worker.Warn("Queue is lagging")
	if !strings.Contains(buf.String(), "component=worker") {
		t.Errorf("output missing component tag: %s", buf.String())
	}
}
