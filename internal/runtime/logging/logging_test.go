package logging

import (
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
)

type capturedLog struct {
	level  string
	msg    string
	err    error
	fields watermill.LogFields
}

type captureAdapter struct {
	logs   *[]capturedLog
	fields watermill.LogFields
}

func newCaptureAdapter() *captureAdapter {
	logs := make([]capturedLog, 0)
	return &captureAdapter{logs: &logs}
}

func (c *captureAdapter) record(level, msg string, err error, fields watermill.LogFields) {
	merged := c.fields.Add(fields)
	*c.logs = append(*c.logs, capturedLog{level: level, msg: msg, err: err, fields: merged})
}

func (c *captureAdapter) Error(msg string, err error, fields watermill.LogFields) {
	c.record("error", msg, err, fields)
}

func (c *captureAdapter) Info(msg string, fields watermill.LogFields) {
	c.record("info", msg, nil, fields)
}

func (c *captureAdapter) Debug(msg string, fields watermill.LogFields) {
	c.record("debug", msg, nil, fields)
}

func (c *captureAdapter) Trace(msg string, fields watermill.LogFields) {
	c.record("trace", msg, nil, fields)
}

func (c *captureAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &captureAdapter{logs: c.logs, fields: c.fields.Add(fields)}
}

func TestWatermillServiceLogger(t *testing.T) {
	capture := newCaptureAdapter()
	logger := NewWatermillServiceLogger(capture)

	logger.Info("boot", LogFields{"system": "test"})

	child := logger.With(LogFields{"base": "value"})
	child.Debug("child", LogFields{"child": "value"})

	boom := errors.New("boom")
	child.Error("child failed", boom, nil)
	child.Trace("trace", nil)

	logs := *capture.logs
	if len(logs) != 4 {
		t.Fatalf("expected 4 log entries, got %d", len(logs))
	}
	if logs[0].level != "info" || logs[0].msg != "boot" {
		t.Fatalf("unexpected first log: %#v", logs[0])
	}
	if logs[0].fields["system"] != "test" {
		t.Fatalf("missing system field, got %#v", logs[0].fields)
	}
	if logs[1].fields["base"] != "value" || logs[1].fields["child"] != "value" {
		t.Fatalf("expected merged fields on child log, got %#v", logs[1].fields)
	}
	if logs[2].level != "error" || logs[2].err != boom {
		t.Fatalf("expected error entry with cause, got %#v", logs[2])
	}
	if logs[3].level != "trace" {
		t.Fatalf("expected trace level, got %s", logs[3].level)
	}
}

func TestWatermillAdapterRoundTrip(t *testing.T) {
	capture := newCaptureAdapter()
	adapter := NewWatermillAdapter(NewWatermillServiceLogger(capture))

	adapter.Info("published", watermill.LogFields{"topic": "session-events"})
	scoped := adapter.With(watermill.LogFields{"handler": "session-event-processor"})
	scoped.Debug("processing", nil)

	logs := *capture.logs
	if len(logs) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(logs))
	}
	if logs[0].fields["topic"] != "session-events" {
		t.Fatalf("expected topic field, got %#v", logs[0].fields)
	}
	if logs[1].fields["handler"] != "session-event-processor" {
		t.Fatalf("expected scoped field to survive adaptation, got %#v", logs[1].fields)
	}
}

func TestNilLoggerPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil logger")
		}
	}()
	NewWatermillServiceLogger(nil)
}
