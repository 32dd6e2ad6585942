package runtime

import (
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	loggingpkg "github.com/learnloop/eventbus/internal/runtime/logging"
)

type publishRecord struct {
	topic string
	msg   *message.Message
}

// recordingPublisher captures published messages and can be told to fail
// per topic, which is how the dead letter paths get exercised.
type recordingPublisher struct {
	mu         sync.Mutex
	records    []publishRecord
	failTopics map[string]error
}

func (p *recordingPublisher) Publish(topic string, messages ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.failTopics[topic]; ok {
		return err
	}
	for _, msg := range messages {
		p.records = append(p.records, publishRecord{topic: topic, msg: msg})
	}
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) failOn(topic string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failTopics == nil {
		p.failTopics = make(map[string]error)
	}
	p.failTopics[topic] = err
}

func (p *recordingPublisher) recorded() []publishRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	clone := make([]publishRecord, len(p.records))
	copy(clone, p.records)
	return clone
}

func (p *recordingPublisher) topicRecords(topic string) []publishRecord {
	var out []publishRecord
	for _, r := range p.recorded() {
		if r.topic == topic {
			out = append(out, r)
		}
	}
	return out
}

func testLogger() loggingpkg.ServiceLogger {
	return loggingpkg.NewWatermillServiceLogger(watermill.NopLogger{})
}

type logEntry struct {
	level  string
	msg    string
	fields loggingpkg.LogFields
}

// recordingLogger captures log entries so tests can assert that routing and
// failure paths are surfaced, not swallowed.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) record(level, msg string, fields loggingpkg.LogFields) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, fields: fields})
}

func (l *recordingLogger) With(loggingpkg.LogFields) loggingpkg.ServiceLogger { return l }

func (l *recordingLogger) Debug(msg string, fields loggingpkg.LogFields) {
	l.record("debug", msg, fields)
}

func (l *recordingLogger) Info(msg string, fields loggingpkg.LogFields) {
	l.record("info", msg, fields)
}

func (l *recordingLogger) Error(msg string, _ error, fields loggingpkg.LogFields) {
	l.record("error", msg, fields)
}

func (l *recordingLogger) Trace(msg string, fields loggingpkg.LogFields) {
	l.record("trace", msg, fields)
}

func (l *recordingLogger) recorded() []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	clone := make([]logEntry, len(l.entries))
	copy(clone, l.entries)
	return clone
}
