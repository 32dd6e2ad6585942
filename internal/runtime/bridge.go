package runtime

import (
	"context"

	"github.com/google/uuid"

	errspkg "github.com/learnloop/eventbus/internal/runtime/errors"
	"github.com/learnloop/eventbus/internal/runtime/events"
	loggingpkg "github.com/learnloop/eventbus/internal/runtime/logging"
	"github.com/learnloop/eventbus/internal/runtime/notify"
	"github.com/learnloop/eventbus/internal/runtime/transport"
)

// Notification types emitted by the bridge. Agent start and completion
// share one type; the status field in the data tells them apart so clients
// can drive a single progress component.
const (
	NotificationAgentProgress      = "agent.progress"
	NotificationAgentError         = "agent.error"
	NotificationSessionStarted     = "session.started"
	NotificationSessionCompleted   = "session.completed"
	NotificationSessionError       = "session.error"
	NotificationContentGenerated   = "content.generated"
	NotificationContentUpdated     = "content.updated"
	NotificationSystemNotification = "system.notification"
	NotificationSystemAlert        = "system.alert"
)

// BridgeCategories are the event categories the bridge consumes.
var BridgeCategories = []string{"agent", "session", "content", "system"}

// Bridge projects backbone events into client-facing notifications and
// hands them to a Notifier. Forward failures never block consumption: a
// missed live update is cosmetic, a stalled partition is not, so the bridge
// always acknowledges.
type Bridge struct {
	notifier notify.Notifier
	log      loggingpkg.ServiceLogger
	metrics  *PipelineMetrics
}

// NewBridge builds a Bridge over a notifier.
func NewBridge(notifier notify.Notifier, log loggingpkg.ServiceLogger, metrics *PipelineMetrics) (*Bridge, error) {
	if notifier == nil {
		return nil, errspkg.ErrNotifierRequired
	}
	if log == nil {
		return nil, errspkg.ErrServiceRequired
	}
	return &Bridge{notifier: notifier, log: log, metrics: metrics}, nil
}

// Dispatchers returns one dispatcher per bridged category, with every
// projected event type wired to the bridge handler.
func (b *Bridge) Dispatchers() (map[string]*Dispatcher, error) {
	wiring := map[string][]string{
		"agent":   {events.TypeAgentStarted, events.TypeAgentCompleted, events.TypeAgentFailed},
		"session": {events.TypeSessionStarted, events.TypeSessionCompleted, events.TypeSessionFailed},
		"content": {events.TypeContentGenerated, events.TypeContentUpdated},
		"system":  {events.TypeSystemMaintenanceStarted, events.TypeSystemAlertTriggered},
	}

	dispatchers := make(map[string]*Dispatcher, len(wiring))
	for category, types := range wiring {
		d, err := NewDispatcher(category)
		if err != nil {
			return nil, err
		}
		for _, t := range types {
			d.Handle(t, b.HandleEvent)
		}
		dispatchers[category] = d
	}
	return dispatchers, nil
}

// HandleEvent projects one event and forwards it. Always returns nil.
func (b *Bridge) HandleEvent(ctx context.Context, evt events.Event, _ transport.Delivery) error {
	dest, n, ok := Project(evt)
	if !ok {
		return nil
	}

	err := b.notifier.Publish(ctx, dest, n)
	if b.metrics != nil {
		b.metrics.RecordBridgeForward(n.Type, err)
	}
	if err != nil {
		b.log.Error("live notification forward failed", err, loggingpkg.LogFields{
			"notification": n.Type,
			"channel":      dest.Channel(),
		})
	}
	return nil
}

// Project maps an event to its client-facing notification. The data block
// carries the compact progress fields a live client renders (stage, status,
// human-readable message, timing and cost where present); internal
// identifiers like correlation and causation IDs never leave the backbone.
func Project(evt events.Event) (notify.Destination, notify.Notification, bool) {
	base := evt.Base()

	switch e := evt.(type) {
	case *events.AgentStarted:
		return userSession(base.UserID, e.SessionID), notification(NotificationAgentProgress, &e.SessionID, base, map[string]any{
			"stage":   e.StageNumber,
			"status":  "started",
			"message": "Agent execution started",
		}), true

	case *events.AgentCompleted:
		data := map[string]any{
			"stage":    e.StageNumber,
			"status":   "completed",
			"message":  "Agent execution completed",
			"duration": e.DurationMinutes,
		}
		if e.CostUsd != nil {
			data["cost"] = *e.CostUsd
		}
		return userSession(base.UserID, e.SessionID), notification(NotificationAgentProgress, &e.SessionID, base, data), true

	case *events.AgentFailed:
		return userSession(base.UserID, e.SessionID), notification(NotificationAgentError, &e.SessionID, base, map[string]any{
			"stage":   e.StageNumber,
			"status":  "failed",
			"message": e.ErrorMessage,
		}), true

	case *events.SessionStarted:
		data := map[string]any{"topic": e.Topic}
		if e.EstimatedDurationMinutes != nil {
			data["estimatedDuration"] = *e.EstimatedDurationMinutes
		}
		return userSession(base.UserID, e.SessionID), notification(NotificationSessionStarted, &e.SessionID, base, data), true

	case *events.SessionCompleted:
		data := map[string]any{"actualDuration": e.ActualDurationMinutes}
		if e.QualityScore != nil {
			data["qualityScore"] = *e.QualityScore
		}
		if e.TotalCostUsd != nil {
			data["totalCost"] = *e.TotalCostUsd
		}
		return userSession(base.UserID, e.SessionID), notification(NotificationSessionCompleted, &e.SessionID, base, data), true

	case *events.SessionFailed:
		return userSession(base.UserID, e.SessionID), notification(NotificationSessionError, &e.SessionID, base, map[string]any{
			"errorMessage":  e.ErrorMessage,
			"failedAtStage": e.FailedAtStage,
		}), true

	case *events.ContentGenerated:
		data := map[string]any{
			"contentId":   e.ContentID.String(),
			"contentType": e.ContentType,
			"title":       e.Title,
		}
		if e.WordCount != nil {
			data["wordCount"] = *e.WordCount
		}
		if e.QualityScore != nil {
			data["qualityScore"] = *e.QualityScore
		}
		return userSession(base.UserID, e.SessionID), notification(NotificationContentGenerated, &e.SessionID, base, data), true

	case *events.ContentUpdated:
		data := map[string]any{
			"contentId":  e.ContentID.String(),
			"newVersion": e.NewVersion,
		}
		if e.Changes != nil {
			data["changes"] = *e.Changes
		}
		return notify.Destination{UserID: base.UserID}, notification(NotificationContentUpdated, nil, base, data), true

	case *events.SystemMaintenanceStarted:
		return notify.Destination{Broadcast: true}, notification(NotificationSystemNotification, nil, base, map[string]any{
			"notificationType":  "maintenance",
			"maintenanceType":   e.MaintenanceType,
			"estimatedDuration": e.EstimatedDurationMinutes,
			"affectedServices":  e.AffectedServices,
		}), true

	case *events.SystemAlertTriggered:
		return notify.Destination{Broadcast: true}, notification(NotificationSystemAlert, nil, base, map[string]any{
			"alertType":        e.AlertType,
			"severity":         e.Severity,
			"message":          e.Message,
			"affectedServices": e.AffectedServices,
		}), true
	}

	return notify.Destination{}, notify.Notification{}, false
}

func userSession(userID *uuid.UUID, sessionID uuid.UUID) notify.Destination {
	sid := sessionID
	return notify.Destination{UserID: userID, SessionID: &sid}
}

func notification(nType string, sessionID *uuid.UUID, base *events.Envelope, data map[string]any) notify.Notification {
	return notify.Notification{
		Type:      nType,
		SessionID: sessionID,
		Timestamp: base.Timestamp,
		Data:      data,
	}
}
