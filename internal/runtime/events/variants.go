package events

import "github.com/google/uuid"

// Event type discriminators. The constants are stable across versions;
// evolution is additive only (new fields, new versioned types).
const (
	TypeUserRegistered  = "user.registered.v1"
	TypeUserUpdated     = "user.updated.v1"
	TypeUserRoleChanged = "user.role-changed.v1"

	TypeSessionStarted   = "session.started.v1"
	TypeSessionCompleted = "session.completed.v1"
	TypeSessionFailed    = "session.failed.v1"

	TypeAgentStarted   = "agent.started.v1"
	TypeAgentCompleted = "agent.completed.v1"
	TypeAgentFailed    = "agent.failed.v1"

	TypeContentGenerated = "content.generated.v1"
	TypeContentUpdated   = "content.updated.v1"

	TypePaymentSubscriptionActivated = "payment.subscription-activated.v1"
	TypePaymentSubscriptionCancelled = "payment.subscription-cancelled.v1"

	TypeSystemMaintenanceStarted = "system.maintenance-started.v1"
	TypeSystemAlertTriggered     = "system.alert-triggered.v1"
)

// User events.

type UserRegistered struct {
	Envelope
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

type UserUpdated struct {
	Envelope
	Changes map[string]any `json:"changes"`
}

type UserRoleChanged struct {
	Envelope
	OldRole   string    `json:"oldRole"`
	NewRole   string    `json:"newRole"`
	ChangedBy uuid.UUID `json:"changedBy"`
}

// Session events.

type SessionStarted struct {
	Envelope
	SessionID                uuid.UUID `json:"sessionId"`
	Topic                    string    `json:"topic"`
	EstimatedDurationMinutes *int      `json:"estimatedDurationMinutes,omitempty"`
}

type SessionCompleted struct {
	Envelope
	SessionID             uuid.UUID `json:"sessionId"`
	ActualDurationMinutes int       `json:"actualDurationMinutes"`
	QualityScore          *float64  `json:"qualityScore,omitempty"`
	TotalCostUsd          *float64  `json:"totalCostUsd,omitempty"`
}

type SessionFailed struct {
	Envelope
	SessionID     uuid.UUID `json:"sessionId"`
	ErrorMessage  string    `json:"errorMessage"`
	FailedAtStage string    `json:"failedAtStage"`
}

// Agent events.

type AgentStarted struct {
	Envelope
	SessionID   uuid.UUID `json:"sessionId"`
	ExecutionID uuid.UUID `json:"executionId"`
	AgentType   string    `json:"agentType"`
	StageNumber int       `json:"stageNumber"`
}

type AgentCompleted struct {
	Envelope
	SessionID       uuid.UUID `json:"sessionId"`
	ExecutionID     uuid.UUID `json:"executionId"`
	AgentType       string    `json:"agentType"`
	StageNumber     int       `json:"stageNumber"`
	DurationMinutes int64     `json:"durationMinutes"`
	TokensUsed      *int      `json:"tokensUsed,omitempty"`
	CostUsd         *float64  `json:"costUsd,omitempty"`
}

type AgentFailed struct {
	Envelope
	SessionID    uuid.UUID `json:"sessionId"`
	ExecutionID  uuid.UUID `json:"executionId"`
	AgentType    string    `json:"agentType"`
	StageNumber  int       `json:"stageNumber"`
	ErrorMessage string    `json:"errorMessage"`
}

// Content events.

type ContentGenerated struct {
	Envelope
	ContentID    uuid.UUID `json:"contentId"`
	SessionID    uuid.UUID `json:"sessionId"`
	ContentType  string    `json:"contentType"`
	Title        string    `json:"title"`
	WordCount    *int      `json:"wordCount,omitempty"`
	QualityScore *float64  `json:"qualityScore,omitempty"`
}

type ContentUpdated struct {
	Envelope
	ContentID  uuid.UUID `json:"contentId"`
	NewVersion int       `json:"newVersion"`
	Changes    *string   `json:"changes,omitempty"`
}

// Payment events.

type PaymentSubscriptionActivated struct {
	Envelope
	SubscriptionID uuid.UUID `json:"subscriptionId"`
	PlanType       string    `json:"planType"`
	Features       []string  `json:"features"`
}

type PaymentSubscriptionCancelled struct {
	Envelope
	SubscriptionID uuid.UUID `json:"subscriptionId"`
	Reason         *string   `json:"reason,omitempty"`
}

// System events. These carry no user ID; they are keyed by event type so
// all maintenance events stay ordered relative to each other.

type SystemMaintenanceStarted struct {
	Envelope
	MaintenanceType          string   `json:"maintenanceType"`
	EstimatedDurationMinutes int      `json:"estimatedDurationMinutes"`
	AffectedServices         []string `json:"affectedServices"`
}

type SystemAlertTriggered struct {
	Envelope
	AlertType        string   `json:"alertType"`
	Severity         string   `json:"severity"`
	Message          string   `json:"message"`
	AffectedServices []string `json:"affectedServices"`
}

func (e *UserRegistered) Base() *Envelope               { return &e.Envelope }
func (e *UserUpdated) Base() *Envelope                  { return &e.Envelope }
func (e *UserRoleChanged) Base() *Envelope              { return &e.Envelope }
func (e *SessionStarted) Base() *Envelope               { return &e.Envelope }
func (e *SessionCompleted) Base() *Envelope             { return &e.Envelope }
func (e *SessionFailed) Base() *Envelope                { return &e.Envelope }
func (e *AgentStarted) Base() *Envelope                 { return &e.Envelope }
func (e *AgentCompleted) Base() *Envelope               { return &e.Envelope }
func (e *AgentFailed) Base() *Envelope                  { return &e.Envelope }
func (e *ContentGenerated) Base() *Envelope             { return &e.Envelope }
func (e *ContentUpdated) Base() *Envelope               { return &e.Envelope }
func (e *PaymentSubscriptionActivated) Base() *Envelope { return &e.Envelope }
func (e *PaymentSubscriptionCancelled) Base() *Envelope { return &e.Envelope }
func (e *SystemMaintenanceStarted) Base() *Envelope     { return &e.Envelope }
func (e *SystemAlertTriggered) Base() *Envelope         { return &e.Envelope }
