package eventbus

import (
	runtimepkg "github.com/learnloop/eventbus/internal/runtime"
	configpkg "github.com/learnloop/eventbus/internal/runtime/config"
	errspkg "github.com/learnloop/eventbus/internal/runtime/errors"
	eventspkg "github.com/learnloop/eventbus/internal/runtime/events"
	idspkg "github.com/learnloop/eventbus/internal/runtime/ids"
	loggingpkg "github.com/learnloop/eventbus/internal/runtime/logging"
	metadatapkg "github.com/learnloop/eventbus/internal/runtime/metadata"
	notifypkg "github.com/learnloop/eventbus/internal/runtime/notify"
	topicspkg "github.com/learnloop/eventbus/internal/runtime/topics"
	transportpkg "github.com/learnloop/eventbus/internal/runtime/transport"
)

type (
	Config              = configpkg.Config
	Service             = runtimepkg.Service
	ServiceDependencies = runtimepkg.ServiceDependencies
	Transport           = transportpkg.Transport
	TransportFactory    = transportpkg.Factory
	Delivery            = transportpkg.Delivery

	Publisher       = runtimepkg.Publisher
	PublisherOption = runtimepkg.PublisherOption
	Dispatcher      = runtimepkg.Dispatcher
	HandlerFunc     = runtimepkg.HandlerFunc
	Bridge          = runtimepkg.Bridge

	MiddlewareBuilder      = runtimepkg.MiddlewareBuilder
	MiddlewareRegistration = runtimepkg.MiddlewareRegistration

	Metadata = metadatapkg.Metadata

	LogFields     = loggingpkg.LogFields
	ServiceLogger = loggingpkg.ServiceLogger

	// Envelope and registry
	Event                 = eventspkg.Event
	Envelope              = eventspkg.Envelope
	EventMetadata         = eventspkg.EventMetadata
	EnvelopeOption        = eventspkg.EnvelopeOption
	UnknownEventTypeError = eventspkg.UnknownEventTypeError

	// Event variants
	UserRegistered               = eventspkg.UserRegistered
	UserUpdated                  = eventspkg.UserUpdated
	UserRoleChanged              = eventspkg.UserRoleChanged
	SessionStarted               = eventspkg.SessionStarted
	SessionCompleted             = eventspkg.SessionCompleted
	SessionFailed                = eventspkg.SessionFailed
	AgentStarted                 = eventspkg.AgentStarted
	AgentCompleted               = eventspkg.AgentCompleted
	AgentFailed                  = eventspkg.AgentFailed
	ContentGenerated             = eventspkg.ContentGenerated
	ContentUpdated               = eventspkg.ContentUpdated
	PaymentSubscriptionActivated = eventspkg.PaymentSubscriptionActivated
	PaymentSubscriptionCancelled = eventspkg.PaymentSubscriptionCancelled
	SystemMaintenanceStarted     = eventspkg.SystemMaintenanceStarted
	SystemAlertTriggered         = eventspkg.SystemAlertTriggered

	// Topic administration
	TopicConfig  = topicspkg.Config
	TopicInfo    = topicspkg.TopicInfo
	TopicManager = topicspkg.Manager
	AdminClient  = topicspkg.AdminClient
	AdminError   = topicspkg.AdminError
	ClusterInfo  = topicspkg.ClusterInfo

	// Live notifications
	Notifier        = notifypkg.Notifier
	Notification    = notifypkg.Notification
	Destination     = notifypkg.Destination
	RedisNotifier   = notifypkg.RedisNotifier
	NATSNotifier    = notifypkg.NATSNotifier
	ChannelNotifier = notifypkg.ChannelNotifier

	// Pipeline metrics
	PipelineMetrics = runtimepkg.PipelineMetrics
	TopicMetrics    = runtimepkg.TopicMetrics
	MetricsSnapshot = runtimepkg.MetricsSnapshot
)

var (
	NewService     = runtimepkg.NewService
	ValidateConfig = configpkg.ValidateConfig

	NewPublisher         = runtimepkg.NewPublisher
	WithProvenance       = runtimepkg.WithProvenance
	WithPublisherMetrics = runtimepkg.WithPublisherMetrics
	WithClock            = runtimepkg.WithClock

	NewDispatcher = runtimepkg.NewDispatcher
	NewBridge     = runtimepkg.NewBridge
	Project       = runtimepkg.Project

	DefaultMiddlewares      = runtimepkg.DefaultMiddlewares
	CorrelationIDMiddleware = runtimepkg.CorrelationIDMiddleware
	LogMessagesMiddleware   = runtimepkg.LogMessagesMiddleware
	TracerMiddleware        = runtimepkg.TracerMiddleware
	MetricsMiddleware       = runtimepkg.MetricsMiddleware
	RecovererMiddleware     = runtimepkg.RecovererMiddleware

	NewPipelineMetrics = runtimepkg.NewPipelineMetrics

	// Envelope helpers
	NewEnvelope     = eventspkg.NewEnvelope
	WithUser        = eventspkg.WithUser
	WithCorrelation = eventspkg.WithCorrelation
	WithCausation   = eventspkg.WithCausation
	WithMetadata    = eventspkg.WithMetadata
	WithTimestamp   = eventspkg.WithTimestamp
	DefaultMetadata = eventspkg.DefaultMetadata
	EncodeEvent     = eventspkg.Encode
	DecodeEvent     = eventspkg.Decode
	RegisteredTypes = eventspkg.Types
	EventCategory   = eventspkg.Category
	PartitionKey    = eventspkg.PartitionKey

	// Topic administration
	NewTopicManager      = topicspkg.NewManager
	NewKafkaTopicManager = topicspkg.NewKafkaManager
	TopicCatalog         = topicspkg.Catalog
	TopicFor             = topicspkg.TopicFor
	TopicForCategory     = topicspkg.TopicForCategory
	DLQTopic             = topicspkg.DLQTopic

	// Live notifications
	NewRedisNotifier   = notifypkg.NewRedisNotifier
	NewNATSNotifier    = notifypkg.NewNATSNotifier
	NewChannelNotifier = notifypkg.NewChannelNotifier

	// Logging
	NewSlogServiceLogger      = loggingpkg.NewSlogServiceLogger
	NewWatermillServiceLogger = loggingpkg.NewWatermillServiceLogger
	NewWatermillAdapter       = loggingpkg.NewWatermillAdapter

	CreateULID = idspkg.CreateULID
)

// Event type discriminators, re-exported for handler registration.
const (
	TypeUserRegistered               = eventspkg.TypeUserRegistered
	TypeUserUpdated                  = eventspkg.TypeUserUpdated
	TypeUserRoleChanged              = eventspkg.TypeUserRoleChanged
	TypeSessionStarted               = eventspkg.TypeSessionStarted
	TypeSessionCompleted             = eventspkg.TypeSessionCompleted
	TypeSessionFailed                = eventspkg.TypeSessionFailed
	TypeAgentStarted                 = eventspkg.TypeAgentStarted
	TypeAgentCompleted               = eventspkg.TypeAgentCompleted
	TypeAgentFailed                  = eventspkg.TypeAgentFailed
	TypeContentGenerated             = eventspkg.TypeContentGenerated
	TypeContentUpdated               = eventspkg.TypeContentUpdated
	TypePaymentSubscriptionActivated = eventspkg.TypePaymentSubscriptionActivated
	TypePaymentSubscriptionCancelled = eventspkg.TypePaymentSubscriptionCancelled
	TypeSystemMaintenanceStarted     = eventspkg.TypeSystemMaintenanceStarted
	TypeSystemAlertTriggered         = eventspkg.TypeSystemAlertTriggered
)

// Sentinel errors.
var (
	ErrServiceRequired   = errspkg.ErrServiceRequired
	ErrHandlerRequired   = errspkg.ErrHandlerRequired
	ErrCategoryRequired  = errspkg.ErrCategoryRequired
	ErrEventRequired     = errspkg.ErrEventRequired
	ErrPublisherRequired = errspkg.ErrPublisherRequired
	ErrTopicRequired     = errspkg.ErrTopicRequired
	ErrNotifierRequired  = errspkg.ErrNotifierRequired
	ErrConfigRequired    = errspkg.ErrConfigRequired
	ErrAdminUnavailable  = errspkg.ErrAdminUnavailable
)
