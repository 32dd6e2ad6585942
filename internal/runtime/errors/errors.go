package errors

import sterrors "errors"

var (
	ErrServiceRequired   = sterrors.New("eventbus: event service is required")
	ErrHandlerRequired   = sterrors.New("eventbus: handler function is required")
	ErrCategoryRequired  = sterrors.New("eventbus: event category is required")
	ErrEventRequired     = sterrors.New("eventbus: event payload is required")
	ErrPublisherRequired = sterrors.New("eventbus: publisher is required")
	ErrTopicRequired     = sterrors.New("eventbus: topic is required")
	ErrNotifierRequired  = sterrors.New("eventbus: notifier is required")
	ErrConfigRequired    = sterrors.New("eventbus: config is required")
	ErrAdminUnavailable  = sterrors.New("eventbus: broker admin client is not configured")
)
