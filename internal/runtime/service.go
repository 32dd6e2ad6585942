package runtime

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/plugin"

	configpkg "github.com/learnloop/eventbus/internal/runtime/config"
	errspkg "github.com/learnloop/eventbus/internal/runtime/errors"
	loggingpkg "github.com/learnloop/eventbus/internal/runtime/logging"
	"github.com/learnloop/eventbus/internal/runtime/notify"
	topicspkg "github.com/learnloop/eventbus/internal/runtime/topics"
	transportpkg "github.com/learnloop/eventbus/internal/runtime/transport"
)

// ConsumerGroupSuffix is appended to a category to form its consumer group,
// e.g. "session-event-processor".
const ConsumerGroupSuffix = "-event-processor"

// BridgeGroupPrefix is the consumer group prefix used by the real-time
// bridge, keeping its offsets independent of the business processors.
const BridgeGroupPrefix = "realtime-bridge-"

// ServiceDependencies holds the optional collaborators that the Service can use.
// Leave fields nil to use the defaults.
type ServiceDependencies struct {
	Middlewares               []MiddlewareRegistration // Appended after the default middleware chain.
	DisableDefaultMiddlewares bool                     // Skips registering the default middleware chain when true.
	TransportFactory          transportpkg.Factory
	TopicAdmin                topicspkg.AdminClient // Overrides the broker admin connection, mainly for tests.
	Metrics                   *PipelineMetrics
	PublisherOptions          []PublisherOption
}

// Service wires a Watermill router, the routed publisher, the topic
// manager, and the middleware chain into one lifecycle.
type Service struct {
	Conf   *configpkg.Config
	Logger loggingpkg.ServiceLogger

	transport transportpkg.Transport
	router    *message.Router

	publisher *Publisher
	topics    *topicspkg.Manager
	metrics   *PipelineMetrics

	httpServers   map[int]*http.ServeMux
	httpServersMu sync.Mutex
}

// NewService constructs a Service for the supplied configuration. Register
// consumers on the returned Service before calling Start.
func NewService(conf *configpkg.Config, log loggingpkg.ServiceLogger, ctx context.Context, deps ServiceDependencies) (*Service, error) {
	if conf == nil {
		return nil, errspkg.ErrConfigRequired
	}
	if log == nil {
		return nil, errspkg.ErrServiceRequired
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	wmLogger := loggingpkg.NewWatermillAdapter(log)
	log.Info("Creating event service", loggingpkg.LogFields{
		"pubsub_system": conf.PubSubSystem,
		"config":        conf,
	})

	s := &Service{
		Conf:    conf,
		Logger:  log,
		metrics: deps.Metrics,
	}
	if s.metrics == nil {
		s.metrics = NewPipelineMetrics(nil)
	}
	if conf.MetricsEnabled {
		if err := s.metrics.Register(); err != nil {
			return nil, err
		}
	}

	factory := deps.TransportFactory
	if factory == nil {
		factory = transportpkg.DefaultFactory()
	}
	transport, err := factory.Build(ctx, conf, wmLogger)
	if err != nil {
		return nil, err
	}
	s.transport = transport

	opts := append([]PublisherOption{
		WithProvenance(conf.Source, conf.Environment, conf.Region),
		WithPublisherMetrics(s.metrics),
	}, deps.PublisherOptions...)
	publisher, err := NewPublisher(transport.Publisher, log, opts...)
	if err != nil {
		return nil, err
	}
	s.publisher = publisher

	if strings.EqualFold(conf.PubSubSystem, "kafka") {
		manager, err := newTopicManager(conf, log, deps.TopicAdmin)
		if err != nil {
			return nil, err
		}
		s.topics = manager
	}

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return nil, err
	}
	s.router = router
	s.router.AddPlugin(plugin.SignalsHandler)

	if err := s.registerConfiguredMiddlewares(deps); err != nil {
		return nil, err
	}

	return s, nil
}

func newTopicManager(conf *configpkg.Config, log loggingpkg.ServiceLogger, admin topicspkg.AdminClient) (*topicspkg.Manager, error) {
	if admin != nil {
		return topicspkg.NewManager(admin, log)
	}
	return topicspkg.NewKafkaManager(conf.KafkaBrokers, conf.KafkaClientID, log)
}

// Events returns the routed publisher.
func (s *Service) Events() *Publisher { return s.publisher }

// Topics returns the topic manager, or nil on the channel transport.
func (s *Service) Topics() *topicspkg.Manager { return s.topics }

// Metrics returns the pipeline metrics collector.
func (s *Service) Metrics() *PipelineMetrics { return s.metrics }

// ConsumeCategory subscribes a dispatcher to its category topic under the
// "<category>-event-processor" consumer group. Each category gets its own
// group so one slow processor never stalls another category.
func (s *Service) ConsumeCategory(d *Dispatcher) error {
	if d == nil {
		return errspkg.ErrHandlerRequired
	}
	topic, known := topicspkg.TopicForCategory(d.Category())
	if !known {
		return fmt.Errorf("eventbus: no topic for category %q", d.Category())
	}
	group := d.Category() + ConsumerGroupSuffix
	return s.addConsumer(group, topic, d)
}

// AttachBridge consumes the bridged categories under dedicated
// "realtime-bridge-<category>" groups and forwards projected notifications
// to the notifier.
func (s *Service) AttachBridge(notifier notify.Notifier) (*Bridge, error) {
	bridge, err := NewBridge(notifier, s.Logger, s.metrics)
	if err != nil {
		return nil, err
	}
	dispatchers, err := bridge.Dispatchers()
	if err != nil {
		return nil, err
	}
	for _, category := range BridgeCategories {
		d := dispatchers[category]
		topic, _ := topicspkg.TopicForCategory(category)
		group := BridgeGroupPrefix + category
		if err := s.addConsumer(group, topic, d); err != nil {
			return nil, err
		}
	}
	return bridge, nil
}

func (s *Service) addConsumer(group, topic string, d *Dispatcher) error {
	subscriber, err := s.transport.SubscriberFor(group)
	if err != nil {
		return err
	}
	s.router.AddNoPublisherHandler(
		group,
		topic,
		subscriber,
		consumeHandler(topic, d, s.Logger, s.metrics),
	)
	return nil
}

// EnsureTopics reconciles the topic catalog. No-op on transports without a
// topic manager.
func (s *Service) EnsureTopics() error {
	if s.topics == nil {
		return nil
	}
	created, err := s.topics.EnsureTopics()
	if err != nil {
		return err
	}
	if len(created) > 0 {
		s.Logger.Info("created missing topics", loggingpkg.LogFields{"topics": created})
	}
	return nil
}

// Start reconciles topics and runs the underlying Watermill router until
// the provided context is cancelled. Router.Run only returns after the
// router is closed, so a watcher translates cancellation into a Close;
// without it a router with no handlers would ignore cancellation entirely.
func (s *Service) Start(ctx context.Context) error {
	if err := s.EnsureTopics(); err != nil {
		return err
	}
	s.startHTTPServers()

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			if err := s.router.Close(); err != nil {
				s.Logger.Error("Failed to close router", err, nil)
			}
		case <-stopped:
		}
	}()

	return s.router.Run(ctx)
}

// Close shuts the router down and releases the topic manager connection.
func (s *Service) Close() error {
	if err := s.router.Close(); err != nil {
		return err
	}
	if s.topics != nil {
		return s.topics.Close()
	}
	return nil
}

// Running returns a channel that closes once the router is running, so
// tests can publish only after the subscribers are attached.
func (s *Service) Running() chan struct{} {
	return s.router.Running()
}

func (s *Service) registerConfiguredMiddlewares(deps ServiceDependencies) error {
	var defaults []MiddlewareRegistration
	if !deps.DisableDefaultMiddlewares {
		defaults = DefaultMiddlewares()
	}
	registrations := make([]MiddlewareRegistration, 0, len(defaults)+len(deps.Middlewares))
	registrations = append(registrations, defaults...)
	registrations = append(registrations, deps.Middlewares...)

	for _, reg := range registrations {
		if err := s.RegisterMiddleware(reg); err != nil {
			name := reg.Name
			if name == "" {
				name = "anonymous_middleware"
			}
			return fmt.Errorf("failed to register middleware %s: %w", name, err)
		}
	}
	return nil
}

// RegisterHTTPHandler mounts a handler on the service's HTTP server for the
// given port, starting the mux lazily on Start.
func (s *Service) RegisterHTTPHandler(port int, pattern string, handler http.Handler) {
	s.httpServersMu.Lock()
	defer s.httpServersMu.Unlock()

	if s.httpServers == nil {
		s.httpServers = make(map[int]*http.ServeMux)
	}

	mux, ok := s.httpServers[port]
	if !ok {
		mux = http.NewServeMux()
		s.httpServers[port] = mux
	}

	mux.Handle(pattern, handler)
}

func (s *Service) startHTTPServers() {
	s.httpServersMu.Lock()
	defer s.httpServersMu.Unlock()

	for port, mux := range s.httpServers {
		addr := fmt.Sprintf(":%d", port)
		s.Logger.Info("Starting HTTP server", loggingpkg.LogFields{"address": addr})
		go func(addr string, handler http.Handler) {
			if err := http.ListenAndServe(addr, handler); err != nil {
				s.Logger.Error("Failed to start HTTP server", err, loggingpkg.LogFields{"address": addr})
			}
		}(addr, mux)
	}
}
