package topics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/IBM/sarama"

	runtimeErrors "github.com/learnloop/eventbus/internal/runtime/errors"
	"github.com/learnloop/eventbus/internal/runtime/logging"
)

// AdminClient is the subset of sarama.ClusterAdmin the manager needs.
// Narrowing the surface keeps tests free of a live broker.
type AdminClient interface {
	ListTopics() (map[string]sarama.TopicDetail, error)
	CreateTopic(topic string, detail *sarama.TopicDetail, validateOnly bool) error
	DeleteTopic(topic string) error
	DescribeTopics(topics []string) ([]*sarama.TopicMetadata, error)
	DescribeCluster() ([]*sarama.Broker, int32, error)
	Close() error
}

// AdminError wraps a broker admin failure with the operation and topic that
// caused it.
type AdminError struct {
	Op    string
	Topic string
	Err   error
}

func (e *AdminError) Error() string {
	if e.Topic == "" {
		return fmt.Sprintf("topic admin %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("topic admin %s %q: %v", e.Op, e.Topic, e.Err)
}

func (e *AdminError) Unwrap() error { return e.Err }

// TopicInfo describes an existing topic as seen by the broker.
type TopicInfo struct {
	Name       string
	Partitions int32
	Internal   bool
}

// ClusterInfo summarises the broker cluster backing the topics.
type ClusterInfo struct {
	Brokers      []string
	ControllerID int32
}

// Manager reconciles the topic catalog against a Kafka cluster. It is
// idempotent: running EnsureTopics repeatedly only creates what is missing
// and never alters topics that already exist.
type Manager struct {
	admin AdminClient
	log   logging.ServiceLogger
}

// NewManager builds a Manager over an admin client. The client is owned by
// the manager afterwards and released by Close.
func NewManager(admin AdminClient, log logging.ServiceLogger) (*Manager, error) {
	if admin == nil {
		return nil, runtimeErrors.ErrAdminUnavailable
	}
	if log == nil {
		return nil, fmt.Errorf("topics: logger is required")
	}
	return &Manager{admin: admin, log: log}, nil
}

// NewKafkaManager dials the cluster admin API on the given brokers.
func NewKafkaManager(brokers []string, clientID string, log logging.ServiceLogger) (*Manager, error) {
	conf := sarama.NewConfig()
	conf.Version = sarama.V2_8_0_0
	if clientID != "" {
		conf.ClientID = clientID
	}
	admin, err := sarama.NewClusterAdmin(brokers, conf)
	if err != nil {
		return nil, &AdminError{Op: "connect", Err: err}
	}
	return NewManager(admin, log)
}

// EnsureTopics creates every catalog topic that does not exist yet and
// returns the names it created. Existing topics are left untouched even if
// their settings drifted from the catalog; repartitioning a live topic is a
// deliberate operator action, not something startup should do.
func (m *Manager) EnsureTopics() ([]string, error) {
	existing, err := m.admin.ListTopics()
	if err != nil {
		return nil, &AdminError{Op: "list", Err: err}
	}

	var created []string
	for _, tc := range Catalog() {
		if _, ok := existing[tc.Name]; ok {
			continue
		}
		detail := topicDetail(tc)
		if err := m.admin.CreateTopic(tc.Name, detail, false); err != nil {
			return created, &AdminError{Op: "create", Topic: tc.Name, Err: err}
		}
		m.log.Info("created topic", logging.LogFields{
			"topic":      tc.Name,
			"partitions": tc.Partitions,
			"retention":  tc.RetentionMillis,
		})
		created = append(created, tc.Name)
	}

	sort.Strings(created)
	return created, nil
}

// TopicExists reports whether the broker currently knows the topic.
func (m *Manager) TopicExists(topic string) (bool, error) {
	if topic == "" {
		return false, runtimeErrors.ErrTopicRequired
	}
	existing, err := m.admin.ListTopics()
	if err != nil {
		return false, &AdminError{Op: "list", Err: err}
	}
	_, ok := existing[topic]
	return ok, nil
}

// ListTopics returns all topics visible to the admin client, sorted by name.
func (m *Manager) ListTopics() ([]TopicInfo, error) {
	existing, err := m.admin.ListTopics()
	if err != nil {
		return nil, &AdminError{Op: "list", Err: err}
	}

	infos := make([]TopicInfo, 0, len(existing))
	for name, detail := range existing {
		infos = append(infos, TopicInfo{Name: name, Partitions: detail.NumPartitions})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Describe fetches partition-level metadata for a topic.
func (m *Manager) Describe(topic string) (TopicInfo, error) {
	if topic == "" {
		return TopicInfo{}, runtimeErrors.ErrTopicRequired
	}
	metas, err := m.admin.DescribeTopics([]string{topic})
	if err != nil {
		return TopicInfo{}, &AdminError{Op: "describe", Topic: topic, Err: err}
	}
	for _, meta := range metas {
		if meta == nil || meta.Name != topic {
			continue
		}
		if meta.Err != sarama.ErrNoError {
			return TopicInfo{}, &AdminError{Op: "describe", Topic: topic, Err: meta.Err}
		}
		return TopicInfo{
			Name:       meta.Name,
			Partitions: int32(len(meta.Partitions)),
			Internal:   meta.IsInternal,
		}, nil
	}
	return TopicInfo{}, &AdminError{Op: "describe", Topic: topic, Err: sarama.ErrUnknownTopicOrPartition}
}

// DeleteTopic removes a topic from the cluster. Intended for tests and
// operational tooling, never called by the pipeline itself.
func (m *Manager) DeleteTopic(topic string) error {
	if topic == "" {
		return runtimeErrors.ErrTopicRequired
	}
	if err := m.admin.DeleteTopic(topic); err != nil {
		return &AdminError{Op: "delete", Topic: topic, Err: err}
	}
	m.log.Info("deleted topic", logging.LogFields{"topic": topic})
	return nil
}

// ClusterInfo reports the brokers and controller of the backing cluster.
func (m *Manager) ClusterInfo() (ClusterInfo, error) {
	brokers, controllerID, err := m.admin.DescribeCluster()
	if err != nil {
		return ClusterInfo{}, &AdminError{Op: "describe-cluster", Err: err}
	}
	info := ClusterInfo{ControllerID: controllerID}
	for _, b := range brokers {
		if b != nil {
			info.Brokers = append(info.Brokers, b.Addr())
		}
	}
	sort.Strings(info.Brokers)
	return info, nil
}

// Close releases the underlying admin connection.
func (m *Manager) Close() error {
	return m.admin.Close()
}

func topicDetail(tc Config) *sarama.TopicDetail {
	entries := map[string]*string{
		"retention.ms":                   strPtr(strconv.FormatInt(tc.RetentionMillis, 10)),
		"cleanup.policy":                 strPtr(tc.CleanupPolicy),
		"compression.type":               strPtr(compressionFor(tc.Name)),
		"unclean.leader.election.enable": strPtr("false"),
	}
	// Payment topics cannot tolerate acknowledged-but-unreplicated writes,
	// the dead letter counterpart included.
	if strings.HasPrefix(tc.Name, PaymentEvents) {
		entries["min.insync.replicas"] = strPtr("1")
	}
	return &sarama.TopicDetail{
		NumPartitions:     tc.Partitions,
		ReplicationFactor: tc.ReplicationFactor,
		ConfigEntries:     entries,
	}
}

// compressionFor picks the codec per topic: analytics carries the highest
// volume so it trades CPU for the better lz4 throughput, everything else
// uses snappy.
func compressionFor(topic string) string {
	if topic == AnalyticsEvents {
		return compressionLZ4
	}
	return compressionSnappy
}

func strPtr(s string) *string { return &s }
