package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xraph/atelier/ext"
	"github.com/xraph/atelier/id"
	"github.com/xraph/atelier/project"
)

// Compile-time interface checks.
var (
	_ ext.Extension        = (*Broker)(nil)
	_ ext.ProjectStarted   = (*Broker)(nil)
	_ ext.StageStarted     = (*Broker)(nil)
	_ ext.StageCompleted   = (*Broker)(nil)
	_ ext.StageFailed      = (*Broker)(nil)
	_ ext.ProjectCompleted = (*Broker)(nil)
	_ ext.ProjectFailed    = (*Broker)(nil)
	_ ext.MessageAppended  = (*Broker)(nil)
	_ ext.ArtifactAdded    = (*Broker)(nil)
	_ ext.Shutdown         = (*Broker)(nil)
)

// DefaultBufferSize is the default per-subscriber event buffer.
const DefaultBufferSize = 256

// DefaultCredits is the default initial credits for new subscribers.
const DefaultCredits int64 = 1000

// Broker is the real-time stream broker. It implements the ext.Extension
// interface to receive lifecycle events and fans them out to subscribers
// via topic-based pub/sub.
type Broker struct {
	topics *topicTable
	logger *slog.Logger

	// Subscriber management.
	subscribers sync.Map // subscriberID → *Subscriber

	// Metrics.
	totalPublished atomic.Int64

	// Config.
	bufferSize     int
	defaultCredits int64
}

// BrokerOption configures a Broker.
type BrokerOption func(*Broker)

// WithBufferSize sets the per-subscriber event buffer size.
func WithBufferSize(size int) BrokerOption {
	return func(b *Broker) { b.bufferSize = size }
}

// WithDefaultCredits sets the initial credits for new subscribers.
func WithDefaultCredits(credits int64) BrokerOption {
	return func(b *Broker) { b.defaultCredits = credits }
}

// NewBroker creates a new stream broker.
func NewBroker(logger *slog.Logger, opts ...BrokerOption) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Broker{
		topics:         newTopicTable(),
		logger:         logger,
		bufferSize:     DefaultBufferSize,
		defaultCredits: DefaultCredits,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name implements ext.Extension.
func (b *Broker) Name() string { return "stream-broker" }

// Subscribe creates a new subscriber on the given topics.
func (b *Broker) Subscribe(subscriberID string, topics ...string) *Subscriber {
	sub := NewSubscriber(subscriberID, b.bufferSize, b.defaultCredits)
	b.subscribers.Store(subscriberID, sub)
	for _, topic := range topics {
		b.topics.subscribe(topic, sub)
	}
	return sub
}

// SubscribeTo adds an existing subscriber to additional topics.
func (b *Broker) SubscribeTo(subscriberID string, topics ...string) {
	val, ok := b.subscribers.Load(subscriberID)
	if !ok {
		return
	}
	sub := val.(*Subscriber) //nolint:errcheck // sync.Map always stores *Subscriber
	for _, topic := range topics {
		b.topics.subscribe(topic, sub)
	}
}

// Unsubscribe removes a subscriber from specific topics.
func (b *Broker) Unsubscribe(subscriberID string, topics ...string) {
	for _, topic := range topics {
		b.topics.unsubscribe(topic, subscriberID)
	}
}

// RemoveSubscriber removes a subscriber from all topics and closes it.
func (b *Broker) RemoveSubscriber(subscriberID string) {
	b.topics.unsubscribeAll(subscriberID)
	if val, ok := b.subscribers.LoadAndDelete(subscriberID); ok {
		val.(*Subscriber).Close() //nolint:errcheck // sync.Map always stores *Subscriber
	}
}

// Subscribers returns the number of subscribers on one topic.
func (b *Broker) Subscribers(topic string) int {
	return b.topics.subscribers(topic)
}

// Stats returns broker statistics.
func (b *Broker) Stats() BrokerStats {
	count := 0
	b.subscribers.Range(func(_, _ any) bool {
		count++
		return true
	})
	return BrokerStats{
		TopicCount:      b.topics.count(),
		SubscriberCount: count,
		TotalPublished:  b.totalPublished.Load(),
	}
}

// BrokerStats contains broker metrics.
type BrokerStats struct {
	TopicCount      int   `json:"topic_count"`
	SubscriberCount int   `json:"subscriber_count"`
	TotalPublished  int64 `json:"total_published"`
}

// publish fans an event out to all matching topics.
func (b *Broker) publish(evt *Event) {
	delivered := b.topics.broadcast(fanout(evt), evt)
	b.totalPublished.Add(int64(delivered))
}

// mustMarshal marshals data to JSON, panicking on error (programming error).
func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic("stream: marshal event data: " + err.Error())
	}
	return data
}

func projectData(p *project.Project) ProjectEventData {
	return ProjectEventData{
		ProjectID: p.ID.String(),
		Status:    string(p.Status),
		Stage:     p.CurrentStage,
		Progress:  p.Progress,
	}
}

// OnProjectStarted implements ext.ProjectStarted.
func (b *Broker) OnProjectStarted(_ context.Context, p *project.Project) error {
	b.publish(&Event{
		Type:      EventProjectStarted,
		Timestamp: time.Now().UTC(),
		Topic:     ProjectTopic(p.ID.String()),
		Data:      mustMarshal(projectData(p)),
	})
	return nil
}

// OnStageStarted implements ext.StageStarted.
func (b *Broker) OnStageStarted(_ context.Context, p *project.Project, stageName string) error {
	data := projectData(p)
	data.Stage = stageName
	b.publish(&Event{
		Type:      EventStageStarted,
		Timestamp: time.Now().UTC(),
		Topic:     ProjectTopic(p.ID.String()),
		Data:      mustMarshal(data),
	})
	return nil
}

// OnStageCompleted implements ext.StageCompleted.
func (b *Broker) OnStageCompleted(_ context.Context, p *project.Project, stageName string, elapsed time.Duration) error {
	data := projectData(p)
	data.Stage = stageName
	data.ElapsedMs = elapsed.Milliseconds()
	b.publish(&Event{
		Type:      EventStageCompleted,
		Timestamp: time.Now().UTC(),
		Topic:     ProjectTopic(p.ID.String()),
		Data:      mustMarshal(data),
	})
	return nil
}

// OnStageFailed implements ext.StageFailed.
func (b *Broker) OnStageFailed(_ context.Context, p *project.Project, stageName string, stageErr error) error {
	data := projectData(p)
	data.Stage = stageName
	data.Error = stageErr.Error()
	b.publish(&Event{
		Type:      EventStageFailed,
		Timestamp: time.Now().UTC(),
		Topic:     ProjectTopic(p.ID.String()),
		Data:      mustMarshal(data),
	})
	return nil
}

// OnProjectCompleted implements ext.ProjectCompleted.
func (b *Broker) OnProjectCompleted(_ context.Context, p *project.Project, elapsed time.Duration) error {
	data := projectData(p)
	data.ElapsedMs = elapsed.Milliseconds()
	b.publish(&Event{
		Type:      EventProjectCompleted,
		Timestamp: time.Now().UTC(),
		Topic:     ProjectTopic(p.ID.String()),
		Data:      mustMarshal(data),
	})
	return nil
}

// OnProjectFailed implements ext.ProjectFailed.
func (b *Broker) OnProjectFailed(_ context.Context, p *project.Project, projErr error) error {
	data := projectData(p)
	data.Error = projErr.Error()
	b.publish(&Event{
		Type:      EventProjectFailed,
		Timestamp: time.Now().UTC(),
		Topic:     ProjectTopic(p.ID.String()),
		Data:      mustMarshal(data),
	})
	return nil
}

// OnMessageAppended implements ext.MessageAppended.
func (b *Broker) OnMessageAppended(_ context.Context, projectID id.ProjectID, m project.Message) error {
	b.publish(&Event{
		Type:      EventMessageAppended,
		Timestamp: time.Now().UTC(),
		Topic:     ProjectTopic(projectID.String()),
		Data: mustMarshal(MessageEventData{
			ProjectID: projectID.String(),
			Seq:       m.Seq,
			Sender:    m.Sender,
			Content:   m.Content,
			Timestamp: m.Timestamp,
		}),
	})
	return nil
}

// OnArtifactAdded implements ext.ArtifactAdded.
func (b *Broker) OnArtifactAdded(_ context.Context, projectID id.ProjectID, a project.Artifact) error {
	b.publish(&Event{
		Type:      EventArtifactAdded,
		Timestamp: time.Now().UTC(),
		Topic:     ProjectTopic(projectID.String()),
		Data: mustMarshal(ArtifactEventData{
			ProjectID: projectID.String(),
			Name:      a.Name,
			Kind:      string(a.Kind),
			Stage:     a.Stage,
		}),
	})
	return nil
}

// OnShutdown implements ext.Shutdown.
func (b *Broker) OnShutdown(_ context.Context) error {
	b.subscribers.Range(func(key, value any) bool {
		sub := value.(*Subscriber) //nolint:errcheck // sync.Map always stores *Subscriber
		sub.Close()
		b.subscribers.Delete(key)
		return true
	})
	b.logger.Info("stream broker shut down")
	return nil
}
