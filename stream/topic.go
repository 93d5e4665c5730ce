package stream

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xraph/atelier/id"
)

// Three topic shapes exist:
//
//	project:<projectID> — one project's full event stream
//	projects            — project and stage transitions across all projects
//	firehose            — everything, messages and artifacts included
const (
	TopicProjects = "projects"
	TopicFirehose = "firehose"
)

// projectTopicPrefix scopes a topic to a single project.
const projectTopicPrefix = "project:"

// ProjectTopic returns the topic carrying every event of one project.
func ProjectTopic(projectID string) string { return projectTopicPrefix + projectID }

// ValidateTopic reports whether a topic is subscribable: one of the global
// topics, or project:<id> with a well-formed project identifier.
func ValidateTopic(topic string) error {
	switch topic {
	case TopicProjects, TopicFirehose:
		return nil
	}

	rest, ok := strings.CutPrefix(topic, projectTopicPrefix)
	if !ok {
		return fmt.Errorf("stream: unknown topic %q", topic)
	}
	if _, err := id.ParseProjectID(rest); err != nil {
		return fmt.Errorf("stream: topic %q: %w", topic, err)
	}
	return nil
}

// fanout returns every topic an event is published on. All events reach
// the firehose and the event's own project topic; message and artifact
// events are too chatty for the projects roll-up and skip it.
func fanout(evt *Event) []string {
	topics := []string{TopicFirehose}

	switch evt.Type {
	case EventMessageAppended, EventArtifactAdded:
	default:
		topics = append(topics, TopicProjects)
	}

	if evt.Topic != "" {
		topics = append(topics, evt.Topic)
	}
	return topics
}

// topicTable maps topics to their subscriber sets. The broker owns one;
// all methods are safe for concurrent use.
type topicTable struct {
	mu     sync.RWMutex
	topics map[string]map[string]*Subscriber // topic → subscriberID → subscriber
}

func newTopicTable() *topicTable {
	return &topicTable{topics: make(map[string]map[string]*Subscriber)}
}

// subscribe puts sub on a topic, creating the topic on first use.
func (tt *topicTable) subscribe(topic string, sub *Subscriber) {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	set, ok := tt.topics[topic]
	if !ok {
		set = make(map[string]*Subscriber)
		tt.topics[topic] = set
	}
	set[sub.ID()] = sub
	sub.addTopic(topic)
}

// unsubscribe takes a subscriber off one topic; topics with no
// subscribers left are dropped from the table.
func (tt *topicTable) unsubscribe(topic, subscriberID string) {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	tt.removeLocked(topic, subscriberID)
}

// unsubscribeAll takes a subscriber off every topic it is on.
func (tt *topicTable) unsubscribeAll(subscriberID string) {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	for topic := range tt.topics {
		tt.removeLocked(topic, subscriberID)
	}
}

func (tt *topicTable) removeLocked(topic, subscriberID string) {
	set, ok := tt.topics[topic]
	if !ok {
		return
	}
	if sub, exists := set[subscriberID]; exists {
		sub.removeTopic(topic)
		delete(set, subscriberID)
	}
	if len(set) == 0 {
		delete(tt.topics, topic)
	}
}

// broadcast delivers an event once to every subscriber found on any of
// the listed topics, deduplicating subscribers that sit on several.
// Returns the number of deliveries; sends happen outside the table lock.
func (tt *topicTable) broadcast(topics []string, evt *Event) int {
	tt.mu.RLock()
	targets := make(map[string]*Subscriber)
	for _, topic := range topics {
		for sid, sub := range tt.topics[topic] {
			targets[sid] = sub
		}
	}
	tt.mu.RUnlock()

	delivered := 0
	for _, sub := range targets {
		if sub.send(evt) {
			delivered++
		}
	}
	return delivered
}

// count returns the number of topics with at least one subscriber.
func (tt *topicTable) count() int {
	tt.mu.RLock()
	defer tt.mu.RUnlock()
	return len(tt.topics)
}

// subscribers returns the number of subscribers on one topic.
func (tt *topicTable) subscribers(topic string) int {
	tt.mu.RLock()
	defer tt.mu.RUnlock()
	return len(tt.topics[topic])
}
