package stream_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/atelier/id"
	"github.com/xraph/atelier/project"
	"github.com/xraph/atelier/stream"
)

func testBroker(opts ...stream.BrokerOption) *stream.Broker {
	return stream.NewBroker(slog.New(slog.NewTextHandler(io.Discard, nil)), opts...)
}

func drain(t *testing.T, sub *stream.Subscriber) *stream.Event {
	t.Helper()
	select {
	case evt := <-sub.C():
		return evt
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return nil
	}
}

func TestBroker_ProjectTopicRouting(t *testing.T) {
	b := testBroker()
	p := project.New("req")

	onProject := b.Subscribe("on-project", stream.ProjectTopic(p.ID.String()))
	onOther := b.Subscribe("on-other", stream.ProjectTopic("proj_other"))

	if err := b.OnProjectStarted(context.Background(), p); err != nil {
		t.Fatalf("OnProjectStarted: %v", err)
	}

	evt := drain(t, onProject)
	if evt.Type != stream.EventProjectStarted {
		t.Errorf("type = %q", evt.Type)
	}

	var data stream.ProjectEventData
	if err := json.Unmarshal(evt.Data, &data); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if data.ProjectID != p.ID.String() {
		t.Errorf("project_id = %q", data.ProjectID)
	}

	select {
	case evt := <-onOther.C():
		t.Errorf("subscriber on another project received %q", evt.Type)
	default:
	}
}

func TestBroker_GlobalTopics(t *testing.T) {
	b := testBroker()
	p := project.New("req")

	projects := b.Subscribe("projects", stream.TopicProjects)
	firehose := b.Subscribe("firehose", stream.TopicFirehose)

	if err := b.OnStageCompleted(context.Background(), p, "business_analysis", time.Second); err != nil {
		t.Fatalf("OnStageCompleted: %v", err)
	}
	if evt := drain(t, projects); evt.Type != stream.EventStageCompleted {
		t.Errorf("projects topic got %q", evt.Type)
	}
	if evt := drain(t, firehose); evt.Type != stream.EventStageCompleted {
		t.Errorf("firehose got %q", evt.Type)
	}

	// Message events skip the projects roll-up but reach the firehose.
	if err := b.OnMessageAppended(context.Background(), p.ID, project.Message{Seq: 0, Sender: "User", Content: "hi"}); err != nil {
		t.Fatalf("OnMessageAppended: %v", err)
	}
	if evt := drain(t, firehose); evt.Type != stream.EventMessageAppended {
		t.Errorf("firehose got %q", evt.Type)
	}
	select {
	case evt := <-projects.C():
		t.Errorf("projects topic received message event %q", evt.Type)
	default:
	}
}

func TestBroker_DeduplicatesAcrossTopics(t *testing.T) {
	b := testBroker()
	p := project.New("req")

	sub := b.Subscribe("both", stream.TopicFirehose, stream.ProjectTopic(p.ID.String()))

	if err := b.OnProjectFailed(context.Background(), p, errors.New("boom")); err != nil {
		t.Fatalf("OnProjectFailed: %v", err)
	}
	drain(t, sub)

	select {
	case <-sub.C():
		t.Error("event delivered twice to a multi-topic subscriber")
	default:
	}
}

func TestSubscriber_CreditsExhausted(t *testing.T) {
	b := testBroker(stream.WithDefaultCredits(1))
	p := project.New("req")

	sub := b.Subscribe("limited", stream.TopicFirehose)

	_ = b.OnProjectStarted(context.Background(), p)
	_ = b.OnProjectCompleted(context.Background(), p, time.Second)

	drain(t, sub)
	select {
	case evt := <-sub.C():
		t.Errorf("received %q with zero credits", evt.Type)
	default:
	}

	// Replenish and verify delivery resumes.
	sub.AddCredits(10)
	_ = b.OnProjectCompleted(context.Background(), p, time.Second)
	if evt := drain(t, sub); evt.Type != stream.EventProjectCompleted {
		t.Errorf("after credit refill got %q", evt.Type)
	}
}

func TestSubscriber_CountsDrops(t *testing.T) {
	b := testBroker(stream.WithDefaultCredits(1))
	p := project.New("req")

	sub := b.Subscribe("limited", stream.TopicFirehose)

	_ = b.OnProjectStarted(context.Background(), p)
	_ = b.OnProjectCompleted(context.Background(), p, time.Second)
	_ = b.OnProjectFailed(context.Background(), p, errors.New("boom"))

	drain(t, sub)
	if got := sub.Dropped(); got != 2 {
		t.Errorf("Dropped = %d, want 2", got)
	}
}

func TestBroker_RemoveSubscriber(t *testing.T) {
	b := testBroker()
	sub := b.Subscribe("gone", stream.TopicFirehose)

	b.RemoveSubscriber("gone")

	if got := b.Stats().SubscriberCount; got != 0 {
		t.Errorf("SubscriberCount = %d after removal", got)
	}
	if _, open := <-sub.C(); open {
		t.Error("subscriber channel still open after removal")
	}
	if got := b.Subscribers(stream.TopicFirehose); got != 0 {
		t.Errorf("firehose subscriber count = %d after removal", got)
	}
}

func TestBroker_ShutdownClosesAll(t *testing.T) {
	b := testBroker()
	a := b.Subscribe("a", stream.TopicFirehose)
	c := b.Subscribe("c", stream.TopicProjects)

	if err := b.OnShutdown(context.Background()); err != nil {
		t.Fatalf("OnShutdown: %v", err)
	}

	for _, sub := range []*stream.Subscriber{a, c} {
		if _, open := <-sub.C(); open {
			t.Error("subscriber channel open after shutdown")
		}
	}
	if b.Stats().SubscriberCount != 0 {
		t.Errorf("SubscriberCount = %d after shutdown", b.Stats().SubscriberCount)
	}
}

func TestValidateTopic(t *testing.T) {
	valid := []string{
		"projects",
		"firehose",
		stream.ProjectTopic(id.NewProjectID().String()),
	}
	for _, topic := range valid {
		if err := stream.ValidateTopic(topic); err != nil {
			t.Errorf("ValidateTopic(%q) = %v", topic, err)
		}
	}
	invalid := []string{
		"",
		"project:",
		"project:not-a-project-id",
		"jobs",
		"queue:default",
		":x",
	}
	for _, topic := range invalid {
		if err := stream.ValidateTopic(topic); err == nil {
			t.Errorf("ValidateTopic(%q) accepted", topic)
		}
	}
}

func TestStats_CountsPublishes(t *testing.T) {
	b := testBroker()
	_ = b.Subscribe("s", stream.TopicFirehose)

	_ = b.OnProjectStarted(context.Background(), project.New("req"))

	if got := b.Stats().TotalPublished; got != 1 {
		t.Errorf("TotalPublished = %d, want 1", got)
	}
	if got := b.Stats().TopicCount; got != 1 {
		t.Errorf("TopicCount = %d, want 1", got)
	}
}
