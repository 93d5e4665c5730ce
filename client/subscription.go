package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/atelier/stream"
	"github.com/xraph/atelier/wire"
)

// Subscribe subscribes to a stream topic and returns a channel of events.
// The channel is closed when the client disconnects or Unsubscribe is called.
//
// Topics follow the atelier stream convention:
//   - "project:<projectID>" — Events for a specific project
//   - "projects"            — All project and stage lifecycle events
//   - "firehose"            — Everything, messages and artifacts included
func (c *Client) Subscribe(ctx context.Context, channel string) (<-chan *stream.Event, error) {
	_, err := c.request(ctx, wire.MethodSubscribe, wire.SubscribeRequest{
		Channel: channel,
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to %q: %w", channel, err)
	}

	ch := make(chan *stream.Event, 64)
	c.subs.Store(channel, ch)

	return ch, nil
}

// Unsubscribe removes a subscription.
func (c *Client) Unsubscribe(ctx context.Context, channel string) error {
	_, err := c.request(ctx, wire.MethodUnsubscribe, wire.UnsubscribeRequest{
		Channel: channel,
	})

	// Close and remove the local channel regardless.
	if val, ok := c.subs.LoadAndDelete(channel); ok {
		ch := val.(chan *stream.Event) //nolint:errcheck // subs map always stores chan *stream.Event
		close(ch)
	}

	return err
}

// WatchProject subscribes to events for a specific project. This is a
// convenience method that subscribes to "project:<projectID>".
func (c *Client) WatchProject(ctx context.Context, projectID string) (<-chan *stream.Event, error) {
	return c.Subscribe(ctx, stream.ProjectTopic(projectID))
}

// AddCredits replenishes flow-control credits on the server-side
// subscriber backing this connection.
func (c *Client) AddCredits(credits int) error {
	return c.writeFrame(&wire.Frame{
		ID:        wire.GenerateFrameID(),
		Type:      wire.FrameRequest,
		Credits:   credits,
		Timestamp: time.Now().UTC(),
	})
}

// Stats retrieves broker and project statistics from the server.
func (c *Client) Stats(ctx context.Context) (json.RawMessage, error) {
	resp, err := c.request(ctx, wire.MethodStats, nil)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}
