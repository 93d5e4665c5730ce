package client

import (
	"log/slog"

	"github.com/xraph/atelier/backoff"
)

// Option configures a Client.
type Option func(*Client)

// WithFormat sets the wire format for frame encoding.
// Supported values: "json" (default), "msgpack".
func WithFormat(format string) Option {
	return func(c *Client) { c.format = format }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithReconnect enables automatic reconnection, retrying up to maxRetries
// times with delays from the default backoff strategy.
func WithReconnect(maxRetries int) Option {
	return func(c *Client) {
		c.reconnect = true
		c.maxRetries = maxRetries
	}
}

// WithBackoff sets the delay strategy used between reconnection attempts.
func WithBackoff(strategy backoff.Strategy) Option {
	return func(c *Client) { c.backoff = strategy }
}
