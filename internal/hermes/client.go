// Package hermes publishes Weave events on NATS and lets tools tail them.
package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	clientName     = "weave"
	maxReconnects  = 60
	reconnectWait  = 2 * time.Second
	flushTimeout   = 5 * time.Second
	eventHeaderKey = "Weave-Event"
)

// Handler receives raw messages from Subscribe.
type Handler func(subject string, data []byte)

// Client is safe for concurrent use.
type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewClient connects to url. The first connect is retried in the background,
// so a NATS server that comes up after weave is still picked up.
func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name(clientName),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(maxReconnects),
		nats.ReconnectWait(reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("event bus disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("event bus reconnected", "url", nc.ConnectedUrlRedacted())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			logger.Warn("event bus error", "subject", subject, "error", err)
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

// Publish sends data as JSON on subject.
func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", subject, err)
	}
	msg := nats.NewMsg(subject)
	msg.Data = payload
	msg.Header.Set(eventHeaderKey, subject)
	if err := c.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Emit publishes ev on its subject. Failures are logged, not returned.
func (c *Client) Emit(ev Event) {
	if err := c.Publish(ev.Subject(), ev); err != nil {
		c.logger.Warn("failed to emit event", "subject", ev.Subject(), "error", err)
	}
}

// Subscribe delivers every message on subject (wildcards allowed) to handler.
func (c *Client) Subscribe(subject string, handler Handler) error {
	_, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

// Listen subscribes to T's subject and decodes each payload into T.
// Payloads that do not decode are logged and skipped.
func Listen[T Event](c *Client, handler func(T)) error {
	var zero T
	return c.Subscribe(zero.Subject(), func(subject string, data []byte) {
		var ev T
		if err := json.Unmarshal(data, &ev); err != nil {
			c.logger.Warn("dropping undecodable event", "subject", subject, "error", err)
			return
		}
		handler(ev)
	})
}

// Flush waits until the server has processed everything published so far.
func (c *Client) Flush() error {
	return c.conn.Flush()
}

// Close flushes pending publishes, bounded by flushTimeout, and closes the
// connection.
func (c *Client) Close() {
	if c.conn.IsConnected() {
		if err := c.conn.FlushTimeout(flushTimeout); err != nil {
			c.logger.Warn("event bus flush on close failed", "error", err)
		}
	}
	c.conn.Close()
}
