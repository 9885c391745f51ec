// Package service provides the RabbitMQ publisher for event change
// notifications.  Publishing is best effort: errors are logged and
// returned, and callers on the request path ignore them.
package service

import (
    "context"
    "encoding/json"
    "errors"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"

    "github.com/iliyamo/eventcat/internal/model"
    q "github.com/iliyamo/eventcat/internal/queue"
)

const (
    dialTimeout = 3 * time.Second
    // after a failed dial, publishes fail fast for this long
    dialBackoff = 5 * time.Second
)

// ErrBrokerUnavailable is returned while the publisher waits out the
// back-off that follows a failed dial.
var ErrBrokerUnavailable = errors.New("rabbitmq: broker unavailable, retry later")

// Publisher publishes EventChanged messages to a durable queue over the
// default exchange.  The connection is dialed lazily and re-dialed after
// a failure, at most once per dialBackoff.
type Publisher struct {
    url   string
    queue string
    log   *zap.Logger
    now   func() time.Time
    dial  func(url string) (*amqp.Connection, error)

    mu      sync.Mutex
    conn    *amqp.Connection
    ch      *amqp.Channel
    retryAt time.Time
}

// NewPublisher returns a Publisher for the given broker URL and queue.
func NewPublisher(url, queue string, log *zap.Logger) *Publisher {
    if log == nil {
        log = zap.NewNop()
    }
    return &Publisher{url: url, queue: queue, log: log, now: time.Now, dial: dialBroker}
}

// bounded dial: publishing runs on the request path
func dialBroker(url string) (*amqp.Connection, error) {
    return amqp.DialConfig(url, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      amqp.DefaultDial(dialTimeout),
    })
}

// Notify publishes a change for rows.  It never panics; any error is
// logged and swallowed.
func (p *Publisher) Notify(ctx context.Context, kind string, rows []model.Event) {
    if err := p.Publish(ctx, q.NewEventChanged(kind, rows, p.now())); err != nil {
        p.log.Warn("rabbitmq: publish failed", zap.String("kind", kind), zap.Error(err))
    }
}

// Publish sends one message.  Messages are marked persistent.
func (p *Publisher) Publish(ctx context.Context, msg q.EventChanged) error {
    body, err := json.Marshal(msg)
    if err != nil {
        return err
    }

    p.mu.Lock()
    defer p.mu.Unlock()

    ch, err := p.channel()
    if err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    p.now().UTC(),
        Type:         msg.Kind,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
        p.reset()
        return err
    }
    return nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.reset()
    return nil
}

func (p *Publisher) channel() (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() {
        return p.ch, nil
    }
    p.reset()
    if p.url == "" {
        return nil, errors.New("rabbitmq: no url configured")
    }
    if p.now().Before(p.retryAt) {
        return nil, ErrBrokerUnavailable
    }
    conn, err := p.dial(p.url)
    if err != nil {
        p.retryAt = p.now().Add(dialBackoff)
        return nil, err
    }
    p.retryAt = time.Time{}
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, err
    }
    // idempotent; durable so messages survive broker restarts
    if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return nil, err
    }
    p.conn, p.ch = conn, ch
    return ch, nil
}

func (p *Publisher) reset() {
    if p.ch != nil {
        _ = p.ch.Close()
        p.ch = nil
    }
    if p.conn != nil {
        _ = p.conn.Close()
        p.conn = nil
    }
}
