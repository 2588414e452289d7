package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/techpulse/marketplace/internal/logger"
	"github.com/techpulse/marketplace/internal/metrics"
)

const (
	dialTimeout  = 3 * time.Second
	dialCooldown = 10 * time.Second
)

// ErrBrokerUnavailable is returned without dialing while a recent dial
// failure is cooling down.
var ErrBrokerUnavailable = errors.New("rabbitmq: broker unavailable")

// Publisher publishes domain events to RabbitMQ. It keeps one connection
// and dials again lazily after the broker drops it. A dial is bounded by
// dialTimeout and runs outside the lock; after a failure further publishes
// fail fast for dialCooldown. Errors are logged and returned so callers can
// choose to ignore them.
type Publisher struct {
	url      string
	timeout  time.Duration
	cooldown time.Duration

	mu      sync.Mutex
	conn    *amqp.Connection
	retryAt time.Time
}

func NewPublisher(url string) *Publisher {
	return &Publisher{url: url, timeout: dialTimeout, cooldown: dialCooldown}
}

func (p *Publisher) PublishModeration(ctx context.Context, ev ModerationEvent) error {
	return p.publish(ctx, QueueModeration, "", ev)
}

func (p *Publisher) PublishMediaCleanup(ctx context.Context, ev MediaCleanupEvent) error {
	queue, expiration := cleanupRoute(ev)
	return p.publish(ctx, queue, expiration, ev)
}

func (p *Publisher) connection(ctx context.Context) (*amqp.Connection, error) {
	p.mu.Lock()
	if p.conn != nil && !p.conn.IsClosed() {
		conn := p.conn
		p.mu.Unlock()
		return conn, nil
	}
	if time.Now().Before(p.retryAt) {
		p.mu.Unlock()
		return nil, ErrBrokerUnavailable
	}
	p.mu.Unlock()

	timeout := p.timeout
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		timeout = time.Until(deadline)
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.retryAt = time.Now().Add(p.cooldown)
		return nil, err
	}
	if p.conn != nil && !p.conn.IsClosed() {
		// Another publish connected while this one was dialing.
		_ = conn.Close()
		return p.conn, nil
	}
	p.conn = conn
	p.retryAt = time.Time{}
	return conn, nil
}

func (p *Publisher) publish(ctx context.Context, queue, expiration string, event any) (err error) {
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
			logger.Warn(ctx).Err(err).Str("queue", queue).Msg("rabbitmq: publish failed")
		}
		metrics.EventsPublished.WithLabelValues(queue, result).Inc()
	}()

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	conn, err := p.connection(ctx)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queue, true, false, false, false, queueArgs(queue)); err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Expiration:   expiration,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		return nil
	}
	return p.conn.Close()
}

// Nop discards every event. It stands in when no broker is configured.
type Nop struct{}

func (Nop) PublishModeration(context.Context, ModerationEvent) error     { return nil }
func (Nop) PublishMediaCleanup(context.Context, MediaCleanupEvent) error { return nil }
