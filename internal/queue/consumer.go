package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/techpulse/marketplace/internal/logger"
	"github.com/techpulse/marketplace/internal/metrics"
)

// MaxCleanupAttempts bounds how often a failed media cleanup is retried.
const MaxCleanupAttempts = 5

// errMalformed marks payloads that can never be handled. Such messages are
// dropped; any other handler error requeues the message.
var errMalformed = errors.New("malformed payload")

// MediaDeleter releases stored media objects by public id.
type MediaDeleter interface {
	Delete(ctx context.Context, publicID string) error
}

// CleanupPublisher re-enqueues cleanup work that failed again.
type CleanupPublisher interface {
	PublishMediaCleanup(ctx context.Context, ev MediaCleanupEvent) error
}

// Consumer drains the moderation and media cleanup queues.
type Consumer struct {
	url     string
	media   MediaDeleter
	retry   CleanupPublisher
	logDir  string
	backoff time.Duration

	mu sync.Mutex // serialises writes to the moderation log
}

// NewConsumer builds a consumer. Moderation decisions are appended to
// <logDir>/moderation.log.
func NewConsumer(url string, media MediaDeleter, retry CleanupPublisher, logDir string) *Consumer {
	if logDir == "" {
		logDir = "logs"
	}
	return &Consumer{url: url, media: media, retry: retry, logDir: logDir, backoff: time.Second}
}

// Run connects to the broker and consumes until ctx is cancelled. Dial and
// channel failures are retried with exponential backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := c.backoff
	for {
		conn, err := amqp.DialConfig(c.url, amqp.Config{
			Heartbeat: 10 * time.Second,
			Locale:    "en_US",
			Dial:      amqp.DefaultDial(dialTimeout),
		})
		if err != nil {
			logger.Warn(ctx).Err(err).Dur("retry_in", backoff).Msg("consumer: failed to dial broker")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = c.backoff

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn(ctx).Err(err).Msg("consumer: consume loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.Warn(ctx).Err(err).Msg("consumer: set QoS failed")
	}

	if _, err := ch.QueueDeclare(QueueMediaCleanupRetry, true, false, false, false, queueArgs(QueueMediaCleanupRetry)); err != nil {
		return fmt.Errorf("queue declare %s: %w", QueueMediaCleanupRetry, err)
	}
	deliveries := make(map[string]<-chan amqp.Delivery, 2)
	for _, q := range []string{QueueModeration, QueueMediaCleanup} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, queueArgs(q)); err != nil {
			return fmt.Errorf("queue declare %s: %w", q, err)
		}
		msgs, err := ch.Consume(q, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", q, err)
		}
		deliveries[q] = msgs
	}

	moderation, cleanup := deliveries[QueueModeration], deliveries[QueueMediaCleanup]
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-moderation:
			if !ok {
				return errors.New("moderation deliveries closed")
			}
			c.settle(ctx, d, c.HandleModeration(d.Body))
		case d, ok := <-cleanup:
			if !ok {
				return errors.New("cleanup deliveries closed")
			}
			c.settle(ctx, d, c.HandleMediaCleanup(ctx, d.Body))
		}
	}
}

// acknowledger is the part of amqp.Delivery that settle uses.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// settle acks handled messages. Malformed payloads are rejected outright;
// other failures are requeued after a pause so a broker or disk outage does
// not lose work or spin the consumer.
func (c *Consumer) settle(ctx context.Context, d acknowledger, err error) {
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, errMalformed):
		logger.Error(ctx).Err(err).Msg("consumer: dropping malformed message")
		_ = d.Nack(false, false)
	default:
		logger.Warn(ctx).Err(err).Dur("retry_in", c.backoff).Msg("consumer: handle message failed, requeueing")
		sleep(ctx, c.backoff)
		_ = d.Nack(false, true)
	}
}

// HandleModeration appends one line per decision to the moderation log.
func (c *Consumer) HandleModeration(body []byte) error {
	var ev ModerationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if err := os.MkdirAll(c.logDir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	f, err := os.OpenFile(filepath.Join(c.logDir, "moderation.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] Listing %s | listing_id=%d | slug=%s | seller_id=%d | admin_id=%d | video_verified=%t | title=%q\n",
		ev.DecidedAt, ev.Decision, ev.ListingID, ev.Slug, ev.SellerID, ev.AdminID, ev.VideoVerified, ev.Title)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// HandleMediaCleanup retries the deletion of every listed object. Objects
// that still fail are re-published with Attempt+1, which parks them on the
// retry queue for RetryDelay(Attempt+1), until MaxCleanupAttempts is
// reached, after which they are logged and dropped. A failed re-publish is
// returned so the message is requeued rather than lost.
func (c *Consumer) HandleMediaCleanup(ctx context.Context, body []byte) error {
	var ev MediaCleanupEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}

	var failed []string
	var errs []error
	for _, id := range ev.PublicIDs {
		if err := c.media.Delete(ctx, id); err != nil {
			failed = append(failed, id)
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	metrics.MediaCleanupFailures.Add(float64(len(failed)))

	next := ev.Attempt + 1
	if next >= MaxCleanupAttempts || c.retry == nil {
		logger.Error(ctx).Err(errors.Join(errs...)).
			Uint64("listing_id", ev.ListingID).
			Int("attempt", ev.Attempt).
			Strs("public_ids", failed).
			Msg("consumer: giving up on media cleanup")
		return nil
	}
	if err := c.retry.PublishMediaCleanup(ctx, MediaCleanupEvent{
		ListingID:   ev.ListingID,
		PublicIDs:   failed,
		Attempt:     next,
		Reason:      errors.Join(errs...).Error(),
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return fmt.Errorf("republish cleanup attempt %d: %w", next, err)
	}
	return nil
}
