// Package queue defines message payloads exchanged over RabbitMQ, the
// publisher used by the services and the background consumers.
package queue

import (
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Queue names. All queues are durable and use the default exchange.
// QueueMediaCleanupRetry has no consumer: messages wait there until their
// per-message expiration and are then dead-lettered to QueueMediaCleanup.
const (
	QueueModeration        = "listing.moderation"
	QueueMediaCleanup      = "media.cleanup"
	QueueMediaCleanupRetry = "media.cleanup.retry"
)

const (
	retryBaseDelay = 5 * time.Second
	retryMaxDelay  = 5 * time.Minute
)

// RetryDelay is how long a media cleanup waits before the given attempt:
// zero for the first one, then 5s doubling up to 5m.
func RetryDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	d := retryBaseDelay
	for i := 1; i < attempt && d < retryMaxDelay; i++ {
		d *= 2
	}
	return min(d, retryMaxDelay)
}

// queueArgs returns the declaration arguments of a queue. Publisher and
// consumer must agree on them or the broker refuses the redeclaration.
func queueArgs(queue string) amqp.Table {
	if queue != QueueMediaCleanupRetry {
		return nil
	}
	return amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": QueueMediaCleanup,
	}
}

// cleanupRoute picks the queue and expiration for a cleanup event. Retries
// are parked on the retry queue for RetryDelay(Attempt).
func cleanupRoute(ev MediaCleanupEvent) (queue, expiration string) {
	d := RetryDelay(ev.Attempt)
	if d == 0 {
		return QueueMediaCleanup, ""
	}
	return QueueMediaCleanupRetry, strconv.FormatInt(d.Milliseconds(), 10)
}

// ModerationEvent is published whenever an admin verifies or rejects a
// listing.
type ModerationEvent struct {
	ListingID     uint64 `json:"listing_id"`
	Slug          string `json:"slug"`
	Title         string `json:"title"`
	SellerID      uint64 `json:"seller_id"`
	AdminID       uint64 `json:"admin_id"`
	Decision      string `json:"decision"`
	VideoVerified bool   `json:"video_verified"`
	DecidedAt     string `json:"decided_at"`
}

// MediaCleanupEvent asks the cleanup consumer to release media objects
// that could not be deleted synchronously.
type MediaCleanupEvent struct {
	ListingID   uint64   `json:"listing_id"`
	PublicIDs   []string `json:"public_ids"`
	Attempt     int      `json:"attempt"`
	Reason      string   `json:"reason"`
	RequestedAt string   `json:"requested_at"`
}
