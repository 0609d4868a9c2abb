// Package service holds side effects triggered by handlers that must never
// fail the request that caused them.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/store-rating/internal/config"
	"github.com/iliyamo/store-rating/internal/queue"
)

// RatingEvents announces stored ratings to downstream consumers.
type RatingEvents interface {
	RatingSubmitted(ctx context.Context, ev queue.RatingSubmittedEvent) error
}

// NewRatingEvents returns an AMQP publisher when events are enabled and a
// no-op otherwise.
func NewRatingEvents(cfg config.EventsConfig, log *zap.Logger) RatingEvents {
	if !cfg.Enabled {
		return NopEvents{}
	}
	return &AMQPPublisher{url: cfg.URL, queue: cfg.Queue, log: log}
}

// NopEvents drops every event.
type NopEvents struct{}

func (NopEvents) RatingSubmitted(context.Context, queue.RatingSubmittedEvent) error { return nil }

// AMQPPublisher publishes each event as a persistent JSON message to a
// durable queue on the default exchange.  A connection is opened per event;
// rating submissions are rare enough that pooling is not worth it.
type AMQPPublisher struct {
	url   string
	queue string
	log   *zap.Logger
}

// RatingSubmitted publishes ev.  Errors are logged and returned so callers
// can choose to ignore them.
func (p *AMQPPublisher) RatingSubmitted(ctx context.Context, ev queue.RatingSubmittedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := p.publish(ctx, body); err != nil {
		p.log.Warn("rabbitmq: publish rating event failed",
			zap.Uint64("rating_id", ev.RatingID), zap.String("queue", p.queue), zap.Error(err))
		return err
	}
	return nil
}

func (p *AMQPPublisher) publish(ctx context.Context, body []byte) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}
