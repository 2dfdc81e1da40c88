// Package events publishes engine outcomes for external collaborators (the
// portal notifier, client-facing digests). The engine only emits; delivery is
// out of scope.
package events

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "leadsync.events"

	KeySyncCompleted = "sync.completed"
	KeyPositiveReply = "lead.positive_reply"
)

// SyncCompleted is emitted once per sync pass.
type SyncCompleted struct {
	RunID      string         `json:"run_id"`
	Scope      string         `json:"scope"`
	CampaignID string         `json:"campaign_id,omitempty"`
	Counters   map[string]int `json:"counters"`
	Errors     []string       `json:"errors,omitempty"`
	FinishedAt time.Time      `json:"finished_at"`
}

// PositiveReply is emitted when a lead is first classified as a positive
// reply, so the notifier can alert the client.
type PositiveReply struct {
	CampaignID string    `json:"campaign_id"`
	LeadID     string    `json:"lead_id"`
	Email      string    `json:"email"`
	Status     string    `json:"status"`
	ObservedAt time.Time `json:"observed_at"`
}

// Publisher is what the orchestrator depends on. A nil Publisher disables
// event emission.
type Publisher interface {
	PublishSyncCompleted(ctx context.Context, e SyncCompleted) error
	PublishPositiveReply(ctx context.Context, e PositiveReply) error
}

// AMQPPublisher publishes to a topic exchange.
type AMQPPublisher struct {
	ch *amqp.Channel
}

// NewAMQPPublisher declares the exchange and returns a publisher bound to it.
func NewAMQPPublisher(ch *amqp.Channel) (*AMQPPublisher, error) {
	if err := ch.ExchangeDeclare(ExchangeName, "topic", true, false, false, false, nil); err != nil {
		return nil, err
	}
	return &AMQPPublisher{ch: ch}, nil
}

func (p *AMQPPublisher) PublishSyncCompleted(ctx context.Context, e SyncCompleted) error {
	return p.publish(ctx, KeySyncCompleted, e)
}

func (p *AMQPPublisher) PublishPositiveReply(ctx context.Context, e PositiveReply) error {
	return p.publish(ctx, KeyPositiveReply, e)
}

func (p *AMQPPublisher) publish(ctx context.Context, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, ExchangeName, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
}
