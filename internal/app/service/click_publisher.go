package service

import (
	"context"
	"encoding/json"

	"github.com/linkyoself/linkyoself/internal/app/model"
	"github.com/nats-io/nats.go"
)

// ClickEventPublisher hands click events to the event stream.
type ClickEventPublisher interface {
	Publish(ctx context.Context, event model.ClickEvent) error
}

// ClickPublisher publishes click events to NATS JetStream.
type ClickPublisher struct {
	js nats.JetStreamContext
}

// NewClickPublisher creates a new click event publisher.
func NewClickPublisher(js nats.JetStreamContext) *ClickPublisher {
	return &ClickPublisher{js: js}
}

// Publish sends event to the click stream. The event id doubles as the
// JetStream message id, so retried publishes are deduplicated.
func (p *ClickPublisher) Publish(ctx context.Context, event model.ClickEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(model.ClickStreamSubject, data, nats.Context(ctx), nats.MsgId(event.ID))
	return err
}
