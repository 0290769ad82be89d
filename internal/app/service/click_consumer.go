package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/linkyoself/linkyoself/internal/app/model"
	"github.com/linkyoself/linkyoself/internal/app/repository"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	clickFetchBatch   = 10
	clickFetchMaxWait = 5 * time.Second
	clickStoreTimeout = 5 * time.Second
)

// errMalformedClick marks a payload that can never be stored, however often it is redelivered.
var errMalformedClick = errors.New("malformed click event")

// EnsureClickStream creates the click stream and its durable consumer when missing.
func EnsureClickStream(js nats.JetStreamContext) error {
	if _, err := js.StreamInfo(model.ClickStreamName); err != nil {
		if _, err := js.AddStream(&nats.StreamConfig{
			Name:     model.ClickStreamName,
			Subjects: []string{model.ClickStreamSubject},
			MaxBytes: model.ClickStreamMaxBytes,
		}); err != nil {
			return fmt.Errorf("create stream: %w", err)
		}
	}

	if _, err := js.ConsumerInfo(model.ClickStreamName, model.ClickConsumerName); err != nil {
		if _, err := js.AddConsumer(model.ClickStreamName, &nats.ConsumerConfig{
			Durable:   model.ClickConsumerName,
			AckPolicy: nats.AckExplicitPolicy,
		}); err != nil {
			return fmt.Errorf("create consumer: %w", err)
		}
	}
	return nil
}

// ClickConsumer drains the click stream into the click history table.
type ClickConsumer struct {
	js     nats.JetStreamContext
	logger *zap.Logger
	repo   repository.ClickEventRepository
	cancel context.CancelFunc
	done   chan struct{}
}

// NewClickConsumer creates a new click event consumer.
func NewClickConsumer(js nats.JetStreamContext, logger *zap.Logger, repo repository.ClickEventRepository) *ClickConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClickConsumer{js: js, logger: logger, repo: repo, done: make(chan struct{})}
}

// Start subscribes and consumes in the background until ctx is cancelled or Stop is called.
func (c *ClickConsumer) Start(ctx context.Context) error {
	if err := EnsureClickStream(c.js); err != nil {
		return err
	}

	sub, err := c.js.PullSubscribe(model.ClickStreamSubject, model.ClickConsumerName)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	ctx, c.cancel = context.WithCancel(ctx)
	go c.consume(ctx, sub)
	return nil
}

// Stop cancels the consume loop and waits for it to exit or for ctx to expire.
func (c *ClickConsumer) Stop(ctx context.Context) error {
	if c.cancel == nil {
		return nil
	}
	c.cancel()

	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop click consumer: %w", ctx.Err())
	}
}

// Done is closed once the consume loop has exited.
func (c *ClickConsumer) Done() <-chan struct{} {
	return c.done
}

func (c *ClickConsumer) consume(ctx context.Context, sub *nats.Subscription) {
	defer close(c.done)
	defer func() {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			c.logger.Warn("failed to unsubscribe click consumer", zap.Error(err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("click consumer stopped")
			return
		default:
		}

		msgs, err := sub.Fetch(clickFetchBatch, nats.MaxWait(clickFetchMaxWait))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubscription) {
				c.logger.Info("click consumer subscription closed", zap.Error(err))
				return
			}
			c.logger.Error("failed to fetch messages", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			settle(msg, c.handle(ctx, msg.Data))
		}
	}
}

type ackable interface {
	Ack(opts ...nats.AckOpt) error
	Nak(opts ...nats.AckOpt) error
	Term(opts ...nats.AckOpt) error
}

// settle acks stored events, terminates undecodable ones and redelivers the rest.
func settle(msg ackable, err error) {
	switch {
	case err == nil:
		_ = msg.Ack()
	case errors.Is(err, errMalformedClick):
		_ = msg.Term()
	default:
		_ = msg.Nak()
	}
}

// handle decodes and stores one click event.
func (c *ClickConsumer) handle(ctx context.Context, data []byte) error {
	var event model.ClickEvent
	if err := json.Unmarshal(data, &event); err != nil {
		c.logger.Error("failed to unmarshal click event", zap.Error(err))
		return fmt.Errorf("%w: %v", errMalformedClick, err)
	}

	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), clickStoreTimeout)
	defer cancel()

	if err := c.repo.Create(storeCtx, &event); err != nil {
		c.logger.Error("failed to store click event",
			zap.String("id", event.ID),
			zap.Uint("link_id", event.LinkID),
			zap.Error(err))
		return err
	}

	c.logger.Debug("click event stored",
		zap.String("id", event.ID),
		zap.Uint("link_id", event.LinkID),
		zap.String("ip", event.IP),
		zap.Time("timestamp", event.Timestamp),
	)
	return nil
}
