package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"structcheck/internal/check/model"
	"structcheck/internal/check/verdict"
	"structcheck/internal/common/mq"
	appErr "structcheck/pkg/errors"
)

// MQStatusEventPublisher publishes final verdicts to a topic.
type MQStatusEventPublisher struct {
	queue mq.Producer
	topic string
}

// NewMQStatusEventPublisher creates a new MQ status event publisher.
func NewMQStatusEventPublisher(queue mq.Producer, topic string) *MQStatusEventPublisher {
	return &MQStatusEventPublisher{queue: queue, topic: topic}
}

// PublishFinalStatus publishes a final status event.
func (p *MQStatusEventPublisher) PublishFinalStatus(ctx context.Context, v verdict.Verdict) error {
	if p == nil || p.queue == nil {
		return appErr.New(appErr.ServiceUnavailable).WithMessage("status publisher is not configured")
	}
	if p.topic == "" {
		return appErr.New(appErr.InvalidParams).WithMessage("status topic is required")
	}
	if v.CheckID == "" {
		return appErr.ValidationError("check_id", "required")
	}
	if !v.Status.Terminal() {
		return appErr.Newf(appErr.InvalidParams, "status %s is not final", v.Status)
	}
	payload, err := json.Marshal(model.StatusEvent{
		Type:      model.StatusEventFinal,
		Verdict:   v,
		CreatedAt: time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal status event failed: %w", err)
	}
	message := mq.NewMessage(payload)
	message.ID = v.CheckID
	if err := p.queue.Publish(ctx, p.topic, message); err != nil {
		return appErr.Wrapf(err, appErr.QueueError, "publish status event failed")
	}
	return nil
}

// MQCheckPublisher enqueues asynchronous checks.
type MQCheckPublisher struct {
	queue mq.Producer
	topic string
}

// NewMQCheckPublisher creates a publisher for the check request topic.
func NewMQCheckPublisher(queue mq.Producer, topic string) *MQCheckPublisher {
	return &MQCheckPublisher{queue: queue, topic: topic}
}

// PublishCheck enqueues msg.
func (p *MQCheckPublisher) PublishCheck(ctx context.Context, msg model.CheckMessage) error {
	if p == nil || p.queue == nil {
		return appErr.New(appErr.ServiceUnavailable).WithMessage("check publisher is not configured")
	}
	if msg.CheckID == "" || msg.SourceKey == "" {
		return appErr.New(appErr.InvalidParams).WithMessage("check message missing required fields")
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal check message failed: %w", err)
	}
	message := mq.NewMessage(payload)
	message.ID = msg.CheckID
	if err := p.queue.Publish(ctx, p.topic, message); err != nil {
		return appErr.Wrapf(err, appErr.QueueError, "publish check failed")
	}
	return nil
}
