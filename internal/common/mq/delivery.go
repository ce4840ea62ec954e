package mq

import (
	"context"
	"time"

	"structcheck/pkg/utils/logger"

	"go.uber.org/zap"
)

// deliver runs handler on m until it succeeds or its retries are exhausted,
// then forwards the message to the dead letter topic when one is set. The
// caller acknowledges the message once deliver returns.
func deliver(ctx context.Context, pub Producer, topic string, handler HandlerFunc, opts SubscribeOptions, m *Message) {
	if m.MaxRetries == 0 {
		m.MaxRetries = opts.MaxRetries
	}
	if m.Expiration == 0 && opts.MessageTTL > 0 {
		m.Expiration = opts.MessageTTL
	}
	if m.expired(time.Now()) {
		logger.Warn(ctx, "message expired before delivery",
			zap.String("topic", topic),
			zap.String("message_id", m.ID),
		)
		return
	}

	for {
		err := handler(ctx, m)
		if err == nil {
			return
		}
		m.RetryCount++
		if m.RetryCount > m.MaxRetries || ctx.Err() != nil {
			logger.Error(ctx, "message handling failed",
				zap.String("topic", topic),
				zap.String("message_id", m.ID),
				zap.Int("retry_count", m.RetryCount),
				zap.Error(err),
			)
			if opts.DeadLetterTopic != "" && ctx.Err() == nil {
				if pubErr := pub.Publish(ctx, opts.DeadLetterTopic, m); pubErr != nil {
					logger.Error(ctx, "publish to dead letter topic failed", zap.Error(pubErr))
				}
			}
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(opts.RetryDelay):
		}
	}
}
