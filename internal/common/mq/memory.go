package mq

import (
	"context"
	"errors"
	"sync"
)

// MemoryQueue is an in-process MessageQueue. It backs the service when no
// brokers are configured and in tests.
type MemoryQueue struct {
	mu      sync.Mutex
	subs    map[string][]*memorySubscription
	started bool
	closed  bool
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

type memorySubscription struct {
	topic   string
	handler HandlerFunc
	opts    SubscribeOptions
	ch      chan *Message
}

// NewMemoryQueue creates an empty in-process queue.
func NewMemoryQueue() *MemoryQueue {
	ctx, cancel := context.WithCancel(context.Background())
	return &MemoryQueue{subs: make(map[string][]*memorySubscription), ctx: ctx, cancel: cancel}
}

// Publish hands a copy of message to every subscriber of topic. Messages of a
// topic without subscribers are dropped.
func (q *MemoryQueue) Publish(ctx context.Context, topic string, message *Message) error {
	if message == nil {
		return errors.New("message is nil")
	}
	if topic == "" {
		return errors.New("topic is required")
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return errors.New("message queue is closed")
	}
	subs := q.subs[topic]
	q.mu.Unlock()

	for _, sub := range subs {
		m := *message
		select {
		case sub.ch <- &m:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribe registers handler for topic.
func (q *MemoryQueue) Subscribe(_ context.Context, topic string, handler HandlerFunc, opts *SubscribeOptions) error {
	if topic == "" {
		return errors.New("topic is required")
	}
	if handler == nil {
		return errors.New("handler is required")
	}
	var options SubscribeOptions
	if opts != nil {
		options = *opts
	}
	options.SetDefaults()
	sub := &memorySubscription{
		topic:   topic,
		handler: handler,
		opts:    options,
		ch:      make(chan *Message, 64),
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return errors.New("message queue is closed")
	}
	q.subs[topic] = append(q.subs[topic], sub)
	if q.started {
		q.run(sub)
	}
	return nil
}

// Start begins delivery.
func (q *MemoryQueue) Start() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return errors.New("message queue is closed")
	}
	if q.started {
		return nil
	}
	for _, subs := range q.subs {
		for _, sub := range subs {
			q.run(sub)
		}
	}
	q.started = true
	return nil
}

func (q *MemoryQueue) run(sub *memorySubscription) {
	for i := 0; i < sub.opts.Concurrency; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for {
				select {
				case <-q.ctx.Done():
					return
				case m := <-sub.ch:
					if lim := sub.opts.Limiter; lim != nil {
						if err := lim.Acquire(q.ctx); err != nil {
							return
						}
					}
					deliver(q.ctx, q, sub.topic, sub.handler, sub.opts, m)
					if lim := sub.opts.Limiter; lim != nil {
						lim.Release()
					}
				}
			}
		}()
	}
}

// Stop cancels delivery and waits for running handlers.
func (q *MemoryQueue) Stop() error {
	q.cancel()
	q.wg.Wait()
	return nil
}

func (q *MemoryQueue) Ping(context.Context) error { return nil }

// Close stops delivery and rejects further publishing.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	return q.Stop()
}
