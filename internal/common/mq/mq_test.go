package mq_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"structcheck/internal/common/mq"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMemoryQueueDelivers(t *testing.T) {
	t.Parallel()

	q := mq.NewMemoryQueue()
	defer q.Close()

	var mu sync.Mutex
	var got []string
	err := q.Subscribe(context.Background(), "checks", func(_ context.Context, m *mq.Message) error {
		mu.Lock()
		got = append(got, string(m.Body))
		mu.Unlock()
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	if err := q.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	for _, body := range []string{"a", "b"} {
		if err := q.Publish(context.Background(), "checks", mq.NewMessage([]byte(body))); err != nil {
			t.Fatalf("Publish error: %v", err)
		}
	}
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	})
}

func TestMemoryQueueRetriesThenDeadLetters(t *testing.T) {
	t.Parallel()

	q := mq.NewMemoryQueue()
	defer q.Close()

	var attempts atomic.Int32
	var dead atomic.Int32
	_ = q.Subscribe(context.Background(), "checks", func(context.Context, *mq.Message) error {
		attempts.Add(1)
		return errors.New("boom")
	}, &mq.SubscribeOptions{MaxRetries: 2, RetryDelay: time.Millisecond, DeadLetterTopic: "checks.dead"})
	_ = q.Subscribe(context.Background(), "checks.dead", func(context.Context, *mq.Message) error {
		dead.Add(1)
		return nil
	}, nil)
	_ = q.Start()

	msg := mq.NewMessage([]byte("x"))
	msg.MaxRetries = 0
	if err := q.Publish(context.Background(), "checks", msg); err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	waitFor(t, func() bool { return dead.Load() == 1 })
	if attempts.Load() != 3 {
		t.Fatalf("attempts = %d, want 3", attempts.Load())
	}
}

func TestMemoryQueueDropsExpired(t *testing.T) {
	t.Parallel()

	q := mq.NewMemoryQueue()
	defer q.Close()

	var handled atomic.Int32
	_ = q.Subscribe(context.Background(), "checks", func(context.Context, *mq.Message) error {
		handled.Add(1)
		return nil
	}, nil)
	_ = q.Start()

	old := mq.NewMessage([]byte("old"))
	old.Timestamp = time.Now().Add(-time.Hour)
	old.Expiration = time.Minute
	_ = q.Publish(context.Background(), "checks", old)
	_ = q.Publish(context.Background(), "checks", mq.NewMessage([]byte("fresh")))
	waitFor(t, func() bool { return handled.Load() == 1 })
	time.Sleep(20 * time.Millisecond)
	if handled.Load() != 1 {
		t.Fatalf("expired message was handled")
	}
}

func TestMemoryQueueClosed(t *testing.T) {
	t.Parallel()

	q := mq.NewMemoryQueue()
	_ = q.Close()
	if err := q.Publish(context.Background(), "checks", mq.NewMessage(nil)); err == nil {
		t.Fatalf("Publish on closed queue succeeded")
	}
}

func TestTokenLimiter(t *testing.T) {
	t.Parallel()

	l := mq.NewTokenLimiter(1)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("second Acquire = %v, want deadline exceeded", err)
	}
	l.Release()
	l.Release()
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire after release error: %v", err)
	}
}

func TestMessageHeaders(t *testing.T) {
	t.Parallel()

	m := &mq.Message{}
	if _, ok := m.GetHeader("x"); ok {
		t.Fatalf("header on empty message")
	}
	m.SetHeader("x", "1")
	if v, ok := m.GetHeader("x"); !ok || v != "1" {
		t.Fatalf("GetHeader = %q, %v", v, ok)
	}
}
