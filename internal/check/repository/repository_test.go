package repository_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"structcheck/internal/check/kind"
	"structcheck/internal/check/model"
	"structcheck/internal/check/repository"
	"structcheck/internal/check/verdict"
	"structcheck/internal/common/storage"
	appErr "structcheck/pkg/errors"
)

func TestStatusRepositorySaveGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, mr := newCache(t)
	repo := repository.NewStatusRepository(c, time.Minute)

	if _, err := repo.Get(ctx, "missing"); appErr.GetCode(err) != appErr.CheckNotFound {
		t.Fatalf("Get(missing) code = %v", appErr.GetCode(err))
	}
	v := verdict.Pending("c-1", kind.Queue, verdict.StatusRunning)
	if err := repo.Save(ctx, v); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	got, err := repo.Get(ctx, "c-1")
	if err != nil || got.Status != verdict.StatusRunning || got.Kind != kind.Queue {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := repo.Get(ctx, "c-1"); appErr.GetCode(err) != appErr.CheckNotFound {
		t.Fatalf("status should expire, code = %v", appErr.GetCode(err))
	}
	if err := repo.Save(ctx, verdict.Verdict{}); appErr.GetCode(err) != appErr.ValidationFailed {
		t.Fatalf("Save without id code = %v", appErr.GetCode(err))
	}
}

func TestStatusRepositoryClaim(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, _ := newCache(t)
	repo := repository.NewStatusRepository(c, time.Minute)
	first, err := repo.Claim(ctx, "c-1")
	if err != nil || !first {
		t.Fatalf("first Claim = %v, %v", first, err)
	}
	second, err := repo.Claim(ctx, "c-1")
	if err != nil || second {
		t.Fatalf("second Claim = %v, %v", second, err)
	}
	if err := repo.Release(ctx, "c-1"); err != nil {
		t.Fatalf("Release error: %v", err)
	}
	again, err := repo.Claim(ctx, "c-1")
	if err != nil || !again {
		t.Fatalf("Claim after release = %v, %v", again, err)
	}
}

func TestStatusEventPublisher(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	producer := &fakeProducer{}
	pub := repository.NewMQStatusEventPublisher(producer, "structcheck.final")

	if err := pub.PublishFinalStatus(ctx, verdict.Pending("c-1", kind.List, verdict.StatusRunning)); appErr.GetCode(err) != appErr.InvalidParams {
		t.Fatalf("non-final status code = %v", appErr.GetCode(err))
	}
	final := verdict.Assemble(verdict.Input{CheckID: "c-1", Kind: kind.List})
	if err := pub.PublishFinalStatus(ctx, final); err != nil {
		t.Fatalf("PublishFinalStatus error: %v", err)
	}
	if len(producer.sent) != 1 || producer.sent[0].topic != "structcheck.final" || producer.sent[0].message.ID != "c-1" {
		t.Fatalf("sent = %+v", producer.sent)
	}
	var event model.StatusEvent
	if err := json.Unmarshal(producer.sent[0].message.Body, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.Type != model.StatusEventFinal || event.Verdict.Status != verdict.StatusFinished {
		t.Fatalf("event = %+v", event)
	}

	producer.err = errors.New("broker down")
	if err := pub.PublishFinalStatus(ctx, final); appErr.GetCode(err) != appErr.QueueError {
		t.Fatalf("broker failure code = %v", appErr.GetCode(err))
	}
}

func TestCheckPublisher(t *testing.T) {
	t.Parallel()

	producer := &fakeProducer{}
	pub := repository.NewMQCheckPublisher(producer, "structcheck.requests")
	err := pub.PublishCheck(context.Background(), model.CheckMessage{CheckID: "c-2"})
	if appErr.GetCode(err) != appErr.InvalidParams {
		t.Fatalf("incomplete message code = %v", appErr.GetCode(err))
	}
	msg := model.CheckMessage{CheckID: "c-2", Kind: kind.Stack, SourceKey: "sources/stack/c-2.go.zst"}
	if err := pub.PublishCheck(context.Background(), msg); err != nil {
		t.Fatalf("PublishCheck error: %v", err)
	}
	var got model.CheckMessage
	if err := json.Unmarshal(producer.sent[0].message.Body, &got); err != nil || got != msg {
		t.Fatalf("payload = %+v, %v", got, err)
	}
}

func TestCodeRepositorySaveAndLatest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, _ := newCache(t)
	database := &fakeDB{}
	repo := repository.NewCodeRepository(database, c)

	if _, err := repo.Latest(ctx, "alice", kind.List); appErr.GetCode(err) != appErr.CodeNotFound {
		t.Fatalf("Latest before save code = %v", appErr.GetCode(err))
	}
	// The miss is cached.
	before := database.selects
	if _, err := repo.Latest(ctx, "alice", kind.List); appErr.GetCode(err) != appErr.CodeNotFound {
		t.Fatalf("cached miss code = %v", appErr.GetCode(err))
	}
	if database.selects != before {
		t.Fatalf("cached miss reached the database")
	}

	saved, err := repo.Save(ctx, "alice", kind.List, "v1")
	if err != nil || saved.ID == 0 {
		t.Fatalf("Save = %+v, %v", saved, err)
	}
	got, err := repo.Latest(ctx, "alice", kind.List)
	if err != nil || got.Code != "v1" || got.Kind != kind.List {
		t.Fatalf("Latest after save = %+v, %v", got, err)
	}

	again, err := repo.Save(ctx, "alice", kind.List, "v2")
	if err != nil || again.ID != saved.ID {
		t.Fatalf("second Save = %+v, %v; want same row", again, err)
	}
	got, err = repo.Latest(ctx, "alice", kind.List)
	if err != nil || got.Code != "v2" {
		t.Fatalf("Latest after update = %+v, %v", got, err)
	}
	if len(database.rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(database.rows))
	}
}

func TestCodeRepositoryConcurrentFirstSave(t *testing.T) {
	t.Parallel()

	database := &fakeDB{raceInsert: true}
	repo := repository.NewCodeRepository(database, nil)
	saved, err := repo.Save(context.Background(), "bob", kind.Stack, "mine")
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if len(database.rows) != 1 || database.rows[0].code != "mine" || saved.ID != database.rows[0].id {
		t.Fatalf("rows = %+v, saved = %+v", database.rows, saved)
	}
}

func TestCodeRepositorySaveFailure(t *testing.T) {
	t.Parallel()

	database := &fakeDB{failExec: errors.New("disk full")}
	repo := repository.NewCodeRepository(database, nil)
	_, err := repo.Save(context.Background(), "bob", kind.Stack, "x")
	if appErr.GetCode(err) != appErr.CodeSaveFailed {
		t.Fatalf("code = %v, want CodeSaveFailed", appErr.GetCode(err))
	}
	if _, err := repo.Save(context.Background(), "", kind.Stack, "x"); appErr.GetCode(err) != appErr.ValidationFailed {
		t.Fatalf("empty login code = %v", appErr.GetCode(err))
	}
}

func TestSnapshotStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	objects := storage.NewMemoryStorage()
	store, err := repository.NewSnapshotStore(objects, "sources", 64)
	if err != nil {
		t.Fatalf("NewSnapshotStore error: %v", err)
	}
	src := "package p\n\ntype Stack[T any] struct{}\n"
	key, hash, err := store.Put(ctx, kind.Stack, "c-3", src)
	if err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if key != "sources/stack/c-3.go.zst" || len(hash) != 64 {
		t.Fatalf("key = %q, hash = %q", key, hash)
	}
	stat, err := objects.StatObject(ctx, "sources", key)
	if err != nil || stat.Metadata["sha256"] != hash {
		t.Fatalf("stat = %+v, %v", stat, err)
	}

	got, err := store.Get(ctx, key, strings.ToUpper(hash))
	if err != nil || got != src {
		t.Fatalf("Get = %q, %v", got, err)
	}
	if _, err := store.Get(ctx, key, strings.Repeat("0", 64)); appErr.GetCode(err) != appErr.InvalidParams {
		t.Fatalf("hash mismatch code = %v", appErr.GetCode(err))
	}

	bigKey, _, err := store.Put(ctx, kind.Stack, "c-4", strings.Repeat("x", 65))
	if err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if _, err := store.Get(ctx, bigKey, ""); appErr.GetCode(err) != appErr.CodeTooLarge {
		t.Fatalf("oversized code = %v", appErr.GetCode(err))
	}

	if err := store.Remove(ctx, key); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if _, err := store.Get(ctx, key, ""); appErr.GetCode(err) != appErr.StorageError {
		t.Fatalf("missing object code = %v", appErr.GetCode(err))
	}
}
