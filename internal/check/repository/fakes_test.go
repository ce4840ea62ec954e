package repository_test

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"structcheck/internal/common/cache"
	"structcheck/internal/common/db"
	"structcheck/internal/common/mq"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
)

func newCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := cache.NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	if err != nil {
		t.Fatalf("NewRedisCacheWithClient error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

type structureRow struct {
	id        int64
	login     string
	kind      string
	lastSaved time.Time
	code      string
}

// fakeDB understands the handful of statements issued against structure_infos.
type fakeDB struct {
	mu      sync.Mutex
	rows    []structureRow
	nextID  int64
	selects int
	// raceInsert makes the next INSERT lose to a concurrent writer.
	raceInsert bool
	failExec   error
}

var _ db.Database = (*fakeDB)(nil)

func (f *fakeDB) find(login, k string) (structureRow, bool) {
	for _, r := range f.rows {
		if r.login == login && r.kind == k {
			return r, true
		}
	}
	return structureRow{}, false
}

func (f *fakeDB) Query(context.Context, string, ...interface{}) (db.Rows, error) {
	return nil, fmt.Errorf("Query is not supported")
}

func (f *fakeDB) QueryRow(_ context.Context, query string, args ...interface{}) db.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selects++
	r, ok := f.find(args[0].(string), args[1].(string))
	if !ok {
		return fakeRow{err: sql.ErrNoRows}
	}
	if strings.HasPrefix(query, "SELECT id FROM") {
		return fakeRow{values: []interface{}{r.id}}
	}
	return fakeRow{values: []interface{}{r.id, r.login, r.kind, r.lastSaved, r.code}}
}

func (f *fakeDB) Exec(_ context.Context, query string, args ...interface{}) (db.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failExec != nil {
		return nil, f.failExec
	}
	switch {
	case strings.HasPrefix(query, "INSERT"):
		login, k := args[0].(string), args[1].(string)
		if f.raceInsert {
			f.raceInsert = false
			f.nextID++
			f.rows = append(f.rows, structureRow{id: f.nextID, login: login, kind: k, code: "concurrent"})
			return nil, &mysql.MySQLError{Number: 1062, Message: "Duplicate entry for key 'uk_login_type'"}
		}
		if _, ok := f.find(login, k); ok {
			return nil, &mysql.MySQLError{Number: 1062, Message: "Duplicate entry for key 'uk_login_type'"}
		}
		f.nextID++
		f.rows = append(f.rows, structureRow{
			id: f.nextID, login: login, kind: k,
			lastSaved: args[2].(time.Time), code: args[3].(string),
		})
		return fakeResult{id: f.nextID}, nil
	case strings.HasPrefix(query, "UPDATE"):
		id := args[2].(int64)
		for i := range f.rows {
			if f.rows[i].id == id {
				f.rows[i].code = args[0].(string)
				f.rows[i].lastSaved = args[1].(time.Time)
				return fakeResult{id: id, affected: 1}, nil
			}
		}
		return fakeResult{}, nil
	}
	return nil, fmt.Errorf("unexpected statement %q", query)
}

func (f *fakeDB) Transaction(ctx context.Context, fn func(tx db.Transaction) error) error {
	return fn(f)
}

func (f *fakeDB) Ping(context.Context) error { return nil }
func (f *fakeDB) Close() error               { return nil }

type fakeRow struct {
	values []interface{}
	err    error
}

func (r fakeRow) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = r.values[i].(int64)
		case *string:
			*p = r.values[i].(string)
		case *time.Time:
			*p = r.values[i].(time.Time)
		default:
			return fmt.Errorf("unsupported scan target %T", d)
		}
	}
	return nil
}

type fakeResult struct {
	id       int64
	affected int64
}

func (r fakeResult) LastInsertId() (int64, error) { return r.id, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.affected, nil }

type published struct {
	topic   string
	message *mq.Message
}

type fakeProducer struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (p *fakeProducer) Publish(_ context.Context, topic string, message *mq.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, published{topic: topic, message: message})
	return nil
}
