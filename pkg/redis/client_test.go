package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	allowed, count, err := client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Fatalf("expected allowed on first request")
	}
	if count != 1 {
		t.Fatalf("expected counter 1 got %d", count)
	}
	if len(mock.expireCalls) != 1 || mock.expireCalls[0].key != "ap:rate_limit:test-scope" {
		t.Fatalf("expected expire for first increment, got %+v", mock.expireCalls)
	}

	allowed, count, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 2 {
		t.Fatalf("unexpected second call state allowed=%v count=%d", allowed, count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expire should not be set again")
	}

	allowed, _, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("expected limit reached")
	}
}

func TestCompareAndDelete(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	if ok, err := client.SetNX(ctx, "ap:lock:job", "owner-a", time.Minute); err != nil || !ok {
		t.Fatalf("setnx failed ok=%v err=%v", ok, err)
	}
	removed, err := client.CompareAndDelete(ctx, "ap:lock:job", "owner-b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed {
		t.Fatal("lock held by another owner must not be removed")
	}
	removed, err = client.CompareAndDelete(ctx, "ap:lock:job", "owner-a")
	if err != nil || !removed {
		t.Fatalf("expected owner delete, removed=%v err=%v", removed, err)
	}
	if _, err := client.Get(ctx, "ap:lock:job"); !errors.Is(err, Nil) {
		t.Fatalf("expected Nil after delete, got %v", err)
	}
}

func TestStreamHelpers(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	if err := client.EnsureGroup(ctx, "ap:mail", "workers"); err != nil {
		t.Fatalf("ensure group: %v", err)
	}
	mock.groupErr = errors.New("BUSYGROUP Consumer Group name already exists")
	if err := client.EnsureGroup(ctx, "ap:mail", "workers"); err != nil {
		t.Fatalf("existing group should not error: %v", err)
	}

	id, err := client.XAdd(ctx, "ap:mail", map[string]any{"to": "a@x.com"})
	if err != nil || id == "" {
		t.Fatalf("xadd id=%q err=%v", id, err)
	}

	msgs, err := client.ReadGroup(ctx, "ap:mail", "workers", "c1", 10, time.Millisecond)
	if err != nil {
		t.Fatalf("read group: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Values["to"] != "a@x.com" {
		t.Fatalf("unexpected messages %+v", msgs)
	}

	if err := client.Ack(ctx, "ap:mail", "workers", msgs[0].ID); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if len(mock.acked) != 1 || mock.acked[0] != msgs[0].ID {
		t.Fatalf("expected ack of %s, got %v", msgs[0].ID, mock.acked)
	}

	msgs, err = client.ReadGroup(ctx, "ap:mail", "workers", "c1", 10, time.Millisecond)
	if err != nil || len(msgs) != 0 {
		t.Fatalf("expected empty read, got %v err=%v", msgs, err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("scope", "id"); got != "ap:idempotency:scope:id" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.RateLimitKey("scope"); got != "ap:rate_limit:scope" {
		t.Fatalf("unexpected rate limit key %s", got)
	}
	if got := client.LockKey("cron"); got != "ap:lock:cron" {
		t.Fatalf("unexpected lock key %s", got)
	}
	if got := client.IdempotencyKey("", "id"); got != "ap:idempotency:id" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close on uninitialized client should be a no-op: %v", err)
	}
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	expireCalls []expireCall
	stream      []redis.XMessage
	acked       []string
	groupErr    error
	seq         int
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

// The mock only ever runs the compare-and-delete script.
func (m *mockCmdable) EvalSha(ctx context.Context, sha1 string, keys []string, args ...any) *redis.Cmd {
	return m.compareAndDelete(keys, args)
}

func (m *mockCmdable) Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	return m.compareAndDelete(keys, args)
}

func (m *mockCmdable) EvalRO(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	return m.compareAndDelete(keys, args)
}

func (m *mockCmdable) EvalShaRO(ctx context.Context, sha1 string, keys []string, args ...any) *redis.Cmd {
	return m.compareAndDelete(keys, args)
}

func (m *mockCmdable) ScriptExists(ctx context.Context, hashes ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult(make([]bool, len(hashes)), nil)
}

func (m *mockCmdable) ScriptLoad(ctx context.Context, script string) *redis.StringCmd {
	return redis.NewStringResult("sha", nil)
}

func (m *mockCmdable) compareAndDelete(keys []string, args []any) *redis.Cmd {
	if v, ok := m.data[keys[0]]; ok && v == fmt.Sprint(args[0]) {
		delete(m.data, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func (m *mockCmdable) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	m.seq++
	id := fmt.Sprintf("%d-0", m.seq)
	m.stream = append(m.stream, redis.XMessage{ID: id, Values: a.Values.(map[string]any)})
	return redis.NewStringResult(id, nil)
}

func (m *mockCmdable) XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd {
	if m.groupErr != nil {
		return redis.NewStatusResult("", m.groupErr)
	}
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	if len(m.stream) == 0 {
		return redis.NewXStreamSliceCmdResult(nil, redis.Nil)
	}
	msgs := m.stream
	m.stream = nil
	return redis.NewXStreamSliceCmdResult([]redis.XStream{{Stream: a.Streams[0], Messages: msgs}}, nil)
}

func (m *mockCmdable) XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd {
	m.acked = append(m.acked, ids...)
	return redis.NewIntResult(int64(len(ids)), nil)
}

func (m *mockCmdable) XAutoClaim(ctx context.Context, a *redis.XAutoClaimArgs) *redis.XAutoClaimCmd {
	cmd := redis.NewXAutoClaimCmd(ctx)
	cmd.SetVal(nil, "0-0")
	return cmd
}
