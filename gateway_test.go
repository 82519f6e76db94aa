package gateway

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func newTestGateway(t *testing.T, store Store, handlers ...Handler) *Gateway {
	t.Helper()
	opts := []Option{}
	if store != nil {
		opts = append(opts, WithCacheStore(store))
	}
	for _, h := range handlers {
		opts = append(opts, WithHandler(h))
	}
	return New(context.Background(), DefaultConfig(), opts...)
}

func TestReceiveSuccessEnvelope(t *testing.T) {
	handler := &fakeHandler{backend: BackendSQLite, result: []map[string]any{{"id": int64(1)}}}
	g := newTestGateway(t, nil, handler)

	resp := g.Receive(map[string]any{"db_type": "SQLITE", "operation": "select", "query": "SELECT 1"})
	if resp["status"] != "success" {
		t.Fatalf("expected success, got %v", resp)
	}
	if resp["from_cache"] != false {
		t.Fatalf("expected from_cache false, got %v", resp["from_cache"])
	}
	if _, hasErr := resp["error"]; hasErr {
		t.Fatalf("success envelope must not carry an error field")
	}
	ts, ok := resp["timestamp"].(string)
	if !ok || ts == "" {
		t.Fatalf("expected timestamp, got %v", resp["timestamp"])
	}
	if _, err := time.Parse(time.RFC3339Nano, ts); err != nil {
		t.Fatalf("timestamp not RFC3339: %v", err)
	}
	if handler.calls != 1 {
		t.Fatalf("expected one handler call, got %d", handler.calls)
	}
}

func TestReceiveUnsupportedBackend(t *testing.T) {
	g := newTestGateway(t, nil)
	resp := g.Receive(map[string]any{"db_type": "oracle", "operation": "select"})
	if resp["status"] != "error" {
		t.Fatalf("expected error envelope, got %v", resp)
	}
	msg, _ := resp["error"].(string)
	if !strings.Contains(msg, "oracle") || !strings.Contains(msg, "unsupported") {
		t.Fatalf("expected message naming the unsupported type, got %q", msg)
	}
	if _, hasData := resp["data"]; hasData {
		t.Fatalf("error envelope must not carry data")
	}
}

func TestReceiveAllBackendsDisabled(t *testing.T) {
	cfg := Config{} // every Enabled flag false
	g := New(context.Background(), cfg)
	for _, dbType := range []string{"sqlite", "postgresql", "mysql", "mongodb"} {
		resp := g.Receive(map[string]any{"db_type": dbType, "operation": "select", "query": "SELECT 1"})
		if resp["status"] != "error" {
			t.Fatalf("%s: expected error envelope, got %v", dbType, resp)
		}
		msg, _ := resp["error"].(string)
		if !strings.Contains(msg, "not available or not enabled") {
			t.Fatalf("%s: expected unavailability message, got %q", dbType, msg)
		}
	}
}

func TestReceiveParseFailure(t *testing.T) {
	g := newTestGateway(t, nil)
	resp := g.Receive(nil)
	if resp["status"] != "error" {
		t.Fatalf("expected error envelope, got %v", resp)
	}
	resp = g.Receive(map[string]any{"db_type": "sqlite", "parameters": "nope"})
	if resp["status"] != "error" {
		t.Fatalf("expected error envelope for bad parameters, got %v", resp)
	}
}

func TestReceiveCacheReadThrough(t *testing.T) {
	store := newStubStore()
	handler := &fakeHandler{backend: BackendSQLite, result: []map[string]any{{"n": float64(1)}}}
	g := newTestGateway(t, store, handler)

	raw := map[string]any{"db_type": "sqlite", "operation": "select", "query": "SELECT 1", "cache_key": "q1"}

	first := g.Receive(raw)
	if first["status"] != "success" || first["from_cache"] != false {
		t.Fatalf("unexpected first response: %v", first)
	}
	second := g.Receive(raw)
	if second["status"] != "success" || second["from_cache"] != true {
		t.Fatalf("unexpected second response: %v", second)
	}
	if handler.calls != 1 {
		t.Fatalf("expected cache hit to short-circuit the backend, calls=%d", handler.calls)
	}

	firstData, _ := json.Marshal(first["data"])
	secondData, _ := json.Marshal(second["data"])
	if string(firstData) != string(secondData) {
		t.Fatalf("cached data diverged: %s vs %s", firstData, secondData)
	}
}

func TestReceiveCacheUnreachableFallsThrough(t *testing.T) {
	store := newStubStore()
	store.getErr = errTest
	store.setErr = errTest
	handler := &fakeHandler{backend: BackendSQLite, result: []map[string]any{}}
	g := newTestGateway(t, store, handler)

	raw := map[string]any{"db_type": "sqlite", "operation": "select", "query": "SELECT 1", "cache_key": "q1"}
	for i := 0; i < 2; i++ {
		resp := g.Receive(raw)
		if resp["status"] != "success" || resp["from_cache"] != false {
			t.Fatalf("call %d: expected backend success, got %v", i, resp)
		}
	}
	if handler.calls != 2 {
		t.Fatalf("expected both calls to reach the backend, calls=%d", handler.calls)
	}
}

func TestReceiveCacheWriteFailureSwallowed(t *testing.T) {
	store := newStubStore()
	store.setErr = errTest
	handler := &fakeHandler{backend: BackendSQLite, result: map[string]any{"affected_rows": int64(1)}}
	g := newTestGateway(t, store, handler)

	resp := g.Receive(map[string]any{"db_type": "sqlite", "operation": "insert", "query": "INSERT", "cache_key": "w1"})
	if resp["status"] != "success" {
		t.Fatalf("cache write failure must not fail the request: %v", resp)
	}
}

func TestReceiveErrorsNotCached(t *testing.T) {
	store := newStubStore()
	handler := &fakeHandler{backend: BackendSQLite, err: errTest}
	g := newTestGateway(t, store, handler)

	resp := g.Receive(map[string]any{"db_type": "sqlite", "operation": "select", "query": "SELECT 1", "cache_key": "bad"})
	if resp["status"] != "error" {
		t.Fatalf("expected error envelope, got %v", resp)
	}
	if store.sets != 0 {
		t.Fatalf("error results must never be cached, sets=%d", store.sets)
	}
}

func TestReceiveEmptyResultNotCached(t *testing.T) {
	store := newStubStore()
	handler := &fakeHandler{backend: BackendSQLite, result: []map[string]any{}}
	g := newTestGateway(t, store, handler)

	raw := map[string]any{"db_type": "sqlite", "operation": "select", "query": "SELECT 1", "cache_key": "empty"}
	for i := 0; i < 2; i++ {
		resp := g.Receive(raw)
		if resp["status"] != "success" || resp["from_cache"] != false {
			t.Fatalf("call %d: empty results must not be served from cache, got %v", i, resp)
		}
	}
	if store.sets != 0 {
		t.Fatalf("empty result must not be cached, sets=%d", store.sets)
	}
	if handler.calls != 2 {
		t.Fatalf("expected both calls to reach the backend, calls=%d", handler.calls)
	}
}

func TestReceiveNoCacheKeySkipsCache(t *testing.T) {
	store := newStubStore()
	handler := &fakeHandler{backend: BackendSQLite, result: []map[string]any{}}
	g := newTestGateway(t, store, handler)

	g.Receive(map[string]any{"db_type": "sqlite", "operation": "select", "query": "SELECT 1"})
	if store.gets != 0 || store.sets != 0 {
		t.Fatalf("expected no cache traffic, gets=%d sets=%d", store.gets, store.sets)
	}
}

func TestReceiveRecoversFromPanic(t *testing.T) {
	handler := &fakeHandler{backend: BackendSQLite, panics: true}
	g := newTestGateway(t, nil, handler)

	resp := g.Receive(map[string]any{"db_type": "sqlite", "operation": "select", "query": "SELECT 1"})
	if resp["status"] != "error" {
		t.Fatalf("expected panic to become an error envelope, got %v", resp)
	}
	msg, _ := resp["error"].(string)
	if !strings.Contains(msg, "driver blew up") {
		t.Fatalf("expected panic message in envelope, got %q", msg)
	}
}

func TestNewDropsUnreadyCacheStore(t *testing.T) {
	store := newStubStore()
	store.readyErr = errTest
	handler := &fakeHandler{backend: BackendSQLite, result: []map[string]any{}}
	g := newTestGateway(t, store, handler)

	if g.cache != nil {
		t.Fatalf("expected unready cache store to be dropped")
	}
	resp := g.Receive(map[string]any{"db_type": "sqlite", "operation": "select", "query": "SELECT 1", "cache_key": "k"})
	if resp["status"] != "success" || resp["from_cache"] != false {
		t.Fatalf("expected backend fallthrough, got %v", resp)
	}
}

func TestObserverSeesRequests(t *testing.T) {
	var events []string
	obs := ObserverFunc(func(_ context.Context, backend Backend, op string, fromCache bool, err error, _ time.Duration) {
		state := "ok"
		if err != nil {
			state = "err"
		}
		if fromCache {
			state += "+cache"
		}
		events = append(events, string(backend)+"/"+op+"/"+state)
	})

	store := newStubStore()
	handler := &fakeHandler{backend: BackendSQLite, result: []map[string]any{{"n": int64(1)}}}
	g := New(context.Background(), DefaultConfig(),
		WithCacheStore(store), WithHandler(handler), WithObserver(obs))

	raw := map[string]any{"db_type": "sqlite", "operation": "select", "query": "SELECT 1", "cache_key": "k"}
	g.Receive(raw)
	g.Receive(raw)
	g.Receive(map[string]any{"db_type": "oracle"})

	want := []string{"sqlite/select/ok", "sqlite/select/ok+cache", "oracle//err"}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("event %d: want %q, got %q", i, want[i], events[i])
		}
	}
}
