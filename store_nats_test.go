package gateway

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
)

type stubKVEntry struct {
	key   string
	value []byte
	op    nats.KeyValueOp
}

func (e *stubKVEntry) Bucket() string             { return natsCacheBucket }
func (e *stubKVEntry) Key() string                { return e.key }
func (e *stubKVEntry) Value() []byte              { return e.value }
func (e *stubKVEntry) Revision() uint64           { return 1 }
func (e *stubKVEntry) Created() time.Time         { return time.Now() }
func (e *stubKVEntry) Delta() uint64              { return 0 }
func (e *stubKVEntry) Operation() nats.KeyValueOp { return e.op }

type stubKeyValue struct {
	data   map[string][]byte
	getErr error
	putErr error
	purged []string
}

func newStubKeyValue() *stubKeyValue {
	return &stubKeyValue{data: make(map[string][]byte)}
}

func (kv *stubKeyValue) Get(key string) (nats.KeyValueEntry, error) {
	if kv.getErr != nil {
		return nil, kv.getErr
	}
	body, ok := kv.data[key]
	if !ok {
		return nil, nats.ErrKeyNotFound
	}
	return &stubKVEntry{key: key, value: body, op: nats.KeyValuePut}, nil
}

func (kv *stubKeyValue) Put(key string, value []byte) (uint64, error) {
	if kv.putErr != nil {
		return 0, kv.putErr
	}
	kv.data[key] = cloneBytes(value)
	return 1, nil
}

func (kv *stubKeyValue) Purge(key string, _ ...nats.DeleteOpt) error {
	delete(kv.data, key)
	kv.purged = append(kv.purged, key)
	return nil
}

func TestNATSStoreRoundTrip(t *testing.T) {
	kv := newStubKeyValue()
	store := newNATSStore(kv, time.Minute, "app")
	ctx := context.Background()

	if err := store.Ready(ctx); err != nil {
		t.Fatalf("ready failed: %v", err)
	}
	if err := store.Set(ctx, "some key/with:specials", []byte("v1"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	body, ok, err := store.Get(ctx, "some key/with:specials")
	if err != nil || !ok {
		t.Fatalf("get failed: %v %v", ok, err)
	}
	if string(body) != "v1" {
		t.Fatalf("unexpected value %q", body)
	}
}

func TestNATSStoreMiss(t *testing.T) {
	store := newNATSStore(newStubKeyValue(), time.Minute, "app")
	_, ok, err := store.Get(context.Background(), "absent")
	if err != nil || ok {
		t.Fatalf("expected clean miss, got %v %v", ok, err)
	}
}

func TestNATSStoreEnvelopeExpiry(t *testing.T) {
	kv := newStubKeyValue()
	store := newNATSStore(kv, time.Minute, "app").(*natsStore)
	ctx := context.Background()

	// ttl <= 0 falls back to the default, so plant an already-expired
	// envelope directly to exercise the purge path.
	expired, err := json.Marshal(natsEnvelope{
		Marker:    natsEnvelopeMarker,
		Value:     []byte("v"),
		ExpiresAt: time.Now().Add(-time.Second).UnixMilli(),
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	kv.data[store.cacheKey("k")] = expired

	_, ok, err := store.Get(ctx, "k")
	if err != nil || ok {
		t.Fatalf("expected expired entry to miss, got %v %v", ok, err)
	}
	if len(kv.purged) != 1 {
		t.Fatalf("expected expired key to be purged, purged=%v", kv.purged)
	}
}

func TestNATSStoreRejectsForeignPayload(t *testing.T) {
	kv := newStubKeyValue()
	store := newNATSStore(kv, time.Minute, "app").(*natsStore)
	kv.data[store.cacheKey("k")] = []byte(`{"m":"other","v":null,"ea":0}`)

	_, _, err := store.Get(context.Background(), "k")
	if err == nil {
		t.Fatalf("expected marker mismatch error")
	}
}

func TestNATSStoreDeletedEntryIsMiss(t *testing.T) {
	kv := newStubKeyValue()
	store := newNATSStore(kv, time.Minute, "app")
	kv.getErr = nats.ErrKeyDeleted

	_, ok, err := store.Get(context.Background(), "k")
	if err != nil || ok {
		t.Fatalf("expected deleted key to miss, got %v %v", ok, err)
	}
}

func TestNATSStoreNilKeyValue(t *testing.T) {
	store := newNATSStore(nil, time.Minute, "app")
	if err := store.Ready(context.Background()); err == nil {
		t.Fatalf("expected error from nil key-value")
	}
}
