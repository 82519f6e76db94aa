package gateway

import (
	"context"
	"errors"
	"time"
)

var errTest = errors.New("boom")

// stubStore is an in-memory Store used by gateway and adapter tests.
type stubStore struct {
	data map[string][]byte

	readyErr error
	getErr   error
	setErr   error

	sets int
	gets int
}

func newStubStore() *stubStore {
	return &stubStore{data: make(map[string][]byte)}
}

func (s *stubStore) Driver() Driver { return Driver("stub") }

func (s *stubStore) Ready(context.Context) error { return s.readyErr }

func (s *stubStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.gets++
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	body, ok := s.data[key]
	return body, ok, nil
}

func (s *stubStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.sets++
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = cloneBytes(value)
	return nil
}

// fakeHandler records calls and returns a canned result or error.
type fakeHandler struct {
	backend Backend
	result  any
	err     error
	panics  bool
	calls   int
}

func (h *fakeHandler) Backend() Backend { return h.backend }

func (h *fakeHandler) Execute(context.Context, Request) (any, error) {
	h.calls++
	if h.panics {
		panic("driver blew up")
	}
	return h.result, h.err
}
