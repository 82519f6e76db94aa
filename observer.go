package gateway

import (
	"context"
	"time"
)

// Observer receives one event per completed request, after the envelope
// is built. Hook for metrics; never on the failure path itself.
type Observer interface {
	OnRequest(ctx context.Context, backend Backend, operation string, fromCache bool, err error, dur time.Duration)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, backend Backend, operation string, fromCache bool, err error, dur time.Duration)

// OnRequest implements Observer.
func (f ObserverFunc) OnRequest(ctx context.Context, backend Backend, operation string, fromCache bool, err error, dur time.Duration) {
	if f == nil {
		return
	}
	f(ctx, backend, operation, fromCache, err, dur)
}
