package gateway

import "context"

// Handler executes one request against one backend kind. A handler opens
// a dedicated connection per call and releases it on every exit path.
type Handler interface {
	Backend() Backend
	Execute(ctx context.Context, req Request) (any, error)
}
