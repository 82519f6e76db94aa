package gateway

// router is the fixed dispatch table from backend kind to handler. It
// delegates and nothing else; handlers own their availability checks.
type router struct {
	handlers map[Backend]Handler
}

func newRouter(handlers ...Handler) *router {
	table := make(map[Backend]Handler, len(handlers))
	for _, h := range handlers {
		table[h.Backend()] = h
	}
	return &router{handlers: table}
}

// route resolves the handler for the request's backend kind. An unknown
// kind fails here; a known-but-disabled backend fails inside the handler.
func (r *router) route(req Request) (Handler, error) {
	h, ok := r.handlers[req.Backend]
	if !ok {
		return nil, &UnsupportedBackendError{Kind: string(req.Backend)}
	}
	return h, nil
}
