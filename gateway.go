package gateway

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Gateway is the single entry point for database requests. It owns the
// immutable configuration, the dispatch table, and the cache adapter's
// lifetime. Each Receive call is independent; the Gateway itself holds
// no per-request state and is safe for concurrent use.
type Gateway struct {
	cfg      Config
	router   *router
	cache    *cacheAdapter
	observer Observer
	log      *slog.Logger
}

type gatewayOptions struct {
	logger     *slog.Logger
	observer   Observer
	cacheStore Store
	handlers   []Handler
}

// Option customizes Gateway construction.
type Option func(*gatewayOptions)

// WithLogger sets the structured logger. Nil uses a discard logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *gatewayOptions) { o.logger = log }
}

// WithObserver attaches a per-request event hook.
func WithObserver(obs Observer) Option {
	return func(o *gatewayOptions) { o.observer = obs }
}

// WithCacheStore injects a pre-built cache store, bypassing the
// config-driven store construction.
func WithCacheStore(store Store) Option {
	return func(o *gatewayOptions) { o.cacheStore = store }
}

// WithHandler replaces the handler for the backend kind it reports.
func WithHandler(h Handler) Option {
	return func(o *gatewayOptions) { o.handlers = append(o.handlers, h) }
}

// New constructs a Gateway. The cache store, when enabled, is probed
// once; an unreachable store is logged and dropped so requests fall
// through to the backends.
func New(ctx context.Context, cfg Config, opts ...Option) *Gateway {
	cfg = cfg.withDefaults()
	var o gatewayOptions
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	handlers := []Handler{
		newSQLiteHandler(cfg.SQLite, log),
		newPostgresHandler(cfg.PostgreSQL, log),
		newMySQLHandler(cfg.MySQL, log),
		newMongoHandler(cfg.MongoDB, log),
	}
	handlers = append(handlers, o.handlers...)

	g := &Gateway{
		cfg:      cfg,
		router:   newRouter(handlers...),
		observer: o.observer,
		log:      log,
	}

	store := o.cacheStore
	if store == nil && cfg.Cache.Enabled {
		store = storeFromCacheConfig(ctx, cfg.Cache)
	}
	if store != nil {
		if err := store.Ready(ctx); err != nil {
			log.Warn("cache unavailable, continuing without it",
				slog.String("driver", string(store.Driver())),
				slog.String("error", err.Error()))
		} else {
			g.cache = newCacheAdapter(store, cfg.Cache.TTL(), log)
			log.Info("cache connected", slog.String("driver", string(store.Driver())))
		}
	}
	return g
}

// storeFromCacheConfig builds the configured cache store. Drivers that
// fail to construct come back as errorStore and are rejected by the
// Ready probe in New.
func storeFromCacheConfig(ctx context.Context, cfg CacheConfig) Store {
	switch cfg.Driver {
	case DriverRedis:
		return newRedisStoreFromConfig(cfg)
	case DriverNATS:
		return newNATSStoreFromConfig(cfg)
	case DriverDynamo:
		return NewStore(ctx, StoreConfig{
			Driver:         DriverDynamo,
			DefaultTTL:     cfg.TTL(),
			Prefix:         cfg.Prefix,
			DynamoEndpoint: fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port),
		})
	default:
		return NewStore(ctx, StoreConfig{
			Driver:     cfg.Driver,
			DefaultTTL: cfg.TTL(),
			Prefix:     cfg.Prefix,
		})
	}
}

// Receive processes one request mapping and always returns a well-formed
// envelope; no failure anywhere in the pipeline escapes to the caller.
func (g *Gateway) Receive(raw map[string]any) map[string]any {
	return g.ReceiveCtx(context.Background(), raw)
}

// ReceiveCtx is the context-aware variant of Receive.
func (g *Gateway) ReceiveCtx(ctx context.Context, raw map[string]any) (envelope map[string]any) {
	start := time.Now()

	// Native drivers are the only code here that may panic; convert
	// that to an error envelope like any other failure.
	defer func() {
		if r := recover(); r != nil {
			g.log.Error("request processing panicked", slog.Any("panic", r))
			envelope = errorEnvelope(fmt.Sprintf("request processing failed: %v", r))
		}
	}()

	req, err := parseRequest(raw)
	if err != nil {
		return g.fail(ctx, req, start, err)
	}
	g.log.Info("processing request",
		slog.String("db_type", string(req.Backend)),
		slog.String("operation", req.Operation))

	if req.CacheKey != "" && g.cache != nil {
		if value, outcome := g.cache.lookup(ctx, req.CacheKey); outcome == lookupHit {
			g.log.Info("cache hit, returning cached result", slog.String("key", req.CacheKey))
			g.observe(ctx, req, true, nil, start)
			return successEnvelope(value, true)
		}
		// miss and unavailable both fall through to the backend
	}

	handler, err := g.router.route(req)
	if err != nil {
		return g.fail(ctx, req, start, err)
	}
	result, err := handler.Execute(ctx, req)
	if err != nil {
		return g.fail(ctx, req, start, err)
	}

	if req.CacheKey != "" && g.cache != nil && cacheableResult(result) {
		g.cache.storeResult(ctx, req.CacheKey, result)
	}

	g.observe(ctx, req, false, nil, start)
	return successEnvelope(result, false)
}

func (g *Gateway) fail(ctx context.Context, req Request, start time.Time, err error) map[string]any {
	g.log.Error("request processing failed",
		slog.String("db_type", string(req.Backend)),
		slog.String("error", err.Error()))
	g.observe(ctx, req, false, err, start)
	return errorEnvelope(err.Error())
}

func (g *Gateway) observe(ctx context.Context, req Request, fromCache bool, err error, start time.Time) {
	if g.observer == nil {
		return
	}
	g.observer.OnRequest(ctx, req.Backend, req.Operation, fromCache, err, time.Since(start))
}
