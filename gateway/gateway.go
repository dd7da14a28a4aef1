package gateway

import (
	"context"

	"github.com/google/uuid"

	"github.com/jonwraymond/hubsync/breaker"
	"github.com/jonwraymond/hubsync/cache"
	"github.com/jonwraymond/hubsync/credential"
	"github.com/jonwraymond/hubsync/faults"
	"github.com/jonwraymond/hubsync/observe"
	"github.com/jonwraymond/hubsync/ratelimit"
)

// Gateway executes upstream calls through the full resilience chain. Safe
// for concurrent use.
type Gateway struct {
	limiters    *ratelimit.Registry
	breakers    *breaker.Registry
	handler     *faults.Handler
	cache       *cache.Tiered
	keyer       cache.Keyer
	credentials *credential.Manager
	middleware  *observe.Middleware
	metrics     observe.Metrics
	logger      observe.Logger
}

// Option configures a Gateway.
type Option func(*Gateway) error

// New creates a Gateway. With no options every component runs with its
// package defaults and caching is disabled.
func New(opts ...Option) (*Gateway, error) {
	g := &Gateway{
		limiters:   ratelimit.NewRegistry(ratelimit.Config{}),
		breakers:   breaker.NewRegistry(breaker.Config{}),
		handler:    faults.NewHandler(faults.HandlerConfig{}),
		keyer:      cache.NewDefaultKeyer(),
		middleware: observe.NoopMiddleware(),
		metrics:    observe.NopMetrics(),
		logger:     observe.NewLogger("error"),
	}

	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}

	// Breaker transitions carry their class labels into metrics.
	g.breakers.Decorate(func(platform, class string, config breaker.Config) breaker.Config {
		prev := config.OnStateChange
		config.OnStateChange = func(from, to breaker.State) {
			g.metrics.RecordBreakerTransition(context.Background(), platform, class, from.String(), to.String())
			if prev != nil {
				prev(from, to)
			}
		}
		return config
	})

	return g, nil
}

// WithLimiters sets the rate limiter registry.
func WithLimiters(r *ratelimit.Registry) Option {
	return func(g *Gateway) error {
		g.limiters = r
		return nil
	}
}

// WithBreakers sets the circuit breaker registry.
func WithBreakers(r *breaker.Registry) Option {
	return func(g *Gateway) error {
		g.breakers = r
		return nil
	}
}

// WithHandler sets the retry handler.
func WithHandler(h *faults.Handler) Option {
	return func(g *Gateway) error {
		g.handler = h
		return nil
	}
}

// WithCache enables response caching through the given tiered cache.
func WithCache(c *cache.Tiered) Option {
	return func(g *Gateway) error {
		g.cache = c
		return nil
	}
}

// WithKeyer sets the cache key derivation. Default: cache.NewDefaultKeyer().
func WithKeyer(k cache.Keyer) Option {
	return func(g *Gateway) error {
		g.keyer = k
		return nil
	}
}

// WithCredentials enables credential refresh on authentication failures for
// requests carrying a Subject.
func WithCredentials(m *credential.Manager) Option {
	return func(g *Gateway) error {
		g.credentials = m
		return nil
	}
}

// WithObserver wires tracing, metrics, and logging from an Observer.
func WithObserver(obs observe.Observer) Option {
	return func(g *Gateway) error {
		mw, err := observe.MiddlewareFromObserver(obs)
		if err != nil {
			return err
		}
		metrics, err := observe.NewMetrics(obs.Meter())
		if err != nil {
			return err
		}
		g.middleware = mw
		g.metrics = metrics
		g.logger = obs.Logger()
		return nil
	}
}

type requestIDKey struct{}

// RequestIDFrom returns the gateway request ID attached to ctx, if any.
func RequestIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}

// Execute runs op through cache lookup, rate limiting, circuit breaking,
// and classified retry, writing successful cacheable responses back through
// the cache. The returned error, when upstream-originated, is a
// *faults.Classified.
func (g *Gateway) Execute(ctx context.Context, req Request, op Operation) ([]byte, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if op == nil {
		return nil, ErrNilOperation
	}

	ctx = context.WithValue(ctx, requestIDKey{}, uuid.NewString())

	meta := observe.OpMeta{
		Platform:  req.Platform,
		Operation: req.Operation,
		Class:     req.class(),
		Subject:   req.Subject,
	}

	exec := g.middleware.Wrap(func(ctx context.Context, meta observe.OpMeta) ([]byte, error) {
		return g.execute(ctx, req, meta, op)
	})
	return exec(ctx, meta)
}

func (g *Gateway) execute(ctx context.Context, req Request, meta observe.OpMeta, op Operation) ([]byte, error) {
	key, err := g.cacheKey(req)
	if err != nil {
		return nil, err
	}

	if key != "" {
		entry, ok, cerr := g.cache.Get(ctx, key)
		g.metrics.RecordCacheLookup(ctx, meta, ok)
		if cerr != nil {
			// A broken cache degrades to upstream calls.
			g.logger.WithOp(meta).Warn(ctx, "cache read failed", observe.Field{Key: "error", Value: cerr.Error()})
		} else if ok {
			return entry.Value, nil
		}
	}

	limiter := g.limiters.For(req.Platform, req.class())
	circuit := g.breakers.For(req.Platform, req.class())

	var result []byte
	call := func(ctx context.Context) error {
		// Each attempt admits through the limiter separately; retries
		// count against the platform's rate budget.
		if err := limiter.Acquire(ctx); err != nil {
			return err
		}
		defer limiter.Release()

		return circuit.Execute(ctx, func(ctx context.Context) error {
			if req.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, req.Timeout)
				defer cancel()
			}

			payload, err := op(ctx)
			if err != nil {
				return err
			}
			result = payload
			return nil
		})
	}

	if g.credentials != nil && req.Subject != "" {
		err = g.handler.DoWithRefresh(ctx, call, func(ctx context.Context) error {
			if _, rerr := g.credentials.ForceRefresh(ctx, req.Subject); rerr != nil {
				// A failed refresh stays authentication-class for the
				// caller; re-authentication is the only recovery.
				return &faults.Classified{Kind: faults.KindAuthentication, Cause: rerr}
			}
			return nil
		})
	} else {
		err = g.handler.Do(ctx, call)
	}
	if err != nil {
		return nil, err
	}

	if key != "" {
		if cerr := g.cache.Set(ctx, key, result, req.CacheTTL); cerr != nil {
			// A failed write-back never fails the request.
			g.logger.WithOp(meta).Warn(ctx, "cache write failed", observe.Field{Key: "error", Value: cerr.Error()})
		}
	}

	return result, nil
}

// cacheKey returns the cache key for the request, or "" when the response
// must not be cached.
func (g *Gateway) cacheKey(req Request) (string, error) {
	if !req.Cacheable || g.cache == nil {
		return "", nil
	}
	if req.CacheKey != "" {
		return req.CacheKey, nil
	}
	return g.keyer.Key(req.Platform, req.Operation, req.Params)
}
