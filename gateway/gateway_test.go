package gateway

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/hubsync/breaker"
	"github.com/jonwraymond/hubsync/cache"
	"github.com/jonwraymond/hubsync/credential"
	"github.com/jonwraymond/hubsync/faults"
	"github.com/jonwraymond/hubsync/ratelimit"
)

func newTestGateway(t *testing.T, opts ...Option) *Gateway {
	t.Helper()

	// Retries without real sleeps.
	base := []Option{
		WithHandler(faults.NewHandler(faults.HandlerConfig{
			NoJitter: true,
			Sleep:    func(ctx context.Context, d time.Duration) error { return nil },
		})),
	}

	g, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return g
}

func memoryTiered(t *testing.T) *cache.Tiered {
	t.Helper()

	tc, err := cache.NewTiered(cache.TieredConfig{
		Layers: []cache.Layer{cache.NewMemory(cache.MemoryConfig{DefaultTTL: time.Minute})},
	})
	if err != nil {
		t.Fatalf("NewTiered() error = %v", err)
	}
	return tc
}

func TestExecute_HappyPath(t *testing.T) {
	g := newTestGateway(t)

	result, err := g.Execute(context.Background(), Request{
		Platform:  "google",
		Operation: "mail.list",
	}, func(ctx context.Context) ([]byte, error) {
		return []byte("messages"), nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if string(result) != "messages" {
		t.Errorf("result = %q, want messages", result)
	}
}

func TestExecute_Validation(t *testing.T) {
	g := newTestGateway(t)
	noop := func(ctx context.Context) ([]byte, error) { return nil, nil }

	if _, err := g.Execute(context.Background(), Request{Operation: "x"}, noop); !errors.Is(err, ErrMissingPlatform) {
		t.Errorf("error = %v, want ErrMissingPlatform", err)
	}
	if _, err := g.Execute(context.Background(), Request{Platform: "google"}, noop); !errors.Is(err, ErrMissingOperation) {
		t.Errorf("error = %v, want ErrMissingOperation", err)
	}
	if _, err := g.Execute(context.Background(), Request{Platform: "google", Operation: "x"}, nil); !errors.Is(err, ErrNilOperation) {
		t.Errorf("error = %v, want ErrNilOperation", err)
	}
}

func TestExecute_RequestIDAttached(t *testing.T) {
	g := newTestGateway(t)

	var seen string
	_, err := g.Execute(context.Background(), Request{
		Platform:  "google",
		Operation: "mail.list",
	}, func(ctx context.Context) ([]byte, error) {
		seen, _ = RequestIDFrom(ctx)
		return nil, nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if seen == "" {
		t.Error("operation context missing request ID")
	}
}

func TestExecute_CacheableResponseServedFromCache(t *testing.T) {
	g := newTestGateway(t, WithCache(memoryTiered(t)))

	var calls atomic.Int32
	req := Request{
		Platform:  "google",
		Operation: "mail.list",
		Params:    map[string]any{"folder": "inbox"},
		Cacheable: true,
	}
	op := func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte("messages"), nil
	}

	for i := 0; i < 3; i++ {
		result, err := g.Execute(context.Background(), req, op)
		if err != nil {
			t.Fatalf("Execute() #%d error = %v", i, err)
		}
		if string(result) != "messages" {
			t.Errorf("result = %q, want messages", result)
		}
	}

	if calls.Load() != 1 {
		t.Errorf("upstream calls = %d, want 1 (rest from cache)", calls.Load())
	}
}

func TestExecute_NonCacheableAlwaysCallsUpstream(t *testing.T) {
	g := newTestGateway(t, WithCache(memoryTiered(t)))

	var calls atomic.Int32
	req := Request{Platform: "google", Operation: "mail.send"}
	op := func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte("sent"), nil
	}

	for i := 0; i < 2; i++ {
		if _, err := g.Execute(context.Background(), req, op); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
	}

	if calls.Load() != 2 {
		t.Errorf("upstream calls = %d, want 2", calls.Load())
	}
}

func TestExecute_ExplicitCacheKey(t *testing.T) {
	tc := memoryTiered(t)
	g := newTestGateway(t, WithCache(tc))

	_, err := g.Execute(context.Background(), Request{
		Platform:  "google",
		Operation: "mail.list",
		Cacheable: true,
		CacheKey:  "custom-key",
	}, func(ctx context.Context) ([]byte, error) {
		return []byte("v"), nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if _, ok, _ := tc.Get(context.Background(), "custom-key"); !ok {
		t.Error("response not written under the explicit cache key")
	}
}

func TestExecute_RetriesTransientFailures(t *testing.T) {
	g := newTestGateway(t)

	var calls atomic.Int32
	result, err := g.Execute(context.Background(), Request{
		Platform:  "google",
		Operation: "mail.list",
	}, func(ctx context.Context) ([]byte, error) {
		if calls.Add(1) < 3 {
			return nil, &faults.TransportError{StatusCode: 503}
		}
		return []byte("recovered"), nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if string(result) != "recovered" {
		t.Errorf("result = %q, want recovered", result)
	}
	if calls.Load() != 3 {
		t.Errorf("upstream calls = %d, want 3", calls.Load())
	}
}

func TestExecute_ValidationErrorNotRetried(t *testing.T) {
	g := newTestGateway(t)

	var calls atomic.Int32
	_, err := g.Execute(context.Background(), Request{
		Platform:  "google",
		Operation: "mail.list",
	}, func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		return nil, &faults.TransportError{StatusCode: 400}
	})

	var classified *faults.Classified
	if !errors.As(err, &classified) {
		t.Fatalf("error = %v, want *faults.Classified", err)
	}
	if classified.Kind != faults.KindValidation {
		t.Errorf("Kind = %v, want KindValidation", classified.Kind)
	}
	if calls.Load() != 1 {
		t.Errorf("upstream calls = %d, want 1 (no retry)", calls.Load())
	}
}

func TestExecute_AuthFailureTriggersRefreshAndRetry(t *testing.T) {
	var refreshes atomic.Int32
	manager := credential.NewManager(credential.ManagerConfig{
		Refresher: credential.RefresherFunc(func(ctx context.Context, cred credential.Credential) (credential.Credential, error) {
			refreshes.Add(1)
			cred.AccessToken = "fresh-token"
			cred.ExpiresAt = time.Now().Add(time.Hour)
			return cred, nil
		}),
	})

	sub := "google:a@example.com"
	_ = manager.Put(context.Background(), credential.Credential{
		Subject:      sub,
		AccessToken:  "stale-token",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	})

	g := newTestGateway(t, WithCredentials(manager))

	var calls atomic.Int32
	result, err := g.Execute(context.Background(), Request{
		Platform:  "google",
		Operation: "mail.list",
		Subject:   sub,
	}, func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		if refreshes.Load() == 0 {
			return nil, &faults.TransportError{StatusCode: 401}
		}
		return []byte("messages"), nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if string(result) != "messages" {
		t.Errorf("result = %q, want messages", result)
	}
	if refreshes.Load() != 1 {
		t.Errorf("refreshes = %d, want 1", refreshes.Load())
	}
	if calls.Load() != 2 {
		t.Errorf("upstream calls = %d, want 2 (original + post-refresh retry)", calls.Load())
	}
}

func TestExecute_FailedRefreshStaysAuthenticationClass(t *testing.T) {
	manager := credential.NewManager(credential.ManagerConfig{
		Refresher: credential.RefresherFunc(func(ctx context.Context, cred credential.Credential) (credential.Credential, error) {
			return credential.Credential{}, credential.ErrReauthRequired
		}),
	})

	sub := "google:b@example.com"
	_ = manager.Put(context.Background(), credential.Credential{
		Subject:      sub,
		AccessToken:  "revoked-token",
		RefreshToken: "revoked",
		ExpiresAt:    time.Now().Add(time.Hour),
	})

	g := newTestGateway(t, WithCredentials(manager))

	var calls atomic.Int32
	_, err := g.Execute(context.Background(), Request{
		Platform:  "google",
		Operation: "mail.list",
		Subject:   sub,
	}, func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		return nil, &faults.TransportError{StatusCode: 401}
	})

	var classified *faults.Classified
	if !errors.As(err, &classified) {
		t.Fatalf("error = %v, want *faults.Classified", err)
	}
	if classified.Kind != faults.KindAuthentication {
		t.Errorf("Kind = %v, want KindAuthentication", classified.Kind)
	}
	if !errors.Is(err, credential.ErrReauthRequired) {
		t.Errorf("error = %v, want wrapped ErrReauthRequired", err)
	}
	if calls.Load() != 1 {
		t.Errorf("upstream calls = %d, want 1 (no retry after failed refresh)", calls.Load())
	}
}

func TestExecute_AuthFailureWithoutCredentialsFailsFast(t *testing.T) {
	g := newTestGateway(t)

	var calls atomic.Int32
	_, err := g.Execute(context.Background(), Request{
		Platform:  "google",
		Operation: "mail.list",
	}, func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		return nil, &faults.TransportError{StatusCode: 401}
	})

	var classified *faults.Classified
	if !errors.As(err, &classified) || classified.Kind != faults.KindAuthentication {
		t.Fatalf("error = %v, want authentication Classified", err)
	}
	if calls.Load() != 1 {
		t.Errorf("upstream calls = %d, want 1", calls.Load())
	}
}

func TestExecute_OpenCircuitShortCircuits(t *testing.T) {
	breakers := breaker.NewRegistry(breaker.Config{
		FailureThreshold:         2,
		VolumeThreshold:          2,
		ErrorThresholdPercentage: 50,
	})
	g := newTestGateway(t,
		WithBreakers(breakers),
		WithHandler(faults.NewHandler(faults.HandlerConfig{
			MaxRetries: 1,
			NoJitter:   true,
			Sleep:      func(ctx context.Context, d time.Duration) error { return nil },
		})),
	)

	req := Request{Platform: "google", Operation: "mail.list"}
	failing := func(ctx context.Context) ([]byte, error) {
		return nil, &faults.TransportError{StatusCode: 503}
	}

	// Trip the breaker.
	_, _ = g.Execute(context.Background(), req, failing)

	var calls atomic.Int32
	_, err := g.Execute(context.Background(), req, func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte("x"), nil
	})
	if !errors.Is(err, faults.ErrCircuitOpen) {
		t.Fatalf("error = %v, want ErrCircuitOpen", err)
	}
	if calls.Load() != 0 {
		t.Errorf("upstream calls = %d, want 0 while circuit open", calls.Load())
	}
}

func TestExecute_PerAttemptTimeout(t *testing.T) {
	g := newTestGateway(t, WithHandler(faults.NewHandler(faults.HandlerConfig{
		MaxRetries: 1,
		NoJitter:   true,
		Sleep:      func(ctx context.Context, d time.Duration) error { return nil },
	})))

	var calls atomic.Int32
	result, err := g.Execute(context.Background(), Request{
		Platform:  "google",
		Operation: "mail.list",
		Timeout:   20 * time.Millisecond,
	}, func(ctx context.Context) ([]byte, error) {
		if calls.Add(1) == 1 {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return []byte("fast"), nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if string(result) != "fast" {
		t.Errorf("result = %q, want fast (retry after per-attempt timeout)", result)
	}
	if calls.Load() != 2 {
		t.Errorf("upstream calls = %d, want 2", calls.Load())
	}
}

func TestExecute_LimiterReleasedBetweenCalls(t *testing.T) {
	limiters := ratelimit.NewRegistry(ratelimit.Config{
		MaxRequests:   100,
		Window:        time.Second,
		MaxConcurrent: 1,
	})
	g := newTestGateway(t, WithLimiters(limiters))

	req := Request{Platform: "google", Operation: "mail.list"}
	op := func(ctx context.Context) ([]byte, error) { return []byte("x"), nil }

	// With MaxConcurrent=1, sequential calls only work if each Execute
	// releases its slot.
	for i := 0; i < 3; i++ {
		if _, err := g.Execute(context.Background(), req, op); err != nil {
			t.Fatalf("Execute() #%d error = %v", i, err)
		}
	}
}

func TestStatus(t *testing.T) {
	g := newTestGateway(t, WithCache(memoryTiered(t)))

	_, err := g.Execute(context.Background(), Request{
		Platform:  "google",
		Operation: "mail.list",
		Cacheable: true,
	}, func(ctx context.Context) ([]byte, error) {
		return []byte("x"), nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	status := g.Status()
	if _, ok := status.Limiters["google/default"]; !ok {
		t.Errorf("Limiters missing google/default: %v", status.Limiters)
	}
	if state, ok := status.Breakers["google/default"]; !ok || state != "closed" {
		t.Errorf("Breakers[google/default] = %q, want closed", state)
	}
	if status.Cache == nil {
		t.Fatal("Cache stats missing")
	}
	if len(status.Cache.Layers) != 1 {
		t.Errorf("cache layers = %d, want 1", len(status.Cache.Layers))
	}
}
