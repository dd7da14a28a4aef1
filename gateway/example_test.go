package gateway_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/hubsync/cache"
	"github.com/jonwraymond/hubsync/gateway"
)

func ExampleNew() {
	g, err := gateway.New()
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	ctx := context.Background()
	result, err := g.Execute(ctx, gateway.Request{
		Platform:  "google",
		Operation: "mail.list",
	}, func(ctx context.Context) ([]byte, error) {
		return []byte(`{"messages":[]}`), nil
	})

	if err == nil {
		fmt.Println("Result:", string(result))
	}
	// Output:
	// Result: {"messages":[]}
}

func ExampleGateway_Execute_cached() {
	tiered, _ := cache.NewTiered(cache.TieredConfig{
		Layers: []cache.Layer{cache.NewMemory(cache.MemoryConfig{})},
	})
	g, _ := gateway.New(gateway.WithCache(tiered))

	ctx := context.Background()
	upstreamCalls := 0

	req := gateway.Request{
		Platform:  "github",
		Operation: "issues.list",
		Cacheable: true,
		Params:    map[string]any{"repo": "octocat/hello"},
		CacheTTL:  time.Minute,
	}
	op := func(ctx context.Context) ([]byte, error) {
		upstreamCalls++
		return []byte("issues"), nil
	}

	// First call - cache miss, hits upstream
	_, _ = g.Execute(ctx, req, op)
	fmt.Println("Upstream calls after 1:", upstreamCalls)

	// Second call - served from cache
	result, _ := g.Execute(ctx, req, op)
	fmt.Println("Upstream calls after 2:", upstreamCalls)
	fmt.Println("Result:", string(result))
	// Output:
	// Upstream calls after 1: 1
	// Upstream calls after 2: 1
	// Result: issues
}

func ExampleGateway_Status() {
	g, _ := gateway.New()

	ctx := context.Background()
	_, _ = g.Execute(ctx, gateway.Request{
		Platform:  "slack",
		Operation: "channels.list",
	}, func(ctx context.Context) ([]byte, error) {
		return []byte("ok"), nil
	})

	status := g.Status()
	fmt.Println("Breaker:", status.Breakers["slack/default"])
	// Output:
	// Breaker: closed
}
