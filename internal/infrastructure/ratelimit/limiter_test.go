package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinBudget(t *testing.T) {
	registry := NewRegistry(3, time.Minute)

	for i := 0; i < 3; i++ {
		allowed, _ := registry.Allow("client-a")
		if !allowed {
			t.Fatalf("request %d denied within budget", i+1)
		}
	}

	allowed, retryAfter := registry.Allow("client-a")
	if allowed {
		t.Fatalf("request over budget must be denied")
	}
	if retryAfter <= 0 {
		t.Fatalf("denied request must carry a retry hint, got %v", retryAfter)
	}
}

func TestIdentitiesIsolated(t *testing.T) {
	registry := NewRegistry(1, time.Minute)

	if allowed, _ := registry.Allow("client-a"); !allowed {
		t.Fatalf("first request for client-a denied")
	}
	if allowed, _ := registry.Allow("client-a"); allowed {
		t.Fatalf("second request for client-a must be denied")
	}
	if allowed, _ := registry.Allow("client-b"); !allowed {
		t.Fatalf("client-b must have its own budget")
	}
}

func TestZeroConfigDefaults(t *testing.T) {
	registry := NewRegistry(0, 0)

	for i := 0; i < 10; i++ {
		if allowed, _ := registry.Allow("c"); !allowed {
			t.Fatalf("request %d denied with default budget of 10", i+1)
		}
	}
	if allowed, _ := registry.Allow("c"); allowed {
		t.Fatalf("11th request must be denied")
	}
}
