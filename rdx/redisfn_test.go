package rdx

import (
	"context"
	"testing"
	"time"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	ctx := context.Background()
	caches := []*Cache{nil, {TTL: time.Minute}}

	for _, c := range caches {
		c.Set(ctx, "tours", "page=1", []byte(`{"ok":true}`))
		if _, ok := c.Get(ctx, "tours", "page=1"); ok {
			t.Fatalf("expected miss from disabled cache %#v", c)
		}
		c.Invalidate(ctx, "tours")
		if err := c.Close(); err != nil {
			t.Fatalf("Close on disabled cache returned %v", err)
		}
	}
}

func TestNewCacheWithoutAddressIsDisabled(t *testing.T) {
	c := NewCache(context.Background(), "", "", time.Minute)
	if c.enabled() {
		t.Fatal("expected cache to be disabled without an address")
	}
	if c.TTL != time.Minute {
		t.Errorf("expected TTL to be kept, got %v", c.TTL)
	}
}

func TestRememberBuildsOnEveryMissWhenDisabled(t *testing.T) {
	c := &Cache{TTL: time.Minute}
	calls := 0
	build := func() (any, error) {
		calls++
		return map[string]int{"n": calls}, nil
	}

	for i := 1; i <= 2; i++ {
		val, err := c.Remember(context.Background(), "tours", "stats", build)
		if err != nil {
			t.Fatalf("Remember returned error: %v", err)
		}
		want := `{"n":` + string(rune('0'+i)) + `}`
		if string(val) != want {
			t.Errorf("call %d: want %s, got %s", i, want, val)
		}
	}
}
