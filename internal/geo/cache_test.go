package geo

import (
	"net/netip"
	"sync/atomic"
	"testing"
	"time"
)

type countingResolver struct {
	calls atomic.Int64
	loc   *Location
}

func (r *countingResolver) Lookup(netip.Addr) (*Location, bool) {
	r.calls.Add(1)
	if r.loc == nil {
		return nil, false
	}
	return r.loc, true
}

func TestCachedResolver_HitAvoidsInnerLookup(t *testing.T) {
	inner := &countingResolver{loc: &Location{CountryCode: "DE", CountryName: "Germany"}}
	c := NewCachedResolver(inner, time.Minute)
	defer c.Close()

	addr := netip.MustParseAddr("203.0.113.7")

	loc, ok := c.Lookup(addr)
	if !ok || loc.CountryCode != "DE" {
		t.Fatalf("first lookup: %v %v", loc, ok)
	}
	if _, ok := c.Lookup(addr); !ok {
		t.Fatal("expected cache hit")
	}
	if n := inner.calls.Load(); n != 1 {
		t.Errorf("inner resolver called %d times, want 1", n)
	}
}

func TestCachedResolver_CachesMisses(t *testing.T) {
	inner := &countingResolver{}
	c := NewCachedResolver(inner, time.Minute)
	defer c.Close()

	addr := netip.MustParseAddr("198.51.100.4")
	for i := 0; i < 3; i++ {
		if _, ok := c.Lookup(addr); ok {
			t.Fatal("expected miss")
		}
	}
	if n := inner.calls.Load(); n != 1 {
		t.Errorf("inner resolver called %d times, want 1", n)
	}
}

func TestCachedResolver_Expiry(t *testing.T) {
	inner := &countingResolver{loc: &Location{CountryCode: "NL"}}
	c := NewCachedResolver(inner, 10*time.Millisecond)
	defer c.Close()

	addr := netip.MustParseAddr("203.0.113.8")
	c.Lookup(addr)

	time.Sleep(20 * time.Millisecond)

	c.Lookup(addr)
	if n := inner.calls.Load(); n != 2 {
		t.Errorf("inner resolver called %d times after expiry, want 2", n)
	}
	if c.Len() != 1 {
		t.Errorf("cache holds %d entries, want 1", c.Len())
	}
}
