package procinfo

import (
	"testing"
	"time"
)

func TestCacheGetPutExpiry(t *testing.T) {
	c, err := NewCache(4, 10*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Unix(1000, 0)
	c.Put(ProcInfo{PID: 42, Runtime: RuntimeType{Kind: RuntimePython}}, now)

	got, ok := c.Get(42, now)
	if !ok || got.PID != 42 {
		t.Fatalf("Get immediately after Put = %+v, %v", got, ok)
	}

	later := now.Add(20 * time.Millisecond)
	if _, ok := c.Get(42, later); ok {
		t.Fatal("expected entry to have expired")
	}
}

func TestCacheInvalidate(t *testing.T) {
	c, err := NewCache(4, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Unix(1000, 0)
	c.Put(ProcInfo{PID: 7}, now)
	c.Invalidate(7)
	if _, ok := c.Get(7, now); ok {
		t.Fatal("expected invalidated entry to be gone")
	}
}
