package dedupe

import (
	"testing"
	"time"
)

func TestHasPutRoundTrip(t *testing.T) {
	c := New(time.Minute, 100)
	k := NewKey("greetings", "DF1JSL-1", "AB")
	if c.Has(k) {
		t.Fatal("fresh cache should not have key")
	}
	c.Put(k)
	if !c.Has(k) {
		t.Fatal("key should be present immediately after Put")
	}
}

func TestExpiry(t *testing.T) {
	c := New(10*time.Millisecond, 100)
	k := NewKey("ping", "N0CALL", "")
	c.Put(k)
	time.Sleep(30 * time.Millisecond)
	if c.Has(k) {
		t.Fatal("expired key should report absent")
	}
}

func TestMaxEntriesEviction(t *testing.T) {
	c := New(time.Hour, 2)
	k1 := NewKey("a", "N0CALL", "1")
	k2 := NewKey("b", "N0CALL", "2")
	k3 := NewKey("c", "N0CALL", "3")
	c.Put(k1)
	c.Put(k2)
	c.Put(k3)
	if c.Len() > 2 {
		t.Fatalf("cache size = %d, want <= 2", c.Len())
	}
	if c.Has(k1) {
		t.Fatal("oldest entry should have been evicted")
	}
	if !c.Has(k3) {
		t.Fatal("newest entry should survive eviction")
	}
}

func TestKeyDistinctness(t *testing.T) {
	k1 := NewKey("same text", "N0CALL", "AA")
	k2 := NewKey("same text", "N0CALL", "AB")
	if k1 == k2 {
		t.Fatal("keys with different msg_no should differ")
	}
	k3 := NewKey("same text", "N1CALL", "AA")
	if k1 == k3 {
		t.Fatal("keys with different callsign should differ")
	}
}
