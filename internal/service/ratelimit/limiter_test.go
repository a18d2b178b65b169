package ratelimit

import "testing"

func TestAllowConsumesTokens(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		if !l.Allow("k", 3, 0) {
			t.Fatalf("request %d should pass", i)
		}
	}
	if l.Allow("k", 3, 0) {
		t.Fatal("bucket should be empty")
	}
}

func TestAllowIsolatesKeys(t *testing.T) {
	l := New()
	if !l.Allow("a", 1, 0) {
		t.Fatal("first a should pass")
	}
	if l.Allow("a", 1, 0) {
		t.Fatal("second a should be limited")
	}
	if !l.Allow("b", 1, 0) {
		t.Fatal("b must not share a's bucket")
	}
}
