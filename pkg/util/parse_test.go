package util

import "testing"

func TestParseIntDefault(t *testing.T) {
	if got := ParseIntDefault("42", 0); got != 42 {
		t.Fatalf("got %d", got)
	}
	if got := ParseIntDefault("", 7); got != 7 {
		t.Fatalf("expected default, got %d", got)
	}
	if got := ParseIntDefault("abc", 7); got != 7 {
		t.Fatalf("expected default, got %d", got)
	}
}

func TestParseInt64Default(t *testing.T) {
	if got := ParseInt64Default(" 123456789012 ", 0); got != 123456789012 {
		t.Fatalf("got %d", got)
	}
	if got := ParseInt64Default("x", 5); got != 5 {
		t.Fatalf("expected default, got %d", got)
	}
}

func TestParseFloatDefault(t *testing.T) {
	if got := ParseFloatDefault("1.25", 0); got != 1.25 {
		t.Fatalf("got %v", got)
	}
	if got := ParseFloatDefault("0.85%", 0); got != 0.85 {
		t.Fatalf("percent suffix: got %v", got)
	}
	if got := ParseFloatDefault("  -2.5% ", 0); got != -2.5 {
		t.Fatalf("trimmed percent: got %v", got)
	}
	if got := ParseFloatDefault("", 9.5); got != 9.5 {
		t.Fatalf("expected default, got %v", got)
	}
}
