package utils

import (
	"testing"
	"time"
)

func TestGenerateIDUnique(t *testing.T) {
	a := GenerateID()
	b := GenerateID()
	if a == "" || a == b {
		t.Fatalf("expected distinct non-empty ids, got %q and %q", a, b)
	}
}

func TestFormatTimeZero(t *testing.T) {
	if got := FormatTime(time.Time{}); got != "" {
		t.Fatalf("zero time should render blank, got %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(nil); got != "-" {
		t.Fatalf("nil duration should render -, got %q", got)
	}
	d := 1500 * time.Millisecond
	if got := FormatDuration(&d); got != "1.5s" {
		t.Fatalf("expected 1.5s, got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("short strings pass through, got %q", got)
	}
	if got := Truncate("abcdefghij", 5); got != "abcde..." {
		t.Fatalf("expected abcde..., got %q", got)
	}
	if got := Truncate("anything", 0); got != "" {
		t.Fatalf("zero width should be empty, got %q", got)
	}
}
