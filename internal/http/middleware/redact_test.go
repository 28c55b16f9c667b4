package middleware

import (
	"strings"
	"testing"
)

func TestRedactQuery(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"page=2&page_size=20", "page=2&page_size=20"},
		{"email=a.b@example.org", "email=[REDACTED:email]"},
		{"phone=138-0013-8000", "phone=[REDACTED:phone]"},
		{"ref=123e4567-e89b-12d3-a456-426614174000", "ref=[REDACTED:id]"},
	}
	for _, tc := range cases {
		if got := redactQuery(tc.in); got != tc.want {
			t.Fatalf("redactQuery(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMaskID(t *testing.T) {
	if maskID("") != "" {
		t.Fatalf("empty stays empty")
	}
	if maskID("abc") != "***" {
		t.Fatalf("short ids are fully masked")
	}
	got := maskID("13800138000")
	if got != strings.Repeat("*", 7)+"8000" {
		t.Fatalf("maskID = %q", got)
	}
}
