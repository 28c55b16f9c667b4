package services

import (
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		in   string
		want intent
	}{
		{"hi there", intentGreeting},
		{"HELLO!", intentGreeting},
		{"Hey, how are you?", intentGreeting},
		{"你好呀", intentGreeting},
		{"嗨", intentGreeting},
		{"this is great?", intentQuestion},
		{"what time is it", intentQuestion},
		{"Can you sing", intentQuestion},
		{"你在做什么", intentQuestion},
		{"好吃吗", intentQuestion},
		{"history is fun", intentOther},
		{"I went hiking", intentOther},
		{"", intentOther},
	}
	for _, tc := range cases {
		if got := classify(tc.in); got != tc.want {
			t.Fatalf("classify(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestGenerateReply_DeterministicAndFromCandidates(t *testing.T) {
	a := generateReply("", "s1", "what is that")
	b := generateReply("", "s1", "what is that")
	if a != b {
		t.Fatalf("same input must yield same reply: %q vs %q", a, b)
	}
	found := false
	for _, c := range replyCandidates[intentQuestion] {
		if c == a {
			found = true
		}
	}
	if !found {
		t.Fatalf("reply %q is not a question candidate", a)
	}
}

func TestGenerateReply_Flavors(t *testing.T) {
	if r := generateReply("gentle,caring", "s", "hello"); !strings.HasSuffix(r, " 💕") {
		t.Fatalf("gentle reply = %q", r)
	}
	if r := generateReply("Lively", "s", "hello"); !strings.HasSuffix(r, " 😄") {
		t.Fatalf("lively reply = %q", r)
	}
	for _, in := range []string{"hello", "why", "ok", "nice day", "hmm"} {
		r := generateReply("aloof,elegant", "s", in)
		if strings.ContainsAny(r, "~!") {
			t.Fatalf("aloof reply kept ~ or !: %q", r)
		}
	}
	if r := generateReply("rational", "s", "hello"); strings.HasSuffix(r, " 💕") || strings.HasSuffix(r, " 😄") {
		t.Fatalf("plain personality must not be decorated: %q", r)
	}
}

func TestThankYou(t *testing.T) {
	// (giftID + quantity) % 4 selects the template.
	if got, want := thankYou("", "Rose", 3, 1), "Wow, a Rose for me? Thank you so much~"; got != want {
		t.Fatalf("thankYou = %q, want %q", got, want)
	}
	if got := thankYou("", "Rose", 1, 3); !strings.Contains(got, "3 Rose") {
		t.Fatalf("quantity must be mentioned: %q", got)
	}
	if got := thankYou("", "Rose", 2, 1); !strings.HasPrefix(got, "A Rose just for me") {
		t.Fatalf("leading label must be capitalized: %q", got)
	}
	if got := thankYou("aloof", "Rose", 4, 1); strings.ContainsAny(got, "~!") {
		t.Fatalf("aloof thank-you kept ~ or !: %q", got)
	}
}
