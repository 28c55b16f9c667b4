package services

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// intent is the coarse classification of a user message.
type intent int

const (
	intentOther intent = iota
	intentGreeting
	intentQuestion
)

var replyCandidates = map[intent][]string{
	intentGreeting: {
		"Hi~ I'm so happy you came to talk to me!",
		"Hello! I was just thinking about you~",
		"Hey! How has your day been?",
	},
	intentQuestion: {
		"That's a good question~ Let me think about it for a moment.",
		"Hmm, what do you think yourself? I'd love to hear it!",
		"I'm not completely sure, but we can figure it out together~",
	},
	intentOther: {
		"I see~ Tell me more!",
		"That sounds really interesting!",
		"I'm listening, go on~",
		"Really? I didn't know that!",
		"Thanks for sharing that with me~",
	},
}

var thankTemplates = [...]string{
	"Wow, %s for me? Thank you so much~",
	"You sent me %s! That's so sweet of you!",
	"I love it! Thank you for %s~",
	"%s just for me? You're the best!",
}

var (
	greetingWords = []string{"hi", "hello", "hey"}
	greetingMarks = []string{"你好", "嗨"}
	questionWords = []string{"what", "why", "how", "when", "where", "who", "can", "do", "is", "are"}
	questionMarks = []string{"?", "？", "什么", "怎么", "为什么", "吗"}
)

// classify picks greeting, then question, then other.
func classify(content string) intent {
	// Casers are stateful; one per call.
	folded := cases.Fold().String(strings.TrimSpace(content))
	first := firstWord(folded)

	for _, w := range greetingWords {
		if first == w {
			return intentGreeting
		}
	}
	for _, m := range greetingMarks {
		if strings.Contains(folded, m) {
			return intentGreeting
		}
	}
	for _, m := range questionMarks {
		if strings.Contains(folded, m) {
			return intentQuestion
		}
	}
	for _, w := range questionWords {
		if first == w {
			return intentQuestion
		}
	}
	return intentOther
}

func firstWord(s string) string {
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) && r != '\'' })
	if end < 0 {
		return s
	}
	return s[:end]
}

// hasTrait reports whether the comma separated personality holds trait.
func hasTrait(personality, trait string) bool {
	for _, p := range strings.Split(personality, ",") {
		if strings.EqualFold(strings.TrimSpace(p), trait) {
			return true
		}
	}
	return false
}

func aloof(s string) string {
	return strings.NewReplacer("~", ".", "!", ".").Replace(s)
}

func flavor(personality, s string) string {
	switch {
	case hasTrait(personality, "aloof"):
		return aloof(s)
	case hasTrait(personality, "gentle"):
		return s + " 💕"
	case hasTrait(personality, "lively"):
		return s + " 😄"
	}
	return s
}

// generateReply returns the deterministic reply to content in sessionID.
// The same session and content always produce the same text.
func generateReply(personality, sessionID, content string) string {
	set := replyCandidates[classify(content)]
	h := fnv.New64a()
	_, _ = h.Write([]byte(sessionID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(content))
	return flavor(personality, set[h.Sum64()%uint64(len(set))])
}

// thankYou returns the assistant message for a received gift.
func thankYou(personality, giftName string, giftID int64, quantity int) string {
	label := "a " + giftName
	if quantity > 1 {
		label = fmt.Sprintf("%d %s", quantity, giftName)
	}
	idx := (giftID + int64(quantity)) % int64(len(thankTemplates))
	if idx < 0 {
		idx = -idx
	}
	msg := fmt.Sprintf(thankTemplates[idx], label)
	msg = strings.ToUpper(msg[:1]) + msg[1:]
	if hasTrait(personality, "aloof") {
		msg = aloof(msg)
	}
	return msg
}
