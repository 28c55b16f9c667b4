package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/go-companion-backend/internal/domain"
)

func TestSessionsStats(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	n, ts, err := SessionsStats(ctx, db, "u1")
	if err != nil || n != 0 || ts != nil {
		t.Fatalf("empty stats: %d %v %v", n, ts, err)
	}

	c1 := seedCharacter(t, db, "A", false, 0)
	c2 := seedCharacter(t, db, "B", false, 0)
	if _, err := CreateSession(ctx, db, "u1", c1.ID, "hi", time.Now().UTC()); err != nil {
		t.Fatalf("create: %v", err)
	}
	s2, _ := CreateSession(ctx, db, "u1", c2.ID, "hi", time.Now().UTC())
	time.Sleep(5 * time.Millisecond)
	if err := SetSessionPinned(ctx, db, s2.ID, true); err != nil {
		t.Fatalf("pin: %v", err)
	}
	fresh, _ := GetSession(ctx, db, s2.ID)

	n, ts, err = SessionsStats(ctx, db, "u1")
	if err != nil || n != 2 || ts == nil || !ts.Equal(fresh.UpdatedAt) {
		t.Fatalf("stats: %d %v %v (want %v)", n, ts, err, fresh.UpdatedAt)
	}
}

func TestMessagesStats(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	c := seedCharacter(t, db, "A", false, 0)
	s, _ := CreateSession(ctx, db, "u1", c.ID, "hi", time.Now().UTC())

	n, ts, err := MessagesStats(ctx, db, s.ID)
	if err != nil || n != 0 || ts != nil {
		t.Fatalf("empty stats: %d %v %v", n, ts, err)
	}
	var last *domain.ChatMessage
	for i := 0; i < 2; i++ {
		last, _ = CreateMessage(ctx, db, testNode.Generate(), s.ID, domain.RoleUser, domain.ContentText, "x")
	}
	n, ts, err = MessagesStats(ctx, db, s.ID)
	if err != nil || n != 2 || ts == nil || !ts.Equal(last.CreatedAt) {
		t.Fatalf("stats: %d %v %v", n, ts, err)
	}
}

func TestStats_Error_NoTable(t *testing.T) {
	db := newBareDB(t)
	if _, _, err := SessionsStats(context.Background(), db, "u1"); err == nil {
		t.Fatalf("expected error without sessions table")
	}
	if _, _, err := MessagesStats(context.Background(), db, "s1"); err == nil {
		t.Fatalf("expected error without messages table")
	}
}
