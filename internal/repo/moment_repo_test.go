package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/go-companion-backend/internal/domain"
)

func TestMoments_LikesAndComments(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	c := seedCharacter(t, db, "Mira", false, 0)
	m := &domain.Moment{CharacterID: c.ID, Content: "sunset walk"}
	if err := CreateMoment(ctx, db, m); err != nil {
		t.Fatalf("seed moment: %v", err)
	}

	added, err := AddMomentLike(ctx, db, m.ID, "u1")
	if err != nil || !added {
		t.Fatalf("like: %v %v", added, err)
	}
	added, err = AddMomentLike(ctx, db, m.ID, "u1")
	if err != nil || added {
		t.Fatalf("second like must be a no-op: %v %v", added, err)
	}
	n, err := AdjustMomentCounter(ctx, db, m.ID, "like_count", 1)
	if err != nil || n != 1 {
		t.Fatalf("like counter: %d %v", n, err)
	}
	liked, err := LikedMomentIDs(ctx, db, "u1", []int64{m.ID})
	if err != nil || !liked[m.ID] {
		t.Fatalf("liked set: %v %v", liked, err)
	}
	removed, err := RemoveMomentLike(ctx, db, m.ID, "u1")
	if err != nil || !removed {
		t.Fatalf("unlike: %v %v", removed, err)
	}

	for _, text := range []string{"first", "second"} {
		if _, err := CreateMomentComment(ctx, db, testNode.Generate(), m.ID, "u2", text); err != nil {
			t.Fatalf("comment: %v", err)
		}
	}
	n, err = AdjustMomentCounter(ctx, db, m.ID, "comment_count", 2)
	if err != nil || n != 2 {
		t.Fatalf("comment counter: %d %v", n, err)
	}
	comments, err := ListMomentComments(ctx, db, m.ID, 10)
	if err != nil || len(comments) != 2 || comments[0].Content != "first" {
		t.Fatalf("comments: %+v %v", comments, err)
	}

	got, err := GetMoment(ctx, db, m.ID)
	if err != nil || got.Character == nil || got.Character.Name != "Mira" {
		t.Fatalf("get: %+v %v", got, err)
	}
	total, _ := CountMoments(ctx, db, c.ID)
	list, _ := ListMomentsPage(ctx, db, 0, 0, 10)
	if total != 1 || len(list) != 1 {
		t.Fatalf("count=%d list=%d", total, len(list))
	}
	if _, err := AdjustMomentCounter(ctx, db, 999, "like_count", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
