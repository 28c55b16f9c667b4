package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-companion-backend/internal/domain"
	"github.com/tbourn/go-companion-backend/internal/repo"
)

const (
	maxCommentRunes   = 500
	momentCommentsCap = 50
)

// MomentView is a moment annotated for the caller.
type MomentView struct {
	domain.Moment
	ImageList []string `json:"image_list"`
	IsLiked   bool     `json:"is_liked"`
}

// MomentDetail is a moment with its first comments.
type MomentDetail struct {
	MomentView
	Comments []domain.MomentComment `json:"comments"`
}

// LikeResult reports a like toggle.
type LikeResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}

// Moments serves the characters' social feed. Likes and comments by the
// same user run one at a time; a Moments must not be copied after use.
type Moments struct {
	DB  *gorm.DB
	IDs *snowflake.Node

	locks userLocks
}

func momentView(m domain.Moment, liked bool) MomentView {
	v := MomentView{Moment: m, IsLiked: liked, ImageList: []string{}}
	if m.Images != "" {
		v.ImageList = strings.Split(m.Images, ",")
	}
	return v
}

// List pages the active moments, newest first; characterID 0 means all.
func (s *Moments) List(ctx context.Context, userID string, characterID int64, page, pageSize int) ([]MomentView, int64, error) {
	tr := otel.Tracer("services/Moments")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int64("character.id", characterID),
		),
	)
	defer span.End()

	_, pageSize, offset := clampPage(page, pageSize)
	total, err := repo.CountMoments(ctx, s.DB, characterID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []MomentView{}, 0, nil
	}
	items, err := repo.ListMomentsPage(ctx, s.DB, characterID, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]int64, len(items))
	for i, m := range items {
		ids[i] = m.ID
	}
	liked, err := repo.LikedMomentIDs(ctx, s.DB, userID, ids)
	if err != nil {
		return nil, 0, err
	}
	out := make([]MomentView, len(items))
	for i, m := range items {
		out[i] = momentView(m, liked[m.ID])
	}
	return out, total, nil
}

// Get returns one moment with its oldest comments.
func (s *Moments) Get(ctx context.Context, userID string, id int64) (*MomentDetail, error) {
	m, err := repo.GetMoment(ctx, s.DB, id)
	if err != nil {
		return nil, notFound(err, ErrMomentNotFound)
	}
	liked, err := repo.LikedMomentIDs(ctx, s.DB, userID, []int64{id})
	if err != nil {
		return nil, err
	}
	comments, err := repo.ListMomentComments(ctx, s.DB, id, momentCommentsCap)
	if err != nil {
		return nil, err
	}
	return &MomentDetail{MomentView: momentView(*m, liked[id]), Comments: comments}, nil
}

// ToggleLike likes or unlikes a moment; the counter moves in the same
// transaction as the like row.
func (s *Moments) ToggleLike(ctx context.Context, userID string, id int64) (*LikeResult, error) {
	tr := otel.Tracer("services/Moments")
	ctx, span := tr.Start(ctx, "ToggleLike",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int64("moment.id", id),
		),
	)
	defer span.End()

	unlock := s.locks.lock(userID)
	defer unlock()

	var res LikeResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetMoment(ctx, tx, id); err != nil {
			return notFound(err, ErrMomentNotFound)
		}
		removed, err := repo.RemoveMomentLike(ctx, tx, id, userID)
		if err != nil {
			return err
		}
		delta := int64(-1)
		if !removed {
			if _, err := repo.AddMomentLike(ctx, tx, id, userID); err != nil {
				return err
			}
			delta = 1
		}
		n, err := repo.AdjustMomentCounter(ctx, tx, id, "like_count", delta)
		if err != nil {
			return err
		}
		res = LikeResult{Liked: !removed, LikeCount: n}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Comment appends a comment of 1..500 runes and bumps the comment count.
func (s *Moments) Comment(ctx context.Context, userID string, id int64, content string) (*domain.MomentComment, error) {
	content = normalizeContent(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > maxCommentRunes {
		return nil, ErrContentTooLong
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	var out *domain.MomentComment
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetMoment(ctx, tx, id); err != nil {
			return notFound(err, ErrMomentNotFound)
		}
		c, err := repo.CreateMomentComment(ctx, tx, s.IDs.Generate(), id, userID, content)
		if err != nil {
			return err
		}
		if _, err := repo.AdjustMomentCounter(ctx, tx, id, "comment_count", 1); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
