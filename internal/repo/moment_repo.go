package repo

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-companion-backend/internal/domain"
)

func momentScope(db *gorm.DB, characterID int64) *gorm.DB {
	q := db.Model(&domain.Moment{}).Where("status = ?", domain.StatusActive)
	if characterID > 0 {
		q = q.Where("character_id = ?", characterID)
	}
	return q
}

// CountMoments counts active moments, optionally for one character.
func CountMoments(ctx context.Context, db *gorm.DB, characterID int64) (int64, error) {
	var total int64
	err := momentScope(db.WithContext(ctx), characterID).Count(&total).Error
	return total, err
}

// ListMomentsPage returns active moments newest first with their character.
func ListMomentsPage(ctx context.Context, db *gorm.DB, characterID int64, offset, limit int) ([]domain.Moment, error) {
	var out []domain.Moment
	err := momentScope(db.WithContext(ctx), characterID).
		Preload("Character").
		Order("created_at desc").
		Order("id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetMoment fetches an active moment with its character.
func GetMoment(ctx context.Context, db *gorm.DB, id int64) (*domain.Moment, error) {
	var m domain.Moment
	err := db.WithContext(ctx).
		Preload("Character").
		Where("id = ? AND status = ?", id, domain.StatusActive).
		Take(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// LikedMomentIDs returns which of ids userID has liked.
func LikedMomentIDs(ctx context.Context, db *gorm.DB, userID string, ids []int64) (map[int64]bool, error) {
	out := make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var got []int64
	err := db.WithContext(ctx).
		Model(&domain.MomentLike{}).
		Where("user_id = ? AND moment_id IN ?", userID, ids).
		Pluck("moment_id", &got).Error
	if err != nil {
		return nil, err
	}
	for _, id := range got {
		out[id] = true
	}
	return out, nil
}

// AddMomentLike inserts a like; added is false when it already existed.
func AddMomentLike(ctx context.Context, db *gorm.DB, momentID int64, userID string) (added bool, err error) {
	like := &domain.MomentLike{MomentID: momentID, UserID: userID, CreatedAt: time.Now().UTC()}
	res := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(like)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RemoveMomentLike deletes a like; removed is false when none existed.
func RemoveMomentLike(ctx context.Context, db *gorm.DB, momentID int64, userID string) (removed bool, err error) {
	res := db.WithContext(ctx).
		Where("moment_id = ? AND user_id = ?", momentID, userID).
		Delete(&domain.MomentLike{})
	return res.RowsAffected > 0, res.Error
}

// AdjustMomentCounter adds delta to like_count or comment_count and returns
// the new value.
func AdjustMomentCounter(ctx context.Context, db *gorm.DB, momentID int64, column string, delta int64) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Moment{}).
		Where("id = ?", momentID).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrNotFound
	}
	var m domain.Moment
	if err := db.WithContext(ctx).Select(column).Where("id = ?", momentID).Take(&m).Error; err != nil {
		return 0, err
	}
	if column == "comment_count" {
		return m.CommentCount, nil
	}
	return m.LikeCount, nil
}

// CreateMomentComment appends a comment.
func CreateMomentComment(ctx context.Context, db *gorm.DB, id snowflake.ID, momentID int64, userID, content string) (*domain.MomentComment, error) {
	c := &domain.MomentComment{
		ID:        id,
		MomentID:  momentID,
		UserID:    userID,
		Content:   content,
		CreatedAt: time.UnixMilli(id.Time()).UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// ListMomentComments returns up to limit comments oldest first.
func ListMomentComments(ctx context.Context, db *gorm.DB, momentID int64, limit int) ([]domain.MomentComment, error) {
	var out []domain.MomentComment
	err := db.WithContext(ctx).
		Where("moment_id = ?", momentID).
		Order("id asc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CreateMoment inserts a moment.
func CreateMoment(ctx context.Context, db *gorm.DB, m *domain.Moment) error {
	if m.Status == "" {
		m.Status = domain.StatusActive
	}
	return db.WithContext(ctx).Create(m).Error
}
