package repo

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-companion-backend/internal/domain"
)

// HasEntitlement reports whether userID holds a grant for characterID.
func HasEntitlement(ctx context.Context, db *gorm.DB, userID string, characterID int64) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Entitlement{}).
		Where("user_id = ? AND character_id = ?", userID, characterID).
		Count(&n).Error
	return n > 0, err
}

// CreateEntitlement inserts a grant unless one exists. inserted is false
// when the pair was already granted.
func CreateEntitlement(ctx context.Context, db *gorm.DB, userID string, characterID int64, entryID snowflake.ID) (inserted bool, err error) {
	e := &domain.Entitlement{
		UserID:      userID,
		CharacterID: characterID,
		EntryID:     entryID,
		GrantedAt:   time.Now().UTC(),
	}
	res := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(e)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListEntitledCharacterIDs returns the subset of ids the user has unlocked.
func ListEntitledCharacterIDs(ctx context.Context, db *gorm.DB, userID string, ids []int64) (map[int64]bool, error) {
	out := make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var got []int64
	err := db.WithContext(ctx).
		Model(&domain.Entitlement{}).
		Where("user_id = ? AND character_id IN ?", userID, ids).
		Pluck("character_id", &got).Error
	if err != nil {
		return nil, err
	}
	for _, id := range got {
		out[id] = true
	}
	return out, nil
}
