// Package repo implements the persistence layer for the coin economy and
// chat engine, backed by GORM. This file holds the chat session queries.
//
// All functions are context-aware and accept a *gorm.DB handle, so they can
// run inside a caller's transaction. They hold no business rules: ownership,
// entitlement checks and counters live in the services package.
//
// Errors:
//   - a missing row yields ErrNotFound (gorm.ErrRecordNotFound);
//   - a second session for the same (user, character) yields ErrDuplicate;
//   - other driver errors are returned as is.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-companion-backend/internal/domain"
)

// CreateSession inserts the session for (userID, characterID) seeded with
// the greeting snapshot.
func CreateSession(ctx context.Context, db *gorm.DB, userID string, characterID int64, greeting string, at time.Time) (*domain.ChatSession, error) {
	now := time.Now().UTC()
	s := &domain.ChatSession{
		ID:            uuid.NewString(),
		UserID:        userID,
		CharacterID:   characterID,
		LastMessage:   greeting,
		LastMessageAt: at,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return s, nil
}

// GetSession fetches a session by id regardless of owner.
func GetSession(ctx context.Context, db *gorm.DB, id string) (*domain.ChatSession, error) {
	var s domain.ChatSession
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// FindSession fetches the session for a (user, character) pair.
func FindSession(ctx context.Context, db *gorm.DB, userID string, characterID int64) (*domain.ChatSession, error) {
	var s domain.ChatSession
	err := db.WithContext(ctx).
		Where("user_id = ? AND character_id = ?", userID, characterID).
		Take(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CountSessions returns how many sessions userID owns.
func CountSessions(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.ChatSession{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListSessionsPage returns a page of userID's sessions, pinned first and
// then by most recent message, with the character preloaded.
func ListSessionsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.ChatSession, error) {
	var out []domain.ChatSession
	err := db.WithContext(ctx).
		Preload("Character").
		Where("user_id = ?", userID).
		Order("is_pinned desc").
		Order("last_message_at desc").
		Order("id asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// TouchSession records the latest message snapshot and adds unreadDelta to
// the unread counter.
func TouchSession(ctx context.Context, db *gorm.DB, id, lastMessage string, at time.Time, unreadDelta int) error {
	updates := map[string]any{
		"last_message":    lastMessage,
		"last_message_at": at,
		"updated_at":      time.Now().UTC(),
	}
	if unreadDelta != 0 {
		updates["unread_count"] = gorm.Expr("unread_count + ?", unreadDelta)
	}
	res := db.WithContext(ctx).Model(&domain.ChatSession{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkSessionRead zeroes the unread counter. updated_at moves with it so
// list ETags change.
func MarkSessionRead(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).
		Model(&domain.ChatSession{}).
		Where("id = ? AND unread_count <> 0", id).
		Updates(map[string]any{"unread_count": 0, "updated_at": time.Now().UTC()}).Error
}

// SetSessionPinned writes the pinned flag.
func SetSessionPinned(ctx context.Context, db *gorm.DB, id string, pinned bool) error {
	res := db.WithContext(ctx).
		Model(&domain.ChatSession{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_pinned": pinned, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSession removes the session and its messages. Messages are deleted
// explicitly so no orphans remain even without FK cascades; callers run it
// inside a transaction.
func DeleteSession(ctx context.Context, db *gorm.DB, id string) error {
	if err := db.WithContext(ctx).Where("session_id = ?", id).Delete(&domain.ChatMessage{}).Error; err != nil {
		return err
	}
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.ChatSession{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
