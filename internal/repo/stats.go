package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-companion-backend/internal/domain"
)

// SessionsStats returns the session count and latest update time for a
// user; handlers derive list ETags from it.
func SessionsStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.ChatSession{}).Where("user_id = ?", userID)
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Ordered select instead of MAX(): SQLite returns MAX(datetime) as TEXT.
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// MessagesStats returns the message count and the newest message time of a
// session.
func MessagesStats(ctx context.Context, db *gorm.DB, sessionID string) (count int64, latest *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.ChatMessage{}).Where("session_id = ?", sessionID)
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	var row struct {
		CreatedAt time.Time
	}
	if err = q.Select("created_at").Order("id DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
