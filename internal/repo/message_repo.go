package repo

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/tbourn/go-companion-backend/internal/domain"
)

// CreateMessage appends a message. The creation time is taken from the
// snowflake id so that id order and created_at order agree.
func CreateMessage(ctx context.Context, db *gorm.DB, id snowflake.ID, sessionID, role, contentType, content string) (*domain.ChatMessage, error) {
	m := &domain.ChatMessage{
		ID:          id,
		SessionID:   sessionID,
		Role:        role,
		Content:     content,
		ContentType: contentType,
		CreatedAt:   time.UnixMilli(id.Time()).UTC(),
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// CountMessages returns the number of messages in a session.
func CountMessages(ctx context.Context, db *gorm.DB, sessionID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.ChatMessage{}).
		Where("session_id = ?", sessionID).
		Count(&total).Error
	return total, err
}

// ListMessagesPage returns page N counted from the newest messages, in
// ascending id order. offset 0 therefore yields the latest limit messages.
func ListMessagesPage(ctx context.Context, db *gorm.DB, sessionID string, offset, limit int) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
