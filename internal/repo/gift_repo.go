package repo

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/tbourn/go-companion-backend/internal/domain"
)

// GiftRecord is a gift event joined with its catalog entry.
type GiftRecord struct {
	ID         snowflake.ID `json:"id"`
	GiftID     int64        `json:"gift_id"`
	GiftName   string       `json:"gift_name"`
	GiftIcon   string       `json:"gift_icon"`
	Quantity   int          `json:"quantity"`
	TotalPrice int64        `json:"total_price"`
	CreatedAt  time.Time    `json:"created_at"`
}

// RankingRow is one line of a per-character gift leaderboard.
type RankingRow struct {
	UserID     string `json:"user_id"`
	TotalSpent int64  `json:"total_spent"`
	GiftCount  int64  `json:"gift_count"`
}

// GetGift fetches an active gift by id.
func GetGift(ctx context.Context, db *gorm.DB, id int64) (*domain.Gift, error) {
	var g domain.Gift
	err := db.WithContext(ctx).
		Where("id = ? AND status = ?", id, domain.StatusActive).
		Take(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ListActiveGifts returns the purchasable catalog in display order.
func ListActiveGifts(ctx context.Context, db *gorm.DB) ([]domain.Gift, error) {
	var out []domain.Gift
	err := db.WithContext(ctx).
		Where("status = ?", domain.StatusActive).
		Order("sort_order asc").
		Order("price asc").
		Find(&out).Error
	return out, err
}

// CreateGiftEvent appends an immutable gift event.
func CreateGiftEvent(ctx context.Context, db *gorm.DB, e *domain.GiftEvent) error {
	return db.WithContext(ctx).Create(e).Error
}

// CountGiftEvents counts events sent by userID to characterID.
func CountGiftEvents(ctx context.Context, db *gorm.DB, userID string, characterID int64) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.GiftEvent{}).
		Where("user_id = ? AND character_id = ?", userID, characterID).
		Count(&n).Error
	return n, err
}

// ListGiftEventsPage returns userID's gifts to characterID, newest first.
func ListGiftEventsPage(ctx context.Context, db *gorm.DB, userID string, characterID int64, offset, limit int) ([]GiftRecord, error) {
	var out []GiftRecord
	err := db.WithContext(ctx).
		Table("gift_events AS ge").
		Select("ge.id, ge.gift_id, g.name AS gift_name, g.icon AS gift_icon, ge.quantity, ge.total_price, ge.created_at").
		Joins("JOIN gifts AS g ON g.id = ge.gift_id").
		Where("ge.user_id = ? AND ge.character_id = ?", userID, characterID).
		Order("ge.id desc").
		Offset(offset).
		Limit(limit).
		Scan(&out).Error
	return out, err
}

// GiftRanking ranks senders by coins spent on characterID.
func GiftRanking(ctx context.Context, db *gorm.DB, characterID int64, limit int) ([]RankingRow, error) {
	var out []RankingRow
	err := db.WithContext(ctx).
		Model(&domain.GiftEvent{}).
		Select("user_id, SUM(total_price) AS total_spent, SUM(quantity) AS gift_count").
		Where("character_id = ?", characterID).
		Group("user_id").
		Order("total_spent desc").
		Order("user_id asc").
		Limit(limit).
		Scan(&out).Error
	return out, err
}

// CreateGift inserts a catalog gift.
func CreateGift(ctx context.Context, db *gorm.DB, g *domain.Gift) error {
	if g.Status == "" {
		g.Status = domain.StatusActive
	}
	return db.WithContext(ctx).Create(g).Error
}
