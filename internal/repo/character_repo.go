package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-companion-backend/internal/domain"
)

// GetCharacter fetches an active character by id.
func GetCharacter(ctx context.Context, db *gorm.DB, id int64) (*domain.Character, error) {
	var c domain.Character
	err := db.WithContext(ctx).
		Where("id = ? AND status = ?", id, domain.StatusActive).
		Take(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func characterScope(db *gorm.DB, category string) *gorm.DB {
	q := db.Model(&domain.Character{}).Where("status = ?", domain.StatusActive)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	return q
}

// CountCharacters counts active characters, optionally within a category.
func CountCharacters(ctx context.Context, db *gorm.DB, category string) (int64, error) {
	var total int64
	err := characterScope(db.WithContext(ctx), category).Count(&total).Error
	return total, err
}

// ListCharactersPage returns active characters, most chatted first.
func ListCharactersPage(ctx context.Context, db *gorm.DB, category string, offset, limit int) ([]domain.Character, error) {
	var out []domain.Character
	err := characterScope(db.WithContext(ctx), category).
		Order("chat_count desc").
		Order("id asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// IncrementChatCount bumps the chat counter of a character.
func IncrementChatCount(ctx context.Context, db *gorm.DB, id int64) error {
	return bumpCharacter(ctx, db, id, "chat_count", 1)
}

// IncrementLikeCount raises the like counter of a character by n.
func IncrementLikeCount(ctx context.Context, db *gorm.DB, id int64, n int64) error {
	return bumpCharacter(ctx, db, id, "like_count", n)
}

func bumpCharacter(ctx context.Context, db *gorm.DB, id int64, column string, n int64) error {
	res := db.WithContext(ctx).
		Model(&domain.Character{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", n))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountAllCharacters counts characters regardless of status. Seeding uses
// it to detect an empty catalog.
func CountAllCharacters(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Character{}).Count(&total).Error
	return total, err
}

// CreateCharacter inserts a catalog character.
func CreateCharacter(ctx context.Context, db *gorm.DB, c *domain.Character) error {
	if c.Status == "" {
		c.Status = domain.StatusActive
	}
	return db.WithContext(ctx).Create(c).Error
}
