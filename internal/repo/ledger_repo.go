package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-companion-backend/internal/domain"
)

// CreateLedgerEntry appends e. Entries are never updated or deleted.
func CreateLedgerEntry(ctx context.Context, db *gorm.DB, e *domain.LedgerEntry) error {
	return db.WithContext(ctx).Create(e).Error
}

func ledgerScope(db *gorm.DB, userID, kind string) *gorm.DB {
	q := db.Model(&domain.LedgerEntry{}).Where("user_id = ?", userID)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	return q
}

// CountLedgerEntries counts a user's entries, optionally of one kind.
func CountLedgerEntries(ctx context.Context, db *gorm.DB, userID, kind string) (int64, error) {
	var total int64
	err := ledgerScope(db.WithContext(ctx), userID, kind).Count(&total).Error
	return total, err
}

// ListLedgerEntriesPage returns a user's entries newest first.
func ListLedgerEntriesPage(ctx context.Context, db *gorm.DB, userID, kind string, offset, limit int) ([]domain.LedgerEntry, error) {
	var out []domain.LedgerEntry
	err := ledgerScope(db.WithContext(ctx), userID, kind).
		Order("id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// SumLedgerAmounts returns the sum of all entry amounts for a user, which
// must equal the account balance.
func SumLedgerAmounts(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var row struct{ Total int64 }
	err := db.WithContext(ctx).
		Model(&domain.LedgerEntry{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ?", userID).
		Scan(&row).Error
	return row.Total, err
}
