package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-companion-backend/internal/domain"
)

// CreateAccount inserts an active account with a zero balance unless one
// already exists. created reports whether this call inserted the row.
func CreateAccount(ctx context.Context, db *gorm.DB, userID string) (acc *domain.Account, created bool, err error) {
	now := time.Now().UTC()
	a := &domain.Account{
		ID:        userID,
		Status:    domain.AccountActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(a)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		existing, err := GetAccount(ctx, db, userID)
		return existing, false, err
	}
	return a, true, nil
}

// GetAccount fetches an account by id or returns ErrNotFound.
func GetAccount(ctx context.Context, db *gorm.DB, userID string) (*domain.Account, error) {
	var a domain.Account
	if err := db.WithContext(ctx).Where("id = ?", userID).Take(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAccountForUpdate is GetAccount with a row lock on drivers that support
// it. SQLite ignores the locking clause; its writer lock serializes instead.
func GetAccountForUpdate(ctx context.Context, db *gorm.DB, userID string) (*domain.Account, error) {
	var a domain.Account
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", userID).
		Take(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// AdjustBalance adds delta to the account balance in a single guarded
// UPDATE and returns the new balance. A debit that would drive the balance
// negative matches no row and yields ErrInsufficientBalance.
func AdjustBalance(ctx context.Context, db *gorm.DB, userID string, delta int64) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Account{}).
		Where("id = ? AND coins + ? >= 0", userID, delta).
		Updates(map[string]any{
			"coins":      gorm.Expr("coins + ?", delta),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := db.WithContext(ctx).Model(&domain.Account{}).Where("id = ?", userID).Count(&n).Error; err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, ErrNotFound
		}
		return 0, ErrInsufficientBalance
	}

	var row struct{ Coins int64 }
	if err := db.WithContext(ctx).Model(&domain.Account{}).Select("coins").Where("id = ?", userID).Take(&row).Error; err != nil {
		return 0, err
	}
	return row.Coins, nil
}

// SetVIP updates the VIP tier and its expiry.
func SetVIP(ctx context.Context, db *gorm.DB, userID string, level int, expiresAt *time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Account{}).
		Where("id = ?", userID).
		Updates(map[string]any{"vip_level": level, "vip_expire_at": expiresAt, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAccountStatus switches an account between active and banned.
func SetAccountStatus(ctx context.Context, db *gorm.DB, userID, status string) error {
	res := db.WithContext(ctx).
		Model(&domain.Account{}).
		Where("id = ?", userID).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
