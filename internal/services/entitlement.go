package services

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/tbourn/go-companion-backend/internal/domain"
	"github.com/tbourn/go-companion-backend/internal/repo"
)

// Entitlements records which premium characters a user has unlocked.
type Entitlements struct{}

// IsUnlocked reports whether userID may chat with characterID: free
// characters are always unlocked, premium ones need a grant.
func (Entitlements) IsUnlocked(ctx context.Context, db *gorm.DB, userID string, characterID int64) (bool, error) {
	ch, err := repo.GetCharacter(ctx, db, characterID)
	if err != nil {
		return false, notFound(err, ErrCharacterNotFound)
	}
	return Entitlements{}.unlocked(ctx, db, userID, ch)
}

func (Entitlements) unlocked(ctx context.Context, db *gorm.DB, userID string, ch *domain.Character) (bool, error) {
	if !ch.IsPremium {
		return true, nil
	}
	return repo.HasEntitlement(ctx, db, userID, ch.ID)
}

// Grant records the unlock paid by entryID. Granting twice is a no-op;
// granted reports whether this call created the row.
func (Entitlements) Grant(ctx context.Context, db *gorm.DB, userID string, characterID int64, entryID snowflake.ID) (granted bool, err error) {
	return repo.CreateEntitlement(ctx, db, userID, characterID, entryID)
}
