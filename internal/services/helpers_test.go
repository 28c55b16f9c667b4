package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-companion-backend/internal/catalog"
	"github.com/tbourn/go-companion-backend/internal/domain"
	"github.com/tbourn/go-companion-backend/internal/repo"
)

// fixture is an Economy over a private database with a small catalog:
// a free gentle character, two premium ones and two gifts.
type fixture struct {
	econ    *Economy
	db      *gorm.DB
	free    *domain.Character
	premium *domain.Character // price 80
	cheaper *domain.Character // price 50
	rose    *domain.Gift      // price 50
	diamond *domain.Gift      // price 80
}

var testCatalog = &catalog.Catalog{
	RechargeTiers: []catalog.RechargeTier{
		{Amount: 6, Coins: 60},
		{Amount: 40, Coins: 400},
	},
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "svc.db"))
	require.NoError(t, err)
	db.Logger = logger.Default.LogMode(logger.Silent)
	require.NoError(t, repo.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newNode(t *testing.T) *snowflake.Node {
	t.Helper()
	n, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return n
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	db := newTestDB(t)
	ctx := context.Background()
	f := &fixture{
		econ:    NewEconomy(db, testCatalog, newNode(t), opts),
		db:      db,
		free:    &domain.Character{Name: "Mira", Personality: "gentle", Category: "romance", Greeting: "Hi, I'm Mira~"},
		premium: &domain.Character{Name: "Sable", Personality: "aloof", Category: "romance", Greeting: "Hm. You again!", IsPremium: true, Price: 80},
		cheaper: &domain.Character{Name: "Quinn", Personality: "lively", Category: "friend", Greeting: "Yo!", IsPremium: true, Price: 50},
		rose:    &domain.Gift{Name: "Rose", Price: 50, SortOrder: 1},
		diamond: &domain.Gift{Name: "Diamond", Price: 80, SortOrder: 2},
	}
	for _, c := range []*domain.Character{f.free, f.premium, f.cheaper} {
		require.NoError(t, repo.CreateCharacter(ctx, db, c))
	}
	for _, g := range []*domain.Gift{f.rose, f.diamond} {
		require.NoError(t, repo.CreateGift(ctx, db, g))
	}
	return f
}

// account opens userID with the signup bonus and recharges tier 40 n times.
func (f *fixture) account(t *testing.T, userID string, recharges int) {
	t.Helper()
	ctx := context.Background()
	_, _, err := f.econ.EnsureAccount(ctx, userID)
	require.NoError(t, err)
	for i := 0; i < recharges; i++ {
		_, err := f.econ.Recharge(ctx, userID, 40)
		require.NoError(t, err)
	}
}

func (f *fixture) balance(t *testing.T, userID string) int64 {
	t.Helper()
	w, err := f.econ.GetBalance(context.Background(), userID)
	require.NoError(t, err)
	return w.Coins
}

// reconciled asserts the balance equals the sum of the ledger.
func (f *fixture) reconciled(t *testing.T, userID string) {
	t.Helper()
	sum, err := repo.SumLedgerAmounts(context.Background(), f.db, userID)
	require.NoError(t, err)
	require.Equal(t, sum, f.balance(t, userID), "balance must equal the ledger sum")
}

func (f *fixture) reload(t *testing.T, c *domain.Character) *domain.Character {
	t.Helper()
	got, err := repo.GetCharacter(context.Background(), f.db, c.ID)
	require.NoError(t, err)
	return got
}
