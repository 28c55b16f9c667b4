package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tbourn/go-companion-backend/internal/domain"
	"github.com/tbourn/go-companion-backend/internal/repo"
)

func TestLedger_ApplyEntryRules(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	l := &Ledger{IDs: newNode(t)}
	_, _, err := repo.CreateAccount(ctx, db, "u1")
	require.NoError(t, err)

	bad := []struct {
		kind   string
		amount int64
	}{
		{domain.EntryRecharge, 0},
		{domain.EntryRecharge, -5},
		{domain.EntryReward, -1},
		{domain.EntryGift, 10},
		{domain.EntryUnlock, 0},
		{"refund", 10},
	}
	for _, b := range bad {
		_, err := l.ApplyEntry(ctx, db, "u1", b.amount, b.kind, "", nil)
		assert.ErrorIs(t, err, ErrInvalidEntry, "%s %d", b.kind, b.amount)
	}

	e, err := l.ApplyEntry(ctx, db, "u1", 30, domain.EntryReward, "welcome", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(30), e.BalanceAfter)

	_, err = l.ApplyEntry(ctx, db, "u1", -31, domain.EntryGift, "too much", nil)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	ref := int64(7)
	e2, err := l.ApplyEntry(ctx, db, "u1", -30, domain.EntryUnlock, "all in", &ref)
	require.NoError(t, err)
	assert.Zero(t, e2.BalanceAfter)
	assert.Greater(t, int64(e2.ID), int64(e.ID))

	bal, err := l.GetBalance(ctx, db, "u1")
	require.NoError(t, err)
	assert.Zero(t, bal)

	_, err = l.ApplyEntry(ctx, db, "ghost", 10, domain.EntryReward, "", nil)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	_, err = l.GetBalance(ctx, db, "ghost")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	n, err := repo.CountLedgerEntries(ctx, db, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "failed entries leave nothing behind")
}

func TestLedger_ApplyEntryInsideCallerTransactionRollsBack(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	l := &Ledger{IDs: newNode(t)}
	_, _, err := repo.CreateAccount(ctx, db, "u1")
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		if _, err := l.ApplyEntry(ctx, tx, "u1", 50, domain.EntryReward, "", nil); err != nil {
			return err
		}
		return ErrGiftNotFound
	})
	require.ErrorIs(t, err, ErrGiftNotFound)

	bal, err := l.GetBalance(ctx, db, "u1")
	require.NoError(t, err)
	assert.Zero(t, bal)
	n, err := repo.CountLedgerEntries(ctx, db, "u1", "")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLedger_ListTransactionsPaging(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	l := &Ledger{IDs: newNode(t)}
	_, _, err := repo.CreateAccount(ctx, db, "u1")
	require.NoError(t, err)
	for i := int64(1); i <= 5; i++ {
		_, err := l.ApplyEntry(ctx, db, "u1", i, domain.EntryReward, "", nil)
		require.NoError(t, err)
	}

	items, total, err := l.ListTransactions(ctx, db, "u1", "", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, items, 2)
	assert.Equal(t, int64(3), items[0].Amount, "newest first")

	items, total, err = l.ListTransactions(ctx, db, "u1", domain.EntryGift, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, items)
}
