// Package services – Ledger
//
// Ledger is the authoritative store of coin balances. A balance only moves
// together with an appended, immutable LedgerEntry, in one unit of work:
// the guarded UPDATE in repo.AdjustBalance refuses debits that would go
// negative, and the entry insert runs in the same transaction.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-companion-backend/internal/domain"
	"github.com/tbourn/go-companion-backend/internal/repo"
)

// Ledger applies and lists balance changes. It holds no *gorm.DB: callers
// pass the handle, usually their open transaction.
type Ledger struct {
	IDs *snowflake.Node
}

// GetBalance returns the current balance of userID.
func (l *Ledger) GetBalance(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	acc, err := repo.GetAccount(ctx, db, userID)
	if err != nil {
		return 0, notFound(err, ErrAccountNotFound)
	}
	return acc.Coins, nil
}

// validEntry checks the amount sign against the kind.
func validEntry(kind string, amount int64) bool {
	switch kind {
	case domain.EntryRecharge, domain.EntryReward:
		return amount > 0
	case domain.EntryGift, domain.EntryUnlock:
		return amount < 0
	}
	return false
}

// ApplyEntry adds amount to userID's balance and appends the matching entry.
// Both writes commit or neither does; when db is already a transaction they
// run in a savepoint so a failure leaves the caller's work intact.
func (l *Ledger) ApplyEntry(ctx context.Context, db *gorm.DB, userID string, amount int64, kind, description string, refID *int64) (*domain.LedgerEntry, error) {
	tr := otel.Tracer("services/Ledger")
	ctx, span := tr.Start(ctx, "ApplyEntry",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("ledger.kind", kind),
			attribute.Int64("ledger.amount", amount),
		),
	)
	defer span.End()

	if !validEntry(kind, amount) {
		return nil, ErrInvalidEntry
	}

	var entry *domain.LedgerEntry
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		balance, err := repo.AdjustBalance(ctx, tx, userID, amount)
		switch {
		case errors.Is(err, repo.ErrInsufficientBalance):
			return ErrInsufficientFunds
		case errors.Is(err, repo.ErrNotFound):
			return ErrAccountNotFound
		case err != nil:
			return err
		}

		id := l.IDs.Generate()
		e := &domain.LedgerEntry{
			ID:           id,
			UserID:       userID,
			Amount:       amount,
			Kind:         kind,
			Description:  description,
			RefID:        refID,
			BalanceAfter: balance,
			CreatedAt:    time.UnixMilli(id.Time()).UTC(),
		}
		if err := repo.CreateLedgerEntry(ctx, tx, e); err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	log.Ctx(ctx).Debug().
		Str("user_id", userID).
		Str("kind", kind).
		Int64("amount", amount).
		Int64("balance", entry.BalanceAfter).
		Msg("ledger entry applied")
	return entry, nil
}

// ListTransactions returns a page of userID's entries, newest first,
// optionally restricted to one kind.
func (l *Ledger) ListTransactions(ctx context.Context, db *gorm.DB, userID, kind string, page, pageSize int) ([]domain.LedgerEntry, int64, error) {
	tr := otel.Tracer("services/Ledger")
	ctx, span := tr.Start(ctx, "ListTransactions",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("ledger.kind", kind),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	switch kind {
	case "", domain.EntryRecharge, domain.EntryReward, domain.EntryGift, domain.EntryUnlock:
	default:
		return nil, 0, ErrInvalidEntryType
	}
	_, pageSize, offset := clampPage(page, pageSize)

	total, err := repo.CountLedgerEntries(ctx, db, userID, kind)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.LedgerEntry{}, 0, nil
	}
	items, err := repo.ListLedgerEntriesPage(ctx, db, userID, kind, offset, pageSize)
	return items, total, err
}
