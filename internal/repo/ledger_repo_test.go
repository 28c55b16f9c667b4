package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/go-companion-backend/internal/domain"
)

func TestLedger_ListCountAndSum(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	if _, _, err := CreateAccount(ctx, db, "u1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := CreateAccount(ctx, db, "u2"); err != nil {
		t.Fatalf("create: %v", err)
	}

	amounts := []struct {
		user   string
		kind   string
		amount int64
	}{
		{"u1", domain.EntryReward, 100},
		{"u1", domain.EntryRecharge, 330},
		{"u1", domain.EntryGift, -50},
		{"u1", domain.EntryUnlock, -80},
		{"u2", domain.EntryReward, 100},
	}
	for _, a := range amounts {
		id := testNode.Generate()
		e := &domain.LedgerEntry{ID: id, UserID: a.user, Amount: a.amount, Kind: a.kind, CreatedAt: time.UnixMilli(id.Time()).UTC()}
		if err := CreateLedgerEntry(ctx, db, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	total, err := CountLedgerEntries(ctx, db, "u1", "")
	if err != nil || total != 4 {
		t.Fatalf("count all: %d %v", total, err)
	}
	total, err = CountLedgerEntries(ctx, db, "u1", domain.EntryGift)
	if err != nil || total != 1 {
		t.Fatalf("count gift: %d %v", total, err)
	}

	page, err := ListLedgerEntriesPage(ctx, db, "u1", "", 0, 2)
	if err != nil || len(page) != 2 {
		t.Fatalf("page: %d %v", len(page), err)
	}
	if page[0].Kind != domain.EntryUnlock || page[1].Kind != domain.EntryGift {
		t.Fatalf("expected newest first, got %s,%s", page[0].Kind, page[1].Kind)
	}

	sum, err := SumLedgerAmounts(ctx, db, "u1")
	if err != nil || sum != 300 {
		t.Fatalf("sum: %d %v", sum, err)
	}
	sum, err = SumLedgerAmounts(ctx, db, "nobody")
	if err != nil || sum != 0 {
		t.Fatalf("sum for unknown user: %d %v", sum, err)
	}
}

func TestCountLedgerEntries_Error_NoTable(t *testing.T) {
	db := newBareDB(t)
	if _, err := CountLedgerEntries(context.Background(), db, "u1", ""); err == nil {
		t.Fatalf("expected error without ledger table")
	}
}
