package repo

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIdempotency_CreateGetAndDuplicate(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	scope := "POST /api/v1/wallet/recharge"

	if _, err := GetIdempotency(ctx, db, "u1", scope, "k1", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	rec, err := CreateIdempotency(ctx, db, "u1", scope, "k1", 200, []byte(`{"coins_added":60}`), time.Hour)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := GetIdempotency(ctx, db, "u1", scope, "k1", time.Now().UTC())
	if err != nil || got.ID != rec.ID || got.Body != `{"coins_added":60}` || got.Status != 200 {
		t.Fatalf("get: %+v %v", got, err)
	}
	if _, err := CreateIdempotency(ctx, db, "u1", scope, "k1", 200, nil, time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	// Same key in another scope is independent.
	if _, err := CreateIdempotency(ctx, db, "u1", "POST /other", "k1", 201, []byte("{}"), time.Hour); err != nil {
		t.Fatalf("other scope: %v", err)
	}
}

func TestIdempotency_ExpiredIsInvisibleAndPurged(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	if _, err := CreateIdempotency(ctx, db, "u1", "s", "k", 200, []byte("{}"), time.Minute); err != nil {
		t.Fatalf("create: %v", err)
	}
	future := time.Now().UTC().Add(2 * time.Minute)
	if _, err := GetIdempotency(ctx, db, "u1", "s", "k", future); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired record must not be returned, got %v", err)
	}
	n, err := PurgeExpiredIdempotency(ctx, db, future)
	if err != nil || n != 1 {
		t.Fatalf("purge: %d %v", n, err)
	}
}

func TestCreateIdempotency_Error_NoTable(t *testing.T) {
	db := newBareDB(t)
	if _, err := CreateIdempotency(context.Background(), db, "u", "s", "k", 200, nil, time.Hour); err == nil || errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected a plain DB error, got %v", err)
	}
}
