package repo

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-companion-backend/internal/domain"
)

// newRepoDB opens a private in-memory database with the full schema.
func newRepoDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := SQLiteDSN(fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// newBareDB opens an in-memory database without any tables.
func newBareDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:bare_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

var testNode = func() *snowflake.Node {
	n, err := snowflake.NewNode(3)
	if err != nil {
		panic(err)
	}
	return n
}()

func seedCharacter(t *testing.T, db *gorm.DB, name string, premium bool, price int64) *domain.Character {
	t.Helper()
	c := &domain.Character{
		Name:        name,
		Greeting:    "hello from " + name,
		Personality: "gentle",
		Category:    "romance",
		IsPremium:   premium,
		Price:       price,
	}
	if err := CreateCharacter(context.Background(), db, c); err != nil {
		t.Fatalf("seed character: %v", err)
	}
	return c
}

func seedGift(t *testing.T, db *gorm.DB, name string, price int64, sort int) *domain.Gift {
	t.Helper()
	g := &domain.Gift{Name: name, Price: price, SortOrder: sort}
	if err := CreateGift(context.Background(), db, g); err != nil {
		t.Fatalf("seed gift: %v", err)
	}
	return g
}
