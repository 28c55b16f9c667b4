package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-companion-backend/internal/catalog"
	"github.com/tbourn/go-companion-backend/internal/domain"
	"github.com/tbourn/go-companion-backend/internal/repo"
)

// Seed loads cat into an empty database and opens its demo accounts.
// Characters, gifts and moments are only inserted when no character exists
// yet; demo accounts are created once and funded through reward entries so
// their balance reconciles with the ledger. Safe to run on every start.
func (e *Economy) Seed(ctx context.Context, cat *catalog.Catalog) error {
	n, err := repo.CountAllCharacters(ctx, e.DB)
	if err != nil {
		return err
	}
	if n == 0 {
		if err := e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return seedContent(ctx, tx, cat)
		}); err != nil {
			return err
		}
		log.Info().
			Int("characters", len(cat.Characters)).
			Int("gifts", len(cat.Gifts)).
			Int("moments", len(cat.Moments)).
			Msg("catalog seeded")
	}

	for _, a := range cat.Accounts {
		if err := e.seedAccount(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func seedContent(ctx context.Context, tx *gorm.DB, cat *catalog.Catalog) error {
	byName := make(map[string]int64, len(cat.Characters))
	for _, cs := range cat.Characters {
		c := &domain.Character{
			Name:        cs.Name,
			Avatar:      cs.Avatar,
			Description: cs.Description,
			Personality: cs.Personality,
			Category:    cs.Category,
			Tags:        strings.Join(cs.Tags, ","),
			Greeting:    cs.Greeting,
			IsPremium:   cs.Premium,
			Price:       cs.Price,
		}
		if err := repo.CreateCharacter(ctx, tx, c); err != nil {
			return err
		}
		byName[c.Name] = c.ID
	}
	for _, gs := range cat.Gifts {
		g := &domain.Gift{
			Name:        gs.Name,
			Icon:        gs.Icon,
			Price:       gs.Price,
			Affinity:    gs.Affinity,
			Description: gs.Description,
			SortOrder:   gs.SortOrder,
		}
		if err := repo.CreateGift(ctx, tx, g); err != nil {
			return err
		}
	}
	// Later catalog entries are older posts.
	now := time.Now().UTC()
	for i, ms := range cat.Moments {
		m := &domain.Moment{
			CharacterID: byName[ms.Character],
			Content:     ms.Content,
			Images:      strings.Join(ms.Images, ","),
			CreatedAt:   now.Add(-time.Duration(i) * time.Hour),
		}
		if err := repo.CreateMoment(ctx, tx, m); err != nil {
			return err
		}
	}
	return nil
}

func (e *Economy) seedAccount(ctx context.Context, a catalog.AccountSpec) error {
	var entry *domain.LedgerEntry
	err := e.write(ctx, a.ID, func(tx *gorm.DB) error {
		_, created, err := repo.CreateAccount(ctx, tx, a.ID)
		if err != nil || !created {
			return err
		}
		if a.Coins > 0 {
			entry, err = e.Ledger.ApplyEntry(ctx, tx, a.ID, a.Coins, domain.EntryReward, "initial balance", nil)
			if err != nil {
				return err
			}
		}
		if a.VIPLevel > 0 {
			exp := time.Now().UTC().AddDate(0, 0, a.VIPDays)
			if err := repo.SetVIP(ctx, tx, a.ID, a.VIPLevel, &exp); err != nil {
				return err
			}
		}
		if a.Status == domain.AccountBanned {
			return repo.SetAccountStatus(ctx, tx, a.ID, domain.AccountBanned)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if entry != nil {
		observeEntries(entry.Kind, entry.Amount)
		log.Info().Str("user_id", a.ID).Int64("coins", a.Coins).Msg("demo account created")
	}
	return nil
}
