package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-companion-backend/internal/domain"
	"github.com/tbourn/go-companion-backend/internal/repo"
)

const (
	minGiftQuantity = 1
	maxGiftQuantity = 99
	maxRankingLimit = 100
)

// GiftReceipt is the result of a successful SendGift.
type GiftReceipt struct {
	GiftName     string              `json:"gift_name"`
	Quantity     int                 `json:"quantity"`
	TotalPrice   int64               `json:"total_price"`
	NewBalance   int64               `json:"new_balance"`
	SessionID    string              `json:"session_id"`
	ThankMessage *domain.ChatMessage `json:"thank_message"`
	EventID      string              `json:"event_id"`
}

// GiftExchange sells gifts to characters.
type GiftExchange struct {
	Ledger   *Ledger
	Sessions *SessionStore
}

// SendGift debits price × quantity from userID, records the gift event,
// raises the character's like counter by quantity and appends a thank-you
// message to the session, creating it when absent. All writes go through
// db, which the caller runs as one transaction.
func (g *GiftExchange) SendGift(ctx context.Context, db *gorm.DB, userID string, ch *domain.Character, giftID int64, quantity int) (*GiftReceipt, error) {
	tr := otel.Tracer("services/GiftExchange")
	ctx, span := tr.Start(ctx, "SendGift",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int64("character.id", ch.ID),
			attribute.Int64("gift.id", giftID),
			attribute.Int("gift.quantity", quantity),
		),
	)
	defer span.End()

	if quantity < minGiftQuantity || quantity > maxGiftQuantity {
		return nil, ErrInvalidQuantity
	}
	gift, err := repo.GetGift(ctx, db, giftID)
	if err != nil {
		return nil, notFound(err, ErrGiftNotFound)
	}
	total := gift.Price * int64(quantity)

	ref := ch.ID
	desc := fmt.Sprintf("gift %s x%d to %s", gift.Name, quantity, ch.Name)
	entry, err := g.Ledger.ApplyEntry(ctx, db, userID, -total, domain.EntryGift, desc, &ref)
	if err != nil {
		return nil, err
	}

	id := g.Ledger.IDs.Generate()
	event := &domain.GiftEvent{
		ID:          id,
		UserID:      userID,
		CharacterID: ch.ID,
		GiftID:      gift.ID,
		Quantity:    quantity,
		UnitPrice:   gift.Price,
		TotalPrice:  total,
		EntryID:     entry.ID,
		CreatedAt:   entry.CreatedAt,
	}
	if err := repo.CreateGiftEvent(ctx, db, event); err != nil {
		return nil, err
	}
	if err := repo.IncrementLikeCount(ctx, db, ch.ID, int64(quantity)); err != nil {
		return nil, notFound(err, ErrCharacterNotFound)
	}

	sess, _, err := g.Sessions.GetOrCreate(ctx, db, userID, ch, false)
	if err != nil {
		return nil, err
	}
	text := thankYou(ch.Personality, gift.Name, gift.ID, quantity)
	msg, err := g.Sessions.AppendMessage(ctx, db, sess, domain.RoleAssistant, domain.ContentGift, text, 1)
	if err != nil {
		return nil, err
	}

	return &GiftReceipt{
		GiftName:     gift.Name,
		Quantity:     quantity,
		TotalPrice:   total,
		NewBalance:   entry.BalanceAfter,
		SessionID:    sess.ID,
		ThankMessage: msg,
		EventID:      id.String(),
	}, nil
}

// ListGifts returns the purchasable catalog.
func (g *GiftExchange) ListGifts(ctx context.Context, db *gorm.DB) ([]domain.Gift, error) {
	return repo.ListActiveGifts(ctx, db)
}

// History returns userID's gifts to characterID, newest first.
func (g *GiftExchange) History(ctx context.Context, db *gorm.DB, userID string, characterID int64, page, pageSize int) ([]repo.GiftRecord, int64, error) {
	_, pageSize, offset := clampPage(page, pageSize)
	total, err := repo.CountGiftEvents(ctx, db, userID, characterID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []repo.GiftRecord{}, 0, nil
	}
	items, err := repo.ListGiftEventsPage(ctx, db, userID, characterID, offset, pageSize)
	return items, total, err
}

// Ranking lists the top senders for characterID by coins spent.
func (g *GiftExchange) Ranking(ctx context.Context, db *gorm.DB, characterID int64, limit int) ([]repo.RankingRow, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > maxRankingLimit {
		limit = maxRankingLimit
	}
	rows, err := repo.GiftRanking(ctx, db, characterID, limit)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []repo.RankingRow{}
	}
	return rows, nil
}
