// Package services – Economy
//
// Economy is the single entry surface of the engine. Every mutating
// operation takes the caller's per-user lock and runs as one database
// transaction, so the balance check, the balance write, the ledger append
// and any dependent write (entitlement, gift event, session append) commit
// together or not at all.
//
// Observability: public methods are OpenTelemetry-instrumented and counted
// in economy_operations_total; committed ledger entries feed the
// economy_coins_* counters.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-companion-backend/internal/catalog"
	"github.com/tbourn/go-companion-backend/internal/domain"
	"github.com/tbourn/go-companion-backend/internal/repo"
)

// Wallet is the balance view of an account.
type Wallet struct {
	UserID      string     `json:"user_id"`
	Coins       int64      `json:"coins"`
	VIPLevel    int        `json:"vip_level"`
	VIPExpireAt *time.Time `json:"vip_expire_at"`
}

func walletOf(a *domain.Account) *Wallet {
	return &Wallet{UserID: a.ID, Coins: a.Coins, VIPLevel: a.VIPLevel, VIPExpireAt: a.VIPExpireAt}
}

// RechargeResult reports a credited recharge.
type RechargeResult struct {
	CoinsAdded int64  `json:"coins_added"`
	Bonus      int64  `json:"bonus"`
	NewBalance int64  `json:"new_balance"`
	EntryID    string `json:"entry_id"`
}

// UnlockStatus answers CheckUnlock.
type UnlockStatus struct {
	Unlocked bool  `json:"unlocked"`
	Price    int64 `json:"price"`
}

// UnlockResult reports UnlockCharacter. Charged is zero when nothing was
// debited (free character or already unlocked).
type UnlockResult struct {
	Success         bool  `json:"success"`
	AlreadyUnlocked bool  `json:"already_unlocked"`
	Charged         int64 `json:"charged"`
	NewBalance      int64 `json:"new_balance"`
}

// CharacterView is a character annotated for the caller.
type CharacterView struct {
	domain.Character
	IsUnlocked bool `json:"is_unlocked"`
}

// Options tune an Economy.
type Options struct {
	// SignupBonus is credited as a reward entry when an account is created.
	SignupBonus int64
	// MaxMessageRunes bounds user messages.
	MaxMessageRunes int
}

// Economy composes the ledger, entitlement, session and gift stores.
type Economy struct {
	DB           *gorm.DB
	Catalog      *catalog.Catalog
	Ledger       *Ledger
	Entitlements Entitlements
	Sessions     *SessionStore
	Gifts        *GiftExchange

	SignupBonus int64

	locks *userLocks
}

// NewEconomy wires the stores around one database handle and id node.
func NewEconomy(db *gorm.DB, cat *catalog.Catalog, ids *snowflake.Node, opts Options) *Economy {
	if cat == nil {
		cat = catalog.Default()
	}
	ledger := &Ledger{IDs: ids}
	sessions := &SessionStore{IDs: ids, MaxMessageRunes: opts.MaxMessageRunes}
	return &Economy{
		DB:          db,
		Catalog:     cat,
		Ledger:      ledger,
		Sessions:    sessions,
		Gifts:       &GiftExchange{Ledger: ledger, Sessions: sessions},
		SignupBonus: opts.SignupBonus,
		locks:       &userLocks{},
	}
}

var errGrantLost = errors.New("entitlement granted concurrently")

func (e *Economy) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer("services/Economy").Start(ctx, op, trace.WithAttributes(attrs...))
}

// write runs fn in a transaction while holding userID's lock.
func (e *Economy) write(ctx context.Context, userID string, fn func(tx *gorm.DB) error) error {
	unlock := e.locks.lock(userID)
	defer unlock()
	return e.DB.WithContext(ctx).Transaction(fn)
}

// activeAccount loads userID inside a write transaction and rejects banned
// accounts. On postgres and mysql the row stays locked until commit, which
// serializes writers running in other processes.
func activeAccount(ctx context.Context, tx *gorm.DB, userID string) (*domain.Account, error) {
	acc, err := repo.GetAccountForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, notFound(err, ErrAccountNotFound)
	}
	if acc.Status == domain.AccountBanned {
		return nil, ErrAccountBanned
	}
	return acc, nil
}

func character(ctx context.Context, db *gorm.DB, id int64) (*domain.Character, error) {
	ch, err := repo.GetCharacter(ctx, db, id)
	if err != nil {
		return nil, notFound(err, ErrCharacterNotFound)
	}
	return ch, nil
}

// EnsureAccount creates userID's account on first contact and credits the
// signup bonus. Later calls return the existing wallet. created reports
// whether this call opened the account.
func (e *Economy) EnsureAccount(ctx context.Context, userID string) (w *Wallet, created bool, err error) {
	ctx, span := e.start(ctx, "EnsureAccount", attribute.String("user.id", userID))
	defer span.End()
	defer func() { observeOp("ensure_account", err) }()

	var bonus *domain.LedgerEntry
	err = e.write(ctx, userID, func(tx *gorm.DB) error {
		acc, isNew, err := repo.CreateAccount(ctx, tx, userID)
		if err != nil {
			return err
		}
		if acc.Status == domain.AccountBanned {
			return ErrAccountBanned
		}
		created = isNew
		if isNew && e.SignupBonus > 0 {
			bonus, err = e.Ledger.ApplyEntry(ctx, tx, userID, e.SignupBonus, domain.EntryReward, "signup bonus", nil)
			if err != nil {
				return err
			}
			acc.Coins = bonus.BalanceAfter
		}
		w = walletOf(acc)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if bonus != nil {
		observeEntries(bonus.Kind, bonus.Amount)
	}
	return w, created, nil
}

// GetBalance returns userID's wallet.
func (e *Economy) GetBalance(ctx context.Context, userID string) (*Wallet, error) {
	ctx, span := e.start(ctx, "GetBalance", attribute.String("user.id", userID))
	defer span.End()

	acc, err := repo.GetAccount(ctx, e.DB, userID)
	if err != nil {
		return nil, notFound(err, ErrAccountNotFound)
	}
	return walletOf(acc), nil
}

// ListTransactions pages userID's ledger, newest first.
func (e *Economy) ListTransactions(ctx context.Context, userID, kind string, page, pageSize int) ([]domain.LedgerEntry, int64, error) {
	if _, err := repo.GetAccount(ctx, e.DB, userID); err != nil {
		return nil, 0, notFound(err, ErrAccountNotFound)
	}
	return e.Ledger.ListTransactions(ctx, e.DB, userID, kind, page, pageSize)
}

// RechargeOptions lists the recharge tiers by amount.
func (e *Economy) RechargeOptions() []catalog.RechargeTier {
	return e.Catalog.Tiers()
}

// Recharge credits the coins of the tier matching amount. Payment is
// assumed to have been validated by the caller.
func (e *Economy) Recharge(ctx context.Context, userID string, amount int64) (res *RechargeResult, err error) {
	ctx, span := e.start(ctx, "Recharge",
		attribute.String("user.id", userID),
		attribute.Int64("recharge.amount", amount),
	)
	defer span.End()
	defer func() { observeOp("recharge", err) }()

	tier, ok := e.Catalog.Tier(amount)
	if !ok {
		return nil, ErrUnknownRechargeTier
	}

	var entry *domain.LedgerEntry
	err = e.write(ctx, userID, func(tx *gorm.DB) error {
		if _, err := activeAccount(ctx, tx, userID); err != nil {
			return err
		}
		entry, err = e.Ledger.ApplyEntry(ctx, tx, userID, tier.Total(), domain.EntryRecharge, fmt.Sprintf("recharge ¥%d", amount), nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	observeEntries(entry.Kind, entry.Amount)
	return &RechargeResult{
		CoinsAdded: tier.Total(),
		Bonus:      tier.Bonus,
		NewBalance: entry.BalanceAfter,
		EntryID:    entry.ID.String(),
	}, nil
}

// CheckUnlock reports whether userID may chat with characterID and its
// unlock price.
func (e *Economy) CheckUnlock(ctx context.Context, userID string, characterID int64) (*UnlockStatus, error) {
	ctx, span := e.start(ctx, "CheckUnlock",
		attribute.String("user.id", userID),
		attribute.Int64("character.id", characterID),
	)
	defer span.End()

	ch, err := character(ctx, e.DB, characterID)
	if err != nil {
		return nil, err
	}
	ok, err := e.Entitlements.unlocked(ctx, e.DB, userID, ch)
	if err != nil {
		return nil, err
	}
	return &UnlockStatus{Unlocked: ok, Price: ch.Price}, nil
}

// UnlockCharacter buys access to a premium character. Free characters and
// repeated unlocks succeed without a debit.
func (e *Economy) UnlockCharacter(ctx context.Context, userID string, characterID int64) (res *UnlockResult, err error) {
	ctx, span := e.start(ctx, "UnlockCharacter",
		attribute.String("user.id", userID),
		attribute.Int64("character.id", characterID),
	)
	defer span.End()
	defer func() { observeOp("unlock", err) }()

	var entry *domain.LedgerEntry
	err = e.write(ctx, userID, func(tx *gorm.DB) error {
		acc, err := activeAccount(ctx, tx, userID)
		if err != nil {
			return err
		}
		ch, err := character(ctx, tx, characterID)
		if err != nil {
			return err
		}
		res = &UnlockResult{Success: true, NewBalance: acc.Coins}
		if !ch.IsPremium {
			return nil
		}
		has, err := repo.HasEntitlement(ctx, tx, userID, ch.ID)
		if err != nil {
			return err
		}
		if has {
			res.AlreadyUnlocked = true
			return nil
		}

		ref := ch.ID
		entry, err = e.Ledger.ApplyEntry(ctx, tx, userID, -ch.Price, domain.EntryUnlock, "unlock "+ch.Name, &ref)
		if err != nil {
			return err
		}
		granted, err := e.Entitlements.Grant(ctx, tx, userID, ch.ID, entry.ID)
		if err != nil {
			return err
		}
		if !granted {
			// Another process granted first; undo this debit.
			return errGrantLost
		}
		res.Charged = ch.Price
		res.NewBalance = entry.BalanceAfter
		return nil
	})
	if errors.Is(err, errGrantLost) {
		acc, gerr := repo.GetAccount(ctx, e.DB, userID)
		if gerr != nil {
			return nil, gerr
		}
		return &UnlockResult{Success: true, AlreadyUnlocked: true, NewBalance: acc.Coins}, nil
	}
	if err != nil {
		return nil, err
	}
	if entry != nil {
		observeEntries(entry.Kind, entry.Amount)
		log.Ctx(ctx).Info().Str("user_id", userID).Int64("character_id", characterID).Int64("price", res.Charged).Msg("character unlocked")
	}
	return res, nil
}

// SendGift spends coins on a gift for characterID. No unlock is required.
func (e *Economy) SendGift(ctx context.Context, userID string, characterID, giftID int64, quantity int) (res *GiftReceipt, err error) {
	ctx, span := e.start(ctx, "SendGift",
		attribute.String("user.id", userID),
		attribute.Int64("character.id", characterID),
		attribute.Int64("gift.id", giftID),
	)
	defer span.End()
	defer func() { observeOp("send_gift", err) }()

	if quantity < minGiftQuantity || quantity > maxGiftQuantity {
		return nil, ErrInvalidQuantity
	}
	err = e.write(ctx, userID, func(tx *gorm.DB) error {
		if _, err := activeAccount(ctx, tx, userID); err != nil {
			return err
		}
		ch, err := character(ctx, tx, characterID)
		if err != nil {
			return err
		}
		res, err = e.Gifts.SendGift(ctx, tx, userID, ch, giftID, quantity)
		return err
	})
	if err != nil {
		return nil, err
	}
	observeEntries(domain.EntryGift, -res.TotalPrice)
	return res, nil
}

// ListGifts returns the gift catalog.
func (e *Economy) ListGifts(ctx context.Context) ([]domain.Gift, error) {
	return e.Gifts.ListGifts(ctx, e.DB)
}

// GiftHistory pages userID's gifts to characterID.
func (e *Economy) GiftHistory(ctx context.Context, userID string, characterID int64, page, pageSize int) ([]repo.GiftRecord, int64, error) {
	if _, err := character(ctx, e.DB, characterID); err != nil {
		return nil, 0, err
	}
	return e.Gifts.History(ctx, e.DB, userID, characterID, page, pageSize)
}

// GiftRanking lists the top gift senders for characterID.
func (e *Economy) GiftRanking(ctx context.Context, characterID int64, limit int) ([]repo.RankingRow, error) {
	if _, err := character(ctx, e.DB, characterID); err != nil {
		return nil, err
	}
	return e.Gifts.Ranking(ctx, e.DB, characterID, limit)
}

// ListCharacters pages the active characters, most chatted first.
func (e *Economy) ListCharacters(ctx context.Context, userID, category string, page, pageSize int) ([]CharacterView, int64, error) {
	ctx, span := e.start(ctx, "ListCharacters",
		attribute.String("user.id", userID),
		attribute.String("character.category", category),
	)
	defer span.End()

	_, pageSize, offset := clampPage(page, pageSize)
	total, err := repo.CountCharacters(ctx, e.DB, category)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []CharacterView{}, 0, nil
	}
	chars, err := repo.ListCharactersPage(ctx, e.DB, category, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]int64, 0, len(chars))
	for _, c := range chars {
		if c.IsPremium {
			ids = append(ids, c.ID)
		}
	}
	owned, err := repo.ListEntitledCharacterIDs(ctx, e.DB, userID, ids)
	if err != nil {
		return nil, 0, err
	}
	out := make([]CharacterView, len(chars))
	for i, c := range chars {
		out[i] = CharacterView{Character: c, IsUnlocked: !c.IsPremium || owned[c.ID]}
	}
	return out, total, nil
}

// GetCharacter returns one character annotated for userID.
func (e *Economy) GetCharacter(ctx context.Context, userID string, id int64) (*CharacterView, error) {
	ch, err := character(ctx, e.DB, id)
	if err != nil {
		return nil, err
	}
	ok, err := e.Entitlements.unlocked(ctx, e.DB, userID, ch)
	if err != nil {
		return nil, err
	}
	return &CharacterView{Character: *ch, IsUnlocked: ok}, nil
}

// ListSessions pages userID's sessions.
func (e *Economy) ListSessions(ctx context.Context, userID string, page, pageSize int) ([]domain.ChatSession, int64, error) {
	return e.Sessions.ListPage(ctx, e.DB, userID, page, pageSize)
}

// OpenSession returns userID's session with characterID, creating it on
// first contact, and marks it read. Locked premium characters are refused.
func (e *Economy) OpenSession(ctx context.Context, userID string, characterID int64) (sess *domain.ChatSession, err error) {
	ctx, span := e.start(ctx, "OpenSession",
		attribute.String("user.id", userID),
		attribute.Int64("character.id", characterID),
	)
	defer span.End()
	defer func() { observeOp("open_session", err) }()

	err = e.write(ctx, userID, func(tx *gorm.DB) error {
		if _, err := activeAccount(ctx, tx, userID); err != nil {
			return err
		}
		ch, err := character(ctx, tx, characterID)
		if err != nil {
			return err
		}
		ok, err := e.Entitlements.unlocked(ctx, tx, userID, ch)
		if err != nil {
			return err
		}
		if !ok {
			return ErrCharacterLocked
		}
		sess, _, err = e.Sessions.GetOrCreate(ctx, tx, userID, ch, true)
		if err != nil {
			return err
		}
		sess.Character = ch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// ListMessages pages a session the caller owns.
func (e *Economy) ListMessages(ctx context.Context, userID, sessionID string, page, pageSize int) ([]domain.ChatMessage, int64, error) {
	if _, err := e.Sessions.Owned(ctx, e.DB, userID, sessionID); err != nil {
		return nil, 0, err
	}
	return e.Sessions.ListMessages(ctx, e.DB, sessionID, page, pageSize)
}

// SendMessage appends the caller's message and the character's reply.
func (e *Economy) SendMessage(ctx context.Context, userID, sessionID, content string) (userMsg, reply *domain.ChatMessage, err error) {
	ctx, span := e.start(ctx, "SendMessage",
		attribute.String("user.id", userID),
		attribute.String("session.id", sessionID),
	)
	defer span.End()
	defer func() { observeOp("send_message", err) }()

	err = e.write(ctx, userID, func(tx *gorm.DB) error {
		if _, err := activeAccount(ctx, tx, userID); err != nil {
			return err
		}
		sess, err := e.Sessions.Owned(ctx, tx, userID, sessionID)
		if err != nil {
			return err
		}
		ch, err := character(ctx, tx, sess.CharacterID)
		if err != nil {
			return err
		}
		ok, err := e.Entitlements.unlocked(ctx, tx, userID, ch)
		if err != nil {
			return err
		}
		if !ok {
			return ErrCharacterLocked
		}
		userMsg, reply, err = e.Sessions.SendUserMessage(ctx, tx, sess, ch, content)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return userMsg, reply, nil
}

// TogglePin flips the pinned flag of a session the caller owns.
func (e *Economy) TogglePin(ctx context.Context, userID, sessionID string) (pinned bool, err error) {
	err = e.write(ctx, userID, func(tx *gorm.DB) error {
		sess, err := e.Sessions.Owned(ctx, tx, userID, sessionID)
		if err != nil {
			return err
		}
		pinned, err = e.Sessions.TogglePin(ctx, tx, sess)
		return err
	})
	return pinned, err
}

// DeleteSession removes a session the caller owns with all its messages.
func (e *Economy) DeleteSession(ctx context.Context, userID, sessionID string) (err error) {
	defer func() { observeOp("delete_session", err) }()
	return e.write(ctx, userID, func(tx *gorm.DB) error {
		if _, err := e.Sessions.Owned(ctx, tx, userID, sessionID); err != nil {
			return err
		}
		return e.Sessions.Delete(ctx, tx, sessionID)
	})
}
