package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Account statuses.
const (
	AccountActive = "active"
	AccountBanned = "banned"
)

// Ledger entry kinds. Credits (recharge, reward) are positive, debits
// (gift, unlock) negative.
const (
	EntryRecharge = "recharge"
	EntryReward   = "reward"
	EntryGift     = "gift"
	EntryUnlock   = "unlock"
)

// Account holds a user's authoritative coin balance. Coins only change
// together with an appended LedgerEntry.
type Account struct {
	ID          string     `json:"id"                      gorm:"type:varchar(64);primaryKey"`
	Coins       int64      `json:"coins"                   gorm:"not null;default:0;check:coins >= 0"`
	VIPLevel    int        `json:"vip_level"               gorm:"column:vip_level;not null;default:0"`
	VIPExpireAt *time.Time `json:"vip_expire_at,omitempty" gorm:"column:vip_expire_at"`
	Status      string     `json:"status"                  gorm:"type:varchar(16);not null;default:'active';check:status IN ('active','banned')"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Account) TableName() string { return "accounts" }

// LedgerEntry is an append-only record of one balance change.
type LedgerEntry struct {
	ID           snowflake.ID `json:"id"            gorm:"primaryKey;autoIncrement:false"`
	UserID       string       `json:"user_id"       gorm:"type:varchar(64);not null;index:idx_ledger_user,priority:1"`
	Amount       int64        `json:"amount"        gorm:"not null"`
	Kind         string       `json:"type"          gorm:"type:varchar(16);not null;index;check:kind IN ('recharge','reward','gift','unlock')"`
	Description  string       `json:"description"   gorm:"type:varchar(255);not null;default:''"`
	RefID        *int64       `json:"ref_id,omitempty"`
	BalanceAfter int64        `json:"balance_after" gorm:"not null"`
	CreatedAt    time.Time    `json:"created_at"    gorm:"not null;index:idx_ledger_user,priority:2"`

	Account Account `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }

// Entitlement grants a user access to a premium character.
type Entitlement struct {
	UserID      string       `json:"user_id"      gorm:"type:varchar(64);primaryKey"`
	CharacterID int64        `json:"character_id" gorm:"primaryKey;autoIncrement:false"`
	EntryID     snowflake.ID `json:"entry_id"     gorm:"not null"`
	GrantedAt   time.Time    `json:"granted_at"   gorm:"not null"`

	Character Character `json:"-" gorm:"foreignKey:CharacterID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (Entitlement) TableName() string { return "entitlements" }
