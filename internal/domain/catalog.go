package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Catalog statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Character is a chat persona. Premium characters must be unlocked before
// a session can be opened; Price is zero for free ones.
type Character struct {
	ID          int64     `json:"id"          gorm:"primaryKey"`
	Name        string    `json:"name"        gorm:"type:varchar(64);not null;uniqueIndex"`
	Avatar      string    `json:"avatar"      gorm:"type:varchar(255);not null;default:''"`
	Description string    `json:"description" gorm:"type:text"`
	Personality string    `json:"personality" gorm:"type:varchar(128);not null;default:''"`
	Category    string    `json:"category"    gorm:"type:varchar(32);not null;default:'';index"`
	Tags        string    `json:"tags"        gorm:"type:varchar(255);not null;default:''"`
	Greeting    string    `json:"greeting"    gorm:"type:text;not null"`
	IsPremium   bool      `json:"is_premium"  gorm:"not null;default:false"`
	Price       int64     `json:"price"       gorm:"not null;default:0;check:price >= 0"`
	ChatCount   int64     `json:"chat_count"  gorm:"not null;default:0"`
	LikeCount   int64     `json:"like_count"  gorm:"not null;default:0"`
	Status      string    `json:"status"      gorm:"type:varchar(16);not null;default:'active'"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Character) TableName() string { return "characters" }

// Gift is a purchasable catalog item.
type Gift struct {
	ID          int64     `json:"id"          gorm:"primaryKey"`
	Name        string    `json:"name"        gorm:"type:varchar(64);not null;uniqueIndex"`
	Icon        string    `json:"icon"        gorm:"type:varchar(255);not null;default:''"`
	Price       int64     `json:"price"       gorm:"not null;check:price > 0"`
	Affinity    int64     `json:"affinity"    gorm:"not null;default:0"`
	Description string    `json:"description" gorm:"type:varchar(255);not null;default:''"`
	SortOrder   int       `json:"sort_order"  gorm:"not null;default:0"`
	Status      string    `json:"status"      gorm:"type:varchar(16);not null;default:'active'"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Gift) TableName() string { return "gifts" }

// GiftEvent records one successful gift purchase. TotalPrice is frozen at
// send time.
type GiftEvent struct {
	ID          snowflake.ID `json:"id"           gorm:"primaryKey;autoIncrement:false"`
	UserID      string       `json:"user_id"      gorm:"type:varchar(64);not null;index:idx_gift_events_user_char,priority:1"`
	CharacterID int64        `json:"character_id" gorm:"not null;index:idx_gift_events_user_char,priority:2;index:idx_gift_events_char"`
	GiftID      int64        `json:"gift_id"      gorm:"not null"`
	Quantity    int          `json:"quantity"     gorm:"not null;check:quantity BETWEEN 1 AND 99"`
	UnitPrice   int64        `json:"unit_price"   gorm:"not null"`
	TotalPrice  int64        `json:"total_price"  gorm:"not null"`
	EntryID     snowflake.ID `json:"entry_id"     gorm:"not null"`
	CreatedAt   time.Time    `json:"created_at"   gorm:"not null"`

	Gift      Gift      `json:"-" gorm:"foreignKey:GiftID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Character Character `json:"-" gorm:"foreignKey:CharacterID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (GiftEvent) TableName() string { return "gift_events" }
