package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message content types.
const (
	ContentText = "text"
	ContentGift = "gift"
)

// ChatSession is the single conversation thread between one user and one
// character. Rows are hard-deleted together with their messages.
type ChatSession struct {
	ID            string    `json:"id"              gorm:"type:char(36);primaryKey"`
	UserID        string    `json:"user_id"         gorm:"type:varchar(64);not null;uniqueIndex:ux_session_user_character,priority:1;index:idx_session_user_order,priority:1"`
	CharacterID   int64     `json:"character_id"    gorm:"not null;uniqueIndex:ux_session_user_character,priority:2"`
	LastMessage   string    `json:"last_message"    gorm:"type:text;not null"`
	LastMessageAt time.Time `json:"last_message_at" gorm:"not null;index:idx_session_user_order,priority:3"`
	UnreadCount   int       `json:"unread_count"    gorm:"not null;default:0;check:unread_count >= 0"`
	IsPinned      bool      `json:"is_pinned"       gorm:"not null;default:false;index:idx_session_user_order,priority:2"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Character *Character `json:"character,omitempty" gorm:"foreignKey:CharacterID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (ChatSession) TableName() string { return "chat_sessions" }

// ChatMessage is one immutable entry of a session transcript. IDs are
// time-ordered, so id order is append order.
type ChatMessage struct {
	ID          snowflake.ID `json:"id"           gorm:"primaryKey;autoIncrement:false"`
	SessionID   string       `json:"session_id"   gorm:"type:char(36);not null;index:idx_session_msgs,priority:1"`
	Role        string       `json:"role"         gorm:"type:varchar(16);not null;check:role IN ('user','assistant')"`
	Content     string       `json:"content"      gorm:"type:text;not null"`
	ContentType string       `json:"content_type" gorm:"type:varchar(16);not null;default:'text'"`
	CreatedAt   time.Time    `json:"created_at"   gorm:"not null;index:idx_session_msgs,priority:2"`

	Session ChatSession `json:"-" gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (ChatMessage) TableName() string { return "chat_messages" }
