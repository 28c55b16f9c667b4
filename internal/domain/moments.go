package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Moment is a social post published by a character.
type Moment struct {
	ID           int64     `json:"id"            gorm:"primaryKey"`
	CharacterID  int64     `json:"character_id"  gorm:"not null;index"`
	Content      string    `json:"content"       gorm:"type:text;not null"`
	Images       string    `json:"images"        gorm:"type:varchar(1024);not null;default:''"`
	LikeCount    int64     `json:"like_count"    gorm:"not null;default:0;check:like_count >= 0"`
	CommentCount int64     `json:"comment_count" gorm:"not null;default:0"`
	Status       string    `json:"status"        gorm:"type:varchar(16);not null;default:'active'"`
	CreatedAt    time.Time `json:"created_at"    gorm:"index"`

	Character *Character `json:"character,omitempty" gorm:"foreignKey:CharacterID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Moment) TableName() string { return "moments" }

// MomentLike marks that a user liked a moment; at most one per pair.
type MomentLike struct {
	MomentID  int64     `gorm:"primaryKey;autoIncrement:false"`
	UserID    string    `gorm:"type:varchar(64);primaryKey"`
	CreatedAt time.Time `gorm:"not null"`

	Moment Moment `gorm:"foreignKey:MomentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (MomentLike) TableName() string { return "moment_likes" }

// MomentComment is a user comment on a moment.
type MomentComment struct {
	ID        snowflake.ID `json:"id"         gorm:"primaryKey;autoIncrement:false"`
	MomentID  int64        `json:"moment_id"  gorm:"not null;index"`
	UserID    string       `json:"user_id"    gorm:"type:varchar(64);not null"`
	Content   string       `json:"content"    gorm:"type:text;not null"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`

	Moment Moment `json:"-" gorm:"foreignKey:MomentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (MomentComment) TableName() string { return "moment_comments" }
