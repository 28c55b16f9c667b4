package domain

import "time"

// Idempotency stores the first successful response produced for a
// (user, scope, key) triple so client retries can be replayed verbatim.
// Scope identifies the operation and its target, e.g.
// "POST /api/v1/characters/:id/gifts|3".
type Idempotency struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	UserID    string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_idem_user_scope_key,priority:1"`
	Scope     string    `gorm:"type:varchar(255);not null;uniqueIndex:ux_idem_user_scope_key,priority:2"`
	Key       string    `gorm:"column:idem_key;type:varchar(200);not null;uniqueIndex:ux_idem_user_scope_key,priority:3"`
	Status    int       `gorm:"not null"`
	Body      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

func (Idempotency) TableName() string { return "idempotency" }
