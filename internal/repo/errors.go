package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound aliases gorm.ErrRecordNotFound so callers can match
	// either one.
	ErrNotFound = gorm.ErrRecordNotFound

	// ErrDuplicate is returned when an insert hits a unique constraint.
	ErrDuplicate = errors.New("duplicate")

	// ErrInsufficientBalance is returned by AdjustBalance when a debit
	// would take the balance below zero.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// isDuplicate recognizes unique violations across drivers. glebarez/sqlite
// reports them as plain text, so the message is checked as well.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key value") ||
		strings.Contains(low, "duplicate entry")
}
