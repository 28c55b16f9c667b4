// Package services defines the business logic of the coin economy and the
// conversation-session engine. This file centralizes the service-level error
// values and the error taxonomy callers switch on.
//
// Every sentinel carries a Kind. Handlers translate kinds into HTTP results;
// services never format user-facing text beyond the error message itself.
package services

import (
	"errors"

	"github.com/tbourn/go-companion-backend/internal/repo"
)

// Kind classifies an error for the caller.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInsufficientFunds
	KindInvalidArgument
	KindUnauthorized
	KindForbidden
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a classified service error.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func newError(k Kind, msg string) *Error { return &Error{Kind: k, Msg: msg} }

// Not found.
var (
	ErrAccountNotFound   = newError(KindNotFound, "account not found")
	ErrCharacterNotFound = newError(KindNotFound, "character not found")
	ErrSessionNotFound   = newError(KindNotFound, "session not found")
	ErrGiftNotFound      = newError(KindNotFound, "gift not found")
	ErrMomentNotFound    = newError(KindNotFound, "moment not found")
)

// Ledger.
var (
	// ErrInsufficientFunds is returned when a debit would take the balance
	// below zero. Nothing is written.
	ErrInsufficientFunds = newError(KindInsufficientFunds, "insufficient coins")

	// ErrInvalidEntry is returned for a zero amount, an unknown kind, or an
	// amount whose sign contradicts the kind.
	ErrInvalidEntry = newError(KindInvalidArgument, "invalid ledger entry")

	// ErrUnknownRechargeTier is returned when the paid amount has no tier.
	ErrUnknownRechargeTier = newError(KindInvalidArgument, "unknown recharge amount")

	// ErrInvalidEntryType is returned for an unknown transaction type filter.
	ErrInvalidEntryType = newError(KindInvalidArgument, "unknown transaction type")
)

// Gifts, messages, moments.
var (
	ErrInvalidQuantity = newError(KindInvalidArgument, "quantity must be between 1 and 99")
	ErrEmptyContent    = newError(KindInvalidArgument, "content is empty")
	ErrContentTooLong  = newError(KindInvalidArgument, "content too long")
)

// Access.
var (
	// ErrNotSessionOwner is returned when a session belongs to someone else.
	ErrNotSessionOwner = newError(KindUnauthorized, "session does not belong to the caller")

	// ErrCharacterLocked is returned when a premium character has not been
	// unlocked by the caller.
	ErrCharacterLocked = newError(KindForbidden, "character locked")

	// ErrAccountBanned is returned for every write by a banned account.
	ErrAccountBanned = newError(KindForbidden, "account banned")
)

// KindOf classifies err. Unclassified errors are internal, except repo
// not-found errors which leak through read paths as KindNotFound.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	if errors.Is(err, repo.ErrNotFound) {
		return KindNotFound
	}
	return KindInternal
}

// notFound maps a repo miss to the given sentinel and passes other errors
// through.
func notFound(err, sentinel error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return sentinel
	}
	return err
}
