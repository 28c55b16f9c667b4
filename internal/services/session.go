// Package services – SessionStore
//
// SessionStore owns chat sessions and their transcripts: exactly one
// session per (user, character), created lazily with the character's
// greeting, and messages appended in snowflake id order. Methods take the
// caller's *gorm.DB so the Economy facade can compose them with ledger
// writes inside one transaction.
package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/unicode/norm"

	"github.com/tbourn/go-companion-backend/internal/domain"
	"github.com/tbourn/go-companion-backend/internal/repo"
)

// SessionStore manages sessions and messages.
type SessionStore struct {
	IDs *snowflake.Node

	// MaxMessageRunes bounds user message length; <= 0 means 2000.
	MaxMessageRunes int
}

func (s *SessionStore) maxRunes() int {
	if s.MaxMessageRunes > 0 {
		return s.MaxMessageRunes
	}
	return 2000
}

// GetOrCreate returns the session for (userID, ch). A new session is seeded
// with the greeting as its first assistant message and bumps the character
// chat counter once. With markRead an existing session's unread count is
// reset. created reports whether the session was inserted by this call.
func (s *SessionStore) GetOrCreate(ctx context.Context, db *gorm.DB, userID string, ch *domain.Character, markRead bool) (sess *domain.ChatSession, created bool, err error) {
	tr := otel.Tracer("services/SessionStore")
	ctx, span := tr.Start(ctx, "GetOrCreate",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int64("character.id", ch.ID),
		),
	)
	defer span.End()

	sess, err = repo.FindSession(ctx, db, userID, ch.ID)
	if err == nil {
		if markRead && sess.UnreadCount != 0 {
			if err := repo.MarkSessionRead(ctx, db, sess.ID); err != nil {
				return nil, false, err
			}
			sess.UnreadCount = 0
		}
		return sess, false, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, false, err
	}

	// The savepoint lets a lost insert race fall back to the winner's row
	// without aborting the caller's transaction.
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id := s.IDs.Generate()
		at := time.UnixMilli(id.Time()).UTC()
		ns, err := repo.CreateSession(ctx, tx, userID, ch.ID, ch.Greeting, at)
		if err != nil {
			return err
		}
		if _, err := repo.CreateMessage(ctx, tx, id, ns.ID, domain.RoleAssistant, domain.ContentText, ch.Greeting); err != nil {
			return err
		}
		if err := repo.IncrementChatCount(ctx, tx, ch.ID); err != nil {
			return err
		}
		sess = ns
		return nil
	})
	if errors.Is(err, repo.ErrDuplicate) {
		sess, err = repo.FindSession(ctx, db, userID, ch.ID)
		return sess, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return sess, true, nil
}

// Owned loads sessionID and checks it belongs to userID.
func (s *SessionStore) Owned(ctx context.Context, db *gorm.DB, userID, sessionID string) (*domain.ChatSession, error) {
	sess, err := repo.GetSession(ctx, db, sessionID)
	if err != nil {
		return nil, notFound(err, ErrSessionNotFound)
	}
	if sess.UserID != userID {
		return nil, ErrNotSessionOwner
	}
	return sess, nil
}

// normalizeContent folds line endings, applies NFC and trims.
func normalizeContent(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.TrimSpace(norm.NFC.String(content))
}

// AppendMessage appends one message and moves the session snapshot.
// unreadDelta is added to the unread counter. User messages must hold
// 1..MaxMessageRunes runes after normalization.
func (s *SessionStore) AppendMessage(ctx context.Context, db *gorm.DB, sess *domain.ChatSession, role, contentType, content string, unreadDelta int) (*domain.ChatMessage, error) {
	if role == domain.RoleUser {
		content = normalizeContent(content)
		if content == "" {
			return nil, ErrEmptyContent
		}
		if utf8.RuneCountInString(content) > s.maxRunes() {
			return nil, ErrContentTooLong
		}
	}

	id := s.IDs.Generate()
	msg, err := repo.CreateMessage(ctx, db, id, sess.ID, role, contentType, content)
	if err != nil {
		return nil, err
	}
	if err := repo.TouchSession(ctx, db, sess.ID, content, msg.CreatedAt, unreadDelta); err != nil {
		return nil, err
	}
	sess.LastMessage = content
	sess.LastMessageAt = msg.CreatedAt
	sess.UnreadCount += unreadDelta
	return msg, nil
}

// SendUserMessage appends the user's message and the generated reply.
func (s *SessionStore) SendUserMessage(ctx context.Context, db *gorm.DB, sess *domain.ChatSession, ch *domain.Character, content string) (userMsg, reply *domain.ChatMessage, err error) {
	tr := otel.Tracer("services/SessionStore")
	ctx, span := tr.Start(ctx, "SendUserMessage",
		trace.WithAttributes(
			attribute.String("session.id", sess.ID),
			attribute.Int64("character.id", ch.ID),
		),
	)
	defer span.End()

	userMsg, err = s.AppendMessage(ctx, db, sess, domain.RoleUser, domain.ContentText, content, 0)
	if err != nil {
		return nil, nil, err
	}
	text := generateReply(ch.Personality, sess.ID, userMsg.Content)
	reply, err = s.AppendMessage(ctx, db, sess, domain.RoleAssistant, domain.ContentText, text, 0)
	if err != nil {
		return nil, nil, err
	}
	return userMsg, reply, nil
}

// TogglePin flips the pinned flag and returns the new value.
func (s *SessionStore) TogglePin(ctx context.Context, db *gorm.DB, sess *domain.ChatSession) (bool, error) {
	pinned := !sess.IsPinned
	if err := repo.SetSessionPinned(ctx, db, sess.ID, pinned); err != nil {
		return false, notFound(err, ErrSessionNotFound)
	}
	sess.IsPinned = pinned
	return pinned, nil
}

// Delete removes the session with all of its messages in one transaction.
func (s *SessionStore) Delete(ctx context.Context, db *gorm.DB, sessionID string) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return repo.DeleteSession(ctx, tx, sessionID)
	})
	return notFound(err, ErrSessionNotFound)
}

// ListPage returns userID's sessions, pinned first then most recent.
func (s *SessionStore) ListPage(ctx context.Context, db *gorm.DB, userID string, page, pageSize int) ([]domain.ChatSession, int64, error) {
	tr := otel.Tracer("services/SessionStore")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	_, pageSize, offset := clampPage(page, pageSize)
	total, err := repo.CountSessions(ctx, db, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.ChatSession{}, 0, nil
	}
	items, err := repo.ListSessionsPage(ctx, db, userID, offset, pageSize)
	return items, total, err
}

// ListMessages returns one page of a session transcript. Page 1 holds the
// newest messages; each page is in ascending id order.
func (s *SessionStore) ListMessages(ctx context.Context, db *gorm.DB, sessionID string, page, pageSize int) ([]domain.ChatMessage, int64, error) {
	tr := otel.Tracer("services/SessionStore")
	ctx, span := tr.Start(ctx, "ListMessages",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	_, pageSize, offset := clampPage(page, pageSize)
	total, err := repo.CountMessages(ctx, db, sessionID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.ChatMessage{}, 0, nil
	}
	items, err := repo.ListMessagesPage(ctx, db, sessionID, offset, pageSize)
	return items, total, err
}
