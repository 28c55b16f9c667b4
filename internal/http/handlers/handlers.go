// Package handlers provides the HTTP handlers of the companion API.
//
// Handlers are transport-thin: they parse and validate input, call the
// economy or moment services, and translate results and service error
// kinds into HTTP responses (including conditional 304s on list reads).
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-companion-backend/internal/catalog"
	"github.com/tbourn/go-companion-backend/internal/domain"
	"github.com/tbourn/go-companion-backend/internal/http/middleware"
	"github.com/tbourn/go-companion-backend/internal/repo"
	"github.com/tbourn/go-companion-backend/internal/services"
	"github.com/tbourn/go-companion-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// EconomyService is the coin economy and conversation engine.
type EconomyService interface {
	EnsureAccount(ctx context.Context, userID string) (*services.Wallet, bool, error)
	GetBalance(ctx context.Context, userID string) (*services.Wallet, error)
	ListTransactions(ctx context.Context, userID, kind string, page, pageSize int) ([]domain.LedgerEntry, int64, error)
	RechargeOptions() []catalog.RechargeTier
	Recharge(ctx context.Context, userID string, amount int64) (*services.RechargeResult, error)

	ListCharacters(ctx context.Context, userID, category string, page, pageSize int) ([]services.CharacterView, int64, error)
	GetCharacter(ctx context.Context, userID string, id int64) (*services.CharacterView, error)
	CheckUnlock(ctx context.Context, userID string, characterID int64) (*services.UnlockStatus, error)
	UnlockCharacter(ctx context.Context, userID string, characterID int64) (*services.UnlockResult, error)

	ListGifts(ctx context.Context) ([]domain.Gift, error)
	SendGift(ctx context.Context, userID string, characterID, giftID int64, quantity int) (*services.GiftReceipt, error)
	GiftHistory(ctx context.Context, userID string, characterID int64, page, pageSize int) ([]repo.GiftRecord, int64, error)
	GiftRanking(ctx context.Context, characterID int64, limit int) ([]repo.RankingRow, error)

	ListSessions(ctx context.Context, userID string, page, pageSize int) ([]domain.ChatSession, int64, error)
	OpenSession(ctx context.Context, userID string, characterID int64) (*domain.ChatSession, error)
	ListMessages(ctx context.Context, userID, sessionID string, page, pageSize int) ([]domain.ChatMessage, int64, error)
	SendMessage(ctx context.Context, userID, sessionID, content string) (*domain.ChatMessage, *domain.ChatMessage, error)
	TogglePin(ctx context.Context, userID, sessionID string) (bool, error)
	DeleteSession(ctx context.Context, userID, sessionID string) error
}

// MomentService is the characters' social feed.
type MomentService interface {
	List(ctx context.Context, userID string, characterID int64, page, pageSize int) ([]services.MomentView, int64, error)
	Get(ctx context.Context, userID string, id int64) (*services.MomentDetail, error)
	ToggleLike(ctx context.Context, userID string, id int64) (*services.LikeResult, error)
	Comment(ctx context.Context, userID string, id int64, content string) (*domain.MomentComment, error)
}

//
// Handler wiring
//

// Handlers groups the API endpoints.
type Handlers struct {
	econ    EconomyService
	moments MomentService
}

// New binds handlers to their services.
func New(econ EconomyService, moments MomentService) *Handlers {
	return &Handlers{econ: econ, moments: moments}
}

// userID is the caller identity set by middleware.Identity.
func userID(c *gin.Context) string { return middleware.UserID(c) }

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func paginate(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

//
// Helpers
//

// clampPagination parses page and page_size, defaulting to 1 and 20 and
// capping page_size at 100.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// pathID parses a positive integer path parameter, answering 400 when it
// is malformed.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := utils.ParseID(c.Param(name))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

// statsDB returns the database behind the economy service, when it is the
// concrete implementation; ETags are skipped otherwise.
func (h *Handlers) statsDB() *gorm.DB {
	if e, ok := h.econ.(*services.Economy); ok {
		return e.DB
	}
	return nil
}

// notModified sets a weak ETag and reports whether If-None-Match matched.
func notModified(c *gin.Context, kind, scope string, count int64, latest *time.Time, page, pageSize int) bool {
	var ts int64
	if latest != nil {
		ts = latest.UnixNano()
	}
	etag := fmt.Sprintf(`W/"%s:%s:%d:%d:%d:%d"`, kind, scope, count, ts, page, pageSize)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}
