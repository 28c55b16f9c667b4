// Character HTTP handlers: catalog reads, unlocks, opening a session and
// gifts.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-companion-backend/internal/domain"
	"github.com/tbourn/go-companion-backend/internal/repo"
	"github.com/tbourn/go-companion-backend/internal/services"
	"github.com/tbourn/go-companion-backend/internal/utils"
)

// SendGiftRequest is the JSON payload of a gift.
type SendGiftRequest struct {
	GiftID int64 `json:"gift_id" binding:"required,gt=0" example:"4"`
	// Quantity defaults to 1; at most 99.
	Quantity int `json:"quantity" example:"2"`
}

// ListCharactersResponse wraps a page of characters.
type ListCharactersResponse struct {
	Items      []services.CharacterView `json:"items"`
	Pagination Pagination               `json:"pagination"`
}

// GiftHistoryResponse wraps a page of the caller's gifts to a character.
type GiftHistoryResponse struct {
	Items      []repo.GiftRecord `json:"items"`
	Pagination Pagination        `json:"pagination"`
}

// GiftRankingResponse lists the top gifters of a character.
type GiftRankingResponse struct {
	Items []repo.RankingRow `json:"items"`
}

// ListGiftsResponse lists the gift catalog.
type ListGiftsResponse struct {
	Items []domain.Gift `json:"items"`
}

// ListCharacters godoc
// @ID          listCharacters
// @Summary     Characters (paginated, most chatted first)
// @Tags        Characters
// @Produce     json
// @Param       X-User-ID  header  string  true   "Caller id"
// @Param       category   query   string  false  "Category filter"  example(romance)
// @Param       page       query   int     false  "Page number"      minimum(1) default(1)
// @Param       page_size  query   int     false  "Items per page"   minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListCharactersResponse
// @Router      /characters [get]
func (h *Handlers) ListCharacters(c *gin.Context) {
	page, pageSize := clampPagination(c)
	category := strings.TrimSpace(c.Query("category"))

	items, total, err := h.econ.ListCharacters(c.Request.Context(), userID(c), category, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListCharactersResponse{Items: items, Pagination: paginate(page, pageSize, total)})
}

// GetCharacter godoc
// @ID          getCharacter
// @Summary     One character with the caller's unlock state
// @Tags        Characters
// @Produce     json
// @Param       X-User-ID  header  string  true  "Caller id"
// @Param       id         path    int     true  "Character id"
// @Success     200  {object}  services.CharacterView
// @Failure     404  {object}  handlers.ErrorResponse  "Character not found"
// @Router      /characters/{id} [get]
func (h *Handlers) GetCharacter(c *gin.Context) {
	id, good := pathID(c, "id")
	if !good {
		return
	}
	v, err := h.econ.GetCharacter(c.Request.Context(), userID(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, v)
}

// CheckUnlock godoc
// @ID          checkUnlock
// @Summary     Whether the caller may chat with a character
// @Tags        Characters
// @Produce     json
// @Param       X-User-ID  header  string  true  "Caller id"
// @Param       id         path    int     true  "Character id"
// @Success     200  {object}  services.UnlockStatus
// @Failure     404  {object}  handlers.ErrorResponse  "Character not found"
// @Router      /characters/{id}/unlock [get]
func (h *Handlers) CheckUnlock(c *gin.Context) {
	id, good := pathID(c, "id")
	if !good {
		return
	}
	st, err := h.econ.CheckUnlock(c.Request.Context(), userID(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}

// UnlockCharacter godoc
// @ID          unlockCharacter
// @Summary     Unlock a premium character
// @Description Charges the price once. Unlocking again succeeds with already_unlocked=true and charges nothing.
// @Tags        Characters
// @Produce     json
// @Param       X-User-ID        header  string  true   "Caller id"
// @Param       Idempotency-Key  header  string  false  "Replay key"
// @Param       id               path    int     true   "Character id"
// @Success     200  {object}  services.UnlockResult
// @Failure     402  {object}  handlers.ErrorResponse  "Insufficient coins"
// @Failure     404  {object}  handlers.ErrorResponse  "Character or account not found"
// @Router      /characters/{id}/unlock [post]
func (h *Handlers) UnlockCharacter(c *gin.Context) {
	id, good := pathID(c, "id")
	if !good {
		return
	}
	res, err := h.econ.UnlockCharacter(c.Request.Context(), userID(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// OpenSession godoc
// @ID          openSession
// @Summary     Open (or resume) the session with a character
// @Description Returns the caller's single session with the character, creating it with the greeting on first contact. Resets the unread count.
// @Tags        Characters
// @Produce     json
// @Param       X-User-ID  header  string  true  "Caller id"
// @Param       id         path    int     true  "Character id"
// @Success     200  {object}  domain.ChatSession
// @Failure     403  {object}  handlers.ErrorResponse  "Character locked"
// @Failure     404  {object}  handlers.ErrorResponse  "Character or account not found"
// @Router      /characters/{id}/session [post]
func (h *Handlers) OpenSession(c *gin.Context) {
	id, good := pathID(c, "id")
	if !good {
		return
	}
	sess, err := h.econ.OpenSession(c.Request.Context(), userID(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, sess)
}

// SendGift godoc
// @ID          sendGift
// @Summary     Send a gift to a character
// @Description Debits price x quantity, records the gift and appends the character's thank-you to the session. Send an Idempotency-Key to make retries safe.
// @Tags        Gifts
// @Accept      json
// @Produce     json
// @Param       X-User-ID        header  string                    true   "Caller id"
// @Param       Idempotency-Key  header  string                    false  "Replay key"
// @Param       id               path    int                       true   "Character id"
// @Param       body             body    handlers.SendGiftRequest  true   "Gift and quantity"
// @Success     200  {object}  services.GiftReceipt
// @Failure     400  {object}  handlers.ErrorResponse  "Bad quantity"
// @Failure     402  {object}  handlers.ErrorResponse  "Insufficient coins"
// @Failure     404  {object}  handlers.ErrorResponse  "Character, gift or account not found"
// @Router      /characters/{id}/gifts [post]
func (h *Handlers) SendGift(c *gin.Context) {
	id, good := pathID(c, "id")
	if !good {
		return
	}
	var req SendGiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "gift_id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	res, err := h.econ.SendGift(c.Request.Context(), userID(c), id, req.GiftID, req.Quantity)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// GiftHistory godoc
// @ID          giftHistory
// @Summary     The caller's gifts to a character (newest first)
// @Tags        Gifts
// @Produce     json
// @Param       X-User-ID  header  string  true   "Caller id"
// @Param       id         path    int     true   "Character id"
// @Param       page       query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size  query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.GiftHistoryResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Character not found"
// @Router      /characters/{id}/gifts [get]
func (h *Handlers) GiftHistory(c *gin.Context) {
	id, good := pathID(c, "id")
	if !good {
		return
	}
	page, pageSize := clampPagination(c)
	items, total, err := h.econ.GiftHistory(c.Request.Context(), userID(c), id, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, GiftHistoryResponse{Items: items, Pagination: paginate(page, pageSize, total)})
}

// GiftRanking godoc
// @ID          giftRanking
// @Summary     Top gifters of a character by coins spent
// @Tags        Gifts
// @Produce     json
// @Param       X-User-ID  header  string  true   "Caller id"
// @Param       id         path    int     true   "Character id"
// @Param       limit      query   int     false  "Rows"  minimum(1) maximum(100) default(10)
// @Success     200  {object}  handlers.GiftRankingResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Character not found"
// @Router      /characters/{id}/gift-ranking [get]
func (h *Handlers) GiftRanking(c *gin.Context) {
	id, good := pathID(c, "id")
	if !good {
		return
	}
	limit := utils.AtoiDefault(c.Query("limit"), 10)
	rows, err := h.econ.GiftRanking(c.Request.Context(), id, limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, GiftRankingResponse{Items: rows})
}

// ListGifts godoc
// @ID          listGifts
// @Summary     Gift catalog
// @Tags        Gifts
// @Produce     json
// @Param       X-User-ID  header  string  true  "Caller id"
// @Success     200  {object}  handlers.ListGiftsResponse
// @Router      /gifts [get]
func (h *Handlers) ListGifts(c *gin.Context) {
	gifts, err := h.econ.ListGifts(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListGiftsResponse{Items: gifts})
}
