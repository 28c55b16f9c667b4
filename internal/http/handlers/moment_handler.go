// Moment HTTP handlers: the characters' social feed.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-companion-backend/internal/services"
	"github.com/tbourn/go-companion-backend/internal/utils"
)

// CommentRequest is the JSON payload of a moment comment.
type CommentRequest struct {
	Content string `json:"content" binding:"required" example:"So pretty!"`
}

// ListMomentsResponse wraps a page of moments.
type ListMomentsResponse struct {
	Items      []services.MomentView `json:"items"`
	Pagination Pagination            `json:"pagination"`
}

// ListMoments godoc
// @ID          listMoments
// @Summary     Moments feed (newest first)
// @Tags        Moments
// @Produce     json
// @Param       X-User-ID     header  string  true   "Caller id"
// @Param       character_id  query   int     false  "Only this character"
// @Param       page          query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size     query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListMomentsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad character_id"
// @Router      /moments [get]
func (h *Handlers) ListMoments(c *gin.Context) {
	var characterID int64
	if raw := c.Query("character_id"); raw != "" {
		id, err := utils.ParseID(raw)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "character_id must be a positive integer")
			return
		}
		characterID = id
	}
	page, pageSize := clampPagination(c)

	items, total, err := h.moments.List(c.Request.Context(), userID(c), characterID, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListMomentsResponse{Items: items, Pagination: paginate(page, pageSize, total)})
}

// GetMoment godoc
// @ID          getMoment
// @Summary     One moment with its comments
// @Tags        Moments
// @Produce     json
// @Param       X-User-ID  header  string  true  "Caller id"
// @Param       id         path    int     true  "Moment id"
// @Success     200  {object}  services.MomentDetail
// @Failure     404  {object}  handlers.ErrorResponse  "Moment not found"
// @Router      /moments/{id} [get]
func (h *Handlers) GetMoment(c *gin.Context) {
	id, good := pathID(c, "id")
	if !good {
		return
	}
	m, err := h.moments.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

// ToggleMomentLike godoc
// @ID          toggleMomentLike
// @Summary     Like or unlike a moment
// @Tags        Moments
// @Produce     json
// @Param       X-User-ID  header  string  true  "Caller id"
// @Param       id         path    int     true  "Moment id"
// @Success     200  {object}  services.LikeResult
// @Failure     404  {object}  handlers.ErrorResponse  "Moment not found"
// @Router      /moments/{id}/like [post]
func (h *Handlers) ToggleMomentLike(c *gin.Context) {
	id, good := pathID(c, "id")
	if !good {
		return
	}
	res, err := h.moments.ToggleLike(c.Request.Context(), userID(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// CommentMoment godoc
// @ID          commentMoment
// @Summary     Comment on a moment
// @Tags        Moments
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string                   true  "Caller id"
// @Param       id         path    int                      true  "Moment id"
// @Param       body       body    handlers.CommentRequest  true  "Comment"
// @Success     201  {object}  domain.MomentComment
// @Failure     400  {object}  handlers.ErrorResponse  "Empty or too long"
// @Failure     404  {object}  handlers.ErrorResponse  "Moment not found"
// @Router      /moments/{id}/comments [post]
func (h *Handlers) CommentMoment(c *gin.Context) {
	id, good := pathID(c, "id")
	if !good {
		return
	}
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content is required")
		return
	}
	cm, err := h.moments.Comment(c.Request.Context(), userID(c), id, req.Content)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, cm)
}
