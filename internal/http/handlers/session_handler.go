// Session HTTP handlers.
//
//   - GET    /sessions                (pinned first, ETag)
//   - GET    /sessions/{id}/messages  (newest page first, ETag)
//   - POST   /sessions/{id}/messages  (user message + character reply)
//   - POST   /sessions/{id}/pin       (toggle)
//   - DELETE /sessions/{id}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-companion-backend/internal/domain"
	"github.com/tbourn/go-companion-backend/internal/repo"
	"github.com/tbourn/go-companion-backend/internal/services"
)

// SendMessageRequest is the JSON payload of a chat message.
type SendMessageRequest struct {
	Content string `json:"content" binding:"required" example:"Hi, how was your day?"`
}

// SendMessageResponse carries the stored user message and the reply.
type SendMessageResponse struct {
	UserMessage *domain.ChatMessage `json:"user_message"`
	Reply       *domain.ChatMessage `json:"reply"`
}

// PinResponse reports the new pin state.
type PinResponse struct {
	IsPinned bool `json:"is_pinned"`
}

// ListSessionsResponse wraps a page of sessions.
type ListSessionsResponse struct {
	Items      []domain.ChatSession `json:"items"`
	Pagination Pagination           `json:"pagination"`
}

// ListMessagesResponse wraps a page of messages in ascending order.
type ListMessagesResponse struct {
	Items      []domain.ChatMessage `json:"items"`
	Pagination Pagination           `json:"pagination"`
}

// ListSessions godoc
// @ID          listSessions
// @Summary     The caller's sessions
// @Description Pinned sessions first, then by last message time. Supports weak ETag via If-None-Match.
// @Tags        Sessions
// @Produce     json
// @Param       X-User-ID      header  string  true   "Caller id"
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListSessionsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Router      /sessions [get]
func (h *Handlers) ListSessions(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	if db := h.statsDB(); db != nil {
		if count, latest, err := repo.SessionsStats(ctx, db, uid); err == nil {
			if notModified(c, "sessions", uid, count, latest, page, pageSize) {
				return
			}
		}
	}

	items, total, err := h.econ.ListSessions(ctx, uid, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListSessionsResponse{Items: items, Pagination: paginate(page, pageSize, total)})
}

// ListMessages godoc
// @ID          listMessages
// @Summary     Messages of a session
// @Description Page 1 holds the newest messages; each page is in ascending order. Supports weak ETag via If-None-Match.
// @Tags        Sessions
// @Produce     json
// @Param       X-User-ID      header  string  true   "Caller id"
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Param       id             path    string  true   "Session id"  format(uuid)
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListMessagesResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the caller's session"
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Router      /sessions/{id}/messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	sid := c.Param("id")
	page, pageSize := clampPagination(c)

	// The ETag is only computed once ownership is known, so a 304 never
	// confirms someone else's session.
	if e, isEcon := h.econ.(*services.Economy); isEcon {
		if _, err := e.Sessions.Owned(ctx, e.DB, uid, sid); err != nil {
			failErr(c, err)
			return
		}
		if count, latest, err := repo.MessagesStats(ctx, e.DB, sid); err == nil {
			if notModified(c, "messages", sid, count, latest, page, pageSize) {
				return
			}
		}
	}

	items, total, err := h.econ.ListMessages(ctx, uid, sid, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListMessagesResponse{Items: items, Pagination: paginate(page, pageSize, total)})
}

// SendMessage godoc
// @ID          sendMessage
// @Summary     Send a message and get the character's reply
// @Tags        Sessions
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string                       true  "Caller id"
// @Param       id         path    string                       true  "Session id"  format(uuid)
// @Param       body       body    handlers.SendMessageRequest  true  "Message"
// @Success     201  {object}  handlers.SendMessageResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Empty or too long"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the caller's session, or character locked"
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Router      /sessions/{id}/messages [post]
func (h *Handlers) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content is required")
		return
	}
	u, reply, err := h.econ.SendMessage(c.Request.Context(), userID(c), c.Param("id"), req.Content)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, SendMessageResponse{UserMessage: u, Reply: reply})
}

// TogglePin godoc
// @ID          togglePin
// @Summary     Pin or unpin a session
// @Tags        Sessions
// @Produce     json
// @Param       X-User-ID  header  string  true  "Caller id"
// @Param       id         path    string  true  "Session id"  format(uuid)
// @Success     200  {object}  handlers.PinResponse
// @Failure     403  {object}  handlers.ErrorResponse  "Not the caller's session"
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Router      /sessions/{id}/pin [post]
func (h *Handlers) TogglePin(c *gin.Context) {
	pinned, err := h.econ.TogglePin(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, PinResponse{IsPinned: pinned})
}

// DeleteSession godoc
// @ID          deleteSession
// @Summary     Delete a session and its messages
// @Tags        Sessions
// @Param       X-User-ID  header  string  true  "Caller id"
// @Param       id         path    string  true  "Session id"  format(uuid)
// @Success     204  {string}  string  "No Content"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the caller's session"
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Router      /sessions/{id} [delete]
func (h *Handlers) DeleteSession(c *gin.Context) {
	if err := h.econ.DeleteSession(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
