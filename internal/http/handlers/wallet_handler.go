// Wallet HTTP handlers.
//
//   - POST /account                   (ensure account, signup bonus)
//   - GET  /wallet/balance
//   - GET  /wallet/transactions       (paginated, ?type=)
//   - GET  /wallet/recharge-options
//   - POST /wallet/recharge
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-companion-backend/internal/catalog"
	"github.com/tbourn/go-companion-backend/internal/domain"
)

// RechargeRequest is the JSON payload of a recharge.
type RechargeRequest struct {
	// Amount paid, must match a recharge tier.
	Amount int64 `json:"amount" binding:"required,gt=0" example:"68"`
}

// ListTransactionsResponse wraps a page of ledger entries.
type ListTransactionsResponse struct {
	Items      []domain.LedgerEntry `json:"items"`
	Pagination Pagination           `json:"pagination"`
}

// RechargeOptionsResponse lists the recharge tiers.
type RechargeOptionsResponse struct {
	Items []catalog.RechargeTier `json:"items"`
}

// EnsureAccount godoc
// @ID          ensureAccount
// @Summary     Create the caller's account on first login
// @Description Creates the account with the signup bonus (recorded as a reward entry). Idempotent; returns 201 when created and 200 otherwise.
// @Tags        Wallet
// @Produce     json
// @Param       X-User-ID  header  string  true  "Caller id"  example(13800138000)
// @Success     200  {object}  services.Wallet
// @Success     201  {object}  services.Wallet
// @Failure     401  {object}  handlers.ErrorResponse  "Missing identity"
// @Failure     403  {object}  handlers.ErrorResponse  "Account banned"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /account [post]
func (h *Handlers) EnsureAccount(c *gin.Context) {
	w, created, err := h.econ.EnsureAccount(c.Request.Context(), userID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ok(c, status, w)
}

// GetBalance godoc
// @ID          getBalance
// @Summary     Current coin balance
// @Tags        Wallet
// @Produce     json
// @Param       X-User-ID  header  string  true  "Caller id"
// @Success     200  {object}  services.Wallet
// @Failure     404  {object}  handlers.ErrorResponse  "Account not found"
// @Router      /wallet/balance [get]
func (h *Handlers) GetBalance(c *gin.Context) {
	w, err := h.econ.GetBalance(c.Request.Context(), userID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, w)
}

// ListTransactions godoc
// @ID          listTransactions
// @Summary     Ledger entries (paginated, newest first)
// @Tags        Wallet
// @Produce     json
// @Param       X-User-ID  header  string  true   "Caller id"
// @Param       type       query   string  false  "Entry kind filter"  Enums(recharge, reward, gift, unlock)
// @Param       page       query   int     false  "Page number"        minimum(1) default(1)
// @Param       page_size  query   int     false  "Items per page"     minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListTransactionsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown type"
// @Failure     404  {object}  handlers.ErrorResponse  "Account not found"
// @Router      /wallet/transactions [get]
func (h *Handlers) ListTransactions(c *gin.Context) {
	page, pageSize := clampPagination(c)
	kind := strings.TrimSpace(c.Query("type"))

	items, total, err := h.econ.ListTransactions(c.Request.Context(), userID(c), kind, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListTransactionsResponse{Items: items, Pagination: paginate(page, pageSize, total)})
}

// RechargeOptions godoc
// @ID          rechargeOptions
// @Summary     Recharge tiers
// @Tags        Wallet
// @Produce     json
// @Param       X-User-ID  header  string  true  "Caller id"
// @Success     200  {object}  handlers.RechargeOptionsResponse
// @Router      /wallet/recharge-options [get]
func (h *Handlers) RechargeOptions(c *gin.Context) {
	ok(c, http.StatusOK, RechargeOptionsResponse{Items: h.econ.RechargeOptions()})
}

// Recharge godoc
// @ID          recharge
// @Summary     Buy coins
// @Description Credits the tier's coins plus bonus. Send an Idempotency-Key to make retries safe.
// @Tags        Wallet
// @Accept      json
// @Produce     json
// @Param       X-User-ID        header  string                    true   "Caller id"
// @Param       Idempotency-Key  header  string                    false  "Replay key"
// @Param       body             body    handlers.RechargeRequest  true   "Amount paid"
// @Success     200  {object}  services.RechargeResult
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown amount"
// @Failure     403  {object}  handlers.ErrorResponse  "Account banned"
// @Failure     404  {object}  handlers.ErrorResponse  "Account not found"
// @Router      /wallet/recharge [post]
func (h *Handlers) Recharge(c *gin.Context) {
	var req RechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "amount must be a positive integer")
		return
	}
	res, err := h.econ.Recharge(c.Request.Context(), userID(c), req.Amount)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}
