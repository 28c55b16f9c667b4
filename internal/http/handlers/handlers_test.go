package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-companion-backend/internal/catalog"
	"github.com/tbourn/go-companion-backend/internal/domain"
	"github.com/tbourn/go-companion-backend/internal/http/middleware"
	"github.com/tbourn/go-companion-backend/internal/repo"
	"github.com/tbourn/go-companion-backend/internal/services"
)

const demoUser = "13800138000" // seeded with 1000 coins

// ---------- test server over a seeded catalog ----------

type testAPI struct {
	r  *gin.Engine
	db *gorm.DB
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("node: %v", err)
	}

	cat := catalog.Default()
	econ := services.NewEconomy(db, cat, node, services.Options{SignupBonus: 100})
	if err := econ.Seed(context.Background(), cat); err != nil {
		t.Fatalf("seed: %v", err)
	}
	h := New(econ, &services.Moments{DB: db, IDs: node})

	r := gin.New()
	api := r.Group("/api/v1", middleware.Identity())
	api.POST("/account", h.EnsureAccount)
	api.GET("/wallet/balance", h.GetBalance)
	api.GET("/wallet/transactions", h.ListTransactions)
	api.GET("/wallet/recharge-options", h.RechargeOptions)
	api.POST("/wallet/recharge", h.Recharge)
	api.GET("/characters", h.ListCharacters)
	api.GET("/characters/:id", h.GetCharacter)
	api.GET("/characters/:id/unlock", h.CheckUnlock)
	api.POST("/characters/:id/unlock", h.UnlockCharacter)
	api.POST("/characters/:id/session", h.OpenSession)
	api.POST("/characters/:id/gifts", h.SendGift)
	api.GET("/characters/:id/gifts", h.GiftHistory)
	api.GET("/characters/:id/gift-ranking", h.GiftRanking)
	api.GET("/gifts", h.ListGifts)
	api.GET("/sessions", h.ListSessions)
	api.GET("/sessions/:id/messages", h.ListMessages)
	api.POST("/sessions/:id/messages", h.SendMessage)
	api.POST("/sessions/:id/pin", h.TogglePin)
	api.DELETE("/sessions/:id", h.DeleteSession)
	api.GET("/moments", h.ListMoments)
	api.GET("/moments/:id", h.GetMoment)
	api.POST("/moments/:id/like", h.ToggleMomentLike)
	api.POST("/moments/:id/comments", h.CommentMoment)

	return &testAPI{r: r, db: db}
}

func (a *testAPI) do(t *testing.T, method, path, user string, body any, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, rd)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderUserID, user)
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	return w
}

func (a *testAPI) characterID(t *testing.T, name string) int64 {
	t.Helper()
	var c domain.Character
	if err := a.db.Where("name = ?", name).Take(&c).Error; err != nil {
		t.Fatalf("character %s: %v", name, err)
	}
	return c.ID
}

func (a *testAPI) giftID(t *testing.T, name string) int64 {
	t.Helper()
	var g domain.Gift
	if err := a.db.Where("name = ?", name).Take(&g).Error; err != nil {
		t.Fatalf("gift %s: %v", name, err)
	}
	return g.ID
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status=%d want %d: %s", w.Code, status, w.Body.String())
	}
	if er := decode[ErrorResponse](t, w); er.Code != code {
		t.Fatalf("code=%q want %q", er.Code, code)
	}
}

// ---------- wallet ----------

func TestWallet_AccountRechargeAndTransactions(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodPost, "/account", "u-new", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("first login: %d %s", w.Code, w.Body.String())
	}
	if got := decode[services.Wallet](t, w); got.Coins != 100 || got.UserID != "u-new" {
		t.Fatalf("signup wallet: %+v", got)
	}
	if w := a.do(t, http.MethodPost, "/account", "u-new", nil); w.Code != http.StatusOK {
		t.Fatalf("second login should be 200, got %d", w.Code)
	}

	opts := decode[RechargeOptionsResponse](t, a.do(t, http.MethodGet, "/wallet/recharge-options", "u-new", nil))
	if len(opts.Items) != 6 {
		t.Fatalf("expected 6 tiers, got %d", len(opts.Items))
	}

	w = a.do(t, http.MethodPost, "/wallet/recharge", "u-new", gin.H{"amount": 68})
	if w.Code != http.StatusOK {
		t.Fatalf("recharge: %d %s", w.Code, w.Body.String())
	}
	res := decode[services.RechargeResult](t, w)
	if res.CoinsAdded != 680 || res.Bonus != 102 || res.NewBalance != 882 {
		t.Fatalf("recharge result: %+v", res)
	}

	expectError(t, a.do(t, http.MethodPost, "/wallet/recharge", "u-new", gin.H{"amount": 7}), http.StatusBadRequest, ErrCodeBadRequest)
	expectError(t, a.do(t, http.MethodPost, "/wallet/recharge", "u-new", gin.H{}), http.StatusBadRequest, ErrCodeBadRequest)
	expectError(t, a.do(t, http.MethodPost, "/wallet/recharge", "nobody", gin.H{"amount": 6}), http.StatusNotFound, ErrCodeNotFound)

	bal := decode[services.Wallet](t, a.do(t, http.MethodGet, "/wallet/balance", "u-new", nil))
	if bal.Coins != 882 {
		t.Fatalf("balance=%d", bal.Coins)
	}

	all := decode[ListTransactionsResponse](t, a.do(t, http.MethodGet, "/wallet/transactions", "u-new", nil))
	if all.Pagination.Total != 2 || len(all.Items) != 2 {
		t.Fatalf("transactions: %+v", all.Pagination)
	}
	if all.Items[0].Kind != domain.EntryRecharge || all.Items[0].BalanceAfter != 882 {
		t.Fatalf("newest first: %+v", all.Items[0])
	}
	rewards := decode[ListTransactionsResponse](t, a.do(t, http.MethodGet, "/wallet/transactions?type=reward", "u-new", nil))
	if rewards.Pagination.Total != 1 || rewards.Items[0].Amount != 100 {
		t.Fatalf("reward filter: %+v", rewards)
	}
	expectError(t, a.do(t, http.MethodGet, "/wallet/transactions?type=refund", "u-new", nil), http.StatusBadRequest, ErrCodeBadRequest)
}

// ---------- characters ----------

func TestCharacters_UnlockFlow(t *testing.T) {
	a := newTestAPI(t)
	a.do(t, http.MethodPost, "/account", "u1", nil) // 100 coins
	yao := a.characterID(t, "Yao")                  // premium, 100
	kit := a.characterID(t, "Kit")                  // premium, 200

	st := decode[services.UnlockStatus](t, a.do(t, http.MethodGet, fmt.Sprintf("/characters/%d/unlock", yao), "u1", nil))
	if st.Unlocked || st.Price != 100 {
		t.Fatalf("status before unlock: %+v", st)
	}
	expectError(t, a.do(t, http.MethodPost, fmt.Sprintf("/characters/%d/session", yao), "u1", nil), http.StatusForbidden, ErrCodeForbidden)

	res := decode[services.UnlockResult](t, a.do(t, http.MethodPost, fmt.Sprintf("/characters/%d/unlock", yao), "u1", nil))
	if !res.Success || res.AlreadyUnlocked || res.Charged != 100 || res.NewBalance != 0 {
		t.Fatalf("unlock: %+v", res)
	}
	res = decode[services.UnlockResult](t, a.do(t, http.MethodPost, fmt.Sprintf("/characters/%d/unlock", yao), "u1", nil))
	if !res.AlreadyUnlocked || res.Charged != 0 {
		t.Fatalf("second unlock: %+v", res)
	}
	if w := a.do(t, http.MethodPost, fmt.Sprintf("/characters/%d/session", yao), "u1", nil); w.Code != http.StatusOK {
		t.Fatalf("open after unlock: %d %s", w.Code, w.Body.String())
	}

	expectError(t, a.do(t, http.MethodPost, fmt.Sprintf("/characters/%d/unlock", kit), "u1", nil), http.StatusPaymentRequired, ErrCodeInsufficientFunds)
	expectError(t, a.do(t, http.MethodPost, "/characters/999/unlock", "u1", nil), http.StatusNotFound, ErrCodeNotFound)
	expectError(t, a.do(t, http.MethodGet, "/characters/abc", "u1", nil), http.StatusBadRequest, ErrCodeBadRequest)

	v := decode[services.CharacterView](t, a.do(t, http.MethodGet, fmt.Sprintf("/characters/%d", yao), "u1", nil))
	if !v.IsUnlocked || v.Name != "Yao" {
		t.Fatalf("character view: %+v", v)
	}
	list := decode[ListCharactersResponse](t, a.do(t, http.MethodGet, "/characters?category=romance", "u1", nil))
	if list.Pagination.Total != 2 {
		t.Fatalf("romance characters: %d", list.Pagination.Total)
	}
}

// ---------- gifts ----------

func TestGifts_SendHistoryAndRanking(t *testing.T) {
	a := newTestAPI(t)
	snow := a.characterID(t, "Snow")
	rose := a.giftID(t, "Rose") // 50

	gifts := decode[ListGiftsResponse](t, a.do(t, http.MethodGet, "/gifts", demoUser, nil))
	if len(gifts.Items) != 8 || gifts.Items[0].Name != "Flower" {
		t.Fatalf("gift catalog: %d items", len(gifts.Items))
	}

	path := fmt.Sprintf("/characters/%d/gifts", snow)
	w := a.do(t, http.MethodPost, path, demoUser, gin.H{"gift_id": rose, "quantity": 2})
	if w.Code != http.StatusOK {
		t.Fatalf("send gift: %d %s", w.Code, w.Body.String())
	}
	rc := decode[services.GiftReceipt](t, w)
	if rc.TotalPrice != 100 || rc.NewBalance != 900 || rc.ThankMessage == nil || rc.SessionID == "" {
		t.Fatalf("receipt: %+v", rc)
	}

	expectError(t, a.do(t, http.MethodPost, path, demoUser, gin.H{"gift_id": rose, "quantity": 100}), http.StatusBadRequest, ErrCodeBadRequest)
	expectError(t, a.do(t, http.MethodPost, path, demoUser, gin.H{"quantity": 1}), http.StatusBadRequest, ErrCodeBadRequest)
	expectError(t, a.do(t, http.MethodPost, path, demoUser, gin.H{"gift_id": 999}), http.StatusNotFound, ErrCodeNotFound)
	rocket := a.giftID(t, "Rocket")
	expectError(t, a.do(t, http.MethodPost, path, demoUser, gin.H{"gift_id": rocket}), http.StatusPaymentRequired, ErrCodeInsufficientFunds)

	hist := decode[GiftHistoryResponse](t, a.do(t, http.MethodGet, path, demoUser, nil))
	if hist.Pagination.Total != 1 || hist.Items[0].GiftName != "Rose" || hist.Items[0].Quantity != 2 {
		t.Fatalf("history: %+v", hist)
	}
	rank := decode[GiftRankingResponse](t, a.do(t, http.MethodGet, fmt.Sprintf("/characters/%d/gift-ranking?limit=5", snow), demoUser, nil))
	if len(rank.Items) != 1 || rank.Items[0].UserID != demoUser || rank.Items[0].TotalSpent != 100 {
		t.Fatalf("ranking: %+v", rank)
	}
}

// ---------- sessions ----------

func TestSessions_MessagesETagPinDelete(t *testing.T) {
	a := newTestAPI(t)
	a.do(t, http.MethodPost, "/account", "u2", nil)
	snow := a.characterID(t, "Snow")

	w := a.do(t, http.MethodPost, fmt.Sprintf("/characters/%d/session", snow), demoUser, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("open: %d %s", w.Code, w.Body.String())
	}
	sess := decode[domain.ChatSession](t, w)
	msgs := "/sessions/" + sess.ID + "/messages"

	w = a.do(t, http.MethodPost, msgs, demoUser, gin.H{"content": "hello there"})
	if w.Code != http.StatusCreated {
		t.Fatalf("send: %d %s", w.Code, w.Body.String())
	}
	sent := decode[SendMessageResponse](t, w)
	if sent.UserMessage.Content != "hello there" || sent.Reply.Role != domain.RoleAssistant {
		t.Fatalf("send response: %+v", sent)
	}
	expectError(t, a.do(t, http.MethodPost, msgs, demoUser, gin.H{"content": ""}), http.StatusBadRequest, ErrCodeBadRequest)

	w = a.do(t, http.MethodGet, msgs, demoUser, nil)
	etag := w.Header().Get("ETag")
	page := decode[ListMessagesResponse](t, w)
	if etag == "" || page.Pagination.Total != 3 || page.Items[0].Content != sess.LastMessage {
		t.Fatalf("messages: etag=%q %+v", etag, page.Pagination)
	}
	if w := a.do(t, http.MethodGet, msgs, demoUser, nil, "If-None-Match", etag); w.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w.Code)
	}
	a.do(t, http.MethodPost, msgs, demoUser, gin.H{"content": "again"})
	if w := a.do(t, http.MethodGet, msgs, demoUser, nil, "If-None-Match", etag); w.Code != http.StatusOK {
		t.Fatalf("stale etag must miss, got %d", w.Code)
	}

	expectError(t, a.do(t, http.MethodGet, msgs, "u2", nil), http.StatusForbidden, ErrCodeUnauthorized)
	expectError(t, a.do(t, http.MethodPost, "/sessions/"+sess.ID+"/pin", "u2", nil), http.StatusForbidden, ErrCodeUnauthorized)

	pin := decode[PinResponse](t, a.do(t, http.MethodPost, "/sessions/"+sess.ID+"/pin", demoUser, nil))
	if !pin.IsPinned {
		t.Fatalf("expected pinned")
	}
	list := a.do(t, http.MethodGet, "/sessions", demoUser, nil)
	sessions := decode[ListSessionsResponse](t, list)
	if sessions.Pagination.Total != 1 || !sessions.Items[0].IsPinned || sessions.Items[0].Character == nil {
		t.Fatalf("sessions: %+v", sessions)
	}
	if w := a.do(t, http.MethodGet, "/sessions", demoUser, nil, "If-None-Match", list.Header().Get("ETag")); w.Code != http.StatusNotModified {
		t.Fatalf("sessions 304 expected, got %d", w.Code)
	}

	if w := a.do(t, http.MethodDelete, "/sessions/"+sess.ID, demoUser, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", w.Code)
	}
	expectError(t, a.do(t, http.MethodGet, msgs, demoUser, nil), http.StatusNotFound, ErrCodeNotFound)
	expectError(t, a.do(t, http.MethodDelete, "/sessions/"+sess.ID, demoUser, nil), http.StatusNotFound, ErrCodeNotFound)
}

// ---------- moments ----------

func TestMoments_ListLikeComment(t *testing.T) {
	a := newTestAPI(t)

	feed := decode[ListMomentsResponse](t, a.do(t, http.MethodGet, "/moments?page_size=2", demoUser, nil))
	if feed.Pagination.Total != 5 || len(feed.Items) != 2 || !feed.Pagination.HasNext {
		t.Fatalf("feed: %+v", feed.Pagination)
	}
	id := feed.Items[0].ID
	path := fmt.Sprintf("/moments/%d", id)

	like := decode[services.LikeResult](t, a.do(t, http.MethodPost, path+"/like", demoUser, nil))
	if !like.Liked || like.LikeCount != 1 {
		t.Fatalf("like: %+v", like)
	}
	like = decode[services.LikeResult](t, a.do(t, http.MethodPost, path+"/like", demoUser, nil))
	if like.Liked || like.LikeCount != 0 {
		t.Fatalf("unlike: %+v", like)
	}

	if w := a.do(t, http.MethodPost, path+"/comments", demoUser, gin.H{"content": "So pretty!"}); w.Code != http.StatusCreated {
		t.Fatalf("comment: %d %s", w.Code, w.Body.String())
	}
	expectError(t, a.do(t, http.MethodPost, path+"/comments", demoUser, gin.H{"content": ""}), http.StatusBadRequest, ErrCodeBadRequest)

	detail := decode[services.MomentDetail](t, a.do(t, http.MethodGet, path, demoUser, nil))
	if detail.CommentCount != 1 || len(detail.Comments) != 1 || detail.Comments[0].Content != "So pretty!" {
		t.Fatalf("detail: %+v", detail)
	}

	expectError(t, a.do(t, http.MethodGet, "/moments/99999", demoUser, nil), http.StatusNotFound, ErrCodeNotFound)
	expectError(t, a.do(t, http.MethodGet, "/moments?character_id=x", demoUser, nil), http.StatusBadRequest, ErrCodeBadRequest)
}
