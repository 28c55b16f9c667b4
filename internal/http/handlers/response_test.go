package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-companion-backend/internal/repo"
	"github.com/tbourn/go-companion-backend/internal/services"
)

func TestFail_500_LogsWithoutLeaking(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-500")
		c.Set("logger", &logger)
		c.Next()
	})
	r.GET("/boom", func(c *gin.Context) {
		failErr(c, errors.New("dial tcp: connection refused"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.RequestID != "rid-500" || resp.Code != ErrCodeInternal {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if strings.Contains(resp.Message, "connection refused") {
		t.Fatalf("internal detail leaked: %q", resp.Message)
	}
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("expected error log, got: %s", buf.String())
	}
}

func TestFailErr_KindMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrCharacterNotFound, http.StatusNotFound, ErrCodeNotFound},
		{repo.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
		{services.ErrInsufficientFunds, http.StatusPaymentRequired, ErrCodeInsufficientFunds},
		{fmt.Errorf("gift: %w", services.ErrInvalidQuantity), http.StatusBadRequest, ErrCodeBadRequest},
		{services.ErrNotSessionOwner, http.StatusForbidden, ErrCodeUnauthorized},
		{services.ErrCharacterLocked, http.StatusForbidden, ErrCodeForbidden},
		{&services.Error{Kind: services.KindConflict, Msg: "busy"}, http.StatusConflict, ErrCodeConflict},
	}
	for _, tc := range cases {
		r := gin.New()
		r.GET("/x", func(c *gin.Context) { failErr(c, tc.err) })
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		if w.Code != tc.status {
			t.Fatalf("%v: status=%d want %d", tc.err, w.Code, tc.status)
		}
		var er ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
			t.Fatalf("json: %v", err)
		}
		if er.Code != tc.code {
			t.Fatalf("%v: code=%q want %q", tc.err, er.Code, tc.code)
		}
	}
}

func TestSuccessHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/missing", func(c *gin.Context) { Fail(c, http.StatusNotFound, ErrCodeNotFound, "nope") })
	r.GET("/ok", func(c *gin.Context) { ok(c, http.StatusCreated, gin.H{"n": 1}) })
	r.DELETE("/gone", func(c *gin.Context) { noContent(c) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), `"message":"nope"`) {
		t.Fatalf("Fail: %d %s", w.Code, w.Body.String())
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w.Code != http.StatusCreated || w.Body.String() != `{"n":1}` {
		t.Fatalf("ok: %d %s", w.Code, w.Body.String())
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/gone", nil))
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Fatalf("noContent: %d %q", w.Code, w.Body.String())
	}
}

func TestPaginate(t *testing.T) {
	p := paginate(2, 20, 45)
	if p.TotalPages != 3 || !p.HasNext {
		t.Fatalf("unexpected %+v", p)
	}
	p = paginate(3, 20, 45)
	if p.HasNext {
		t.Fatalf("last page has no next: %+v", p)
	}
	p = paginate(1, 20, 0)
	if p.TotalPages != 0 || p.HasNext {
		t.Fatalf("empty: %+v", p)
	}
}
