package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity())
	r.GET("/me", func(c *gin.Context) { c.String(http.StatusOK, UserID(c)) })

	cases := []struct {
		header string
		code   int
		body   string
	}{
		{"", http.StatusUnauthorized, ""},
		{"bad id!", http.StatusUnauthorized, ""},
		{" 13800138000 ", http.StatusOK, "13800138000"},
		{"user@example.com", http.StatusOK, "user@example.com"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if tc.header != "" {
			req.Header.Set(HeaderUserID, tc.header)
		}
		r.ServeHTTP(w, req)
		if w.Code != tc.code {
			t.Fatalf("%q: expected %d, got %d", tc.header, tc.code, w.Code)
		}
		if tc.code == http.StatusOK && w.Body.String() != tc.body {
			t.Fatalf("%q: user id %q", tc.header, w.Body.String())
		}
	}
}

func TestUserID_Absent(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if UserID(c) != "" {
		t.Fatalf("expected empty user id")
	}
	c.Set(userIDKey, 7)
	if UserID(c) != "" {
		t.Fatalf("wrong type must read as empty")
	}
}
