// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements response replay for unsafe methods carrying an
// Idempotency-Key header. The first 2xx response for a (user, route, key)
// triple is stored; retries within the TTL receive the stored status and
// body with Idempotency-Replayed: true and never reach the handler, so a
// retried recharge or gift is charged once.
package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-companion-backend/internal/repo"
)

const (
	// HeaderIdempotencyKey is the request header clients use to mark retries
	// of the same logical operation.
	HeaderIdempotencyKey = "Idempotency-Key"
	// HeaderIdempotencyReplayed is set on responses served from the store.
	HeaderIdempotencyReplayed = "Idempotency-Replayed"

	ctxKeyIdemKey = "idem.key"
)

// IdempotencyStore persists replayable responses.
type IdempotencyStore interface {
	Lookup(ctx context.Context, userID, scope, key string) (status int, body []byte, found bool, err error)
	Save(ctx context.Context, userID, scope, key string, status int, body []byte) error
}

// GormIdempotencyStore keeps responses in the idempotency table.
type GormIdempotencyStore struct {
	DB  *gorm.DB
	TTL time.Duration
}

// Lookup implements IdempotencyStore.
func (s *GormIdempotencyStore) Lookup(ctx context.Context, userID, scope, key string) (int, []byte, bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, userID, scope, key, time.Now().UTC())
	if errors.Is(err, repo.ErrNotFound) {
		return 0, nil, false, nil
	}
	if err != nil {
		return 0, nil, false, err
	}
	return rec.Status, []byte(rec.Body), true, nil
}

// Save implements IdempotencyStore. Losing a race to another writer is not
// an error: the first stored response wins.
func (s *GormIdempotencyStore) Save(ctx context.Context, userID, scope, key string, status int, body []byte) error {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	_, err := repo.CreateIdempotency(ctx, s.DB, userID, scope, key, status, body, ttl)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// IdempotencyOptions configures key validation.
type IdempotencyOptions struct {
	// MaxLen caps the key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters; nil means ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

var defaultIdemPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated key stashed by Idempotency.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// Idempotency replays stored responses for repeated keys. It must run after
// Identity so the user id is known. Requests without the header, and safe
// methods, pass through untouched.
//
//   - malformed key: 400 invalid_idempotency_key
//   - same key still executing: 409 conflict
//   - stored response: replayed verbatim
//   - otherwise the handler runs and a 2xx response is stored, including
//     bodiless ones such as 204
func Idempotency(store IdempotencyStore, opts IdempotencyOptions) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultIdemPattern
	}
	var inflight sync.Map

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || !unsafeMethod(c.Request.Method) {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "invalid_idempotency_key",
				"message":    "invalid " + HeaderIdempotencyKey,
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		uid := UserID(c)
		scope := idemScope(c)
		slot := uid + "\x00" + scope + "\x00" + key
		if _, busy := inflight.LoadOrStore(slot, struct{}{}); busy {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "conflict",
				"message":    "a request with this " + HeaderIdempotencyKey + " is in progress",
			})
			return
		}
		defer inflight.Delete(slot)

		ctx := c.Request.Context()
		status, body, found, err := store.Lookup(ctx, uid, scope, key)
		if err != nil {
			LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
		}
		if found {
			c.Header(HeaderIdempotencyReplayed, "true")
			if len(body) == 0 {
				c.Status(status)
				c.Writer.WriteHeaderNow()
			} else {
				c.Data(status, "application/json; charset=utf-8", body)
			}
			c.Abort()
			return
		}

		cw := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = cw
		c.Next()

		if st := cw.Status(); st >= 200 && st < 300 {
			if err := store.Save(ctx, uid, scope, key, st, cw.buf.Bytes()); err != nil {
				LoggerFrom(c).Warn().Err(err).Msg("idempotency save failed")
			}
		}
	}
}

func unsafeMethod(m string) bool {
	switch m {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// idemScope names the operation and its target, e.g.
// "POST /api/v1/characters/:id/gifts|id=3".
func idemScope(c *gin.Context) string {
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	params := make([]string, 0, len(c.Params))
	for _, p := range c.Params {
		params = append(params, p.Key+"="+p.Value)
	}
	sort.Strings(params)
	return c.Request.Method + " " + route + "|" + strings.Join(params, "&")
}

// captureWriter tees the response body so it can be stored after the
// handler returns.
type captureWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
