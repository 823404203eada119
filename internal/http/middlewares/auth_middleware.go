package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/todohub/internal/actorctx"
	"github.com/geocoder89/todohub/internal/auth"
	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// Keep these interfaces small so tests can fake them easily.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type IdentityResolver interface {
	Lookup(ctx context.Context, email string) (user.User, error)
}

type RejectionObserver interface {
	ObserveAuthRejection(reason string)
}

// Rejection reasons, reported as the error code of a 403.
const (
	ReasonMissingCredentials = "missing_credentials"
	ReasonBadScheme          = "bad_scheme"
	ReasonInvalidToken       = "invalid_token"
	ReasonUnauthorized       = "unauthorized"
)

const unauthorizedMessage = "Unauthorized!"

// OwnerFunc extracts the raw resource-owner id a request claims to act on.
type OwnerFunc func(c *gin.Context) string

func OwnerFromQuery(name string) OwnerFunc {
	return func(c *gin.Context) string {
		return strings.TrimSpace(c.Query(name))
	}
}

func OwnerFromParam(name string) OwnerFunc {
	return func(c *gin.Context) string {
		return strings.TrimSpace(c.Param(name))
	}
}

type AuthMiddleware struct {
	tokens   TokenVerifier
	users    IdentityResolver
	timeout  time.Duration
	observer RejectionObserver
}

func NewAuthMiddleware(tokens TokenVerifier, users IdentityResolver, timeout time.Duration) *AuthMiddleware {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	return &AuthMiddleware{
		tokens:  tokens,
		users:   users,
		timeout: timeout,
	}
}

func (m *AuthMiddleware) WithObserver(o RejectionObserver) *AuthMiddleware {
	m.observer = o
	return m
}

// RequireOwner lets a request through only when its bearer token belongs
// to the user whose id owner() returns. The resolved user is available to
// downstream handlers via UserFromContext and actorctx.UserFrom.
func (m *AuthMiddleware) RequireOwner(owner OwnerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawOwner := owner(c)
		authHeader := c.GetHeader("Authorization")

		if rawOwner == "" || authHeader == "" {
			m.reject(c, ReasonMissingCredentials)
			return
		}

		scheme, raw, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			m.reject(c, ReasonBadScheme)
			return
		}

		raw = strings.TrimSpace(raw)
		if raw == "" {
			m.reject(c, ReasonInvalidToken)
			return
		}

		claims, err := m.tokens.Verify(raw)
		if err != nil {
			m.reject(c, ReasonInvalidToken)
			return
		}

		if claims.Email == "" {
			m.reject(c, ReasonInvalidToken)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), m.timeout)
		defer cancel()

		u, err := m.users.Lookup(ctx, claims.Email)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				m.reject(c, ReasonUnauthorized)
				return
			}

			slog.Default().ErrorContext(c.Request.Context(), "auth_lookup_failed", "err", err, "request_id", requestIDOf(c))
			abortWithError(c, http.StatusInternalServerError, "internal_error", "Could not authorize request")
			return
		}

		// user-not-found and owner mismatch must be indistinguishable
		ownerID, err := strconv.ParseInt(rawOwner, 10, 64)
		if err != nil || ownerID != u.ID {
			m.reject(c, ReasonUnauthorized)
			return
		}

		// Stash identity on both the gin and the request context
		c.Set(CtxUser, u)
		c.Request = c.Request.WithContext(actorctx.WithUser(c.Request.Context(), u))

		c.Next()
	}
}

func (m *AuthMiddleware) reject(c *gin.Context, reason string) {
	if m.observer != nil {
		m.observer.ObserveAuthRejection(reason)
	}

	c.Set(CtxRejection, reason)
	slog.Default().DebugContext(c.Request.Context(), "auth_rejected", "reason", reason, "route", c.FullPath(), "request_id", requestIDOf(c))

	abortWithError(c, http.StatusForbidden, reason, unauthorizedMessage)
}

// abortWithError writes the same envelope as handlers.RespondError.
func abortWithError(c *gin.Context, status int, code, message string) {
	body := gin.H{
		"code":    code,
		"message": message,
	}
	if id := requestIDOf(c); id != "" {
		body["requestId"] = id
	}

	c.AbortWithStatusJSON(status, gin.H{"error": body})
}

// helpers so handlers don't need to know the magic keys.

func UserFromContext(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(CtxUser)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}

func requestIDOf(c *gin.Context) string {
	if v, ok := c.Get(CtxRequestID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
