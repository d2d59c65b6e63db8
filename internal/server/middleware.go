package server

import (
	"context"
	"strconv"
	"strings"

	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/ratelimit"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/usercontext"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
)

// IdentityRequired resolves the authenticated user from the gateway-supplied
// headers. Authentication happens upstream; a request without an identity
// header never reaches a service method.
func (s *Server) IdentityRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		userID, err := snowflake.ParseString(raw)
		if err != nil || userID == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := usercontext.WithUserID(c.Request.Context(), userID)
		if email := strings.TrimSpace(c.GetHeader(HeaderUserEmail)); email != "" {
			ctx = usercontext.WithUserEmail(ctx, email)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

type allowFunc func(ctx context.Context, userID snowflake.ID) (ratelimit.Result, error)

// rateLimitWrite gates a mutating route with the per-user token bucket. A
// limiter backend failure fails open; throttling must not take the write
// path down with it.
func (s *Server) rateLimitWrite(allow allowFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := usercontext.UserIDFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		res, err := allow(c.Request.Context(), userID)
		if err != nil {
			s.log.Warn("rate limit check failed, allowing request",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
			c.Next()
			return
		}
		if !res.Allowed {
			if res.RetryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())+1))
			}
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
