package server

import (
	"math"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/invoicer/internal/audit/domain"
	"github.com/smallbiznis/invoicer/internal/auditcontext"
	obscontext "github.com/smallbiznis/invoicer/internal/observability/context"
)

const contextUserIDKey = "user_id"

// AuthRequired rejects requests without a live session and records the
// session owner on both the gin and request contexts.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		session, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextUserIDKey, session.UserID)
		ctx := obscontext.WithUser(c.Request.Context(), session.UserID.String(), "")
		ctx = auditcontext.WithActor(ctx, string(auditdomain.ActorTypeUser), session.UserID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// LoginRateLimit caps login attempts per client IP.
func (s *Server) LoginRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil {
			c.Next()
			return
		}

		allowed, retryAfter := s.limiter.Allow(c.Request.Context(), c.ClientIP())
		if !allowed {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			s.obsMetrics.RecordRateLimitDenied(c.Request.Context(), "auth.login")
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}

func userIDFromContext(c *gin.Context) (snowflake.ID, bool) {
	value, ok := c.Get(contextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := value.(snowflake.ID)
	return id, ok && id != 0
}
