package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/invoicer/internal/audit/domain"
	"github.com/smallbiznis/invoicer/internal/auditcontext"
	authdomain "github.com/smallbiznis/invoicer/internal/auth/domain"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionView struct {
	User      *authdomain.User `json:"user"`
	ExpiresAt *time.Time       `json:"expires_at,omitempty"`
}

func (s *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.authsvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Email:     strings.TrimSpace(req.Email),
		Password:  req.Password,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		s.obsMetrics.RecordLoginAttempt(c.Request.Context(), "failure")
		c.Request = c.Request.WithContext(auditcontext.WithActor(c.Request.Context(), string(auditdomain.ActorTypeAnonymous), ""))
		s.recordAudit(c, auditdomain.ActionLoginFailed, "user", "", map[string]any{
			"email":  strings.ToLower(strings.TrimSpace(req.Email)),
			"reason": err.Error(),
		})
		AbortWithError(c, err)
		return
	}
	s.obsMetrics.RecordLoginAttempt(c.Request.Context(), "success")

	userID := result.User.ID.String()
	c.Request = c.Request.WithContext(auditcontext.WithActor(c.Request.Context(), string(auditdomain.ActorTypeUser), userID))
	s.recordAudit(c, auditdomain.ActionLogin, "user", userID, map[string]any{
		"expires_at": result.ExpiresAt.UTC().Format(time.RFC3339),
	})

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)

	c.JSON(http.StatusOK, gin.H{"data": sessionView{User: result.User, ExpiresAt: &result.ExpiresAt}})
}

func (s *Server) Logout(c *gin.Context) {
	token, ok := s.sessions.ReadToken(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var userID string
	if current, err := s.authsvc.Authenticate(c.Request.Context(), token); err == nil {
		userID = current.UserID.String()
	}

	if err := s.authsvc.Logout(c.Request.Context(), token); err != nil {
		AbortWithError(c, err)
		return
	}

	if userID != "" {
		c.Request = c.Request.WithContext(auditcontext.WithActor(c.Request.Context(), string(auditdomain.ActorTypeUser), userID))
		s.recordAudit(c, auditdomain.ActionLogout, "user", userID, nil)
	}

	s.sessions.Clear(c)
	c.Status(http.StatusNoContent)
}

func (s *Server) Me(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	user, err := s.authsvc.GetUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sessionView{User: user}})
}
