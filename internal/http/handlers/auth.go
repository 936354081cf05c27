package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursemarket-client/internal/domain"
	"github.com/yungbote/coursemarket-client/internal/gate"
	"github.com/yungbote/coursemarket-client/internal/http/response"
	"github.com/yungbote/coursemarket-client/internal/session"
	"github.com/yungbote/coursemarket-client/internal/store"
)

type AuthHandler struct {
	auth    *store.AuthStore
	session *session.Manager
	now     func() time.Time
}

func NewAuthHandler(auth *store.AuthStore, sess *session.Manager) *AuthHandler {
	return &AuthHandler{auth: auth, session: sess, now: time.Now}
}

type authReply struct {
	User     *domain.Principal `json:"user"`
	Redirect string            `json:"redirect"`
}

// next comes from the body, falling back to the query string.
func nextParam(c *gin.Context, body string) string {
	if body != "" {
		return body
	}
	return c.Query("next")
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Next     string `json:"next"`
	}
	if !bindJSON(c, &req) {
		return
	}
	sess, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, authReply{User: sess.Principal, Redirect: gate.ReturnPath(nextParam(c, req.Next))})
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Next     string `json:"next"`
	}
	if !bindJSON(c, &req) {
		return
	}
	sess, err := h.auth.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, authReply{User: sess.Principal, Redirect: gate.ReturnPath(nextParam(c, req.Next))})
}

// POST /auth/social/:provider
func (h *AuthHandler) Social(c *gin.Context) {
	provider, ok := domain.ParseSocialProvider(c.Param("provider"))
	if !ok {
		response.RespondError(c, http.StatusNotFound, "unknown_provider", fmt.Errorf("unknown provider %q", c.Param("provider")))
		return
	}
	var req struct {
		Token string `json:"token"`
		Next  string `json:"next"`
	}
	if !bindJSON(c, &req) {
		return
	}
	sess, err := h.auth.SocialLogin(c.Request.Context(), provider, req.Token)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, authReply{User: sess.Principal, Redirect: gate.ReturnPath(nextParam(c, req.Next))})
}

// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context()); err != nil {
		// The in-memory session is gone either way.
		response.RespondOK(c, gin.H{"ok": true, "warning": err.Error()})
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	p, err := h.auth.FetchCurrentUser(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": p})
}

// GET /gate?path=/courses/1/tests/2
func (h *AuthHandler) Gate(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("path is required"))
		return
	}
	response.RespondOK(c, gate.Check(h.session.Current(), h.now(), path))
}
