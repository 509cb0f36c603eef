package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cellhub/pkg/logutils"
)

type Handler struct {
	Operator Operator
	Tokens   TokenService
	Denylist *Denylist
}

func NewHandler(op Operator, tokens TokenService, denylist *Denylist) *Handler {
	return &Handler{Operator: op, Tokens: tokens, Denylist: denylist}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/token", h.token)
	rg.POST("/logout", h.Middleware(), h.logout)
}

// Middleware guards routes with the operator's bearer token.
func (h *Handler) Middleware() gin.HandlerFunc {
	return AuthMiddleware(h.Tokens, h.Denylist)
}

type tokenReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) token(c *gin.Context) {
	var req tokenReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}
	if !h.Operator.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "operator login disabled"})
		return
	}

	if err := h.Operator.Verify(username, req.Password); err != nil {
		logutils.Component("http").WithField("username", username).Warn("operator login failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, claims, err := h.Tokens.Sign(username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"token_id":   claims.ID,
		"expires_at": claims.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) logout(c *gin.Context) {
	claims := MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	h.Denylist.Revoke(claims.ID, claims.ExpiresAt.Time)
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}
