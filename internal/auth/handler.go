// Package auth implements the teacher gate: a static secret compare that
// grants nothing but the advisory admin flag. The session router keeps
// trusting whatever the client asserts; this endpoint only backs the
// controller UI's password prompt.
package auth

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/maravian/sync-server/pkg/hashutil"
	"github.com/maravian/sync-server/pkg/response"
)

// Handler validates the teacher password.
type Handler struct {
	password     string
	passwordHash string
	logger       *zap.Logger
}

// NewHandler builds the gate. A non-empty bcrypt hash takes precedence over
// the plain password.
func NewHandler(password, passwordHash string, logger *zap.Logger) *Handler {
	return &Handler{password: password, passwordHash: passwordHash, logger: logger}
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

// Login handles POST /auth/teacher.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "password required")
		return
	}
	if !h.check(req.Password) {
		h.logger.Warn("teacher login rejected", zap.String("client_ip", c.ClientIP()))
		response.Unauthorized(c, "incorrect password")
		return
	}
	response.OK(c, gin.H{"admin": true})
}

func (h *Handler) check(password string) bool {
	if h.passwordHash != "" {
		return hashutil.CheckPassword(password, h.passwordHash)
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(h.password)) == 1
}
