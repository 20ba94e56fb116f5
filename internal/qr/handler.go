// Package qr serves a PNG QR code for the game join URL, so the projector
// view can show a scannable link without a client-side library.
package qr

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/maravian/sync-server/pkg/response"
)

const (
	defaultSize = 256
	minSize     = 64
	maxSize     = 1024
)

// Handler encodes join URLs as QR PNGs.
type Handler struct {
	defaultURL string
	logger     *zap.Logger
}

// NewHandler builds the QR handler; defaultURL is encoded when the request
// carries no url parameter.
func NewHandler(defaultURL string, logger *zap.Logger) *Handler {
	return &Handler{defaultURL: defaultURL, logger: logger}
}

// Generate handles GET /qr?url=&size=.
func (h *Handler) Generate(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		url = h.defaultURL
	}
	if url == "" {
		response.BadRequest(c, "url required")
		return
	}
	size := defaultSize
	if v := c.Query("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			response.BadRequest(c, "invalid size")
			return
		}
		size = n
	}
	if size < minSize {
		size = minSize
	}
	if size > maxSize {
		size = maxSize
	}
	png, err := qrcode.Encode(url, qrcode.Medium, size)
	if err != nil {
		h.logger.Error("qr encode", zap.String("url", url), zap.Error(err))
		response.Internal(c, "encoding failed")
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
