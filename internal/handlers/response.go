package handlers

import (
	"errors"
	"net/http"

	"aquastream/internal/automation"
	"aquastream/internal/models"
	"aquastream/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK      = "ok"
	statusCleared = "cleared"

	errInvalidBodyPref = "invalid body: "
)

// statusFor maps service errors onto HTTP codes. Anything unrecognized
// on a device-facing route is a gateway failure.
func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, service.ErrInvalidSettings),
		errors.Is(err, service.ErrInvalidTimeRange),
		errors.Is(err, models.ErrUnknownCommand):
		return http.StatusBadRequest
	case errors.Is(err, automation.ErrTickInFlight):
		return http.StatusConflict
	case errors.Is(err, automation.ErrDispatcherClosed),
		errors.Is(err, automation.ErrPollerStopped):
		return http.StatusServiceUnavailable
	default:
		return fallback
	}
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// respondError picks the status via statusFor. Client errors carry the
// error text; server errors carry userMsg only.
func (h *Handler) respondError(c *gin.Context, fallback int, userMsg, logKey string, err error, kv ...interface{}) {
	code := statusFor(err, fallback)
	if code < http.StatusInternalServerError {
		if h.log != nil {
			h.log.Infow(logKey, append([]interface{}{"err", err}, kv...)...)
		}
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}
	h.logAndJSONError(c, code, userMsg, logKey, err, kv...)
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}
