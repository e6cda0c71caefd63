package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/archstudio-backend/internal/delay"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/archstudio-backend/pkg/logger"
)

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrRequestPending),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, delay.ErrCancelled):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		body := gin.H{"ok": false, "error": err.Error()}
		if stage, ok := domain.RedirectFor(err); ok {
			body["redirect_to"] = stage
		}
		c.JSON(http.StatusNotFound, body)
	default:
		logger.Error(c.Request.Context(), "request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
	}
}
