package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/archstudio-backend/pkg/logger"
)

const (
	DeviceIDHeader = "X-Device-Id"
	maxDeviceIDLen = 128
)

// DeviceID requires the X-Device-Id header and scopes the request to it.
// The id becomes the storage namespace, so only [A-Za-z0-9._-] is accepted.
func DeviceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(DeviceIDHeader))
		if id == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"ok": false, "error": "missing X-Device-Id header"})
			return
		}
		if !validDeviceID(id) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid X-Device-Id header"})
			return
		}

		c.Set(string(logger.DeviceIDKey), id)
		c.Request = c.Request.WithContext(logger.WithDevice(c.Request.Context(), id))
		c.Next()
	}
}

// GetDeviceID returns the device id set by DeviceID.
func GetDeviceID(c *gin.Context) string {
	return c.GetString(string(logger.DeviceIDKey))
}

func validDeviceID(id string) bool {
	if len(id) > maxDeviceIDLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
