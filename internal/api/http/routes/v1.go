package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/archstudio-backend/internal/api/http/middleware"
	studiohttp "github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/http"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/service"
)

type V1Deps struct {
	Studio    *service.Studio
	RateRPS   float64
	RateBurst int
}

// RegisterV1 mounts the device-scoped studio API under /api/v1/studio.
func RegisterV1(r *gin.Engine, dep V1Deps) {
	api := r.Group("/api/v1")

	studio := api.Group("/studio")
	studio.Use(middleware.DeviceID())
	if dep.RateRPS > 0 && dep.RateBurst > 0 {
		studio.Use(middleware.NewRateLimiter(dep.RateRPS, dep.RateBurst).Middleware())
	}
	studiohttp.New(dep.Studio).Register(studio)
}
