package http

import "github.com/gin-gonic/gin"

// Register attaches studio routes to the given router group. The group is
// expected to run the device id middleware.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/catalog", h.catalog)

	rg.POST("/projects", h.createProject)
	rg.POST("/demo", h.startDemo)
	rg.GET("/current", h.current)
	rg.POST("/reset", h.reset)

	rg.POST("/preview", h.openPreview)
	rg.GET("/preview", h.getPreview)
	rg.POST("/preview/messages", h.postMessage)
	rg.POST("/preview/finish", h.finish)

	rg.GET("/final", h.final)
	rg.POST("/final/save", h.save)
	rg.POST("/final/exports/:format", h.export)

	rg.GET("/history", h.listHistory)
	rg.POST("/history/seed", h.seedHistory)
	rg.POST("/history/:id/open", h.openFromHistory)
	rg.DELETE("/history/:id", h.deleteFromHistory)
}
