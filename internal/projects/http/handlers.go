package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/archstudio-backend/internal/api/http/middleware"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/service"
)

func (h *Handler) lifecycle(c *gin.Context) *service.Lifecycle {
	return h.studio.Lifecycle(middleware.GetDeviceID(c))
}

func (h *Handler) preview(c *gin.Context) *service.Preview {
	return h.studio.Preview(middleware.GetDeviceID(c))
}

// wantsWait reports whether the caller asked to block until a simulated step settles.
func wantsWait(c *gin.Context) bool {
	return c.Query("wait") == "true"
}

func (h *Handler) catalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "catalog": h.studio.Catalog()})
}

func (h *Handler) createProject(c *gin.Context) {
	var req createProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	p, err := h.lifecycle(c).StartProject(c.Request.Context(), domain.Input{
		Type:    req.Type,
		Content: req.Content,
		Files:   req.Files,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *Handler) startDemo(c *gin.Context) {
	p, err := h.lifecycle(c).StartDemo(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *Handler) current(c *gin.Context) {
	p, err := h.lifecycle(c).Current(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) reset(c *gin.Context) {
	if err := h.studio.StartNew(c.Request.Context(), middleware.GetDeviceID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) openPreview(c *gin.Context) {
	p := h.preview(c)
	gen, err := p.Open(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if wantsWait(c) {
		if _, err := gen.Wait(c.Request.Context()); err != nil {
			writeError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "preview": p.Snapshot()})
}

func (h *Handler) getPreview(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "preview": h.preview(c).Snapshot()})
}

func (h *Handler) postMessage(c *gin.Context) {
	var req postMessageReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	p := h.preview(c)
	user, reply, err := p.Submit(c.Request.Context(), req.Message)
	if err != nil {
		writeError(c, err)
		return
	}

	if !wantsWait(c) {
		c.JSON(http.StatusAccepted, gin.H{"ok": true, "user_message": user, "preview": p.Snapshot()})
		return
	}
	assistant, err := reply.Wait(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":                true,
		"user_message":      user,
		"assistant_message": assistant,
		"preview":           p.Snapshot(),
	})
}

func (h *Handler) finish(c *gin.Context) {
	p := h.preview(c)
	fin, err := p.Finish(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	if !wantsWait(c) {
		c.JSON(http.StatusAccepted, gin.H{"ok": true, "preview": p.Snapshot()})
		return
	}
	final, err := fin.Wait(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": final, "preview": p.Snapshot()})
}

func (h *Handler) final(c *gin.Context) {
	p, err := h.lifecycle(c).Final(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) save(c *gin.Context) {
	l := h.lifecycle(c)
	p, err := l.Final(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if err := l.SaveToHistory(c.Request.Context(), p); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) export(c *gin.Context) {
	receipt, err := h.lifecycle(c).Export(c.Request.Context(), c.Param("format"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "export": receipt})
}

func (h *Handler) listHistory(c *gin.Context) {
	status := domain.Status(strings.TrimSpace(c.Query("status")))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid status filter"})
		return
	}

	items, err := h.lifecycle(c).History(c.Request.Context(), service.HistoryFilter{
		Status: status,
		Query:  c.Query("q"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": items})
}

func (h *Handler) seedHistory(c *gin.Context) {
	items, err := h.lifecycle(c).SeedHistory(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": items})
}

func (h *Handler) openFromHistory(c *gin.Context) {
	id := domain.ProjectID(strings.TrimSpace(c.Param("id")))
	p, err := h.lifecycle(c).OpenFromHistory(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) deleteFromHistory(c *gin.Context) {
	id := domain.ProjectID(strings.TrimSpace(c.Param("id")))
	if err := h.lifecycle(c).DeleteFromHistory(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
