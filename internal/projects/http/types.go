package http

import (
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/service"
)

// Handler bundles the dependencies for studio HTTP endpoints.
type Handler struct {
	studio *service.Studio
}

func New(studio *service.Studio) *Handler {
	return &Handler{studio: studio}
}

type createProjectReq struct {
	Type    domain.ProjectType `json:"type"`
	Content string             `json:"content,omitempty"`
	Files   []string           `json:"files,omitempty"`
}

type postMessageReq struct {
	Message string `json:"message"`
}
