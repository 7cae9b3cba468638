package handler

import (
	"net/http"

	"anoa.com/akademika/internal/modules/dashboard/service"
	"anoa.com/akademika/pkg/response"
	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(service service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	view, err := h.service.Build(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *DashboardHandler) GetCourseStats(c *gin.Context) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	courseID, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	stats, err := h.service.GetCourseStats(c.Request.Context(), actor, courseID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
