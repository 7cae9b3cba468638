package handler

import (
	"net/http"

	"anoa.com/akademika/internal/modules/assignment/dto"
	"anoa.com/akademika/internal/modules/assignment/service"
	"anoa.com/akademika/pkg/response"
	"anoa.com/akademika/pkg/validator"
	"github.com/gin-gonic/gin"
)

type AssignmentHandler struct {
	service service.AssignmentService
}

func NewAssignmentHandler(service service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: service}
}

// CreateAssignment handles POST /courses/:id/assignments.
func (h *AssignmentHandler) CreateAssignment(c *gin.Context) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	courseID, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req dto.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, validator.FormatValidationError(err))
		return
	}

	res, err := h.service.CreateAssignment(c.Request.Context(), actor, courseID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

func (h *AssignmentHandler) GetCourseAssignments(c *gin.Context) {
	courseID, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	res, err := h.service.GetCourseAssignments(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": res})
}

func (h *AssignmentHandler) GetAssignment(c *gin.Context) {
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	res, err := h.service.GetAssignment(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AssignmentHandler) UpdateAssignment(c *gin.Context) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, validator.FormatValidationError(err))
		return
	}

	res, err := h.service.UpdateAssignment(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
