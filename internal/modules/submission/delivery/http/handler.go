package handler

import (
	"net/http"
	"strings"

	"anoa.com/akademika/internal/modules/submission/dto"
	"anoa.com/akademika/internal/modules/submission/service"
	commonDto "anoa.com/akademika/pkg/dto"
	"anoa.com/akademika/pkg/response"
	"anoa.com/akademika/pkg/validator"
	"github.com/gin-gonic/gin"
)

// MaxSubmissionSize bounds submission uploads.
const MaxSubmissionSize = 20 << 20

type SubmissionHandler struct {
	service service.SubmissionService
}

func NewSubmissionHandler(service service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{service: service}
}

// SubmitAssignment accepts either a JSON body or a multipart form with an optional "file" part.
func (h *SubmissionHandler) SubmitAssignment(c *gin.Context) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	assignmentID, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	var (
		req  dto.CreateSubmissionRequest
		file *commonDto.UploadedFile
	)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBind(&req); err != nil {
			response.BadRequest(c, validator.FormatValidationError(err))
			return
		}

		if fileHeader, err := c.FormFile("file"); err == nil {
			if fileHeader.Size > MaxSubmissionSize {
				response.BadRequest(c, "file exceeds the 20MB limit")
				return
			}
			f, err := fileHeader.Open()
			if err != nil {
				response.BadRequest(c, "failed to read uploaded file")
				return
			}
			defer f.Close()
			file = &commonDto.UploadedFile{Reader: f, FileName: fileHeader.Filename, Size: fileHeader.Size}
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, validator.FormatValidationError(err))
		return
	}

	res, err := h.service.SubmitAssignment(c.Request.Context(), actor, assignmentID, req, file)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

func (h *SubmissionHandler) GetAssignmentSubmissions(c *gin.Context) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	assignmentID, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	res, err := h.service.GetAssignmentSubmissions(c.Request.Context(), actor, assignmentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": res})
}

func (h *SubmissionHandler) GetMySubmissions(c *gin.Context) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.service.GetMySubmissions(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": res})
}

func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	res, err := h.service.GetSubmission(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *SubmissionHandler) GradeSubmission(c *gin.Context) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req dto.GradeSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, validator.FormatValidationError(err))
		return
	}

	res, err := h.service.GradeSubmission(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
