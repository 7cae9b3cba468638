package handler

import (
	"net/http"

	"anoa.com/akademika/internal/modules/admin/dto"
	enrollmentService "anoa.com/akademika/internal/modules/enrollment/service"
	userDto "anoa.com/akademika/internal/modules/user/dto"
	userService "anoa.com/akademika/internal/modules/user/service"
	"anoa.com/akademika/internal/policy"
	commonDto "anoa.com/akademika/pkg/dto"
	"anoa.com/akademika/pkg/response"
	"anoa.com/akademika/pkg/validator"
	"github.com/gin-gonic/gin"
)

// AdminHandler serves the admin console: user management and the enrollment approval queue.
type AdminHandler struct {
	authService       userService.AuthService
	userService       userService.UserService
	enrollmentService enrollmentService.EnrollmentService
}

func NewAdminHandler(authService userService.AuthService, users userService.UserService, enrollments enrollmentService.EnrollmentService) *AdminHandler {
	return &AdminHandler{
		authService:       authService,
		userService:       users,
		enrollmentService: enrollments,
	}
}

func (h *AdminHandler) CreateUser(c *gin.Context) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := policy.Authorize(actor, policy.ActionUserManage); err != nil {
		response.Error(c, err)
		return
	}

	var input dto.CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, validator.FormatValidationError(err))
		return
	}
	if err := validator.Struct(input); err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.authService.Register(c.Request.Context(), &actor, input.RegisterInput())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

func (h *AdminHandler) GetAllUsers(c *gin.Context) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var filter userDto.UserFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, validator.FormatValidationError(err))
		return
	}

	res, err := h.userService.ListUsers(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AdminHandler) GetUser(c *gin.Context) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := policy.Authorize(actor, policy.ActionUserManage); err != nil {
		response.Error(c, err)
		return
	}
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	res, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AdminHandler) GetPendingEnrollments(c *gin.Context) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var page commonDto.PageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, validator.FormatValidationError(err))
		return
	}

	res, err := h.enrollmentService.GetPendingEnrollments(c.Request.Context(), actor, page)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
