package dto

import (
	"time"

	commonDto "anoa.com/akademika/pkg/dto"
	"github.com/google/uuid"
)

type CreateCourseRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Code        string `json:"code" validate:"required,max=20"`
	Description string `json:"description" validate:"max=10000"`
	Credits     int    `json:"credits" validate:"required,min=1,max=10"`
	Department  string `json:"department" validate:"required,max=100"`
	// LecturerID may only be chosen by admins; lecturers always own the courses they create.
	LecturerID *uuid.UUID `json:"lecturer_id"`
}

type UpdateCourseRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Code        *string    `json:"code" validate:"omitempty,min=1,max=20"`
	Description *string    `json:"description" validate:"omitempty,max=10000"`
	Credits     *int       `json:"credits" validate:"omitempty,min=1,max=10"`
	Department  *string    `json:"department" validate:"omitempty,min=1,max=100"`
	LecturerID  *uuid.UUID `json:"lecturer_id"`
}

type CourseFilter struct {
	Search     string `form:"search" validate:"max=100"`
	Department string `form:"department" validate:"max=100"`
	Page       int    `form:"page" validate:"omitempty,min=1"`
	Limit      int    `form:"limit" validate:"omitempty,min=1,max=100"`
}

type LecturerResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	FullName string    `json:"full_name"`
}

type CourseResponse struct {
	ID          uuid.UUID         `json:"id"`
	Title       string            `json:"title"`
	Code        string            `json:"code"`
	Description string            `json:"description"`
	Credits     int               `json:"credits"`
	Department  string            `json:"department"`
	Lecturer    *LecturerResponse `json:"lecturer"`
	SyllabusURL *string           `json:"syllabus_url"`
	IsActive    bool              `json:"is_active"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type PaginatedCourseResponse struct {
	Data []CourseResponse         `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}
