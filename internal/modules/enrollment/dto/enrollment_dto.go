package dto

import (
	"time"

	commonDto "anoa.com/akademika/pkg/dto"
	"github.com/google/uuid"
)

type CreateEnrollmentRequest struct {
	CourseID uuid.UUID `json:"course_id" validate:"required"`
}

type DecideEnrollmentRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

type CourseSummary struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	Code  string    `json:"code"`
}

type StudentSummary struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
}

type EnrollmentResponse struct {
	ID         uuid.UUID       `json:"id"`
	CourseID   uuid.UUID       `json:"course_id"`
	StudentID  uuid.UUID       `json:"student_id"`
	Course     *CourseSummary  `json:"course,omitempty"`
	Student    *StudentSummary `json:"student,omitempty"`
	Status     string          `json:"status"`
	EnrolledAt time.Time       `json:"enrolled_at"`
	DecidedAt  *time.Time      `json:"decided_at,omitempty"`
	DecidedBy  *uuid.UUID      `json:"decided_by,omitempty"`
}

type PaginatedEnrollmentResponse struct {
	Data []EnrollmentResponse     `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}
