package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateAssignmentRequest struct {
	Title        string    `json:"title" validate:"required,max=200"`
	Description  string    `json:"description" validate:"max=10000"`
	DueDate      time.Time `json:"due_date" validate:"required"`
	MaxPoints    int       `json:"max_points" validate:"required,min=1,max=1000"`
	Weight       float64   `json:"weight" validate:"gte=0,lte=1"`
	FileRequired bool      `json:"file_required"`
}

type UpdateAssignmentRequest struct {
	Title        *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string    `json:"description" validate:"omitempty,max=10000"`
	DueDate      *time.Time `json:"due_date"`
	MaxPoints    *int       `json:"max_points" validate:"omitempty,min=1,max=1000"`
	Weight       *float64   `json:"weight" validate:"omitempty,gte=0,lte=1"`
	FileRequired *bool      `json:"file_required"`
}

type AssignmentResponse struct {
	ID           uuid.UUID `json:"id"`
	CourseID     uuid.UUID `json:"course_id"`
	CourseTitle  string    `json:"course_title,omitempty"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	DueDate      time.Time `json:"due_date"`
	MaxPoints    int       `json:"max_points"`
	Weight       float64   `json:"weight"`
	FileRequired bool      `json:"file_required"`
	CreatedAt    time.Time `json:"created_at"`
}
