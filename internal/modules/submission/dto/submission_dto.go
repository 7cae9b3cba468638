package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSubmissionRequest struct {
	Content string `json:"content" form:"content" validate:"max=50000"`
}

type GradeSubmissionRequest struct {
	Grade    *float64 `json:"grade" validate:"required,gte=0"`
	Feedback *string  `json:"feedback" validate:"omitempty,max=10000"`
}

type SubmissionResponse struct {
	ID              uuid.UUID  `json:"id"`
	AssignmentID    uuid.UUID  `json:"assignment_id"`
	AssignmentTitle string     `json:"assignment_title,omitempty"`
	MaxPoints       int        `json:"max_points,omitempty"`
	CourseID        *uuid.UUID `json:"course_id,omitempty"`
	StudentID       uuid.UUID  `json:"student_id"`
	StudentName     string     `json:"student_name,omitempty"`
	Content         string     `json:"content"`
	FilePath        *string    `json:"file_path"`
	Status          string     `json:"status"`
	Grade           *float64   `json:"grade"`
	Feedback        *string    `json:"feedback"`
	SubmittedAt     time.Time  `json:"submitted_at"`
	GradedAt        *time.Time `json:"graded_at"`
	GradedBy        *uuid.UUID `json:"graded_by,omitempty"`
}
