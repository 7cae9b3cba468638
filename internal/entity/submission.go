package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubmissionStatus string

const (
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionGraded    SubmissionStatus = "graded"
)

// Submission is a student's work against an assignment; one per (assignment, student).
// GradedAt is set exactly when Grade is.
type Submission struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	AssignmentID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_submission_assignment_student" json:"assignment_id"`
	Assignment   *Assignment `gorm:"constraint:OnDelete:CASCADE" json:"assignment,omitempty"`
	StudentID    uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_submission_assignment_student;index" json:"student_id"`
	Student      *User       `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
	Content      string      `gorm:"type:text" json:"content"`
	FilePath     *string     `gorm:"type:text" json:"file_path,omitempty"`
	Grade        *float64    `json:"grade"`
	Feedback     *string     `gorm:"type:text" json:"feedback"`
	SubmittedAt  time.Time   `gorm:"autoCreateTime" json:"submitted_at"`
	GradedAt     *time.Time  `json:"graded_at"`
	GradedBy     *uuid.UUID  `gorm:"type:uuid" json:"graded_by,omitempty"`
}

func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Status derives the lifecycle state from the grade.
func (s *Submission) Status() SubmissionStatus {
	if s.Grade != nil {
		return SubmissionGraded
	}
	return SubmissionSubmitted
}

// GradedTimestamp clamps now so a grade is never recorded before the submission itself.
func (s *Submission) GradedTimestamp(now time.Time) time.Time {
	if now.Before(s.SubmittedAt) {
		return s.SubmittedAt
	}
	return now
}
