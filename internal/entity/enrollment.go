package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EnrollmentStatus string

const (
	EnrollmentPending  EnrollmentStatus = "pending"
	EnrollmentApproved EnrollmentStatus = "approved"
	EnrollmentRejected EnrollmentStatus = "rejected"
)

// Valid reports whether s is a known enrollment status.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentPending, EnrollmentApproved, EnrollmentRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition leaves s.
func (s EnrollmentStatus) Terminal() bool {
	return s == EnrollmentApproved || s == EnrollmentRejected
}

// CanTransitionTo encodes pending -> approved | rejected. Nothing else is reachable.
func (s EnrollmentStatus) CanTransitionTo(next EnrollmentStatus) bool {
	switch s {
	case EnrollmentPending:
		return next == EnrollmentApproved || next == EnrollmentRejected
	case EnrollmentApproved, EnrollmentRejected:
		return false
	}
	return false
}

// Enrollment is a student's request to join a course. At most one non-rejected enrollment
// exists per (course, student); a rejected student may request again.
type Enrollment struct {
	ID         uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID   uuid.UUID        `gorm:"type:uuid;not null;index:idx_enrollment_live,unique,where:status <> 'rejected'" json:"course_id"`
	Course     *Course          `gorm:"constraint:OnDelete:CASCADE" json:"course,omitempty"`
	StudentID  uuid.UUID        `gorm:"type:uuid;not null;index:idx_enrollment_live,unique,where:status <> 'rejected';index" json:"student_id"`
	Student    *User            `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
	Status     EnrollmentStatus `gorm:"size:20;not null;default:pending;index" json:"status"`
	EnrolledAt time.Time        `gorm:"autoCreateTime" json:"enrolled_at"`
	DecidedAt  *time.Time       `json:"decided_at,omitempty"`
	DecidedBy  *uuid.UUID       `gorm:"type:uuid" json:"decided_by,omitempty"`
}

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Status == "" {
		e.Status = EnrollmentPending
	}
	return nil
}
