package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Assignment struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID     uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Course       *Course   `gorm:"constraint:OnDelete:CASCADE" json:"course,omitempty"`
	Title        string    `gorm:"size:200;not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	DueDate      time.Time `gorm:"not null;index" json:"due_date"`
	MaxPoints    int       `gorm:"not null" json:"max_points"`
	Weight       float64   `gorm:"not null;default:0" json:"weight"`
	FileRequired bool      `gorm:"not null;default:false" json:"file_required"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (a *Assignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
