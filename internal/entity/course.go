package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinCredits = 1
	MaxCredits = 10
)

type Course struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Code        string     `gorm:"size:20;not null;index" json:"code"`
	Description string     `gorm:"type:text" json:"description"`
	Credits     int        `gorm:"not null" json:"credits"`
	Department  string     `gorm:"size:100;not null;index" json:"department"`
	LecturerID  *uuid.UUID `gorm:"type:uuid;index" json:"lecturer_id,omitempty"`
	Lecturer    *User      `gorm:"foreignKey:LecturerID;constraint:OnDelete:SET NULL" json:"lecturer,omitempty"`
	SyllabusURL *string    `gorm:"type:text" json:"syllabus_url,omitempty"`
	IsActive    bool       `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TaughtBy reports whether userID is the course lecturer.
func (c *Course) TaughtBy(userID uuid.UUID) bool {
	return c.LecturerID != nil && *c.LecturerID == userID
}
