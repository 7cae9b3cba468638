package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AiRecommendation is an append-only log of course recommendation requests.
type AiRecommendation struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Interests string         `gorm:"type:text;not null" json:"interests"`
	Level     string         `gorm:"size:20;not null" json:"level"`
	Payload   datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}

func (a *AiRecommendation) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// GeneratedSyllabus is an append-only log of syllabus generation requests.
type GeneratedSyllabus struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	CourseTitle       string         `gorm:"size:200;not null" json:"course_title"`
	CourseDescription string         `gorm:"type:text" json:"course_description"`
	Duration          int            `gorm:"not null" json:"duration"`
	Credits           int            `gorm:"not null" json:"credits"`
	Payload           datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	CreatedAt         time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}

func (g *GeneratedSyllabus) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}
