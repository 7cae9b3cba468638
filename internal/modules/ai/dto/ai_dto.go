package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type RecommendationRequest struct {
	Interests string `json:"interests" validate:"required,max=500"`
	Level     string `json:"level" validate:"required,oneof=beginner intermediate advanced"`
}

type SyllabusRequest struct {
	CourseTitle       string `json:"course_title" validate:"required,max=200"`
	CourseDescription string `json:"course_description" validate:"max=2000"`
	Duration          int    `json:"duration" validate:"required,min=1,max=52"`
	Credits           int    `json:"credits" validate:"required,min=1,max=10"`
}

// Recommendation is one suggested course as returned by the model.
type Recommendation struct {
	Title  string `json:"title"`
	Reason string `json:"reason"`
	Level  string `json:"level"`
}

type RecommendationPayload struct {
	Recommendations []Recommendation `json:"recommendations"`
}

type SyllabusWeek struct {
	Week       int      `json:"week"`
	Topic      string   `json:"topic"`
	Activities []string `json:"activities"`
}

type SyllabusPayload struct {
	Syllabus struct {
		WeeklySchedule []SyllabusWeek `json:"weeklySchedule"`
	} `json:"syllabus"`
}

type RecommendationResponse struct {
	ID        uuid.UUID       `json:"id"`
	Interests string          `json:"interests"`
	Level     string          `json:"level"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

type SyllabusResponse struct {
	ID                uuid.UUID       `json:"id"`
	CourseTitle       string          `json:"course_title"`
	CourseDescription string          `json:"course_description"`
	Duration          int             `json:"duration"`
	Credits           int             `json:"credits"`
	Payload           json.RawMessage `json:"payload"`
	CreatedAt         time.Time       `json:"created_at"`
}
