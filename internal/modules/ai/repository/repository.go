package repository

import (
	"context"

	"anoa.com/akademika/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AIRepository interface {
	SaveRecommendation(ctx context.Context, rec *entity.AiRecommendation) error
	SaveSyllabus(ctx context.Context, syllabus *entity.GeneratedSyllabus) error
	ListRecommendations(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.AiRecommendation, error)
	ListSyllabi(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.GeneratedSyllabus, error)
}

type aiRepository struct {
	db *gorm.DB
}

func NewAIRepository(db *gorm.DB) AIRepository {
	return &aiRepository{db: db}
}

func (r *aiRepository) SaveRecommendation(ctx context.Context, rec *entity.AiRecommendation) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *aiRepository) SaveSyllabus(ctx context.Context, syllabus *entity.GeneratedSyllabus) error {
	return r.db.WithContext(ctx).Create(syllabus).Error
}

func (r *aiRepository) ListRecommendations(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.AiRecommendation, error) {
	var recs []*entity.AiRecommendation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&recs).Error
	return recs, err
}

func (r *aiRepository) ListSyllabi(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.GeneratedSyllabus, error) {
	var syllabi []*entity.GeneratedSyllabus
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&syllabi).Error
	return syllabi, err
}
