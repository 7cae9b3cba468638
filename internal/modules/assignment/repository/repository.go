package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/akademika/internal/entity"
	"anoa.com/akademika/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssignmentRepository interface {
	Create(ctx context.Context, assignment *entity.Assignment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Assignment, error)
	FindByCourse(ctx context.Context, courseID uuid.UUID) ([]*entity.Assignment, error)
	// FindUpcomingForStudent lists assignments due at or after from in the courses
	// the student is approved in, soonest first.
	FindUpcomingForStudent(ctx context.Context, studentID uuid.UUID, from time.Time, limit int) ([]*entity.Assignment, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) error
}

type assignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *entity.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Assignment, error) {
	var assignment entity.Assignment
	if err := r.db.WithContext(ctx).Preload("Course").First(&assignment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("assignment %s: %w", id, apperror.ErrNotFound)
		}
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepository) FindByCourse(ctx context.Context, courseID uuid.UUID) ([]*entity.Assignment, error) {
	var assignments []*entity.Assignment
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("due_date asc").
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepository) FindUpcomingForStudent(ctx context.Context, studentID uuid.UUID, from time.Time, limit int) ([]*entity.Assignment, error) {
	approved := r.db.Model(&entity.Enrollment{}).
		Select("course_id").
		Where("student_id = ? AND status = ?", studentID, entity.EnrollmentApproved)

	query := r.db.WithContext(ctx).
		Preload("Course").
		Where("course_id IN (?) AND due_date >= ?", approved, from).
		Order("due_date asc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var assignments []*entity.Assignment
	err := query.Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		_, err := r.FindByID(ctx, id)
		return err
	}

	res := r.db.WithContext(ctx).Model(&entity.Assignment{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("assignment %s: %w", id, apperror.ErrNotFound)
	}
	return nil
}
