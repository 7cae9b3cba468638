package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/akademika/internal/entity"
	"anoa.com/akademika/pkg/apperror"
	"anoa.com/akademika/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *entity.Enrollment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Enrollment, error)
	// FindActive returns the non-rejected enrollment of student in course, or nil.
	FindActive(ctx context.Context, courseID, studentID uuid.UUID) (*entity.Enrollment, error)
	FindByStudent(ctx context.Context, studentID uuid.UUID) ([]*entity.Enrollment, error)
	FindByCourse(ctx context.Context, courseID uuid.UUID) ([]*entity.Enrollment, error)
	FindByStatus(ctx context.Context, status entity.EnrollmentStatus, limit, offset int) ([]*entity.Enrollment, int64, error)
	// UpdateStatus moves an enrollment from one status to another. It fails with ErrInvalidState
	// when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.EnrollmentStatus, decidedBy uuid.UUID, at time.Time) error
}

type enrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *entity.Enrollment) error {
	if err := r.db.WithContext(ctx).Create(enrollment).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("student already enrolled in course: %w", apperror.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *enrollmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Enrollment, error) {
	var enrollment entity.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Course").
		Preload("Student").
		First(&enrollment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("enrollment %s: %w", id, apperror.ErrNotFound)
		}
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepository) FindActive(ctx context.Context, courseID, studentID uuid.UUID) (*entity.Enrollment, error) {
	var enrollment entity.Enrollment
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND student_id = ? AND status <> ?", courseID, studentID, entity.EnrollmentRejected).
		First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepository) FindByStudent(ctx context.Context, studentID uuid.UUID) ([]*entity.Enrollment, error) {
	var enrollments []*entity.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("student_id = ?", studentID).
		Order("enrolled_at desc").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *enrollmentRepository) FindByCourse(ctx context.Context, courseID uuid.UUID) ([]*entity.Enrollment, error) {
	var enrollments []*entity.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("course_id = ?", courseID).
		Order("enrolled_at asc").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *enrollmentRepository) FindByStatus(ctx context.Context, status entity.EnrollmentStatus, limit, offset int) ([]*entity.Enrollment, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Enrollment{}).Where("status = ?", status)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}

	var enrollments []*entity.Enrollment
	if err := query.Preload("Course").Preload("Student").Order("enrolled_at asc").Find(&enrollments).Error; err != nil {
		return nil, 0, err
	}
	return enrollments, total, nil
}

func (r *enrollmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.EnrollmentStatus, decidedBy uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&entity.Enrollment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":     to,
			"decided_at": at,
			"decided_by": decidedBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Enrollment{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("enrollment %s: %w", id, apperror.ErrNotFound)
	}
	return fmt.Errorf("enrollment %s is no longer %s: %w", id, from, apperror.ErrInvalidState)
}
