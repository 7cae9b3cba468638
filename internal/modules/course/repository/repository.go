package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"anoa.com/akademika/internal/entity"
	"anoa.com/akademika/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CourseFilter struct {
	Search          string
	Department      string
	LecturerID      *uuid.UUID
	IncludeInactive bool
	Limit           int
	Offset          int
}

type CourseRepository interface {
	Create(ctx context.Context, course *entity.Course) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Course, error)
	// FindByIDs keeps the order of ids and silently skips missing ones.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Course, error)
	FindAll(ctx context.Context, filter CourseFilter) ([]*entity.Course, int64, error)
	FindByLecturer(ctx context.Context, lecturerID uuid.UUID) ([]*entity.Course, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) error
}

type courseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) Create(ctx context.Context, course *entity.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Course, error) {
	var course entity.Course
	if err := r.db.WithContext(ctx).Preload("Lecturer").First(&course, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("course %s: %w", id, apperror.ErrNotFound)
		}
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Course, error) {
	if len(ids) == 0 {
		return []*entity.Course{}, nil
	}

	var courses []*entity.Course
	if err := r.db.WithContext(ctx).Preload("Lecturer").Where("id IN ?", ids).Find(&courses).Error; err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*entity.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}
	ordered := make([]*entity.Course, 0, len(courses))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
		}
	}
	return ordered, nil
}

func (r *courseRepository) FindAll(ctx context.Context, filter CourseFilter) ([]*entity.Course, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Course{})

	if !filter.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(code) LIKE ? OR LOWER(description) LIKE ?", like, like, like)
	}
	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}
	if filter.LecturerID != nil {
		query = query.Where("lecturer_id = ?", *filter.LecturerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var courses []*entity.Course
	if err := query.Preload("Lecturer").Order("created_at desc").Find(&courses).Error; err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

func (r *courseRepository) FindByLecturer(ctx context.Context, lecturerID uuid.UUID) ([]*entity.Course, error) {
	var courses []*entity.Course
	if err := r.db.WithContext(ctx).
		Where("lecturer_id = ?", lecturerID).
		Order("created_at desc").
		Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		_, err := r.FindByID(ctx, id)
		return err
	}

	res := r.db.WithContext(ctx).Model(&entity.Course{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("course %s: %w", id, apperror.ErrNotFound)
	}
	return nil
}
