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

type SubmissionRepository interface {
	Create(ctx context.Context, submission *entity.Submission) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Submission, error)
	FindByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]*entity.Submission, error)
	FindByStudent(ctx context.Context, studentID uuid.UUID, limit int) ([]*entity.Submission, error)
	// FindUngradedForLecturer lists submissions without a grade in courses taught by lecturerID, oldest first.
	FindUngradedForLecturer(ctx context.Context, lecturerID uuid.UUID, limit int) ([]*entity.Submission, error)
	// UpdateGrade writes grade, feedback, graded_at and graded_by in one statement.
	UpdateGrade(ctx context.Context, id uuid.UUID, grade float64, feedback *string, gradedBy uuid.UUID, at time.Time) error
}

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, submission *entity.Submission) error {
	if err := r.db.WithContext(ctx).Create(submission).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("assignment already submitted: %w", apperror.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *submissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Submission, error) {
	var submission entity.Submission
	err := r.db.WithContext(ctx).
		Preload("Assignment.Course").
		Preload("Student").
		First(&submission, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("submission %s: %w", id, apperror.ErrNotFound)
		}
		return nil, err
	}
	return &submission, nil
}

func (r *submissionRepository) FindByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]*entity.Submission, error) {
	var submissions []*entity.Submission
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("assignment_id = ?", assignmentID).
		Order("submitted_at asc").
		Find(&submissions).Error
	return submissions, err
}

func (r *submissionRepository) FindByStudent(ctx context.Context, studentID uuid.UUID, limit int) ([]*entity.Submission, error) {
	query := r.db.WithContext(ctx).
		Preload("Assignment.Course").
		Where("student_id = ?", studentID).
		Order("submitted_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var submissions []*entity.Submission
	err := query.Find(&submissions).Error
	return submissions, err
}

func (r *submissionRepository) FindUngradedForLecturer(ctx context.Context, lecturerID uuid.UUID, limit int) ([]*entity.Submission, error) {
	query := r.db.WithContext(ctx).
		Preload("Assignment.Course").
		Preload("Student").
		Joins("JOIN assignments ON assignments.id = submissions.assignment_id").
		Joins("JOIN courses ON courses.id = assignments.course_id").
		Where("courses.lecturer_id = ? AND submissions.grade IS NULL", lecturerID).
		Order("submissions.submitted_at asc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var submissions []*entity.Submission
	err := query.Find(&submissions).Error
	return submissions, err
}

func (r *submissionRepository) UpdateGrade(ctx context.Context, id uuid.UUID, grade float64, feedback *string, gradedBy uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&entity.Submission{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"grade":     grade,
			"feedback":  feedback,
			"graded_at": at,
			"graded_by": gradedBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("submission %s: %w", id, apperror.ErrNotFound)
	}
	return nil
}
