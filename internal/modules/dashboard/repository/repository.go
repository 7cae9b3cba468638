package repository

import (
	"context"
	"database/sql"
	"fmt"

	"anoa.com/akademika/internal/entity"
	"anoa.com/akademika/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserStats holds the personal counters of a student or lecturer. Fields that do not apply
// to the role stay zero and are omitted.
type UserStats struct {
	ApprovedEnrollments int64    `json:"approved_enrollments,omitempty"`
	PendingEnrollments  int64    `json:"pending_enrollments,omitempty"`
	Submissions         int64    `json:"submissions,omitempty"`
	GradedSubmissions   int64    `json:"graded_submissions,omitempty"`
	AverageGrade        *float64 `json:"average_grade,omitempty"`

	Courses        int64 `json:"courses,omitempty"`
	Students       int64 `json:"students,omitempty"`
	Assignments    int64 `json:"assignments,omitempty"`
	PendingGrading int64 `json:"pending_grading,omitempty"`
}

type CourseStats struct {
	CourseID           uuid.UUID `json:"course_id"`
	ApprovedStudents   int64     `json:"approved_students"`
	PendingEnrollments int64     `json:"pending_enrollments"`
	Assignments        int64     `json:"assignments"`
	Submissions        int64     `json:"submissions"`
	GradedSubmissions  int64     `json:"graded_submissions"`
	AverageGrade       *float64  `json:"average_grade"`
}

type SystemStats struct {
	TotalUsers         int64            `json:"total_users"`
	UsersByRole        map[string]int64 `json:"users_by_role"`
	Courses            int64            `json:"courses"`
	ActiveCourses      int64            `json:"active_courses"`
	PendingEnrollments int64            `json:"pending_enrollments"`
	Submissions        int64            `json:"submissions"`
}

type StatsRepository interface {
	GetUserStats(ctx context.Context, userID uuid.UUID, role entity.Role) (*UserStats, error)
	GetCourseStats(ctx context.Context, courseID uuid.UUID) (*CourseStats, error)
	GetSystemStats(ctx context.Context) (*SystemStats, error)
}

type statsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) GetUserStats(ctx context.Context, userID uuid.UUID, role entity.Role) (*UserStats, error) {
	db := r.db.WithContext(ctx)
	stats := &UserStats{}

	switch role {
	case entity.RoleStudent:
		if err := db.Model(&entity.Enrollment{}).
			Where("student_id = ? AND status = ?", userID, entity.EnrollmentApproved).
			Count(&stats.ApprovedEnrollments).Error; err != nil {
			return nil, err
		}
		if err := db.Model(&entity.Enrollment{}).
			Where("student_id = ? AND status = ?", userID, entity.EnrollmentPending).
			Count(&stats.PendingEnrollments).Error; err != nil {
			return nil, err
		}
		if err := db.Model(&entity.Submission{}).
			Where("student_id = ?", userID).
			Count(&stats.Submissions).Error; err != nil {
			return nil, err
		}
		if err := db.Model(&entity.Submission{}).
			Where("student_id = ? AND grade IS NOT NULL", userID).
			Count(&stats.GradedSubmissions).Error; err != nil {
			return nil, err
		}
		avg, err := r.averageGrade(db.Model(&entity.Submission{}).Where("student_id = ?", userID))
		if err != nil {
			return nil, err
		}
		stats.AverageGrade = avg

	case entity.RoleLecturer:
		taught := r.db.Model(&entity.Course{}).Select("id").Where("lecturer_id = ?", userID)
		taughtAssignments := r.db.Model(&entity.Assignment{}).Select("id").Where("course_id IN (?)", taught)

		if err := db.Model(&entity.Course{}).
			Where("lecturer_id = ?", userID).
			Count(&stats.Courses).Error; err != nil {
			return nil, err
		}
		if err := db.Model(&entity.Enrollment{}).
			Where("course_id IN (?) AND status = ?", taught, entity.EnrollmentApproved).
			Distinct("student_id").
			Count(&stats.Students).Error; err != nil {
			return nil, err
		}
		if err := db.Model(&entity.Assignment{}).
			Where("course_id IN (?)", taught).
			Count(&stats.Assignments).Error; err != nil {
			return nil, err
		}
		if err := db.Model(&entity.Submission{}).
			Where("assignment_id IN (?) AND grade IS NULL", taughtAssignments).
			Count(&stats.PendingGrading).Error; err != nil {
			return nil, err
		}
	}

	return stats, nil
}

func (r *statsRepository) GetCourseStats(ctx context.Context, courseID uuid.UUID) (*CourseStats, error) {
	db := r.db.WithContext(ctx)

	var exists int64
	if err := db.Model(&entity.Course{}).Where("id = ?", courseID).Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("course %s: %w", courseID, apperror.ErrNotFound)
	}

	stats := &CourseStats{CourseID: courseID}
	assignments := r.db.Model(&entity.Assignment{}).Select("id").Where("course_id = ?", courseID)

	if err := db.Model(&entity.Enrollment{}).
		Where("course_id = ? AND status = ?", courseID, entity.EnrollmentApproved).
		Count(&stats.ApprovedStudents).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.Enrollment{}).
		Where("course_id = ? AND status = ?", courseID, entity.EnrollmentPending).
		Count(&stats.PendingEnrollments).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.Assignment{}).
		Where("course_id = ?", courseID).
		Count(&stats.Assignments).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.Submission{}).
		Where("assignment_id IN (?)", assignments).
		Count(&stats.Submissions).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.Submission{}).
		Where("assignment_id IN (?) AND grade IS NOT NULL", assignments).
		Count(&stats.GradedSubmissions).Error; err != nil {
		return nil, err
	}

	avg, err := r.averageGrade(db.Model(&entity.Submission{}).Where("assignment_id IN (?)", assignments))
	if err != nil {
		return nil, err
	}
	stats.AverageGrade = avg
	return stats, nil
}

func (r *statsRepository) GetSystemStats(ctx context.Context) (*SystemStats, error) {
	db := r.db.WithContext(ctx)
	stats := &SystemStats{UsersByRole: make(map[string]int64, len(entity.Roles))}

	var rows []struct {
		Role  string
		Total int64
	}
	if err := db.Model(&entity.User{}).
		Select("role, COUNT(*) AS total").
		Group("role").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, role := range entity.Roles {
		stats.UsersByRole[string(role)] = 0
	}
	for _, row := range rows {
		stats.UsersByRole[row.Role] = row.Total
		stats.TotalUsers += row.Total
	}

	if err := db.Model(&entity.Course{}).Count(&stats.Courses).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.Course{}).Where("is_active = ?", true).Count(&stats.ActiveCourses).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.Enrollment{}).Where("status = ?", entity.EnrollmentPending).Count(&stats.PendingEnrollments).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.Submission{}).Count(&stats.Submissions).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// averageGrade returns nil when nothing in query has been graded yet.
func (r *statsRepository) averageGrade(query *gorm.DB) (*float64, error) {
	var avg sql.NullFloat64
	if err := query.Select("AVG(grade)").Where("grade IS NOT NULL").Row().Scan(&avg); err != nil {
		return nil, err
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}
