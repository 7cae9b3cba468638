package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"anoa.com/akademika/internal/entity"
	"anoa.com/akademika/internal/modules/enrollment/dto"
	"anoa.com/akademika/internal/modules/enrollment/repository"
	"anoa.com/akademika/internal/policy"
	"anoa.com/akademika/pkg/apperror"
	commonDto "anoa.com/akademika/pkg/dto"
	"anoa.com/akademika/pkg/validator"
	"github.com/google/uuid"
)

type CourseLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Course, error)
}

// Notifier delivers in-app notifications. Failures never fail the calling operation.
type Notifier interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
}

type EnrollmentService interface {
	RequestEnrollment(ctx context.Context, actor policy.Actor, req dto.CreateEnrollmentRequest) (*dto.EnrollmentResponse, error)
	GetMyEnrollments(ctx context.Context, actor policy.Actor) ([]dto.EnrollmentResponse, error)
	GetCourseEnrollments(ctx context.Context, actor policy.Actor, courseID uuid.UUID) ([]dto.EnrollmentResponse, error)
	GetPendingEnrollments(ctx context.Context, actor policy.Actor, page commonDto.PageQuery) (*dto.PaginatedEnrollmentResponse, error)
	DecideEnrollment(ctx context.Context, actor policy.Actor, id uuid.UUID, req dto.DecideEnrollmentRequest) (*dto.EnrollmentResponse, error)
}

type enrollmentService struct {
	repo     repository.EnrollmentRepository
	courses  CourseLookup
	notifier Notifier
	now      func() time.Time
}

// NewEnrollmentService wires the enrollment workflow. notifier may be nil.
func NewEnrollmentService(repo repository.EnrollmentRepository, courses CourseLookup, notifier Notifier) EnrollmentService {
	return &enrollmentService{
		repo:     repo,
		courses:  courses,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *enrollmentService) RequestEnrollment(ctx context.Context, actor policy.Actor, req dto.CreateEnrollmentRequest) (*dto.EnrollmentResponse, error) {
	if err := policy.Authorize(actor, policy.ActionEnrollmentCreate); err != nil {
		return nil, err
	}
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	if !course.IsActive {
		return nil, fmt.Errorf("course %s is not open for enrollment: %w", course.ID, apperror.ErrInvalidState)
	}

	// the partial unique index rejects a second live enrollment
	enrollment := &entity.Enrollment{
		CourseID:  course.ID,
		StudentID: actor.UserID,
		Status:    entity.EnrollmentPending,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, err
	}

	created, err := s.repo.FindByID(ctx, enrollment.ID)
	if err != nil {
		return nil, err
	}
	res := ToEnrollmentResponse(created)
	return &res, nil
}

func (s *enrollmentService) GetMyEnrollments(ctx context.Context, actor policy.Actor) ([]dto.EnrollmentResponse, error) {
	enrollments, err := s.repo.FindByStudent(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return toEnrollmentResponses(enrollments), nil
}

func (s *enrollmentService) GetCourseEnrollments(ctx context.Context, actor policy.Actor, courseID uuid.UUID) ([]dto.EnrollmentResponse, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeCourse(actor, policy.ActionCourseStats, course); err != nil {
		return nil, err
	}

	enrollments, err := s.repo.FindByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return toEnrollmentResponses(enrollments), nil
}

func (s *enrollmentService) GetPendingEnrollments(ctx context.Context, actor policy.Actor, page commonDto.PageQuery) (*dto.PaginatedEnrollmentResponse, error) {
	if err := policy.Authorize(actor, policy.ActionEnrollmentDecide); err != nil {
		return nil, err
	}
	if err := validator.Struct(page); err != nil {
		return nil, err
	}
	page = page.Normalize()

	enrollments, total, err := s.repo.FindByStatus(ctx, entity.EnrollmentPending, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	return &dto.PaginatedEnrollmentResponse{
		Data: toEnrollmentResponses(enrollments),
		Meta: page.Meta(total),
	}, nil
}

func (s *enrollmentService) DecideEnrollment(ctx context.Context, actor policy.Actor, id uuid.UUID, req dto.DecideEnrollmentRequest) (*dto.EnrollmentResponse, error) {
	if err := policy.Authorize(actor, policy.ActionEnrollmentDecide); err != nil {
		return nil, err
	}
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next := entity.EnrollmentStatus(req.Status)
	if !enrollment.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("enrollment %s cannot move from %s to %s: %w", id, enrollment.Status, next, apperror.ErrInvalidState)
	}

	if err := s.repo.UpdateStatus(ctx, id, enrollment.Status, next, actor.UserID, s.now()); err != nil {
		return nil, err
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notifyDecision(ctx, updated)

	res := ToEnrollmentResponse(updated)
	return &res, nil
}

func (s *enrollmentService) notifyDecision(ctx context.Context, enrollment *entity.Enrollment) {
	if s.notifier == nil {
		return
	}
	title := "your course"
	if enrollment.Course != nil {
		title = enrollment.Course.Title
	}
	n := &entity.Notification{
		UserID:     enrollment.StudentID,
		Type:       entity.NotificationEnrollmentDecided,
		Message:    fmt.Sprintf("Your enrollment in %s was %s", title, enrollment.Status),
		EntityID:   enrollment.ID,
		EntityType: "enrollment",
	}
	if err := s.notifier.CreateNotification(ctx, n); err != nil {
		slog.Warn("failed to notify enrollment decision", "enrollment_id", enrollment.ID, "error", err)
	}
}

func ToEnrollmentResponse(e *entity.Enrollment) dto.EnrollmentResponse {
	res := dto.EnrollmentResponse{
		ID:         e.ID,
		CourseID:   e.CourseID,
		StudentID:  e.StudentID,
		Status:     string(e.Status),
		EnrolledAt: e.EnrolledAt,
		DecidedAt:  e.DecidedAt,
		DecidedBy:  e.DecidedBy,
	}
	if e.Course != nil {
		res.Course = &dto.CourseSummary{ID: e.Course.ID, Title: e.Course.Title, Code: e.Course.Code}
	}
	if e.Student != nil {
		res.Student = &dto.StudentSummary{
			ID:       e.Student.ID,
			Username: e.Student.Username,
			FullName: e.Student.FullName(),
			Email:    e.Student.Email,
		}
	}
	return res
}

func toEnrollmentResponses(enrollments []*entity.Enrollment) []dto.EnrollmentResponse {
	res := make([]dto.EnrollmentResponse, 0, len(enrollments))
	for _, e := range enrollments {
		res = append(res, ToEnrollmentResponse(e))
	}
	return res
}
