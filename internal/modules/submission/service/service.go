package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"anoa.com/akademika/internal/entity"
	"anoa.com/akademika/internal/modules/submission/dto"
	"anoa.com/akademika/internal/modules/submission/repository"
	"anoa.com/akademika/internal/policy"
	"anoa.com/akademika/pkg/apperror"
	commonDto "anoa.com/akademika/pkg/dto"
	"anoa.com/akademika/pkg/storage"
	"anoa.com/akademika/pkg/validator"
	"github.com/google/uuid"
)

const submissionFolder = "submissions"

// recentLimit bounds the "my submissions" listing.
const recentLimit = 100

type AssignmentLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Assignment, error)
}

type EnrollmentLookup interface {
	FindActive(ctx context.Context, courseID, studentID uuid.UUID) (*entity.Enrollment, error)
}

type Notifier interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
}

type SubmissionService interface {
	SubmitAssignment(ctx context.Context, actor policy.Actor, assignmentID uuid.UUID, req dto.CreateSubmissionRequest, file *commonDto.UploadedFile) (*dto.SubmissionResponse, error)
	GetSubmission(ctx context.Context, actor policy.Actor, id uuid.UUID) (*dto.SubmissionResponse, error)
	GetAssignmentSubmissions(ctx context.Context, actor policy.Actor, assignmentID uuid.UUID) ([]dto.SubmissionResponse, error)
	GetMySubmissions(ctx context.Context, actor policy.Actor) ([]dto.SubmissionResponse, error)
	GradeSubmission(ctx context.Context, actor policy.Actor, id uuid.UUID, req dto.GradeSubmissionRequest) (*dto.SubmissionResponse, error)
}

type submissionService struct {
	repo        repository.SubmissionRepository
	assignments AssignmentLookup
	enrollments EnrollmentLookup
	storage     storage.FileStorage
	notifier    Notifier
	now         func() time.Time
}

// NewSubmissionService wires submissions and grading. fileStorage and notifier may be nil.
func NewSubmissionService(repo repository.SubmissionRepository, assignments AssignmentLookup, enrollments EnrollmentLookup, fileStorage storage.FileStorage, notifier Notifier) SubmissionService {
	return &submissionService{
		repo:        repo,
		assignments: assignments,
		enrollments: enrollments,
		storage:     fileStorage,
		notifier:    notifier,
		now:         time.Now,
	}
}

func (s *submissionService) SubmitAssignment(ctx context.Context, actor policy.Actor, assignmentID uuid.UUID, req dto.CreateSubmissionRequest, file *commonDto.UploadedFile) (*dto.SubmissionResponse, error) {
	if err := policy.Authorize(actor, policy.ActionSubmissionCreate); err != nil {
		return nil, err
	}
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	assignment, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.enrollments.FindActive(ctx, assignment.CourseID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil || enrollment.Status != entity.EnrollmentApproved {
		return nil, fmt.Errorf("student is not enrolled in course %s: %w", assignment.CourseID, apperror.ErrForbidden)
	}

	switch {
	case assignment.FileRequired && file == nil:
		return nil, apperror.NewValidationError(apperror.FieldError{Field: "file", Message: "file is required for this assignment"})
	case strings.TrimSpace(req.Content) == "" && file == nil:
		return nil, apperror.NewValidationError(apperror.FieldError{Field: "content", Message: "content or file is required"})
	}

	submission := &entity.Submission{
		AssignmentID: assignment.ID,
		StudentID:    actor.UserID,
		Content:      req.Content,
	}

	if file != nil {
		if s.storage == nil {
			return nil, fmt.Errorf("file storage is not configured: %w", apperror.ErrUnavailable)
		}
		url, err := s.storage.Upload(ctx, file.Reader, submissionFolder, file.FileName)
		if err != nil {
			return nil, err
		}
		submission.FilePath = &url
	}

	if err := s.repo.Create(ctx, submission); err != nil {
		s.discardFile(ctx, submission.FilePath)
		return nil, err
	}

	return s.load(ctx, submission.ID)
}

func (s *submissionService) GetSubmission(ctx context.Context, actor policy.Actor, id uuid.UUID) (*dto.SubmissionResponse, error) {
	submission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if submission.StudentID != actor.UserID {
		if err := s.authorizeGrader(actor, submission.Assignment); err != nil {
			return nil, err
		}
	}
	res := ToSubmissionResponse(submission)
	return &res, nil
}

func (s *submissionService) GetAssignmentSubmissions(ctx context.Context, actor policy.Actor, assignmentID uuid.UUID) ([]dto.SubmissionResponse, error) {
	assignment, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeGrader(actor, assignment); err != nil {
		return nil, err
	}

	submissions, err := s.repo.FindByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	return ToSubmissionResponses(submissions), nil
}

func (s *submissionService) GetMySubmissions(ctx context.Context, actor policy.Actor) ([]dto.SubmissionResponse, error) {
	submissions, err := s.repo.FindByStudent(ctx, actor.UserID, recentLimit)
	if err != nil {
		return nil, err
	}
	return ToSubmissionResponses(submissions), nil
}

func (s *submissionService) GradeSubmission(ctx context.Context, actor policy.Actor, id uuid.UUID, req dto.GradeSubmissionRequest) (*dto.SubmissionResponse, error) {
	if err := policy.Authorize(actor, policy.ActionSubmissionGrade); err != nil {
		return nil, err
	}
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	submission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeGrader(actor, submission.Assignment); err != nil {
		return nil, err
	}

	grade := *req.Grade
	if maxPoints := float64(submission.Assignment.MaxPoints); grade > maxPoints {
		return nil, apperror.NewValidationError(apperror.FieldError{
			Field:   "grade",
			Message: fmt.Sprintf("grade must be between 0 and %d", submission.Assignment.MaxPoints),
		})
	}

	gradedAt := submission.GradedTimestamp(s.now())
	if err := s.repo.UpdateGrade(ctx, id, grade, req.Feedback, actor.UserID, gradedAt); err != nil {
		return nil, err
	}

	res, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notifyGraded(ctx, submission, grade)
	return res, nil
}

// authorizeGrader allows admins and the lecturer of the assignment's course.
func (s *submissionService) authorizeGrader(actor policy.Actor, assignment *entity.Assignment) error {
	if assignment == nil || assignment.Course == nil {
		if actor.Is(entity.RoleAdmin) {
			return nil
		}
		return apperror.ErrForbidden
	}
	return policy.AuthorizeCourse(actor, policy.ActionSubmissionGrade, assignment.Course)
}

func (s *submissionService) load(ctx context.Context, id uuid.UUID) (*dto.SubmissionResponse, error) {
	submission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res := ToSubmissionResponse(submission)
	return &res, nil
}

func (s *submissionService) discardFile(ctx context.Context, url *string) {
	if url == nil || s.storage == nil {
		return
	}
	if err := s.storage.Delete(ctx, *url); err != nil {
		slog.Warn("failed to remove orphaned submission file", "url", *url, "error", err)
	}
}

func (s *submissionService) notifyGraded(ctx context.Context, submission *entity.Submission, grade float64) {
	if s.notifier == nil {
		return
	}
	title := "your assignment"
	if submission.Assignment != nil {
		title = submission.Assignment.Title
	}
	n := &entity.Notification{
		UserID:     submission.StudentID,
		Type:       entity.NotificationSubmissionGraded,
		Message:    fmt.Sprintf("%s was graded: %g", title, grade),
		EntityID:   submission.ID,
		EntityType: "submission",
	}
	if err := s.notifier.CreateNotification(ctx, n); err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("failed to notify grade", "submission_id", submission.ID, "error", err)
	}
}

func ToSubmissionResponse(sub *entity.Submission) dto.SubmissionResponse {
	res := dto.SubmissionResponse{
		ID:           sub.ID,
		AssignmentID: sub.AssignmentID,
		StudentID:    sub.StudentID,
		Content:      sub.Content,
		FilePath:     sub.FilePath,
		Status:       string(sub.Status()),
		Grade:        sub.Grade,
		Feedback:     sub.Feedback,
		SubmittedAt:  sub.SubmittedAt,
		GradedAt:     sub.GradedAt,
		GradedBy:     sub.GradedBy,
	}
	if sub.Assignment != nil {
		res.AssignmentTitle = sub.Assignment.Title
		res.MaxPoints = sub.Assignment.MaxPoints
		courseID := sub.Assignment.CourseID
		res.CourseID = &courseID
	}
	if sub.Student != nil {
		res.StudentName = sub.Student.FullName()
	}
	return res
}

func ToSubmissionResponses(submissions []*entity.Submission) []dto.SubmissionResponse {
	res := make([]dto.SubmissionResponse, 0, len(submissions))
	for _, sub := range submissions {
		res = append(res, ToSubmissionResponse(sub))
	}
	return res
}
