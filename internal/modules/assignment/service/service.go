package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"anoa.com/akademika/internal/entity"
	"anoa.com/akademika/internal/modules/assignment/dto"
	"anoa.com/akademika/internal/modules/assignment/repository"
	"anoa.com/akademika/internal/policy"
	"anoa.com/akademika/pkg/apperror"
	"anoa.com/akademika/pkg/validator"
	"github.com/google/uuid"
)

type CourseLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Course, error)
}

type AssignmentService interface {
	CreateAssignment(ctx context.Context, actor policy.Actor, courseID uuid.UUID, req dto.CreateAssignmentRequest) (*dto.AssignmentResponse, error)
	GetAssignment(ctx context.Context, id uuid.UUID) (*dto.AssignmentResponse, error)
	GetCourseAssignments(ctx context.Context, courseID uuid.UUID) ([]dto.AssignmentResponse, error)
	UpdateAssignment(ctx context.Context, actor policy.Actor, id uuid.UUID, req dto.UpdateAssignmentRequest) (*dto.AssignmentResponse, error)
}

type assignmentService struct {
	repo      repository.AssignmentRepository
	courses CourseLookup
}

func NewAssignmentService(repo repository.AssignmentRepository, courses CourseLookup) AssignmentService {
	return &assignmentService{
		repo:    repo,
		courses: courses,
	}
}

func (s *assignmentService) CreateAssignment(ctx context.Context, actor policy.Actor, courseID uuid.UUID, req dto.CreateAssignmentRequest) (*dto.AssignmentResponse, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeCourse(actor, policy.ActionAssignmentCreate, course); err != nil {
		return nil, err
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	if !course.IsActive {
		return nil, fmt.Errorf("course %s is inactive: %w", course.ID, apperror.ErrInvalidState)
	}

	assignment := &entity.Assignment{
		CourseID:     course.ID,
		Title:        req.Title,
		Description:  req.Description,
		DueDate:      req.DueDate,
		MaxPoints:    req.MaxPoints,
		Weight:       req.Weight,
		FileRequired: req.FileRequired,
	}
	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, err
	}

	return s.GetAssignment(ctx, assignment.ID)
}

func (s *assignmentService) GetAssignment(ctx context.Context, id uuid.UUID) (*dto.AssignmentResponse, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res := ToAssignmentResponse(assignment)
	return &res, nil
}

func (s *assignmentService) GetCourseAssignments(ctx context.Context, courseID uuid.UUID) ([]dto.AssignmentResponse, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		return nil, err
	}
	assignments, err := s.repo.FindByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return ToAssignmentResponses(assignments), nil
}

func (s *assignmentService) UpdateAssignment(ctx context.Context, actor policy.Actor, id uuid.UUID, req dto.UpdateAssignmentRequest) (*dto.AssignmentResponse, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	course := assignment.Course
	if course == nil {
		if course, err = s.courses.FindByID(ctx, assignment.CourseID); err != nil {
			return nil, err
		}
	}
	if err := policy.AuthorizeCourse(actor, policy.ActionAssignmentUpdate, course); err != nil {
		return nil, err
	}
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Title != nil {
		fields["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.DueDate != nil {
		if req.DueDate.IsZero() {
			return nil, apperror.NewValidationError(apperror.FieldError{Field: "due_date", Message: "due_date is required"})
		}
		fields["due_date"] = *req.DueDate
	}
	if req.MaxPoints != nil {
		fields["max_points"] = *req.MaxPoints
	}
	if req.Weight != nil {
		fields["weight"] = *req.Weight
	}
	if req.FileRequired != nil {
		fields["file_required"] = *req.FileRequired
	}

	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.GetAssignment(ctx, id)
}

func ToAssignmentResponse(a *entity.Assignment) dto.AssignmentResponse {
	res := dto.AssignmentResponse{
		ID:           a.ID,
		CourseID:     a.CourseID,
		Title:        a.Title,
		Description:  a.Description,
		DueDate:      a.DueDate,
		MaxPoints:    a.MaxPoints,
		Weight:       a.Weight,
		FileRequired: a.FileRequired,
		CreatedAt:    a.CreatedAt,
	}
	if a.Course != nil {
		res.CourseTitle = a.Course.Title
	}
	return res
}

func ToAssignmentResponses(assignments []*entity.Assignment) []dto.AssignmentResponse {
	res := make([]dto.AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		res = append(res, ToAssignmentResponse(a))
	}
	return res
}
