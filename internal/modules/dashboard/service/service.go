package service

import (
	"context"
	"strconv"
	"time"

	"anoa.com/akademika/internal/entity"
	assignmentService "anoa.com/akademika/internal/modules/assignment/service"
	courseService "anoa.com/akademika/internal/modules/course/service"
	"anoa.com/akademika/internal/modules/dashboard/dto"
	"anoa.com/akademika/internal/modules/dashboard/repository"
	enrollmentService "anoa.com/akademika/internal/modules/enrollment/service"
	submissionService "anoa.com/akademika/internal/modules/submission/service"
	userDto "anoa.com/akademika/internal/modules/user/dto"
	"anoa.com/akademika/internal/policy"
	"github.com/google/uuid"
)

const listLimit = 10

type UserLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

type CourseSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Course, error)
	FindByLecturer(ctx context.Context, lecturerID uuid.UUID) ([]*entity.Course, error)
}

type EnrollmentSource interface {
	FindByStudent(ctx context.Context, studentID uuid.UUID) ([]*entity.Enrollment, error)
	FindByStatus(ctx context.Context, status entity.EnrollmentStatus, limit, offset int) ([]*entity.Enrollment, int64, error)
}

type AssignmentSource interface {
	FindUpcomingForStudent(ctx context.Context, studentID uuid.UUID, from time.Time, limit int) ([]*entity.Assignment, error)
}

type SubmissionSource interface {
	FindByStudent(ctx context.Context, studentID uuid.UUID, limit int) ([]*entity.Submission, error)
	FindUngradedForLecturer(ctx context.Context, lecturerID uuid.UUID, limit int) ([]*entity.Submission, error)
}

// Sources are the repositories the dashboard reads from.
type Sources struct {
	Users       UserLookup
	Courses     CourseSource
	Enrollments EnrollmentSource
	Assignments AssignmentSource
	Submissions SubmissionSource
	Stats       repository.StatsRepository
}

type DashboardService interface {
	Build(ctx context.Context, actor policy.Actor) (*dto.DashboardView, error)
	GetCourseStats(ctx context.Context, actor policy.Actor, courseID uuid.UUID) (*repository.CourseStats, error)
}

type dashboardService struct {
	src Sources
	now func() time.Time
}

func NewDashboardService(src Sources) DashboardService {
	return &dashboardService{src: src, now: time.Now}
}

// Build assembles the dashboard for any role; the role only decides which sections are filled.
func (s *dashboardService) Build(ctx context.Context, actor policy.Actor) (*dto.DashboardView, error) {
	user, err := s.src.Users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	view := &dto.DashboardView{
		Role:       user.Role,
		User:       userDto.NewUserResponse(user),
		Navigation: policy.VisibleNavigation(user.Role),
	}

	switch user.Role {
	case entity.RoleStudent:
		err = s.fillStudent(ctx, view, user.ID)
	case entity.RoleLecturer:
		err = s.fillLecturer(ctx, view, user.ID)
	case entity.RoleAdmin:
		err = s.fillAdmin(ctx, view)
	}
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *dashboardService) GetCourseStats(ctx context.Context, actor policy.Actor, courseID uuid.UUID) (*repository.CourseStats, error) {
	course, err := s.src.Courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeCourse(actor, policy.ActionCourseStats, course); err != nil {
		return nil, err
	}
	return s.src.Stats.GetCourseStats(ctx, courseID)
}

func (s *dashboardService) fillStudent(ctx context.Context, view *dto.DashboardView, userID uuid.UUID) error {
	stats, err := s.src.Stats.GetUserStats(ctx, userID, entity.RoleStudent)
	if err != nil {
		return err
	}
	enrollments, err := s.src.Enrollments.FindByStudent(ctx, userID)
	if err != nil {
		return err
	}
	upcoming, err := s.src.Assignments.FindUpcomingForStudent(ctx, userID, s.now(), listLimit)
	if err != nil {
		return err
	}
	recent, err := s.src.Submissions.FindByStudent(ctx, userID, listLimit)
	if err != nil {
		return err
	}

	view.Stats = stats
	for _, e := range enrollments {
		view.Enrollments = append(view.Enrollments, enrollmentService.ToEnrollmentResponse(e))
	}
	view.Assignments = assignmentService.ToAssignmentResponses(upcoming)
	view.Submissions = submissionService.ToSubmissionResponses(recent)
	return nil
}

func (s *dashboardService) fillLecturer(ctx context.Context, view *dto.DashboardView, userID uuid.UUID) error {
	stats, err := s.src.Stats.GetUserStats(ctx, userID, entity.RoleLecturer)
	if err != nil {
		return err
	}
	courses, err := s.src.Courses.FindByLecturer(ctx, userID)
	if err != nil {
		return err
	}
	ungraded, err := s.src.Submissions.FindUngradedForLecturer(ctx, userID, listLimit)
	if err != nil {
		return err
	}

	view.Stats = stats
	view.Courses = courseService.ToCourseResponses(courses)
	view.Submissions = submissionService.ToSubmissionResponses(ungraded)
	setBadge(view.Navigation, "/grading", stats.PendingGrading)
	return nil
}

func (s *dashboardService) fillAdmin(ctx context.Context, view *dto.DashboardView) error {
	stats, err := s.src.Stats.GetSystemStats(ctx)
	if err != nil {
		return err
	}
	pending, _, err := s.src.Enrollments.FindByStatus(ctx, entity.EnrollmentPending, listLimit, 0)
	if err != nil {
		return err
	}

	view.Stats = stats
	for _, e := range pending {
		view.Enrollments = append(view.Enrollments, enrollmentService.ToEnrollmentResponse(e))
	}
	setBadge(view.Navigation, "/admin/enrollments", stats.PendingEnrollments)
	return nil
}

// setBadge shows count on the nav item pointing at target, when there is something to show.
func setBadge(items []policy.NavItem, target string, count int64) {
	if count <= 0 {
		return
	}
	label := strconv.FormatInt(count, 10)
	for i := range items {
		if items[i].Target == target {
			items[i].Badge = &label
		}
	}
}
