package service

import (
	"context"
	"testing"

	"anoa.com/akademika/internal/entity"
	assignmentRepo "anoa.com/akademika/internal/modules/assignment/repository"
	courseRepo "anoa.com/akademika/internal/modules/course/repository"
	"anoa.com/akademika/internal/modules/dashboard/repository"
	enrollmentRepo "anoa.com/akademika/internal/modules/enrollment/repository"
	submissionRepo "anoa.com/akademika/internal/modules/submission/repository"
	userRepo "anoa.com/akademika/internal/modules/user/repository"
	"anoa.com/akademika/internal/policy"
	"anoa.com/akademika/internal/testutil"
	"anoa.com/akademika/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newService(db *gorm.DB) DashboardService {
	return NewDashboardService(Sources{
		Users:       userRepo.NewUserRepository(db),
		Courses:     courseRepo.NewCourseRepository(db),
		Enrollments: enrollmentRepo.NewEnrollmentRepository(db),
		Assignments: assignmentRepo.NewAssignmentRepository(db),
		Submissions: submissionRepo.NewSubmissionRepository(db),
		Stats:       repository.NewStatsRepository(db),
	})
}

type school struct {
	lecturer, student, admin *entity.User
	course                   *entity.Course
	assignment               *entity.Assignment
}

func seedSchool(t *testing.T, db *gorm.DB) school {
	t.Helper()
	s := school{
		lecturer: testutil.CreateUser(t, db, entity.RoleLecturer),
		student:  testutil.CreateUser(t, db, entity.RoleStudent),
		admin:    testutil.CreateUser(t, db, entity.RoleAdmin),
	}
	s.course = testutil.CreateCourse(t, db, s.lecturer)
	testutil.CreateEnrollment(t, db, s.course, s.student, entity.EnrollmentApproved)
	s.assignment = testutil.CreateAssignment(t, db, s.course, false)

	graded := 80.0
	require.NoError(t, db.Create(&entity.Submission{AssignmentID: s.assignment.ID, StudentID: s.student.ID, Content: "a", Grade: &graded}).Error)

	other := testutil.CreateAssignment(t, db, s.course, false)
	require.NoError(t, db.Create(&entity.Submission{AssignmentID: other.ID, StudentID: s.student.ID, Content: "b"}).Error)

	pendingStudent := testutil.CreateUser(t, db, entity.RoleStudent)
	testutil.CreateEnrollment(t, db, s.course, pendingStudent, entity.EnrollmentPending)
	return s
}

func TestBuildStudentDashboard(t *testing.T) {
	db := testutil.NewDB(t)
	s := seedSchool(t, db)

	view, err := newService(db).Build(context.Background(), policy.Actor{UserID: s.student.ID, Role: s.student.Role})
	require.NoError(t, err)

	assert.Equal(t, entity.RoleStudent, view.Role)
	assert.Equal(t, policy.VisibleNavigation(entity.RoleStudent), view.Navigation)
	stats, ok := view.Stats.(*repository.UserStats)
	require.True(t, ok)
	assert.Equal(t, int64(1), stats.ApprovedEnrollments)
	assert.Equal(t, int64(2), stats.Submissions)
	assert.Equal(t, int64(1), stats.GradedSubmissions)
	require.NotNil(t, stats.AverageGrade)
	assert.InDelta(t, 80.0, *stats.AverageGrade, 0.001)

	assert.Len(t, view.Enrollments, 1)
	assert.Len(t, view.Assignments, 2)
	assert.Len(t, view.Submissions, 2)
	assert.Empty(t, view.Courses)
}

func TestBuildLecturerDashboard(t *testing.T) {
	db := testutil.NewDB(t)
	s := seedSchool(t, db)

	view, err := newService(db).Build(context.Background(), policy.Actor{UserID: s.lecturer.ID, Role: s.lecturer.Role})
	require.NoError(t, err)

	stats := view.Stats.(*repository.UserStats)
	assert.Equal(t, int64(1), stats.Courses)
	assert.Equal(t, int64(1), stats.Students)
	assert.Equal(t, int64(2), stats.Assignments)
	assert.Equal(t, int64(1), stats.PendingGrading)
	assert.Len(t, view.Courses, 1)
	require.Len(t, view.Submissions, 1)
	assert.Nil(t, view.Submissions[0].Grade)

	for _, item := range view.Navigation {
		if item.Target == "/grading" {
			require.NotNil(t, item.Badge)
			assert.Equal(t, "1", *item.Badge)
		}
	}
}

func TestBuildAdminDashboard(t *testing.T) {
	db := testutil.NewDB(t)
	s := seedSchool(t, db)

	view, err := newService(db).Build(context.Background(), policy.Actor{UserID: s.admin.ID, Role: s.admin.Role})
	require.NoError(t, err)

	stats := view.Stats.(*repository.SystemStats)
	assert.Equal(t, int64(4), stats.TotalUsers)
	assert.Equal(t, int64(2), stats.UsersByRole["student"])
	assert.Equal(t, int64(1), stats.UsersByRole["admin"])
	assert.Equal(t, int64(1), stats.ActiveCourses)
	assert.Equal(t, int64(1), stats.PendingEnrollments)
	assert.Len(t, view.Enrollments, 1)

	// the navigation of another role is untouched by badges
	assert.Nil(t, policy.VisibleNavigation(entity.RoleAdmin)[2].Badge)
}

func TestCourseStats(t *testing.T) {
	db := testutil.NewDB(t)
	s := seedSchool(t, db)
	svc := newService(db)
	ctx := context.Background()

	stats, err := svc.GetCourseStats(ctx, policy.Actor{UserID: s.lecturer.ID, Role: s.lecturer.Role}, s.course.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ApprovedStudents)
	assert.Equal(t, int64(1), stats.PendingEnrollments)
	assert.Equal(t, int64(2), stats.Submissions)
	assert.Equal(t, int64(1), stats.GradedSubmissions)

	_, err = svc.GetCourseStats(ctx, policy.Actor{UserID: s.student.ID, Role: s.student.Role}, s.course.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	stranger := testutil.CreateUser(t, db, entity.RoleLecturer)
	_, err = svc.GetCourseStats(ctx, policy.Actor{UserID: stranger.ID, Role: stranger.Role}, s.course.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = svc.GetCourseStats(ctx, policy.Actor{UserID: s.admin.ID, Role: s.admin.Role}, s.student.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
