package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"anoa.com/akademika/internal/entity"
	courseRepo "anoa.com/akademika/internal/modules/course/repository"
	"anoa.com/akademika/internal/modules/enrollment/dto"
	"anoa.com/akademika/internal/modules/enrollment/repository"
	"anoa.com/akademika/internal/policy"
	"anoa.com/akademika/internal/testutil"
	"anoa.com/akademika/pkg/apperror"
	commonDto "anoa.com/akademika/pkg/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*entity.Notification
}

func (n *recordingNotifier) CreateNotification(ctx context.Context, notification *entity.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return nil
}

func newTestService(t *testing.T) (*enrollmentService, *gorm.DB, *recordingNotifier) {
	t.Helper()
	db := testutil.NewDB(t)
	notifier := &recordingNotifier{}
	svc := NewEnrollmentService(repository.NewEnrollmentRepository(db), courseRepo.NewCourseRepository(db), notifier).(*enrollmentService)
	return svc, db, notifier
}

func actorOf(u *entity.User) policy.Actor {
	return policy.Actor{UserID: u.ID, Role: u.Role}
}

func TestRequestEnrollmentStartsPending(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	course := testutil.CreateCourse(t, db, testutil.CreateUser(t, db, entity.RoleLecturer))
	student := testutil.CreateUser(t, db, entity.RoleStudent)

	res, err := svc.RequestEnrollment(ctx, actorOf(student), dto.CreateEnrollmentRequest{CourseID: course.ID})
	require.NoError(t, err)
	assert.Equal(t, string(entity.EnrollmentPending), res.Status)
	assert.Equal(t, student.ID, res.StudentID)
	require.NotNil(t, res.Course)
	assert.Equal(t, course.Code, res.Course.Code)
	assert.Nil(t, res.DecidedAt)

	_, err = svc.RequestEnrollment(ctx, actorOf(student), dto.CreateEnrollmentRequest{CourseID: course.ID})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestRequestEnrollmentOnlyStudents(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	lecturer := testutil.CreateUser(t, db, entity.RoleLecturer)
	course := testutil.CreateCourse(t, db, lecturer)

	for _, role := range []entity.Role{entity.RoleLecturer, entity.RoleAdmin} {
		u := testutil.CreateUser(t, db, role)
		_, err := svc.RequestEnrollment(ctx, actorOf(u), dto.CreateEnrollmentRequest{CourseID: course.ID})
		assert.ErrorIs(t, err, apperror.ErrForbidden, role)
	}
}

func TestRequestEnrollmentInactiveCourse(t *testing.T) {
	svc, db, _ := newTestService(t)
	course := testutil.CreateCourse(t, db, nil)
	require.NoError(t, db.Model(course).Update("is_active", false).Error)
	student := testutil.CreateUser(t, db, entity.RoleStudent)

	_, err := svc.RequestEnrollment(context.Background(), actorOf(student), dto.CreateEnrollmentRequest{CourseID: course.ID})
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
}

func TestRequestEnrollmentAfterRejection(t *testing.T) {
	svc, db, _ := newTestService(t)
	course := testutil.CreateCourse(t, db, nil)
	student := testutil.CreateUser(t, db, entity.RoleStudent)
	testutil.CreateEnrollment(t, db, course, student, entity.EnrollmentRejected)

	res, err := svc.RequestEnrollment(context.Background(), actorOf(student), dto.CreateEnrollmentRequest{CourseID: course.ID})
	require.NoError(t, err)
	assert.Equal(t, string(entity.EnrollmentPending), res.Status)
}

func TestDecideEnrollmentAdminOnly(t *testing.T) {
	svc, db, notifier := newTestService(t)
	ctx := context.Background()
	lecturer := testutil.CreateUser(t, db, entity.RoleLecturer)
	course := testutil.CreateCourse(t, db, lecturer)
	student := testutil.CreateUser(t, db, entity.RoleStudent)
	enrollment := testutil.CreateEnrollment(t, db, course, student, entity.EnrollmentPending)

	approve := dto.DecideEnrollmentRequest{Status: string(entity.EnrollmentApproved)}
	for _, u := range []*entity.User{lecturer, student} {
		_, err := svc.DecideEnrollment(ctx, actorOf(u), enrollment.ID, approve)
		assert.ErrorIs(t, err, apperror.ErrForbidden)
	}

	admin := testutil.CreateUser(t, db, entity.RoleAdmin)
	decidedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return decidedAt }

	res, err := svc.DecideEnrollment(ctx, actorOf(admin), enrollment.ID, approve)
	require.NoError(t, err)
	assert.Equal(t, string(entity.EnrollmentApproved), res.Status)
	require.NotNil(t, res.DecidedBy)
	assert.Equal(t, admin.ID, *res.DecidedBy)
	require.NotNil(t, res.DecidedAt)
	assert.True(t, decidedAt.Equal(*res.DecidedAt))

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, student.ID, notifier.sent[0].UserID)
	assert.Equal(t, entity.NotificationEnrollmentDecided, notifier.sent[0].Type)
}

func TestDecideEnrollmentTerminalStates(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	course := testutil.CreateCourse(t, db, nil)
	admin := actorOf(testutil.CreateUser(t, db, entity.RoleAdmin))

	for _, terminal := range []entity.EnrollmentStatus{entity.EnrollmentApproved, entity.EnrollmentRejected} {
		student := testutil.CreateUser(t, db, entity.RoleStudent)
		e := testutil.CreateEnrollment(t, db, course, student, terminal)

		for _, next := range []string{"approved", "rejected"} {
			_, err := svc.DecideEnrollment(ctx, admin, e.ID, dto.DecideEnrollmentRequest{Status: next})
			assert.ErrorIs(t, err, apperror.ErrInvalidState, "%s -> %s", terminal, next)
		}
	}

	student := testutil.CreateUser(t, db, entity.RoleStudent)
	e := testutil.CreateEnrollment(t, db, course, student, entity.EnrollmentPending)
	_, err := svc.DecideEnrollment(ctx, admin, e.ID, dto.DecideEnrollmentRequest{Status: "pending"})
	var valErr *apperror.ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestDecideEnrollmentConcurrentSingleWinner(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	course := testutil.CreateCourse(t, db, nil)
	student := testutil.CreateUser(t, db, entity.RoleStudent)
	e := testutil.CreateEnrollment(t, db, course, student, entity.EnrollmentPending)
	admin := actorOf(testutil.CreateUser(t, db, entity.RoleAdmin))

	decisions := []string{"approved", "rejected", "approved", "rejected"}
	errs := make([]error, len(decisions))
	var wg sync.WaitGroup
	for i, status := range decisions {
		wg.Add(1)
		go func(i int, status string) {
			defer wg.Done()
			_, errs[i] = svc.DecideEnrollment(ctx, admin, e.ID, dto.DecideEnrollmentRequest{Status: status})
		}(i, status)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, apperror.ErrInvalidState)
	}
	assert.Equal(t, 1, wins)
}

func TestCourseEnrollmentsVisibility(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, entity.RoleLecturer)
	other := testutil.CreateUser(t, db, entity.RoleLecturer)
	course := testutil.CreateCourse(t, db, owner)
	testutil.CreateEnrollment(t, db, course, testutil.CreateUser(t, db, entity.RoleStudent), entity.EnrollmentPending)

	res, err := svc.GetCourseEnrollments(ctx, actorOf(owner), course.ID)
	require.NoError(t, err)
	assert.Len(t, res, 1)

	_, err = svc.GetCourseEnrollments(ctx, actorOf(other), course.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	pending, err := svc.GetPendingEnrollments(ctx, actorOf(testutil.CreateUser(t, db, entity.RoleAdmin)), commonDto.PageQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending.Meta.TotalItems)
}
