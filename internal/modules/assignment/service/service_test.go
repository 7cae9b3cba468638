package service

import (
	"context"
	"testing"
	"time"

	"anoa.com/akademika/internal/entity"
	"anoa.com/akademika/internal/modules/assignment/dto"
	"anoa.com/akademika/internal/modules/assignment/repository"
	courseRepo "anoa.com/akademika/internal/modules/course/repository"
	"anoa.com/akademika/internal/policy"
	"anoa.com/akademika/internal/testutil"
	"anoa.com/akademika/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAssignmentOwnership(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewAssignmentService(repository.NewAssignmentRepository(db), courseRepo.NewCourseRepository(db))
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, entity.RoleLecturer)
	other := testutil.CreateUser(t, db, entity.RoleLecturer)
	student := testutil.CreateUser(t, db, entity.RoleStudent)
	course := testutil.CreateCourse(t, db, owner)

	req := dto.CreateAssignmentRequest{
		Title:       "  Raft lab ",
		Description: `Elect a leader when term > 0 & log is "up to date" (a < b)`,
		DueDate:     time.Now().Add(48 * time.Hour),
		MaxPoints:   50,
		Weight:      0.25,
	}

	_, err := svc.CreateAssignment(ctx, policy.Actor{UserID: other.ID, Role: other.Role}, course.ID, req)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	_, err = svc.CreateAssignment(ctx, policy.Actor{UserID: student.ID, Role: student.Role}, course.ID, req)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	res, err := svc.CreateAssignment(ctx, policy.Actor{UserID: owner.ID, Role: owner.Role}, course.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Raft lab", res.Title)
	assert.Equal(t, req.Description, res.Description)
	assert.Equal(t, course.Title, res.CourseTitle)

	list, err := svc.GetCourseAssignments(ctx, course.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateAssignmentValidation(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewAssignmentService(repository.NewAssignmentRepository(db), courseRepo.NewCourseRepository(db))
	admin := testutil.CreateUser(t, db, entity.RoleAdmin)
	course := testutil.CreateCourse(t, db, nil)

	_, err := svc.CreateAssignment(context.Background(), policy.Actor{UserID: admin.ID, Role: admin.Role}, course.ID, dto.CreateAssignmentRequest{Weight: 2})
	var valErr *apperror.ValidationError
	require.ErrorAs(t, err, &valErr)

	fields := map[string]bool{}
	for _, f := range valErr.Fields {
		fields[f.Field] = true
	}
	assert.True(t, fields["title"])
	assert.True(t, fields["due_date"])
	assert.True(t, fields["max_points"])
	assert.True(t, fields["weight"])
}

func TestUpdateAssignmentPartial(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewAssignmentService(repository.NewAssignmentRepository(db), courseRepo.NewCourseRepository(db))
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, entity.RoleLecturer)
	course := testutil.CreateCourse(t, db, owner)
	assignment := testutil.CreateAssignment(t, db, course, false)

	required := true
	points := 80
	res, err := svc.UpdateAssignment(ctx, policy.Actor{UserID: owner.ID, Role: owner.Role}, assignment.ID, dto.UpdateAssignmentRequest{
		MaxPoints:    &points,
		FileRequired: &required,
	})
	require.NoError(t, err)
	assert.Equal(t, 80, res.MaxPoints)
	assert.True(t, res.FileRequired)
	assert.Equal(t, assignment.Title, res.Title)

	_, err = svc.GetAssignment(ctx, course.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestFindUpcomingForStudent(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewAssignmentRepository(db)
	ctx := context.Background()

	student := testutil.CreateUser(t, db, entity.RoleStudent)
	approved := testutil.CreateCourse(t, db, nil)
	pending := testutil.CreateCourse(t, db, nil)
	testutil.CreateEnrollment(t, db, approved, student, entity.EnrollmentApproved)
	testutil.CreateEnrollment(t, db, pending, student, entity.EnrollmentPending)

	upcoming := testutil.CreateAssignment(t, db, approved, false)
	testutil.CreateAssignment(t, db, pending, false)
	past := testutil.CreateAssignment(t, db, approved, false)
	require.NoError(t, db.Model(past).Update("due_date", time.Now().Add(-time.Hour)).Error)

	got, err := repo.FindUpcomingForStudent(ctx, student.ID, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, upcoming.ID, got[0].ID)
}
