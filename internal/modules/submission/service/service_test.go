package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"anoa.com/akademika/internal/entity"
	assignmentRepo "anoa.com/akademika/internal/modules/assignment/repository"
	enrollmentRepo "anoa.com/akademika/internal/modules/enrollment/repository"
	"anoa.com/akademika/internal/modules/submission/dto"
	"anoa.com/akademika/internal/modules/submission/repository"
	"anoa.com/akademika/internal/policy"
	"anoa.com/akademika/internal/testutil"
	"anoa.com/akademika/pkg/apperror"
	commonDto "anoa.com/akademika/pkg/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memStorage struct {
	mu       sync.Mutex
	uploaded []string
	deleted  []string
	fail     bool
}

func (m *memStorage) Upload(ctx context.Context, r io.Reader, folder, fileName string) (string, error) {
	if m.fail {
		return "", errors.New("upload failed")
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	url := "https://files.test/" + folder + "/" + fileName
	m.uploaded = append(m.uploaded, url)
	return url, nil
}

func (m *memStorage) Delete(ctx context.Context, fileURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, fileURL)
	return nil
}

type recordingNotifier struct {
	sent []*entity.Notification
}

func (n *recordingNotifier) CreateNotification(ctx context.Context, notification *entity.Notification) error {
	n.sent = append(n.sent, notification)
	return nil
}

type fixture struct {
	svc      *submissionService
	db       *gorm.DB
	storage  *memStorage
	notifier *recordingNotifier

	lecturer *entity.User
	student  *entity.User
	course   *entity.Course
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{db: db, storage: &memStorage{}, notifier: &recordingNotifier{}}
	f.svc = NewSubmissionService(
		repository.NewSubmissionRepository(db),
		assignmentRepo.NewAssignmentRepository(db),
		enrollmentRepo.NewEnrollmentRepository(db),
		f.storage,
		f.notifier,
	).(*submissionService)

	f.lecturer = testutil.CreateUser(t, db, entity.RoleLecturer)
	f.student = testutil.CreateUser(t, db, entity.RoleStudent)
	f.course = testutil.CreateCourse(t, db, f.lecturer)
	return f
}

func actorOf(u *entity.User) policy.Actor {
	return policy.Actor{UserID: u.ID, Role: u.Role}
}

func textFile(name string) *commonDto.UploadedFile {
	return &commonDto.UploadedFile{Reader: strings.NewReader("%PDF-1.4"), FileName: name, Size: 8}
}

func TestSubmitRequiresApprovedEnrollment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	assignment := testutil.CreateAssignment(t, f.db, f.course, false)
	req := dto.CreateSubmissionRequest{Content: "my answer"}

	_, err := f.svc.SubmitAssignment(ctx, actorOf(f.student), assignment.ID, req, nil)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	enrollment := testutil.CreateEnrollment(t, f.db, f.course, f.student, entity.EnrollmentPending)
	_, err = f.svc.SubmitAssignment(ctx, actorOf(f.student), assignment.ID, req, nil)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	require.NoError(t, f.db.Model(enrollment).Update("status", entity.EnrollmentApproved).Error)
	res, err := f.svc.SubmitAssignment(ctx, actorOf(f.student), assignment.ID, req, nil)
	require.NoError(t, err)
	assert.Equal(t, string(entity.SubmissionSubmitted), res.Status)
	assert.Nil(t, res.Grade)
	assert.Nil(t, res.GradedAt)

	_, err = f.svc.SubmitAssignment(ctx, actorOf(f.student), assignment.ID, req, nil)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestSubmitOnlyStudents(t *testing.T) {
	f := newFixture(t)
	assignment := testutil.CreateAssignment(t, f.db, f.course, false)

	_, err := f.svc.SubmitAssignment(context.Background(), actorOf(f.lecturer), assignment.ID, dto.CreateSubmissionRequest{Content: "x"}, nil)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestSubmitFileRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.CreateEnrollment(t, f.db, f.course, f.student, entity.EnrollmentApproved)
	withFile := testutil.CreateAssignment(t, f.db, f.course, true)
	textOnly := testutil.CreateAssignment(t, f.db, f.course, false)

	var valErr *apperror.ValidationError
	_, err := f.svc.SubmitAssignment(ctx, actorOf(f.student), withFile.ID, dto.CreateSubmissionRequest{Content: "no file"}, nil)
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "file", valErr.Fields[0].Field)

	_, err = f.svc.SubmitAssignment(ctx, actorOf(f.student), textOnly.ID, dto.CreateSubmissionRequest{Content: "  \n\t "}, nil)
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "content", valErr.Fields[0].Field)

	res, err := f.svc.SubmitAssignment(ctx, actorOf(f.student), withFile.ID, dto.CreateSubmissionRequest{}, textFile("essay.pdf"))
	require.NoError(t, err)
	require.NotNil(t, res.FilePath)
	assert.Equal(t, "https://files.test/submissions/essay.pdf", *res.FilePath)

	_, err = f.svc.SubmitAssignment(ctx, actorOf(f.student), withFile.ID, dto.CreateSubmissionRequest{}, textFile("again.pdf"))
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, []string{"https://files.test/submissions/again.pdf"}, f.storage.deleted)
}

func TestSubmitWithoutStorage(t *testing.T) {
	f := newFixture(t)
	f.svc.storage = nil
	testutil.CreateEnrollment(t, f.db, f.course, f.student, entity.EnrollmentApproved)
	assignment := testutil.CreateAssignment(t, f.db, f.course, true)

	_, err := f.svc.SubmitAssignment(context.Background(), actorOf(f.student), assignment.ID, dto.CreateSubmissionRequest{}, textFile("a.pdf"))
	assert.ErrorIs(t, err, apperror.ErrUnavailable)
}

func TestGradeSubmission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.CreateEnrollment(t, f.db, f.course, f.student, entity.EnrollmentApproved)
	assignment := testutil.CreateAssignment(t, f.db, f.course, false)
	sub, err := f.svc.SubmitAssignment(ctx, actorOf(f.student), assignment.ID, dto.CreateSubmissionRequest{Content: "if a < b && b > c then"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "if a < b && b > c then", sub.Content)

	grade := 87.5
	feedback := `Check the "edge" case & retry`
	req := dto.GradeSubmissionRequest{Grade: &grade, Feedback: &feedback}

	_, err = f.svc.GradeSubmission(ctx, actorOf(f.student), sub.ID, req)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	stranger := testutil.CreateUser(t, f.db, entity.RoleLecturer)
	_, err = f.svc.GradeSubmission(ctx, actorOf(stranger), sub.ID, req)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	res, err := f.svc.GradeSubmission(ctx, actorOf(f.lecturer), sub.ID, req)
	require.NoError(t, err)
	assert.Equal(t, string(entity.SubmissionGraded), res.Status)
	require.NotNil(t, res.Grade)
	assert.InDelta(t, 87.5, *res.Grade, 0.0001)
	require.NotNil(t, res.Feedback)
	assert.Equal(t, feedback, *res.Feedback)
	assert.Equal(t, "if a < b && b > c then", res.Content)
	require.NotNil(t, res.GradedAt)
	assert.False(t, res.GradedAt.Before(res.SubmittedAt))
	require.NotNil(t, res.GradedBy)
	assert.Equal(t, f.lecturer.ID, *res.GradedBy)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, f.student.ID, f.notifier.sent[0].UserID)

	// re-grading by an admin overwrites
	admin := testutil.CreateUser(t, f.db, entity.RoleAdmin)
	regrade := 90.0
	res, err = f.svc.GradeSubmission(ctx, actorOf(admin), sub.ID, dto.GradeSubmissionRequest{Grade: &regrade})
	require.NoError(t, err)
	assert.InDelta(t, 90.0, *res.Grade, 0.0001)
	assert.Nil(t, res.Feedback)
}

func TestGradeBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.CreateEnrollment(t, f.db, f.course, f.student, entity.EnrollmentApproved)
	assignment := testutil.CreateAssignment(t, f.db, f.course, false)
	sub, err := f.svc.SubmitAssignment(ctx, actorOf(f.student), assignment.ID, dto.CreateSubmissionRequest{Content: "answer"}, nil)
	require.NoError(t, err)

	for _, g := range []float64{-1, 100.5} {
		grade := g
		_, err := f.svc.GradeSubmission(ctx, actorOf(f.lecturer), sub.ID, dto.GradeSubmissionRequest{Grade: &grade})
		var valErr *apperror.ValidationError
		assert.ErrorAs(t, err, &valErr, "grade %v", g)
	}

	_, err = f.svc.GradeSubmission(ctx, actorOf(f.lecturer), sub.ID, dto.GradeSubmissionRequest{})
	var valErr *apperror.ValidationError
	assert.ErrorAs(t, err, &valErr)

	for _, g := range []float64{0, 100} {
		grade := g
		_, err := f.svc.GradeSubmission(ctx, actorOf(f.lecturer), sub.ID, dto.GradeSubmissionRequest{Grade: &grade})
		assert.NoError(t, err, "grade %v", g)
	}
}

func TestGradedAtNeverBeforeSubmission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.CreateEnrollment(t, f.db, f.course, f.student, entity.EnrollmentApproved)
	assignment := testutil.CreateAssignment(t, f.db, f.course, false)
	sub, err := f.svc.SubmitAssignment(ctx, actorOf(f.student), assignment.ID, dto.CreateSubmissionRequest{Content: "answer"}, nil)
	require.NoError(t, err)

	// a grader whose clock runs behind
	f.svc.now = func() time.Time { return sub.SubmittedAt.Add(-time.Hour) }
	grade := 10.0
	res, err := f.svc.GradeSubmission(ctx, actorOf(f.lecturer), sub.ID, dto.GradeSubmissionRequest{Grade: &grade})
	require.NoError(t, err)
	require.NotNil(t, res.GradedAt)
	assert.False(t, res.GradedAt.Before(res.SubmittedAt))
}

func TestUngradedQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.CreateEnrollment(t, f.db, f.course, f.student, entity.EnrollmentApproved)
	assignment := testutil.CreateAssignment(t, f.db, f.course, false)
	sub, err := f.svc.SubmitAssignment(ctx, actorOf(f.student), assignment.ID, dto.CreateSubmissionRequest{Content: "answer"}, nil)
	require.NoError(t, err)

	pending, err := f.svc.repo.FindUngradedForLecturer(ctx, f.lecturer.ID, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, sub.ID, pending[0].ID)

	grade := 50.0
	_, err = f.svc.GradeSubmission(ctx, actorOf(f.lecturer), sub.ID, dto.GradeSubmissionRequest{Grade: &grade})
	require.NoError(t, err)

	pending, err = f.svc.repo.FindUngradedForLecturer(ctx, f.lecturer.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	mine, err := f.svc.GetMySubmissions(ctx, actorOf(f.student))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, assignment.Title, mine[0].AssignmentTitle)
}
