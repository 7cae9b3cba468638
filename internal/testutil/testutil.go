// Package testutil opens throwaway databases for repository and service tests.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"anoa.com/akademika/internal/bootstrap"
	"anoa.com/akademika/internal/entity"
	"anoa.com/akademika/pkg/database"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// NewDB returns a migrated SQLite database private to t.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "akademika.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), database.Config())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a single connection serialises writers the way row locks would
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, bootstrap.Migrate(db))
	return db
}

// Password is the plaintext password of every user created by CreateUser.
const Password = "secret123"

var passwordHash = func() string {
	h, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(h)
}()

func CreateUser(t *testing.T, db *gorm.DB, role entity.Role) *entity.User {
	t.Helper()
	suffix := uuid.NewString()[:8]
	u := &entity.User{
		Username:     string(role) + "_" + suffix,
		Email:        string(role) + "_" + suffix + "@example.test",
		PasswordHash: passwordHash,
		Role:         role,
		FirstName:    "Test",
		LastName:     string(role),
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func CreateCourse(t *testing.T, db *gorm.DB, lecturer *entity.User) *entity.Course {
	t.Helper()
	c := &entity.Course{
		Title:      "Distributed Systems",
		Code:       "CS" + uuid.NewString()[:4],
		Credits:    3,
		Department: "Computer Science",
		IsActive:   true,
	}
	if lecturer != nil {
		c.LecturerID = &lecturer.ID
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func CreateEnrollment(t *testing.T, db *gorm.DB, course *entity.Course, student *entity.User, status entity.EnrollmentStatus) *entity.Enrollment {
	t.Helper()
	e := &entity.Enrollment{CourseID: course.ID, StudentID: student.ID, Status: status}
	require.NoError(t, db.Create(e).Error)
	return e
}

func CreateAssignment(t *testing.T, db *gorm.DB, course *entity.Course, fileRequired bool) *entity.Assignment {
	t.Helper()
	a := &entity.Assignment{
		CourseID:     course.ID,
		Title:        "Consensus essay",
		DueDate:      time.Now().Add(7 * 24 * time.Hour),
		MaxPoints:    100,
		Weight:       0.2,
		FileRequired: fileRequired,
	}
	require.NoError(t, db.Create(a).Error)
	return a
}
