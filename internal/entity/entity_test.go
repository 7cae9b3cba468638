package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnrollmentTransitions(t *testing.T) {
	assert.True(t, EnrollmentPending.CanTransitionTo(EnrollmentApproved))
	assert.True(t, EnrollmentPending.CanTransitionTo(EnrollmentRejected))
	assert.False(t, EnrollmentPending.CanTransitionTo(EnrollmentPending))

	for _, terminal := range []EnrollmentStatus{EnrollmentApproved, EnrollmentRejected} {
		assert.True(t, terminal.Terminal())
		for _, next := range []EnrollmentStatus{EnrollmentPending, EnrollmentApproved, EnrollmentRejected} {
			assert.False(t, terminal.CanTransitionTo(next), "%s -> %s", terminal, next)
		}
	}
}

func TestParseRole(t *testing.T) {
	for _, r := range []string{"student", "lecturer", "admin"} {
		_, ok := ParseRole(r)
		assert.True(t, ok, r)
	}
	for _, r := range []string{"", "Admin", "professor", "root"} {
		_, ok := ParseRole(r)
		assert.False(t, ok, r)
	}
}

func TestSubmissionStatusAndGradedTimestamp(t *testing.T) {
	submitted := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := &Submission{SubmittedAt: submitted}
	assert.Equal(t, SubmissionSubmitted, s.Status())

	grade := 80.0
	s.Grade = &grade
	assert.Equal(t, SubmissionGraded, s.Status())

	assert.Equal(t, submitted, s.GradedTimestamp(submitted.Add(-time.Minute)))
	later := submitted.Add(time.Hour)
	assert.Equal(t, later, s.GradedTimestamp(later))
}

func TestPasswordResetExpired(t *testing.T) {
	now := time.Now()
	p := &PasswordReset{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, p.Expired(now))
	assert.True(t, p.Expired(now.Add(time.Minute)))
}
