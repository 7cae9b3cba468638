package policy

import (
	"fmt"

	"anoa.com/akademika/internal/entity"
	"anoa.com/akademika/pkg/apperror"
	"github.com/google/uuid"
)

// Actor is the authenticated caller an operation runs on behalf of.
type Actor struct {
	UserID uuid.UUID
	Role   entity.Role
}

func (a Actor) Is(role entity.Role) bool {
	return a.Role == role
}

type Action string

const (
	ActionEnrollmentCreate Action = "enrollment.create"
	ActionEnrollmentDecide Action = "enrollment.decide"
	ActionSubmissionCreate Action = "submission.create"
	ActionSubmissionGrade  Action = "submission.grade"
	ActionCourseCreate     Action = "course.create"
	ActionCourseUpdate     Action = "course.update"
	ActionCourseDeactivate Action = "course.deactivate"
	ActionCourseStats      Action = "course.stats"
	ActionAssignmentCreate Action = "assignment.create"
	ActionAssignmentUpdate Action = "assignment.update"
	ActionUserManage       Action = "user.manage"
	ActionAIRecommend      Action = "ai.recommend"
	ActionAISyllabus       Action = "ai.syllabus"
)

// Allowed reports whether role may attempt action at all. Ownership rules
// (a lecturer acting on their own course) are checked by the services on top of this.
func Allowed(role entity.Role, action Action) bool {
	switch role {
	case entity.RoleStudent:
		switch action {
		case ActionEnrollmentCreate, ActionSubmissionCreate, ActionAIRecommend:
			return true
		}
		return false
	case entity.RoleLecturer:
		switch action {
		case ActionSubmissionGrade,
			ActionCourseCreate,
			ActionCourseUpdate,
			ActionCourseStats,
			ActionAssignmentCreate,
			ActionAssignmentUpdate,
			ActionAIRecommend,
			ActionAISyllabus:
			return true
		}
		return false
	case entity.RoleAdmin:
		switch action {
		case ActionEnrollmentDecide,
			ActionSubmissionGrade,
			ActionCourseCreate,
			ActionCourseUpdate,
			ActionCourseDeactivate,
			ActionCourseStats,
			ActionAssignmentCreate,
			ActionAssignmentUpdate,
			ActionUserManage,
			ActionAIRecommend,
			ActionAISyllabus:
			return true
		}
		return false
	}
	return false
}

// Authorize returns apperror.ErrForbidden when actor's role may not perform action.
func Authorize(actor Actor, action Action) error {
	if !Allowed(actor.Role, action) {
		return fmt.Errorf("%s may not %s: %w", actor.Role, action, apperror.ErrForbidden)
	}
	return nil
}

// AuthorizeCourse applies Authorize and, for lecturers, requires that they teach the course.
func AuthorizeCourse(actor Actor, action Action, course *entity.Course) error {
	if err := Authorize(actor, action); err != nil {
		return err
	}
	if actor.Role == entity.RoleLecturer && !course.TaughtBy(actor.UserID) {
		return fmt.Errorf("course %s is not taught by caller: %w", course.ID, apperror.ErrForbidden)
	}
	return nil
}
