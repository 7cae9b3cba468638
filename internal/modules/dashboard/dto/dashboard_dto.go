package dto

import (
	"anoa.com/akademika/internal/entity"
	assignmentDto "anoa.com/akademika/internal/modules/assignment/dto"
	courseDto "anoa.com/akademika/internal/modules/course/dto"
	enrollmentDto "anoa.com/akademika/internal/modules/enrollment/dto"
	submissionDto "anoa.com/akademika/internal/modules/submission/dto"
	userDto "anoa.com/akademika/internal/modules/user/dto"
	"anoa.com/akademika/internal/policy"
)

// DashboardView is the role-scoped landing page. Sections that do not apply to the role are omitted.
type DashboardView struct {
	Role        entity.Role                        `json:"role"`
	User        *userDto.UserResponse              `json:"user"`
	Navigation  []policy.NavItem                   `json:"navigation"`
	Stats       any                                `json:"stats"`
	Courses     []courseDto.CourseResponse         `json:"courses,omitempty"`
	Enrollments []enrollmentDto.EnrollmentResponse `json:"enrollments,omitempty"`
	Assignments []assignmentDto.AssignmentResponse `json:"assignments,omitempty"`
	Submissions []submissionDto.SubmissionResponse `json:"submissions,omitempty"`
}
