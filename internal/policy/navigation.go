package policy

import "anoa.com/akademika/internal/entity"

// Anonymous selects the navigation shown to callers without a session.
const Anonymous entity.Role = ""

type NavItem struct {
	Label  string  `json:"label"`
	Target string  `json:"target"`
	Badge  *string `json:"badge,omitempty"`
}

// VisibleNavigation returns the ordered menu for role. The result is a fresh slice every call.
func VisibleNavigation(role entity.Role) []NavItem {
	switch role {
	case entity.RoleStudent:
		return []NavItem{
			{Label: "Dashboard", Target: "/dashboard"},
			{Label: "Courses", Target: "/courses"},
			{Label: "My Enrollments", Target: "/enrollments/me"},
			{Label: "My Submissions", Target: "/submissions/me"},
			{Label: "AI Recommendations", Target: "/ai/recommendations", Badge: badge("AI")},
			{Label: "Notifications", Target: "/notifications"},
		}
	case entity.RoleLecturer:
		return []NavItem{
			{Label: "Dashboard", Target: "/dashboard"},
			{Label: "Courses", Target: "/courses"},
			{Label: "Grading", Target: "/grading"},
			{Label: "AI Recommendations", Target: "/ai/recommendations", Badge: badge("AI")},
			{Label: "Syllabus Generator", Target: "/ai/syllabus", Badge: badge("AI")},
			{Label: "Notifications", Target: "/notifications"},
		}
	case entity.RoleAdmin:
		return []NavItem{
			{Label: "Dashboard", Target: "/dashboard"},
			{Label: "Courses", Target: "/courses"},
			{Label: "Enrollment Requests", Target: "/admin/enrollments"},
			{Label: "Users", Target: "/admin/users"},
			{Label: "AI Recommendations", Target: "/ai/recommendations", Badge: badge("AI")},
			{Label: "Syllabus Generator", Target: "/ai/syllabus", Badge: badge("AI")},
			{Label: "Notifications", Target: "/notifications"},
		}
	}
	return []NavItem{
		{Label: "Home", Target: "/"},
		{Label: "Courses", Target: "/courses"},
		{Label: "Login", Target: "/login"},
		{Label: "Register", Target: "/register"},
	}
}

func badge(s string) *string {
	return &s
}
