package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"anoa.com/akademika/internal/entity"
	"anoa.com/akademika/internal/policy"
	"anoa.com/akademika/internal/session"
	"anoa.com/akademika/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*gin.Engine, *session.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sessions := session.NewManager(session.NewMemoryStore(), session.Options{Secret: "test"})
	auth := NewAuthMiddleware(sessions)

	r := gin.New()
	r.GET("/private", auth.RequireAuth(), func(c *gin.Context) {
		actor, _ := response.GetActor(c)
		c.String(http.StatusOK, string(actor.Role))
	})
	r.GET("/admin", auth.RequireAuth(), RequirePermission(policy.ActionUserManage), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/maybe", auth.OptionalAuth(), func(c *gin.Context) {
		if actor := response.OptionalActor(c); actor != nil {
			c.String(http.StatusOK, string(actor.Role))
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	return r, sessions
}

func issue(t *testing.T, m *session.Manager, role entity.Role) string {
	t.Helper()
	token, _, err := m.Issue(context.Background(), &entity.User{ID: uuid.New(), Role: role})
	require.NoError(t, err)
	return token
}

func TestRequireAuth(t *testing.T) {
	r, sessions := setup(t)
	token := issue(t, sessions, entity.RoleLecturer)

	cases := []struct {
		name string
		req  func() *http.Request
		code int
	}{
		{"missing", func() *http.Request { return httptest.NewRequest(http.MethodGet, "/private", nil) }, http.StatusUnauthorized},
		{"garbage", func() *http.Request {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			req.Header.Set("Authorization", "Bearer nope")
			return req
		}, http.StatusUnauthorized},
		{"bearer", func() *http.Request {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			return req
		}, http.StatusOK},
		{"cookie", func() *http.Request {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
			return req
		}, http.StatusOK},
		{"query", func() *http.Request { return httptest.NewRequest(http.MethodGet, "/private?token="+token, nil) }, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, tc.req())
			assert.Equal(t, tc.code, w.Code)
			if tc.code == http.StatusOK {
				assert.Equal(t, "lecturer", w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	r, sessions := setup(t)

	for role, code := range map[entity.Role]int{
		entity.RoleStudent:  http.StatusForbidden,
		entity.RoleLecturer: http.StatusForbidden,
		entity.RoleAdmin:    http.StatusNoContent,
	} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+issue(t, sessions, role))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, code, w.Code, role)
	}
}

func TestOptionalAuth(t *testing.T) {
	r, sessions := setup(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/maybe", nil))
	assert.Equal(t, "anonymous", w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/maybe", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, sessions, entity.RoleStudent))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "student", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/maybe", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anonymous", w.Body.String())
}
