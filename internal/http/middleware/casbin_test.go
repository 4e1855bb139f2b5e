package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch(r.obj, p.obj) && regexMatch(r.act, p.act)
`

func newTestEnforcer(t *testing.T) *casbin.Enforcer {
	t.Helper()

	m, err := model.NewModelFromString(testModel)
	require.NoError(t, err)
	e, err := casbin.NewEnforcer(m)
	require.NoError(t, err)
	e.AddPolicy("role_admin", "/api/admin/*", "(GET|POST|PUT|DELETE)")
	e.AddPolicy("role_counselor", "/api/admin/logout", "POST")
	return e
}

func TestCasbinMW_Enforce(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		role           string
		method         string
		path           string
		expectedStatus int
	}{
		{
			name:           "admin can clear the cache",
			role:           "admin",
			method:         http.MethodPost,
			path:           "/api/admin/cache/clear",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "counselor can log out",
			role:           "counselor",
			method:         http.MethodPost,
			path:           "/api/admin/logout",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "counselor cannot clear the cache",
			role:           "counselor",
			method:         http.MethodPost,
			path:           "/api/admin/cache/clear",
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "unknown role is refused",
			role:           "student",
			method:         http.MethodPost,
			path:           "/api/admin/logout",
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := NewCasbinMW(newTestEnforcer(t))

			r := gin.New()
			setRole := func(c *gin.Context) {
				c.Set("user_role", tt.role)
				c.Next()
			}
			handler := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }
			r.POST("/api/admin/cache/clear", setRole, mw.Enforce(), handler)
			r.POST("/api/admin/logout", setRole, mw.Enforce(), handler)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.expectedStatus, rec.Code, "body: %s", rec.Body.String())
		})
	}
}

func TestCasbinMW_MissingRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mw := NewCasbinMW(newTestEnforcer(t))
	r := gin.New()
	r.POST("/api/admin/logout", mw.Enforce(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/logout", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
