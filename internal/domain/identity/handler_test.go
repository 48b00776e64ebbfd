package identity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buildinspect/internal/pkg/jwt"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *Service, *Repository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, repo := setupTestService(t)
	h := NewHandler(svc, NewCredentials(repo, svc), jwt.New("test-secret", time.Hour))

	r := gin.New()
	v1 := r.Group("/api/v1")
	h.RegisterPublicRoutes(v1)

	protected := v1.Group("")
	protected.Use(func(c *gin.Context) {
		var id int64
		fmt.Sscan(c.GetHeader("X-User-ID"), &id)
		c.Set("user_id", id)
		c.Next()
	})
	require := func(role Role) gin.HandlerFunc {
		return func(c *gin.Context) {
			if _, err := svc.RoleRequired(c.Request.Context(), c.GetInt64("user_id"), role); err != nil {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
		}
	}
	h.RegisterProtectedRoutes(protected, require)
	return r, svc, repo
}

func doJSON(r *gin.Engine, method, path string, userID int64, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("X-User-ID", fmt.Sprint(userID))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_SignupAndLogin(t *testing.T) {
	r, _, _ := setupTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/auth/signup", 0, gin.H{
		"username": "owner1",
		"password": "secret-pass",
		"role":     "Owner",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var signup struct {
		Success bool `json:"success"`
		Data    struct {
			Token     string      `json:"token"`
			Dashboard string      `json:"dashboard"`
			Profile   ProfileView `json:"profile"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &signup))
	assert.True(t, signup.Success)
	assert.NotEmpty(t, signup.Data.Token)
	assert.Equal(t, "owner_dashboard", signup.Data.Dashboard)
	assert.Equal(t, RoleOwner, signup.Data.Profile.Role)

	w = doJSON(r, http.MethodPost, "/api/v1/auth/login", 0, gin.H{"username": "owner1", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_CREDENTIALS")

	w = doJSON(r, http.MethodPost, "/api/v1/auth/login", 0, gin.H{"username": "owner1", "password": "secret-pass"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_SignupValidation(t *testing.T) {
	r, _, _ := setupTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/auth/signup", 0, gin.H{
		"username": "x",
		"password": "short",
		"role":     "Wizard",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestHandler_RejectRequiresConfirmation(t *testing.T) {
	r, svc, repo := setupTestRouter(t)

	admin, _ := createPrincipal(t, svc, repo, "admin", RoleAdmin)
	inspector, inspectorProfile := createPrincipal(t, svc, repo, "inspector1", RoleInspector)
	path := fmt.Sprintf("/api/v1/admin/inspectors/%d/reject", inspectorProfile.ID)

	w := doJSON(r, http.MethodPost, path, admin.ID, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "CONFIRMATION_REQUIRED")

	w = doJSON(r, http.MethodPost, path, inspector.ID, gin.H{"confirm": true})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodPost, path, admin.ID, gin.H{"confirm": true})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/me", inspector.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_DashboardRedirect(t *testing.T) {
	r, svc, repo := setupTestRouter(t)
	inspector, _ := createPrincipal(t, svc, repo, "inspector1", RoleInspector)

	w := doJSON(r, http.MethodGet, "/api/v1/dashboard", inspector.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "inspector_dashboard")
}
