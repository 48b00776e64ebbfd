package inspection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buildinspect/internal/domain/identity"
	"buildinspect/internal/middleware"
)

func setupRouter(t *testing.T, f *fixture) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	protected := r.Group("/api/v1")
	protected.Use(func(c *gin.Context) {
		var id int64
		fmt.Sscan(c.GetHeader("X-User-ID"), &id)
		c.Set("user_id", id)
		c.Next()
	})
	NewHandler(f.svc, f.identity).RegisterRoutes(protected, middleware.NewRoles(f.identity).Require)
	return r
}

func call(r *gin.Engine, method, path string, user *identity.User, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", fmt.Sprint(user.ID))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_Lifecycle(t *testing.T) {
	f := setupFixture(t)
	r := setupRouter(t, f)

	w := call(r, http.MethodPost, "/api/v1/requests", f.owner, gin.H{"type": "Reinspection", "location": "Sector 4, Uttara"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Data Request `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created.Data.ID
	require.NotZero(t, id)

	w = call(r, http.MethodPost, "/api/v1/requests", f.inspector, gin.H{"location": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(r, http.MethodPut, fmt.Sprintf("/api/v1/admin/requests/%d/fee", id), f.admin, gin.H{"fee": "-5"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_FEE")

	w = call(r, http.MethodPut, fmt.Sprintf("/api/v1/admin/requests/%d/fee", id), f.admin, gin.H{"fee": 5000})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = call(r, http.MethodPost, fmt.Sprintf("/api/v1/admin/requests/%d/assign", id), f.admin, gin.H{"inspector_id": f.owner.ID})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = call(r, http.MethodPost, fmt.Sprintf("/api/v1/admin/requests/%d/assign", id), f.admin, gin.H{"inspector_id": f.inspector.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = call(r, http.MethodPost, fmt.Sprintf("/api/v1/requests/%d/decision", id), f.inspector, gin.H{
		"decision": "Approved",
		"remarks":  "All good",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = call(r, http.MethodPost, fmt.Sprintf("/api/v1/requests/%d/decision", id), f.inspector, gin.H{"decision": "Rejected"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_STATE")

	w = call(r, http.MethodGet, fmt.Sprintf("/api/v1/requests/%d", id), f.owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"Approved"`)

	stranger := f.principal(t, "stranger", identity.RoleOwner)
	w = call(r, http.MethodGet, fmt.Sprintf("/api/v1/requests/%d", id), stranger, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(r, http.MethodGet, "/api/v1/admin/requests?status=Approved", f.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sector 4, Uttara")

	w = call(r, http.MethodGet, "/api/v1/admin/requests?status=Lost", f.admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
