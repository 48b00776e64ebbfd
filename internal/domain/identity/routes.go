package identity

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	auth := v1.Group("/auth")
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/login", h.Login)
	}
}

// RegisterProtectedRoutes expects JWT auth on protected; require builds the
// role gate for a route group.
func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup, require func(Role) gin.HandlerFunc) {
	protected.GET("/me", h.GetMe)
	protected.PUT("/me/profile", h.UpdateContact)
	protected.GET("/dashboard", h.DashboardRedirect)

	admin := protected.Group("/admin", require(RoleAdmin))
	{
		admin.GET("/inspectors/pending", h.ListPendingInspectors)
		admin.GET("/inspectors/assignable", h.ListAssignableInspectors)
		admin.POST("/inspectors/:id/approve", h.ApproveInspector)
		admin.POST("/inspectors/:id/reject", h.RejectInspector)
		admin.POST("/users/:id/ban", h.BanUser)
		admin.POST("/users/:id/unban", h.UnbanUser)
	}
}
