package inspection

import (
	"github.com/gin-gonic/gin"

	"buildinspect/internal/domain/identity"
)

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup, require func(identity.Role) gin.HandlerFunc) {
	requests := protected.Group("/requests")
	{
		requests.POST("", require(identity.RoleOwner), h.CreateRequest)
		requests.GET("/mine", require(identity.RoleOwner), h.ListMine)
		requests.GET("/:id", h.GetRequest)
		requests.POST("/:id/decision", require(identity.RoleInspector), h.Decide)
	}

	protected.GET("/inspector/requests", require(identity.RoleInspector), h.ListAssigned)

	admin := protected.Group("/admin/requests", require(identity.RoleAdmin))
	{
		admin.GET("", h.ListAll)
		admin.PUT("/:id/fee", h.SetFee)
		admin.POST("/:id/assign", h.Assign)
	}
}
