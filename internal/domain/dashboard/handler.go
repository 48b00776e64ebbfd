package dashboard

import (
	"github.com/gin-gonic/gin"

	"buildinspect/internal/domain/identity"
	"buildinspect/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup, require func(identity.Role) gin.HandlerFunc) {
	protected.GET("/dashboard/owner", require(identity.RoleOwner), h.Owner)
	protected.GET("/dashboard/inspector", require(identity.RoleInspector), h.Inspector)
	protected.GET("/dashboard/admin", require(identity.RoleAdmin), h.Admin)
	protected.GET("/admin/users", require(identity.RoleAdmin), h.Users)
}

func (h *Handler) Owner(c *gin.Context) {
	v, err := h.service.Owner(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.View(c, "owner/dashboard", v)
}

func (h *Handler) Inspector(c *gin.Context) {
	v, err := h.service.Inspector(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.View(c, "inspector/dashboard", v)
}

func (h *Handler) Admin(c *gin.Context) {
	v, err := h.service.Admin(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.View(c, "admin/dashboard", v)
}

func (h *Handler) Users(c *gin.Context) {
	rows, err := h.service.Users(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.View(c, "admin/users", gin.H{"users": rows})
}
