package complaint

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"buildinspect/internal/domain/identity"
	"buildinspect/internal/pkg/response"
	"buildinspect/internal/pkg/validator"
)

type fileBody struct {
	AgainstInspectorID *int64 `json:"against_inspector_id" validate:"omitempty,gt=0"`
	Message            string `json:"message" validate:"required,max=5000"`
}

type respondBody struct {
	Response string `json:"response" validate:"required"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup, require func(identity.Role) gin.HandlerFunc) {
	complaints := protected.Group("/complaints")
	{
		complaints.GET("/new", h.New)
		complaints.POST("", h.File)
		complaints.GET("/mine", h.Mine)
	}

	admin := protected.Group("/admin/complaints")
	admin.Use(require(identity.RoleAdmin))
	{
		admin.GET("", h.List)
		admin.POST("/:id/resolve", h.Resolve)
		admin.POST("/:id/respond", h.Respond)
		admin.POST("/:id/ban", h.Ban)
		admin.POST("/:id/unban", h.Unban)
	}
}

// New returns the inspectors a complaint form can offer.
func (h *Handler) New(c *gin.Context) {
	ps, err := h.service.Targets(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.View(c, "owner/complaint", gin.H{"inspectors": identity.NewProfileViews(ps)})
}

func (h *Handler) File(c *gin.Context) {
	var body fileBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(body); errs != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", errs)
		return
	}

	cm, err := h.service.File(c.Request.Context(), c.GetInt64("user_id"), body.AgainstInspectorID, body.Message)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, cm)
}

func (h *Handler) Mine(c *gin.Context) {
	list, err := h.service.ListByReporter(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, list)
}

func (h *Handler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.View(c, "admin/complaints", gin.H{"complaints": list})
}

func (h *Handler) Resolve(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	cm, err := h.service.Resolve(c.Request.Context(), c.GetInt64("user_id"), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, cm)
}

func (h *Handler) Respond(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var body respondBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(body); errs != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", errs)
		return
	}

	cm, err := h.service.Respond(c.Request.Context(), c.GetInt64("user_id"), id, body.Response)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, cm)
}

func (h *Handler) Ban(c *gin.Context)   { h.setBanned(c, true) }
func (h *Handler) Unban(c *gin.Context) { h.setBanned(c, false) }

func (h *Handler) setBanned(c *gin.Context, banned bool) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var (
		p   *identity.Profile
		err error
	)
	if banned {
		p, err = h.service.Ban(c.Request.Context(), c.GetInt64("user_id"), id)
	} else {
		p, err = h.service.Unban(c.Request.Context(), c.GetInt64("user_id"), id)
	}
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, identity.NewProfileView(p))
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid complaint id")
		return 0, false
	}
	return id, true
}
