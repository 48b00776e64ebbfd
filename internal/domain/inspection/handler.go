package inspection

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"buildinspect/internal/domain/identity"
	"buildinspect/internal/pkg/response"
	"buildinspect/internal/pkg/validator"
)

// ProfileResolver loads the caller's profile for routes open to every role.
type ProfileResolver interface {
	Resolve(ctx context.Context, userID int64) (*identity.Profile, error)
}

type Handler struct {
	service  *Service
	profiles ProfileResolver
}

func NewHandler(service *Service, profiles ProfileResolver) *Handler {
	return &Handler{service: service, profiles: profiles}
}

func (h *Handler) CreateRequest(c *gin.Context) {
	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(body); errs != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", errs)
		return
	}

	req, err := h.service.CreateRequest(c.Request.Context(), c.GetInt64("user_id"), CreateInput{
		Type:     RequestType(body.Type),
		Location: body.Location,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, req)
}

func (h *Handler) ListMine(c *gin.Context) {
	reqs, err := h.service.ListByOwner(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, reqs)
}

func (h *Handler) ListAssigned(c *gin.Context) {
	reqs, err := h.service.ListByInspector(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, reqs)
}

func (h *Handler) GetRequest(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	actor, err := h.profiles.Resolve(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	req, err := h.service.GetVisible(c.Request.Context(), actor, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"request":       req,
		"effective_fee": h.service.EffectiveFee(req),
	})
}

// ListAll serves the admin request list, optionally filtered by ?status=.
func (h *Handler) ListAll(c *gin.Context) {
	var (
		reqs []Request
		err  error
	)
	if status := c.Query("status"); status != "" {
		reqs, err = h.service.ListByStatus(c.Request.Context(), Status(status))
	} else {
		reqs, err = h.service.ListAll(c.Request.Context())
	}
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, reqs)
}

func (h *Handler) SetFee(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var body SetFeeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(body); errs != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", errs)
		return
	}

	req, err := h.service.SetFee(c.Request.Context(), c.GetInt64("user_id"), id, *body.Fee)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, req)
}

func (h *Handler) Assign(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var body AssignBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(body); errs != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", errs)
		return
	}

	req, err := h.service.Assign(c.Request.Context(), c.GetInt64("user_id"), id, body.InspectorID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, req)
}

func (h *Handler) Decide(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var body DecisionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(body); errs != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", errs)
		return
	}

	rep, err := h.service.Decide(c.Request.Context(), c.GetInt64("user_id"), id, DecisionInput{
		Decision:             Decision(body.Decision),
		StructuralEvaluation: body.StructuralEvaluation,
		ComplianceChecklist:  body.ComplianceChecklist,
		Remarks:              body.Remarks,
		Reason:               body.Reason,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, rep)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid request id")
		return 0, false
	}
	return id, true
}
