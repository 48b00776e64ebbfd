package identity

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"buildinspect/internal/pkg/response"
	"buildinspect/internal/pkg/validator"
)

// TokenIssuer mints access tokens for authenticated principals.
type TokenIssuer interface {
	GenerateToken(userID int64, role string) (string, error)
}

type Handler struct {
	service     *Service
	credentials *Credentials
	tokens      TokenIssuer
}

func NewHandler(service *Service, credentials *Credentials, tokens TokenIssuer) *Handler {
	return &Handler{service: service, credentials: credentials, tokens: tokens}
}

func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", errs)
		return
	}
	role, err := ParseRole(req.Role)
	if err != nil {
		response.FromError(c, err)
		return
	}

	user, profile, err := h.credentials.Signup(c.Request.Context(), SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
		NID:      req.NID,
		Phone:    req.Phone,
		Location: req.Location,
	})
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			response.Error(c, http.StatusConflict, "USERNAME_TAKEN", err.Error())
			return
		}
		response.FromError(c, err)
		return
	}

	token, err := h.tokens.GenerateToken(user.ID, profile.Role.String())
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"profile":   NewProfileView(profile),
		"token":     token,
		"dashboard": profile.Role.Dashboard(),
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", errs)
		return
	}

	user, profile, err := h.credentials.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error())
			return
		}
		response.FromError(c, err)
		return
	}

	token, err := h.tokens.GenerateToken(user.ID, profile.Role.String())
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"profile":   NewProfileView(profile),
		"token":     token,
		"dashboard": profile.Role.Dashboard(),
	})
}

func (h *Handler) GetMe(c *gin.Context) {
	p, err := h.service.GetProfile(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NewProfileView(p))
}

func (h *Handler) UpdateContact(c *gin.Context) {
	var req UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", errs)
		return
	}

	p, err := h.service.UpdateContact(c.Request.Context(), c.GetInt64("user_id"), ContactInput{
		NID:      req.NID,
		Phone:    req.Phone,
		Location: req.Location,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NewProfileView(p))
}

// DashboardRedirect tells the client which dashboard the caller lands on.
func (h *Handler) DashboardRedirect(c *gin.Context) {
	p, err := h.service.GetProfile(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"role": p.Role, "dashboard": p.Role.Dashboard()})
}

func (h *Handler) ListPendingInspectors(c *gin.Context) {
	ps, err := h.service.ListPendingInspectors(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.View(c, "admin/approve_inspectors", gin.H{"pending": NewProfileViews(ps)})
}

func (h *Handler) ListAssignableInspectors(c *gin.Context) {
	ps, err := h.service.ListAssignableInspectors(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NewProfileViews(ps))
}

func (h *Handler) ApproveInspector(c *gin.Context) {
	profileID, ok := parseID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.Approve(c.Request.Context(), c.GetInt64("user_id"), profileID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NewProfileView(p))
}

// RejectInspector deletes the account, so the body must carry
// {"confirm": true}.
func (h *Handler) RejectInspector(c *gin.Context) {
	profileID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Confirm {
		response.Error(c, http.StatusBadRequest, "CONFIRMATION_REQUIRED", "Rejecting an inspector deletes the account; send {\"confirm\": true}")
		return
	}

	if err := h.service.Reject(c.Request.Context(), c.GetInt64("user_id"), profileID); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted_profile_id": profileID})
}

func (h *Handler) BanUser(c *gin.Context)   { h.setBanned(c, true) }
func (h *Handler) UnbanUser(c *gin.Context) { h.setBanned(c, false) }

func (h *Handler) setBanned(c *gin.Context, banned bool) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.SetBanned(c.Request.Context(), c.GetInt64("user_id"), userID, banned)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NewProfileView(p))
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return 0, false
	}
	return id, true
}
