package ledger

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"buildinspect/internal/domain/identity"
	"buildinspect/internal/domain/inspection"
	"buildinspect/internal/pkg/response"
)

// RequestLister lists an owner's requests for the payments screen.
type RequestLister interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]inspection.Request, error)
}

type Handler struct {
	service  *Service
	requests RequestLister
}

func NewHandler(service *Service, requests RequestLister) *Handler {
	return &Handler{service: service, requests: requests}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup, require func(identity.Role) gin.HandlerFunc) {
	owner := protected.Group("", require(identity.RoleOwner))
	{
		owner.GET("/payments", h.MyPayments)
		owner.GET("/requests/:id/quote", h.Quote)
		owner.POST("/requests/:id/pay", h.Pay)
	}

	admin := protected.Group("/admin", require(identity.RoleAdmin))
	{
		admin.GET("/balance", h.Balance)
		admin.GET("/requests/:id/payments", h.ListByRequest)
	}
}

type payBody struct {
	Amount         *decimal.Decimal `json:"amount"`
	IdempotencyKey string           `json:"idempotency_key"`
}

type payableRequest struct {
	inspection.Request
	AmountDue decimal.Decimal `json:"amount_due"`
}

// MyPayments lists the owner's requests newest first with what each costs,
// plus the payments already made.
func (h *Handler) MyPayments(c *gin.Context) {
	userID := c.GetInt64("user_id")

	reqs, err := h.requests.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	payments, err := h.service.ListByPayer(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	rows := make([]payableRequest, 0, len(reqs))
	for i := range reqs {
		rows = append(rows, payableRequest{Request: reqs[i], AmountDue: h.service.fees.EffectiveFee(&reqs[i])})
	}
	response.View(c, "owner/payments", gin.H{"requests": rows, "payments": payments})
}

func (h *Handler) Quote(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	q, err := h.service.Quote(c.Request.Context(), c.GetInt64("user_id"), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.View(c, "owner/pay", q)
}

// Pay charges the given amount, or the quoted fee when the body has none.
// The idempotency key may come from the body or the Idempotency-Key header.
func (h *Handler) Pay(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var body payBody
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
			return
		}
	}
	key := body.IdempotencyKey
	if key == "" {
		key = c.GetHeader("Idempotency-Key")
	}
	if len(key) > MaxIdempotencyKeyLen {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Idempotency key is too long")
		return
	}

	userID := c.GetInt64("user_id")
	var amount decimal.Decimal
	if body.Amount != nil {
		amount = *body.Amount
	} else {
		q, err := h.service.Quote(c.Request.Context(), userID, id)
		if err != nil {
			response.FromError(c, err)
			return
		}
		amount = q.Amount
	}

	p, err := h.service.Pay(c.Request.Context(), userID, id, amount, key)
	if err != nil {
		if errors.Is(err, ErrKeyReused) {
			response.Error(c, http.StatusConflict, "IDEMPOTENCY_KEY_REUSED", err.Error())
			return
		}
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, p)
}

func (h *Handler) Balance(c *gin.Context) {
	bal, err := h.service.Balance(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"balance": bal})
}

func (h *Handler) ListByRequest(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	payments, err := h.service.ListByRequest(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, payments)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid request id")
		return 0, false
	}
	return id, true
}
