package message

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"buildinspect/internal/domain/identity"
	"buildinspect/internal/pkg/response"
	"buildinspect/internal/pkg/validator"
)

type sendBody struct {
	RecipientID int64  `json:"recipient_id" validate:"required,gt=0"`
	Subject     string `json:"subject" validate:"max=200"`
	Body        string `json:"body" validate:"required"`
}

type replyBody struct {
	Body string `json:"body" validate:"required"`
}

type readBody struct {
	Read *bool `json:"read" validate:"required"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	messages := protected.Group("/messages")
	{
		messages.GET("/inbox", h.Inbox)
		messages.GET("/sent", h.Sent)
		messages.GET("/recipients", h.Recipients)
		messages.GET("/unread", h.UnreadCount)
		messages.POST("", h.Send)
		messages.GET("/:id", h.View)
		messages.POST("/:id/reply", h.Reply)
		messages.PUT("/:id/read", h.MarkRead)
	}
}

func (h *Handler) Inbox(c *gin.Context) {
	msgs, err := h.service.Inbox(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.View(c, "messages/inbox", gin.H{"messages": msgs})
}

func (h *Handler) Sent(c *gin.Context) {
	msgs, err := h.service.Sent(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, msgs)
}

func (h *Handler) Recipients(c *gin.Context) {
	ps, err := h.service.Recipients(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.View(c, "messages/send", gin.H{"users": identity.NewProfileViews(ps)})
}

func (h *Handler) UnreadCount(c *gin.Context) {
	n, err := h.service.UnreadCount(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"unread": n})
}

func (h *Handler) Send(c *gin.Context) {
	var body sendBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(body); errs != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", errs)
		return
	}

	m, err := h.service.Send(c.Request.Context(), c.GetInt64("user_id"), SendInput{
		RecipientID: body.RecipientID,
		Subject:     body.Subject,
		Body:        body.Body,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, m)
}

func (h *Handler) View(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	m, err := h.service.View(c.Request.Context(), c.GetInt64("user_id"), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.View(c, "messages/view", gin.H{"msg": m})
}

func (h *Handler) Reply(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var body replyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(body); errs != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", errs)
		return
	}

	m, err := h.service.Reply(c.Request.Context(), c.GetInt64("user_id"), id, body.Body)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, m)
}

func (h *Handler) MarkRead(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var body readBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(body); errs != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", errs)
		return
	}

	m, err := h.service.MarkRead(c.Request.Context(), c.GetInt64("user_id"), id, *body.Read)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, m)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid message id")
		return 0, false
	}
	return id, true
}
