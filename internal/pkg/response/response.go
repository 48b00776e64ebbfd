package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"buildinspect/internal/domain"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

// View wraps a view-model with the template identifier the presentation
// layer should render it with.
func View(c *gin.Context, template string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"view":    template,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// CustomError accepts a plain message, an error or a map of field errors.
func CustomError(c *gin.Context, statusCode int, code string, message any) {
	switch m := message.(type) {
	case string:
		Error(c, statusCode, code, m)
	case error:
		Error(c, statusCode, code, m.Error())
	default:
		ErrorWithDetails(c, statusCode, code, http.StatusText(statusCode), m)
	}
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// FromError maps the domain error taxonomy onto HTTP statuses. Anything
// unrecognised is reported as an internal error and attached to the gin
// context so ErrorLogger picks it up.
func FromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		Error(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, domain.ErrInvalidActor):
		Error(c, http.StatusForbidden, "INVALID_ACTOR", err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		Error(c, http.StatusConflict, "INVALID_STATE", err.Error())
	case errors.Is(err, domain.ErrInvalidInspector):
		Error(c, http.StatusUnprocessableEntity, "INVALID_INSPECTOR", err.Error())
	case errors.Is(err, domain.ErrInvalidAmount):
		Error(c, http.StatusBadRequest, "INVALID_AMOUNT", err.Error())
	case errors.Is(err, domain.ErrInvalidFee):
		Error(c, http.StatusBadRequest, "INVALID_FEE", err.Error())
	case errors.Is(err, domain.ErrValidation):
		Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	default:
		_ = c.Error(err)
		Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
