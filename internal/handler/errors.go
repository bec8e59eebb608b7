package handler

import (
	"errors"
	"net/http"

	"pto-tracker/internal/service"
	"pto-tracker/pkg/timestamp"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors to status codes. Anything unknown is a
// 500 and gets logged.
func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	var perr *timestamp.DatetimeParseError

	switch {
	case errors.As(err, &verr):
		body := gin.H{"errors": verr.FieldErrors, "non_field_errors": verr.NonField}
		if verr.FieldErrors == nil {
			body["errors"] = gin.H{}
		}
		if verr.NonField == nil {
			body["non_field_errors"] = []string{}
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.As(err, &perr):
		c.JSON(http.StatusBadRequest, gin.H{"error": perr.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient access"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// badRequest answers in the same shape as a ValidationError. An empty field
// puts the message under non_field_errors.
func badRequest(c *gin.Context, field, message string) {
	if field == "" {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{}, "non_field_errors": []string{message}})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"errors":           gin.H{field: message},
		"non_field_errors": []string{},
	})
}
