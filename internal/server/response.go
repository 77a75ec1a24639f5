package server

import (
	"github.com/gin-gonic/gin"
)

const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeNotFound    = "NOT_FOUND"
	CodeRateLimited = "RATE_LIMITED"
	CodeRecaptcha   = "RECAPTCHA_FAILED"
	CodeTimeout     = "TIMEOUT"
	CodeUpstream    = "UPSTREAM_UNAVAILABLE"
	CodeUnavailable = "SERVICE_UNAVAILABLE"
	CodeInternal    = "INTERNAL_ERROR"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func RespondWithError(c *gin.Context, httpStatus int, code, message string, details any) {
	c.AbortWithStatusJSON(httpStatus, ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	})
}
