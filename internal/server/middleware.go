package server

import (
	"context"
	stderrors "errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kapu/dmmymp-go/internal/constants"
	"github.com/kapu/dmmymp-go/internal/service/recaptcha"
	"go.uber.org/zap"
)

const (
	headerRequestID = "X-Request-ID"
	headerRecaptcha = "X-Recaptcha-Token"
	ctxRequestID    = "request_id"
)

// Limiter counts requests per key in a fixed window.
type Limiter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// RequestID tags every request with an id, reusing a valid incoming one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// AccessLog writes one line per request.
func AccessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(ctxRequestID)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			logger.Error("HTTP request", fields...)
		case status >= 400:
			logger.Warn("HTTP request", fields...)
		default:
			logger.Info("HTTP request", fields...)
		}
	}
}

// Recovery turns panics into a 500 response.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("Panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(ctxRequestID)),
		)
		RespondWithError(c, http.StatusInternalServerError, CodeInternal, "An unexpected error occurred.", nil)
	})
}

// RateLimit allows limit requests per client IP per window for the named
// route group. Limiter failures let the request through.
func RateLimit(limiter Limiter, name string, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limit <= 0 {
			c.Next()
			return
		}

		key := constants.CacheKeys.RateLimitPrefix + name + ":" + c.ClientIP()
		count, remaining, err := limiter.IncrWindow(c.Request.Context(), key, window)
		if err != nil {
			logger.Warn("Rate limiter unavailable", zap.String("limiter", name), zap.Error(err))
			c.Next()
			return
		}

		left := int64(limit) - count
		if left < 0 {
			left = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(left, 10))

		if count > int64(limit) {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(remaining.Seconds()))))
			RespondWithError(c, http.StatusTooManyRequests, CodeRateLimited, "Too many requests. Please try again later.", nil)
			return
		}
		c.Next()
	}
}

// Recaptcha requires a valid X-Recaptcha-Token header.
func Recaptcha(verifier CaptchaVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil {
			c.Next()
			return
		}

		err := verifier.Verify(c.Request.Context(), c.GetHeader(headerRecaptcha), c.ClientIP())
		switch {
		case err == nil:
			c.Next()
		case stderrors.Is(err, recaptcha.ErrMissingToken):
			RespondWithError(c, http.StatusBadRequest, CodeRecaptcha, "reCAPTCHA token missing", nil)
		case stderrors.Is(err, recaptcha.ErrVerificationFailed):
			RespondWithError(c, http.StatusForbidden, CodeRecaptcha, "reCAPTCHA verification failed", nil)
		default:
			logger.Error("reCAPTCHA check failed", zap.Error(err))
			RespondWithError(c, http.StatusServiceUnavailable, CodeUnavailable, "reCAPTCHA verification unavailable", nil)
		}
	}
}
