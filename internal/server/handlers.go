package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kapu/dmmymp-go/internal/domain"
	"github.com/kapu/dmmymp-go/internal/service/ai"
	"github.com/kapu/dmmymp-go/internal/service/drafting"
	"github.com/kapu/dmmymp-go/internal/service/postcode"
	"github.com/kapu/dmmymp-go/internal/service/representative"
	"github.com/kapu/dmmymp-go/pkg/errors"
	"go.uber.org/zap"
)

type RepresentativeService interface {
	Lookup(ctx context.Context, postcode string) (*domain.Representative, error)
}

type ProfileService interface {
	Get(ctx context.Context, name, constituency string) (*domain.EngagementProfile, error)
}

type TidyService interface {
	Tidy(ctx context.Context, req drafting.TidyRequest) (string, error)
}

type SuggestionService interface {
	Suggest(ctx context.Context, issue, constituency string) (*drafting.Suggestion, error)
}

type LetterStore interface {
	Insert(ctx context.Context, sub domain.LetterSubmission) error
	Engagement(ctx context.Context) (*domain.EngagementStats, error)
}

// Pinger is a dependency reported by /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type handlers struct {
	reps        RepresentativeService
	profiles    ProfileService
	tidy        TidyService
	suggestions SuggestionService
	letters     LetterStore
	pingers     map[string]Pinger
	logger      *zap.Logger
}

func (h *handlers) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	checks := make(map[string]string, len(h.pingers))
	for name, p := range h.pingers {
		if err := p.Ping(ctx); err != nil {
			checks[name] = err.Error()
			status = "degraded"
			continue
		}
		checks[name] = "ok"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "checks": checks})
}

func (h *handlers) getRepresentative(c *gin.Context) {
	pc := postcode.Normalize(c.Query("postcode"))
	if pc == "" {
		RespondWithError(c, http.StatusBadRequest, CodeValidation, "No postcode provided", nil)
		return
	}

	rep, err := h.reps.Lookup(c.Request.Context(), pc)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"mpDetails":      representative.Details(rep),
			"representative": rep,
		})
	case stderrors.Is(err, postcode.ErrPostcodeNotFound):
		RespondWithError(c, http.StatusNotFound, CodeNotFound, "Invalid postcode or service unavailable", nil)
	case stderrors.Is(err, postcode.ErrNoConstituency):
		RespondWithError(c, http.StatusNotFound, CodeNotFound, "No constituency found for this postcode", nil)
	case stderrors.Is(err, postcode.ErrTimeout), stderrors.Is(err, context.DeadlineExceeded):
		RespondWithError(c, http.StatusGatewayTimeout, CodeTimeout, "Request timed out", nil)
	default:
		h.logger.Error("Representative lookup failed", zap.String("postcode", pc), zap.Error(err))
		_ = c.Error(err)
		RespondWithError(c, http.StatusInternalServerError, CodeInternal, "Failed to fetch MP data", nil)
	}
}

func (h *handlers) getStats(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	constituency := strings.TrimSpace(c.Query("constituency"))
	if name == "" || constituency == "" {
		RespondWithError(c, http.StatusBadRequest, CodeValidation, "Missing name or constituency", nil)
		return
	}

	profile, err := h.profiles.Get(c.Request.Context(), name, constituency)
	if err != nil {
		_ = c.Error(err)
		var unavailable *errors.SourceUnavailableError
		if stderrors.As(err, &unavailable) {
			RespondWithError(c, http.StatusBadGateway, CodeUpstream, "Failed to fetch MP stats",
				gin.H{"source": unavailable.Source, "reason": unavailable.Message})
			return
		}
		h.logger.Error("Profile derivation failed",
			zap.String("name", name),
			zap.String("constituency", constituency),
			zap.Error(err),
		)
		RespondWithError(c, http.StatusInternalServerError, CodeInternal, "Failed to fetch MP stats", nil)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *handlers) tidyLetter(c *gin.Context) {
	var req drafting.TidyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, CodeValidation, "Missing required fields.", gin.H{"reason": err.Error()})
		return
	}

	tidied, err := h.tidy.Tidy(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		h.respondDraftingError(c, err, "An unexpected error occurred.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tidiedLetter": tidied})
}

type suggestionRequest struct {
	Issue        string `json:"issue"`
	Constituency string `json:"constituency"`
}

func (h *handlers) getSuggestions(c *gin.Context) {
	var req suggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, CodeValidation, "Issue and constituency are required.", gin.H{"reason": err.Error()})
		return
	}

	suggestion, err := h.suggestions.Suggest(c.Request.Context(), req.Issue, req.Constituency)
	if err != nil {
		_ = c.Error(err)
		if stderrors.Is(err, drafting.ErrNoSuggestion) {
			RespondWithError(c, http.StatusInternalServerError, CodeInternal, "No suggestions generated.", nil)
			return
		}
		h.respondDraftingError(c, err, "Failed to generate suggestions.")
		return
	}
	c.JSON(http.StatusOK, suggestion)
}

func (h *handlers) respondDraftingError(c *gin.Context, err error, fallback string) {
	var validation *errors.ValidationError
	switch {
	case stderrors.As(err, &validation):
		RespondWithError(c, http.StatusBadRequest, CodeValidation, validation.Message, nil)
	case stderrors.Is(err, ai.ErrNotConfigured), stderrors.Is(err, ai.ErrUnavailable):
		RespondWithError(c, http.StatusServiceUnavailable, CodeUnavailable, "Letter assistant is temporarily unavailable.", nil)
	default:
		h.logger.Error("Drafting request failed", zap.Error(err))
		RespondWithError(c, http.StatusInternalServerError, CodeInternal, fallback, nil)
	}
}

func (h *handlers) insertLetter(c *gin.Context) {
	var sub domain.LetterSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		RespondWithError(c, http.StatusBadRequest, CodeValidation, "Invalid letter payload", gin.H{"reason": err.Error()})
		return
	}

	if err := h.letters.Insert(c.Request.Context(), sub); err != nil {
		_ = c.Error(err)
		var validation *errors.ValidationError
		if stderrors.As(err, &validation) {
			RespondWithError(c, http.StatusBadRequest, CodeValidation, validation.Message, gin.H{"field": validation.Field})
			return
		}
		RespondWithError(c, http.StatusInternalServerError, CodeInternal, "Failed to save engagement data", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *handlers) getEngagement(c *gin.Context) {
	stats, err := h.letters.Engagement(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		h.logger.Error("Engagement aggregation failed", zap.Error(err))
		RespondWithError(c, http.StatusInternalServerError, CodeInternal, "Failed to fetch engagement data", nil)
		return
	}
	c.JSON(http.StatusOK, stats)
}
