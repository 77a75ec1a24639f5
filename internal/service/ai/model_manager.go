package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/kapu/dmmymp-go/internal/constants"
	"github.com/kapu/dmmymp-go/internal/util"
	"github.com/openai/openai-go/v3"
	"go.uber.org/zap"
)

var (
	ErrNotConfigured = stderrors.New("no AI provider configured")
	ErrUnavailable   = stderrors.New("AI service temporarily unavailable")
)

var (
	statusCodeRegex = regexp.MustCompile(`\b(429|5\d{2})\b`)
	geminiCodeRegex = regexp.MustCompile(`"code":\s*(\d{3})`)
)

type ModelManagerConfig struct {
	MistralAPIKey  string
	MistralBaseURL string
	MistralModel   string
	GeminiAPIKey   string
	GeminiModel    string
}

// Result is a completion together with the provider that produced it.
type Result struct {
	Text         string
	Provider     string
	Model        string
	UsedFallback bool
}

// ModelManager routes completions to the primary provider and falls back to
// the secondary one on failure.
type ModelManager struct {
	primary        Provider
	fallback       Provider
	circuitBreaker *util.CircuitBreaker
	logger         *zap.Logger
}

func NewModelManager(ctx context.Context, cfg ModelManagerConfig, logger *zap.Logger) (*ModelManager, error) {
	var providers []Provider

	if mistral := NewMistralProvider(cfg.MistralAPIKey, cfg.MistralBaseURL, cfg.MistralModel, logger); mistral != nil {
		providers = append(providers, mistral)
		logger.Info("Mistral provider enabled", zap.String("model", cfg.MistralModel))
	}

	gemini, err := NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	if err != nil {
		return nil, err
	}
	if gemini != nil {
		providers = append(providers, gemini)
		logger.Info("Gemini provider enabled", zap.String("model", cfg.GeminiModel))
	}

	if len(providers) == 0 {
		logger.Warn("No AI provider configured; letter tidying and suggestions are disabled")
	}

	var primary, fallback Provider
	if len(providers) > 0 {
		primary = providers[0]
	}
	if len(providers) > 1 {
		fallback = providers[1]
	}
	return NewModelManagerWithProviders(primary, fallback, logger), nil
}

// NewModelManagerWithProviders wires explicit providers; fallback may be nil.
func NewModelManagerWithProviders(primary, fallback Provider, logger *zap.Logger) *ModelManager {
	return &ModelManager{
		primary:  primary,
		fallback: fallback,
		circuitBreaker: util.NewCircuitBreaker("ai",
			constants.CircuitBreakerConfig.FailureThreshold,
			constants.CircuitBreakerConfig.ResetTimeout,
			logger,
		),
		logger: logger,
	}
}

func (mm *ModelManager) Enabled() bool {
	return mm != nil && mm.primary != nil
}

// Generate runs req on the primary provider, then the fallback. Each provider
// call is bounded by the AI request timeout.
func (mm *ModelManager) Generate(ctx context.Context, req Request) (*Result, error) {
	if !mm.Enabled() {
		return nil, ErrNotConfigured
	}
	if !mm.circuitBreaker.CanExecute() {
		mm.logger.Warn("AI service unavailable (circuit open)",
			zap.String("state", mm.circuitBreaker.GetState().String()),
		)
		return nil, ErrUnavailable
	}

	res, primaryErr := mm.invoke(ctx, mm.primary, req)
	if primaryErr == nil {
		mm.circuitBreaker.RecordSuccess()
		return &Result{Text: res.Text, Provider: mm.primary.Name(), Model: res.Model}, nil
	}

	if mm.fallback != nil && ctx.Err() == nil {
		mm.logger.Info("Falling back to secondary AI provider",
			zap.String("primary", mm.primary.Name()),
			zap.String("fallback", mm.fallback.Name()),
			zap.Error(primaryErr),
		)
		fres, fallbackErr := mm.invoke(ctx, mm.fallback, req)
		if fallbackErr == nil {
			mm.circuitBreaker.RecordSuccess()
			return &Result{Text: fres.Text, Provider: mm.fallback.Name(), Model: fres.Model, UsedFallback: true}, nil
		}
		mm.recordFailure(primaryErr)
		mm.recordFailure(fallbackErr)
		return nil, fmt.Errorf("%s: %w", mm.fallback.Name(), fallbackErr)
	}

	mm.recordFailure(primaryErr)
	return nil, fmt.Errorf("%s: %w", mm.primary.Name(), primaryErr)
}

func (mm *ModelManager) invoke(ctx context.Context, provider Provider, req Request) (ProviderResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.AIConfig.RequestTimeout)
	defer cancel()
	return provider.Generate(ctx, req)
}

func (mm *ModelManager) recordFailure(err error) {
	if !IsTransient(err) {
		mm.circuitBreaker.Release()
		return
	}
	timeout := constants.CircuitBreakerConfig.ResetTimeout
	if IsRateLimited(err) {
		timeout = constants.CircuitBreakerConfig.RateLimitTimeout
	}
	mm.circuitBreaker.RecordFailure(timeout)
}

func (mm *ModelManager) ResetCircuit() {
	mm.circuitBreaker.Reset()
}

func statusOf(err error) (int, bool) {
	var oaiErr *openai.Error
	if stderrors.As(err, &oaiErr) {
		return oaiErr.StatusCode, true
	}

	// Gemini errors carry the status in the message ("Error 429, ...").
	msg := err.Error()
	if m := geminiCodeRegex.FindStringSubmatch(msg); len(m) > 1 {
		if code, convErr := strconv.Atoi(m[1]); convErr == nil {
			return code, true
		}
	}
	if m := statusCodeRegex.FindStringSubmatch(msg); len(m) > 1 {
		if code, convErr := strconv.Atoi(m[1]); convErr == nil {
			return code, true
		}
	}
	return 0, false
}

// IsRateLimited reports whether err is a provider rate-limit or quota error.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := statusOf(err); ok {
		return code == http.StatusTooManyRequests
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "quota")
}

// IsTransient reports whether retrying err may succeed: timeouts, rate
// limits and 5xx responses.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if stderrors.Is(err, context.Canceled) {
		return false
	}
	if code, ok := statusOf(err); ok {
		return code == http.StatusTooManyRequests || code >= 500
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "connection reset")
}
