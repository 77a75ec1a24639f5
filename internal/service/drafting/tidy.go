package drafting

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/kapu/dmmymp-go/internal/constants"
	"github.com/kapu/dmmymp-go/internal/prompt"
	"github.com/kapu/dmmymp-go/internal/service/ai"
	"github.com/kapu/dmmymp-go/internal/util"
	"github.com/kapu/dmmymp-go/pkg/errors"
	"go.uber.org/zap"
)

// ErrInvalidOutput is returned when the model produced no usable letter body.
var ErrInvalidOutput = stderrors.New("no valid tidied letter body generated")

type Generator interface {
	Generate(ctx context.Context, req ai.Request) (*ai.Result, error)
}

type TidyRequest struct {
	Letter  string `json:"letter"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
}

// TidyService rewrites a constituent's draft into a short formal letter body.
type TidyService struct {
	generator Generator
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
	logger    *zap.Logger
}

func NewTidyService(generator Generator, logger *zap.Logger) *TidyService {
	return &TidyService{
		generator: generator,
		now:       time.Now,
		sleep:     sleepCtx,
		logger:    logger,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Tidy returns the dated, rewritten letter.
func (s *TidyService) Tidy(ctx context.Context, req TidyRequest) (string, error) {
	if strings.TrimSpace(req.Letter) == "" || strings.TrimSpace(req.Name) == "" ||
		strings.TrimSpace(req.Address) == "" || strings.TrimSpace(req.Email) == "" {
		return "", errors.NewValidationError("Missing required fields.", "letter", nil)
	}

	userPrompt, err := prompt.BuildTidyPrompt(req.Letter)
	if err != nil {
		return "", err
	}

	aiReq := ai.Request{
		System:      constants.AIConfig.TidySystemPrompt,
		Prompt:      userPrompt,
		MaxTokens:   constants.AIConfig.TidyMaxTokens,
		Temperature: constants.AIConfig.TidyTemperature,
	}

	var (
		result  *ai.Result
		lastErr error
	)
	for attempt := 1; attempt <= constants.AIConfig.MaxAttempts; attempt++ {
		result, lastErr = s.generator.Generate(ctx, aiReq)
		if lastErr == nil {
			break
		}

		s.logger.Warn("Tidy attempt failed", zap.Int("attempt", attempt), zap.Error(lastErr))

		if ai.IsRateLimited(lastErr) {
			if err := s.sleep(ctx, time.Duration(attempt)*constants.AIConfig.RateLimitBackoff); err != nil {
				return "", err
			}
			continue
		}
		if !ai.IsTransient(lastErr) {
			break
		}
	}
	if lastErr != nil {
		return "", fmt.Errorf("tidy letter: %w", lastErr)
	}

	body := strings.TrimSpace(result.Text)
	if len(body) < constants.AIConfig.MinTidiedLength || !strings.Contains(body, ".") {
		return "", ErrInvalidOutput
	}

	s.logger.Info("Letter tidied",
		zap.String("provider", result.Provider),
		zap.Bool("fallback", result.UsedFallback),
		zap.Int("length", len(body)),
	)
	return "\n" + util.FormatUKDate(s.now()) + "\n\n" + body + "\n\n", nil
}
