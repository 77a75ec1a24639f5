package recaptcha

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

var (
	ErrMissingToken       = stderrors.New("reCAPTCHA token missing")
	ErrVerificationFailed = stderrors.New("reCAPTCHA verification failed")
)

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	Score      float64  `json:"score"`
	Action     string   `json:"action"`
	ErrorCodes []string `json:"error-codes"`
}

// Verifier checks tokens against Google's siteverify endpoint.
type Verifier struct {
	httpClient *http.Client
	verifyURL  string
	secret     string
	minScore   float64
	logger     *zap.Logger
}

func NewVerifier(httpClient *http.Client, verifyURL, secret string, minScore float64, logger *zap.Logger) *Verifier {
	return &Verifier{
		httpClient: httpClient,
		verifyURL:  verifyURL,
		secret:     secret,
		minScore:   minScore,
		logger:     logger,
	}
}

// Enabled is false when no secret is configured; Verify then accepts everything.
func (v *Verifier) Enabled() bool {
	return v != nil && v.secret != ""
}

func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) error {
	if !v.Enabled() {
		return nil
	}
	if strings.TrimSpace(token) == "" {
		return ErrMissingToken
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("siteverify request: %w", err)
	}
	defer resp.Body.Close()

	var result siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("siteverify decode: %w", err)
	}

	if !result.Success || result.Score < v.minScore {
		v.logger.Info("reCAPTCHA rejected",
			zap.Bool("success", result.Success),
			zap.Float64("score", result.Score),
			zap.Strings("error_codes", result.ErrorCodes),
		)
		return ErrVerificationFailed
	}
	return nil
}
